package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(nil, limit, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r http.Handler, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_LocalBloqueaTrasElLimite(t *testing.T) {
	r := limitedRouter(3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	}
	w := hit(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// another client keeps its own window
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2").Code)
}

func TestVentanas_ReiniciaAlVencer(t *testing.T) {
	v := newVentanas()
	n, _ := v.contar("k", time.Millisecond)
	assert.EqualValues(t, 1, n)
	n, _ = v.contar("k", time.Millisecond)
	assert.EqualValues(t, 2, n)

	time.Sleep(5 * time.Millisecond)
	n, _ = v.contar("k", time.Millisecond)
	assert.EqualValues(t, 1, n)
}
