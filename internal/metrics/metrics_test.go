package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_ObservaPorRuta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/v1/productos/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", Handler())

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/productos/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(RequestDuration, "ventarapida_http_request_duration_seconds"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/v1/productos/:id"`)
}

func TestCheckouts_CuentaPorResultado(t *testing.T) {
	antes := testutil.ToFloat64(Checkouts.WithLabelValues("completada"))
	Checkouts.WithLabelValues("completada").Inc()
	assert.Equal(t, antes+1, testutil.ToFloat64(Checkouts.WithLabelValues("completada")))
}
