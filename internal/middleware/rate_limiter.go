package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ventarapida/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Fixed-window limiter keyed by client IP. With Redis the window is shared by
// every instance; without it, or while Redis is unreachable, each process
// counts on its own.

const rateKeyPrefix = "ratelimit:"

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter(rdb *redis.Client) gin.HandlerFunc {
	return limitar(rdb, "login", 20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter limits every API request to limit per window per IP.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return limitar(rdb, "api", limit, window, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}

func limitar(rdb *redis.Client, nombre string, limit int, window time.Duration, mensaje string) gin.HandlerFunc {
	local := newVentanas()
	return func(c *gin.Context) {
		clave := nombre + ":" + c.ClientIP()

		count, reset, err := contarRedis(c.Request.Context(), rdb, clave, window)
		if err != nil {
			if rdb != nil {
				log.Warn().Err(err).Str("limitador", nombre).Msg("rate limiter sin redis, usando contador local")
			}
			count, reset = local.contar(clave, window)
		}

		if count > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(time.Until(reset).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(mensaje))
			return
		}
		c.Next()
	}
}

var errSinRedis = errors.New("redis no configurado")

func contarRedis(ctx context.Context, rdb *redis.Client, clave string, window time.Duration) (int64, time.Time, error) {
	if rdb == nil {
		return 0, time.Time{}, errSinRedis
	}
	key := rateKeyPrefix + clave
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return incr.Val(), time.Now().Add(ttl.Val()), nil
}

// ── Local fallback ──────────────────────────────────────────────────────────

type ventana struct {
	count int64
	fin   time.Time
}

type ventanas struct {
	mu      sync.Mutex
	entries map[string]*ventana
	ultima  time.Time
}

func newVentanas() *ventanas {
	return &ventanas{entries: make(map[string]*ventana)}
}

func (v *ventanas) contar(clave string, window time.Duration) (int64, time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	if now.Sub(v.ultima) > 5*time.Minute {
		for k, e := range v.entries {
			if now.After(e.fin) {
				delete(v.entries, k)
			}
		}
		v.ultima = now
	}

	e, ok := v.entries[clave]
	if !ok || now.After(e.fin) {
		e = &ventana{fin: now.Add(window)}
		v.entries[clave] = e
	}
	e.count++
	return e.count, e.fin
}
