//go:build integration

package carrito

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func redisStore(t *testing.T) *RedisStore {
	t.Helper()
	ctx := context.Background()
	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Hour)
}

func TestRedisStore_ModificarConcurrenteNoPierdeCambios(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()
	p := producto("Trilobite", "20")

	// each writer succeeds once, so no caller loses more than writers-1 rounds
	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Modificar(ctx, "s1", func(c *Carrito) { c.Agregar(p) })
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := s.Cargar(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, c.Lineas, 1)
	assert.True(t, c.Lineas[0].Cantidad.Equal(decimal.NewFromInt(writers)))
	assert.True(t, c.Lineas[0].Subtotal.Equal(decimal.NewFromInt(20*writers)))

	ttl, err := s.rdb.TTL(ctx, redisPrefix+"s1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
