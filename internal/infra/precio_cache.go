package infra

import (
	"context"
	"encoding/json"
	"time"

	"ventarapida/internal/dto"

	"github.com/redis/go-redis/v9"
)

const precioPrefix = "precio:"

// PrecioCache keeps the public price-check payload in Redis. A nil client
// turns every call into a no-op / miss.
type PrecioCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPrecioCache(rdb *redis.Client, ttl time.Duration) *PrecioCache {
	return &PrecioCache{rdb: rdb, ttl: ttl}
}

func (c *PrecioCache) Obtener(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, precioPrefix+codigo).Bytes()
	if err != nil {
		return nil, false
	}
	var resp dto.ConsultaPreciosResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// Guardar is best effort; errors are ignored.
func (c *PrecioCache) Guardar(ctx context.Context, resp *dto.ConsultaPreciosResponse) {
	if c == nil || c.rdb == nil {
		return
	}
	if b, err := json.Marshal(resp); err == nil {
		_ = c.rdb.Set(ctx, precioPrefix+resp.Codigo, b, c.ttl).Err()
	}
}

// Invalidar drops the cached entries of the given codes.
func (c *PrecioCache) Invalidar(ctx context.Context, codigos ...string) {
	if c == nil || c.rdb == nil || len(codigos) == 0 {
		return
	}
	keys := make([]string, len(codigos))
	for i, cod := range codigos {
		keys[i] = precioPrefix + cod
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}
