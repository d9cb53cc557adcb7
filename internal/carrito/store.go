package carrito

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps carts between requests, keyed by session id.
// Cargar returns an empty cart for unknown sessions.
type Store interface {
	Cargar(ctx context.Context, sesion string) (*Carrito, error)
	Guardar(ctx context.Context, sesion string, c *Carrito) error
	// Modificar applies fn to the stored cart and saves the result as one
	// atomic step; concurrent edits of the same session are not lost.
	Modificar(ctx context.Context, sesion string, fn func(*Carrito)) (*Carrito, error)
	Limpiar(ctx context.Context, sesion string) error
}

// ErrCarritoOcupado is returned when a cart kept changing under Modificar.
var ErrCarritoOcupado = errors.New("carrito: modificado concurrentemente, intente nuevamente")

// ── Redis ───────────────────────────────────────────────────────────────────

const (
	redisPrefix = "carrito:"
	// maxIntentosWatch bounds optimistic retries of Modificar.
	maxIntentosWatch = 10
)

// RedisStore serializes carts as JSON under carrito:<sesion>; every save
// refreshes the TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Cargar(ctx context.Context, sesion string) (*Carrito, error) {
	return leer(ctx, s.rdb, sesion)
}

func leer(ctx context.Context, cmd redis.Cmdable, sesion string) (*Carrito, error) {
	raw, err := cmd.Get(ctx, redisPrefix+sesion).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Carrito{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("carrito: leer %s: %w", sesion, err)
	}
	var c Carrito
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("carrito: decodificar %s: %w", sesion, err)
	}
	return &c, nil
}

func (s *RedisStore) Guardar(ctx context.Context, sesion string, c *Carrito) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisPrefix+sesion, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("carrito: guardar %s: %w", sesion, err)
	}
	return nil
}

// Modificar runs fn inside WATCH/MULTI on the cart key and retries when
// another request wrote the key first.
func (s *RedisStore) Modificar(ctx context.Context, sesion string, fn func(*Carrito)) (*Carrito, error) {
	key := redisPrefix + sesion
	var resultado *Carrito
	txf := func(tx *redis.Tx) error {
		c, err := leer(ctx, tx, sesion)
		if err != nil {
			return err
		}
		fn(c)
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err == nil {
			resultado = c
		}
		return err
	}

	for i := 0; i < maxIntentosWatch; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return resultado, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("carrito: modificar %s: %w", sesion, err)
		}
	}
	return nil, ErrCarritoOcupado
}

func (s *RedisStore) Limpiar(ctx context.Context, sesion string) error {
	return s.rdb.Del(ctx, redisPrefix+sesion).Err()
}

// ── Memory ──────────────────────────────────────────────────────────────────

// MemoryStore is a process-local Store, used in tests and when Redis is not
// configured.
type MemoryStore struct {
	mu       sync.Mutex
	carritos map[string]Carrito
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carritos: make(map[string]Carrito)}
}

func (s *MemoryStore) Cargar(_ context.Context, sesion string) (*Carrito, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.carritos[sesion]
	return &Carrito{Lineas: append([]Linea(nil), c.Lineas...)}, nil
}

func (s *MemoryStore) Guardar(_ context.Context, sesion string, c *Carrito) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carritos[sesion] = Carrito{Lineas: append([]Linea(nil), c.Lineas...)}
	return nil
}

func (s *MemoryStore) Modificar(_ context.Context, sesion string, fn func(*Carrito)) (*Carrito, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.carritos[sesion]
	nuevo := &Carrito{Lineas: append([]Linea(nil), c.Lineas...)}
	fn(nuevo)
	s.carritos[sesion] = Carrito{Lineas: append([]Linea(nil), nuevo.Lineas...)}
	return nuevo, nil
}

func (s *MemoryStore) Limpiar(_ context.Context, sesion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carritos, sesion)
	return nil
}
