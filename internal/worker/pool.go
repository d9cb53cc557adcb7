package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ventarapida/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlertas = "jobs:alerta_stock"

	JobAlertaStock = "alerta_stock"

	// MaxIntentos is how many times a job runs before it is dead-lettered.
	MaxIntentos = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes the payload of one job type. A returned error schedules
// a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// ErrPayloadInvalido marks a job that can never succeed; it goes straight to
// the dead letter queue.
var ErrPayloadInvalido = errors.New("payload invalido")

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAlertaStock pushes a low-stock notification job.
func (d *Dispatcher) EnqueueAlertaStock(ctx context.Context, payload AlertaStockPayload) error {
	return d.enqueue(ctx, QueueAlertas, JobAlertaStock, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	dlq      *DLQ
	handlers map[string]Handler
	queues   []string
	// espera is the pause after a Redis error other than an empty poll.
	espera time.Duration
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	return &Pool{
		rdb:      rdb,
		dlq:      NewDLQ(rdb),
		handlers: handlers,
		queues:   []string{QueueAlertas},
		espera:   2 * time.Second,
	}
}

// Start launches numWorkers goroutines. Each one blocks on BRPOP (zero CPU
// when idle) and exits when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			if err != nil {
				log.Warn().Err(err).Int("worker", id).Msg("redis no disponible, reintentando")
				p.esperar(ctx)
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], []byte(result[1]))
		}
	}
}

func (p *Pool) esperar(ctx context.Context) {
	t := time.NewTimer(p.espera)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Pool) process(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.dlq.Enviar(ctx, queue, "", raw, err.Error(), 0)
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		p.dlq.Enviar(ctx, queue, job.Type, job.Payload, "sin handler para el tipo de job", job.Attempts)
		metrics.Jobs.WithLabelValues(job.Type, "dlq").Inc()
		return
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		metrics.Jobs.WithLabelValues(job.Type, "ok").Inc()
		return
	}

	job.Attempts++
	if errors.Is(err, ErrPayloadInvalido) || job.Attempts >= MaxIntentos {
		p.dlq.Enviar(ctx, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		metrics.Jobs.WithLabelValues(job.Type, "dlq").Inc()
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeued")
	metrics.Jobs.WithLabelValues(job.Type, "retry").Inc()
	if err := push(ctx, p.rdb, queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to requeue job")
	}
}
