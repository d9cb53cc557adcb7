package worker

// dlq.go: Dead Letter Queue
// Jobs that exhaust their attempts are parked in dlq:{original_queue} for
// inspection and can be pushed back with Reencolar.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

type DLQ struct {
	rdb *redis.Client
}

func NewDLQ(rdb *redis.Client) *DLQ { return &DLQ{rdb: rdb} }

// Enviar parks a failed job. Errors are logged, never returned: the job is
// already lost for the pool either way.
func (d *DLQ) Enviar(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := d.rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// Longitud returns the number of parked jobs of queue.
func (d *DLQ) Longitud(ctx context.Context, queue string) (int64, error) {
	return d.rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// Reencolar moves up to n parked jobs back to their queue with a fresh
// attempt count, oldest first, and returns how many were moved.
func (d *DLQ) Reencolar(ctx context.Context, queue string, n int) (int, error) {
	movidos := 0
	for movidos < n {
		raw, err := d.rdb.RPop(ctx, DLQPrefix+queue).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return movidos, err
		}
		var entry DLQEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.JobType == "" {
			log.Error().Str("queue", queue).Msg("dlq: dropping unreadable entry")
			continue
		}
		if err := push(ctx, d.rdb, queue, Job{Type: entry.JobType, Payload: entry.Payload}); err != nil {
			return movidos, err
		}
		movidos++
	}
	return movidos, nil
}
