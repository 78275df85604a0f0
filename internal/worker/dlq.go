package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that exhaust MaxAttempts, carry no registered handler or cannot be
// decoded land in dlq:{queue}. Entries are pushed on the left, so the right
// end holds the oldest failure.
const DLQPrefix = "dlq:"

// DLQEntry is a dead job plus why it died.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// SendToDLQ records a dead job. A Redis failure is logged; the job is lost.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC(),
		Attempts:      attempts,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("job_type", jobType).Msg("dlq: failed to push entry")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of dead jobs of a queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// DLQStats reports the dead-letter backlog of every job queue.
func DLQStats(ctx context.Context, rdb *redis.Client) (map[string]int64, error) {
	stats := make(map[string]int64, len(Queues))
	for _, q := range Queues {
		n, err := DLQLength(ctx, rdb, q)
		if err != nil {
			return nil, err
		}
		stats[q] = n
	}
	return stats, nil
}

// ListDLQ returns up to limit dead jobs of queue, oldest first.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	raws, err := rdb.LRange(ctx, DLQPrefix+queue, -limit, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]DLQEntry, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var e DLQEntry
		if err := json.Unmarshal([]byte(raws[i]), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dlq: skipping undecodable entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RequeueDLQ moves the dead jobs of queue back onto it with a fresh attempt
// budget. Entries without a known job type stay in the DLQ.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string) (int, error) {
	key := DLQPrefix + queue
	n, err := rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	requeued := 0
	for i := int64(0); i < n; i++ {
		raw, err := rdb.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return requeued, err
		}
		var e DLQEntry
		if json.Unmarshal([]byte(raw), &e) != nil || !jobTypeConocido(e.JobType) {
			if err := rdb.LPush(ctx, key, raw).Err(); err != nil {
				return requeued, err
			}
			continue
		}
		if err := push(ctx, rdb, queue, Job{Type: e.JobType, Payload: e.Payload}); err != nil {
			// Put it back so nothing is lost.
			_ = rdb.RPush(ctx, key, raw).Err()
			return requeued, err
		}
		requeued++
	}
	if requeued > 0 {
		log.Info().Str("queue", queue).Int("requeued", requeued).Msg("dlq: jobs requeued")
	}
	return requeued, nil
}

func jobTypeConocido(t string) bool {
	return t == JobTicketPDF || t == JobEmail
}
