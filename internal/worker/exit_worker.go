package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ExitWorker consumes persist_exits_queue in batches: each batch is
// appended to the exit_events audit table and folded into the
// submissions' exit counters. The live counter in Redis is already
// incremented; this is the durable write-through.
type ExitWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewExitWorker creates a new ExitWorker.
func NewExitWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ExitWorker {
	return &ExitWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "exit_worker").Logger(),
	}
}

type exitPayload struct {
	SubmissionID string    `json:"submission_id"`
	ExamID       string    `json:"exam_id"`
	Source       string    `json:"source"`
	RecordedAt   time.Time `json:"recorded_at"`
}

func (w *ExitWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]*exitPayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistExitsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Timeout, loop back to check flush timer.
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload exitPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts the bulk path, then falls back to row-by-row.
func (w *ExitWorker) flushSafe(ctx context.Context, batch []*exitPayload) {
	if err := w.bulkPersist(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk persist failed, attempting row-by-row recovery")
		w.fallbackPersist(ctx, batch)
	}
}

// bulkPersist writes the whole batch in one transaction: a CopyFrom
// into exit_events plus a single UNNEST update applying the per
// submission deltas to exit_count.
func (w *ExitWorker) bulkPersist(ctx context.Context, batch []*exitPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	deltas := make(map[uuid.UUID]int, len(batch))

	for _, p := range batch {
		submissionID, err := uuid.Parse(p.SubmissionID)
		if err != nil {
			return err
		}
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{submissionID, examID, p.Source, p.RecordedAt})
		deltas[submissionID]++
	}

	ids := make([]uuid.UUID, 0, len(deltas))
	counts := make([]int, 0, len(deltas))
	for id, delta := range deltas {
		ids = append(ids, id)
		counts = append(counts, delta)
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"exit_events"},
		[]string{"submission_id", "exam_id", "source", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE submissions
		 SET exit_count = exit_count + d.delta
		 FROM (SELECT UNNEST($1::uuid[]) AS id, UNNEST($2::int[]) AS delta) d
		 WHERE submissions.id = d.id`,
		ids, counts,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (w *ExitWorker) fallbackPersist(ctx context.Context, batch []*exitPayload) {
	requeueList := make([]*exitPayload, 0)

	for _, p := range batch {
		submissionID, err := uuid.Parse(p.SubmissionID)
		if err != nil {
			w.log.Error().Str("submission_id", p.SubmissionID).Msg("Dropping exit event with invalid UUID")
			continue
		}
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			w.log.Error().Str("exam_id", p.ExamID).Msg("Dropping exit event with invalid UUID")
			continue
		}

		_, err = w.pool.Exec(ctx,
			`WITH inserted AS (
			   INSERT INTO exit_events (submission_id, exam_id, source, recorded_at)
			   VALUES ($1, $2, $3, $4)
			 )
			 UPDATE submissions SET exit_count = exit_count + 1 WHERE id = $1`,
			submissionID, examID, p.Source, p.RecordedAt,
		)
		if err != nil {
			w.log.Error().Err(err).Str("submission_id", p.SubmissionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ExitWorker) requeue(ctx context.Context, items []*exitPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistExitsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Avoid thrashing while the DB is down.
		time.Sleep(2 * time.Second)
	}
}

func (w *ExitWorker) shutdown(buffer []*exitPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
