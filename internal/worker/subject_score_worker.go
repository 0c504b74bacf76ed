package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/scholaris/cbt-backend/internal/config"
	"github.com/scholaris/cbt-backend/internal/repository"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// SubjectScoreQueue is the enqueue side of the reconciliation queue. The
// grading service pushes here when its direct subject-score write fails.
type SubjectScoreQueue struct {
	rdb *redis.Client
}

// NewSubjectScoreQueue creates a new SubjectScoreQueue.
func NewSubjectScoreQueue(rdb *redis.Client) *SubjectScoreQueue {
	return &SubjectScoreQueue{rdb: rdb}
}

// Enqueue pushes a pending subject-score update onto the queue.
func (q *SubjectScoreQueue) Enqueue(ctx context.Context, update repository.SubjectScoreUpdate) error {
	raw, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.SubjectScoreQueue, raw).Err()
}

// SubjectScoreWorker drains the reconciliation queue and applies queued
// subject-score updates in batches.
type SubjectScoreWorker struct {
	subjects *repository.SubjectRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewSubjectScoreWorker creates a new SubjectScoreWorker.
func NewSubjectScoreWorker(subjects *repository.SubjectRepository, rdb *redis.Client, log zerolog.Logger) *SubjectScoreWorker {
	return &SubjectScoreWorker{
		subjects: subjects,
		rdb:      rdb,
		log:      log.With().Str("component", "subject_score_worker").Logger(),
	}
}

// Start runs the worker loop until the context is cancelled. The remaining
// batch is flushed on shutdown.
func (w *SubjectScoreWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubjectScoreWorker started")

	batch := make([]repository.SubjectScoreUpdate, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, config.WorkerKey.SubjectScoreQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var u repository.SubjectScoreUpdate
			if err := json.Unmarshal([]byte(item[1]), &u); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, u)
		}
	}
}

// flushSafe applies the batch, falling back to per-row updates and requeueing
// whatever still cannot be written.
func (w *SubjectScoreWorker) flushSafe(ctx context.Context, batch []repository.SubjectScoreUpdate) {
	if len(batch) == 0 {
		return
	}

	err := w.subjects.BulkUpdateObjectiveScores(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("subject scores flushed")
		return
	}
	w.log.Warn().Err(err).Msg("bulk subject score update failed, using fallback")

	for _, u := range batch {
		err := w.subjects.UpdateObjectiveScore(ctx, u.StudentID, u.SubjectID, u.Score)
		if err == nil || err == repository.ErrNotFound {
			// Unregistered subjects are dropped, not retried forever.
			continue
		}

		w.log.Error().Err(err).
			Str("student_id", u.StudentID).
			Str("subject_id", u.SubjectID).
			Msg("single update failed, requeueing")
		raw, _ := json.Marshal(u)
		w.rdb.RPush(ctx, config.WorkerKey.SubjectScoreQueue, raw)
	}
}
