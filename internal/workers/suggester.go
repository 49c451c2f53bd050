package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/queue"
	"github.com/taskmind/taskmind/internal/services/ai"
	"github.com/taskmind/taskmind/internal/services/tasks"
)

// SuggestionWorker processes suggestion jobs from the queue
type SuggestionWorker struct {
	service  *tasks.Service
	taskRepo database.TaskRepositoryInterface
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
}

// NewSuggestionWorker creates a new suggestion worker
func NewSuggestionWorker(
	service *tasks.Service,
	taskRepo database.TaskRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *SuggestionWorker {
	return &SuggestionWorker{
		service:  service,
		taskRepo: taskRepo,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessSuggestTaskJob re-runs the suggestion pipeline for a single task
func (w *SuggestionWorker) ProcessSuggestTaskJob(ctx context.Context, job *queue.Job) error {
	if job.TaskID == nil {
		return fmt.Errorf("task_id is required for suggest_task job")
	}

	task, err := w.service.EnrichByID(ctx, *job.TaskID, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to enrich task: %w", err)
	}

	w.logger.Info("task_suggestion_updated",
		zap.String("task_id", task.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int("priority_score", task.PriorityScore),
	)
	return nil
}

// ProcessReprocessUserJob re-runs the suggestion pipeline for every open
// task a user has. Per-task failures are logged and skipped so one bad task
// does not block the rest.
func (w *SuggestionWorker) ProcessReprocessUserJob(ctx context.Context, job *queue.Job) error {
	ids, err := w.taskRepo.GetIDsByUserID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to get task ids: %w", err)
	}

	processed := 0
	for _, id := range ids {
		if _, err := w.service.EnrichByID(ctx, id, job.UserID); err != nil {
			w.logger.Warn("task_reprocess_failed",
				zap.String("task_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	w.logger.Info("user_reprocessed",
		zap.String("user_id", job.UserID.String()),
		zap.Int("total", len(ids)),
		zap.Int("processed", processed),
	)
	return nil
}

// ProcessJob processes a job based on its type
func (w *SuggestionWorker) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	if !job.ShouldProcess() {
		w.logger.Debug("job_not_ready",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Error("job_ack_failed", zap.Error(ackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeSuggestTask:
		if err := w.ProcessSuggestTaskJob(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeReprocessUser:
		if err := w.ProcessReprocessUserJob(ctx, job); err != nil {
			// Reprocess jobs are best-effort, never requeued
			if nackErr := msg.Nack(false); nackErr != nil {
				w.logger.Error("job_nack_failed", zap.Error(nackErr))
			}
			return fmt.Errorf("reprocessing failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack reprocessing job: %w", ackErr)
		}
		return nil

	default:
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError applies retry logic based on the kind of failure. Quota
// and rate limit errors are re-enqueued with a delay via the delayed
// exchange; other errors use the standard retry budget.
func (w *SuggestionWorker) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if ai.IsQuotaError(err) || ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && w.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := &queue.Job{
				ID:         job.ID,
				Type:       job.Type,
				UserID:     job.UserID,
				TaskID:     job.TaskID,
				NotBefore:  &notBefore,
				NotAfter:   job.NotAfter,
				Metadata:   job.Metadata,
				CreatedAt:  job.CreatedAt,
				RetryCount: job.RetryCount + 1,
				MaxRetries: job.MaxRetries,
			}

			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Error("job_ack_failed", zap.Error(ackErr))
			}

			if enqueueErr := w.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				w.logger.Error("job_reenqueue_failed",
					zap.String("job_id", job.ID.String()),
					zap.Error(enqueueErr),
				)
				return fmt.Errorf("failed to re-enqueue after llm backoff: %w", enqueueErr)
			}

			w.logger.Warn("job_delayed_for_llm_backoff",
				zap.String("job_id", job.ID.String()),
				zap.Duration("retry_delay", retryDelay),
				zap.Int("retry_count", delayedJob.RetryCount),
			)
			return nil
		}

		// Retry budget spent, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("llm backoff exhausted retries (job %s): %w", job.ID, err)
	}

	if job.CanRetry() {
		job.IncrementRetry()
		w.logger.Warn("job_failed_will_retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	w.logger.Error("job_failed_sending_to_dlq",
		zap.String("job_id", job.ID.String()),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		w.logger.Error("job_nack_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
