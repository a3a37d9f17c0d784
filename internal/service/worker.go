package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// JobRunner defines the method the worker needs
type JobRunner interface {
	Run(ctx context.Context, job *model.Job) (any, error)
}

// Worker processes queued campaign jobs
type Worker struct {
	JobRepo repository.JobRepositoryInterface
	Runner  JobRunner
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	// MaxAttempts marks a job failed once it has errored this many times. Zero means DefaultMaxAttempts.
	MaxAttempts int
}

// DefaultMaxAttempts matches one delivery plus the queues' three retries.
const DefaultMaxAttempts = 4

// Constructor
func NewWorker(repo repository.JobRepositoryInterface, runner JobRunner, m *metrics.Metrics, log *zap.Logger) *Worker {
	return &Worker{
		JobRepo: repo,
		Runner:  runner,
		Metrics: m,
		Logger:  log,
	}
}

// Subscribe hands every job id published on the jobs topic to Handle.
func (w *Worker) Subscribe(ctx context.Context, q queue.Queue) error {
	return q.Subscribe(queue.TopicCampaignJobs, func(payload any) error {
		jobID, ok := payload.(string)
		if !ok {
			logger.OrNop(w.Logger).Warn("invalid job payload", zap.Any("payload", payload))
			return nil
		}
		return w.Handle(ctx, jobID)
	})
}

// Handle runs one job. Finished jobs are skipped, so redeliveries are harmless.
// Only transient failures are returned, which makes the queue retry them.
func (w *Worker) Handle(ctx context.Context, jobID string) error {
	log := logger.OrNop(w.Logger).With(zap.String("job_id", jobID))

	job, err := w.JobRepo.GetByID(jobID)
	if err != nil {
		var notFound *appErrors.ErrJobNotFound
		if errors.As(err, &notFound) {
			log.Warn("dropping unknown job")
			return nil
		}
		return err
	}
	if job.Status == model.JobStatusDone || job.Status == model.JobStatusFailed {
		log.Debug("job already finished", zap.String("status", job.Status))
		return nil
	}

	job.Status = model.JobStatusRunning
	if err := w.JobRepo.Update(job); err != nil {
		return err
	}

	result, runErr := w.Runner.Run(ctx, job)
	if runErr == nil {
		body, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode job result: %w", err)
		}
		job.Status = model.JobStatusDone
		job.Result = body
		job.LastError = ""
		w.Metrics.JobProcessed(string(job.Kind), job.Status)
		log.Info("job done", zap.String("kind", string(job.Kind)))
		return w.JobRepo.Update(job)
	}

	job.LastError = runErr.Error()
	job.RetryCount++
	maxAttempts := w.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if Permanent(runErr) || job.RetryCount >= maxAttempts {
		job.Status = model.JobStatusFailed
		log.Warn("job failed", zap.String("kind", string(job.Kind)), zap.Error(runErr))
	} else {
		job.Status = model.JobStatusPending
		log.Warn("job will be retried", zap.String("kind", string(job.Kind)), zap.Int("retry_count", job.RetryCount), zap.Error(runErr))
	}
	w.Metrics.JobProcessed(string(job.Kind), job.Status)
	if err := w.JobRepo.Update(job); err != nil {
		return err
	}
	if job.Status == model.JobStatusFailed {
		return nil
	}
	return runErr
}

// Permanent reports errors that retrying cannot fix.
func Permanent(err error) bool {
	var (
		validation *appErrors.ValidationError
		transition *appErrors.InvalidTransitionError
		config     *appErrors.ConfigError
		campaign   *appErrors.ErrCampaignNotFound
	)
	return IsZeroInput(err) ||
		errors.As(err, &validation) ||
		errors.As(err, &transition) ||
		errors.As(err, &config) ||
		errors.As(err, &campaign)
}
