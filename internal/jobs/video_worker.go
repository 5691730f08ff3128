package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3

	// claimBatchSize bounds how many jobs one poll claims
	claimBatchSize = 10
)

// VideoJobRepository defines the interface for video job persistence
type VideoJobRepository interface {
	// ClaimPending atomically claims up to limit pending jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.VideoJob, error)

	// UpdateStatus updates the status of a video job
	UpdateStatus(ctx context.Context, id string, status domain.VideoJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// VideoProcessor runs the transcript pipeline for one video
type VideoProcessor interface {
	Process(ctx context.Context, videoID string) error
}

// VideoWorker processes video transcript jobs
type VideoWorker struct {
	repo      VideoJobRepository
	processor VideoProcessor
}

// NewVideoWorker creates a new VideoWorker instance
func NewVideoWorker(repo VideoJobRepository, processor VideoProcessor) *VideoWorker {
	return &VideoWorker{
		repo:      repo,
		processor: processor,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *VideoWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending video jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *VideoWorker) processJob(ctx context.Context, job *domain.VideoJob) error {
	log.Printf("Processing job %s for video %s", job.ID, job.VideoID)

	if err := w.processor.Process(ctx, job.VideoID); err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.VideoJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *VideoWorker) handleJobFailure(ctx context.Context, job *domain.VideoJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.VideoJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.VideoJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
