package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

var ErrVideoJobNotFound = errors.New("video job not found")

// VideoJobRepository handles persistence of video processing jobs. A
// partial unique index on video_id over non-terminal jobs keeps enqueueing
// idempotent per video.
type VideoJobRepository struct {
	db dbtx
}

func NewVideoJobRepository(pool *pgxpool.Pool) *VideoJobRepository {
	return &VideoJobRepository{db: pool}
}

func NewVideoJobRepositoryWithTx(tx pgx.Tx) *VideoJobRepository {
	return &VideoJobRepository{db: tx}
}

// Enqueue creates a pending job for the video. When a pending or running
// job for the same video already exists, the insert is a no-op.
func (r *VideoJobRepository) Enqueue(ctx context.Context, videoID string) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO video_jobs (id, video_id, status, retries, created_at, updated_at)
		 VALUES ($1, $2, $3, 0, $4, $4)
		 ON CONFLICT (video_id) WHERE status IN ('pending', 'running') DO NOTHING`,
		uuid.NewString(), videoID, domain.VideoJobStatusPending, now,
	)
	return err
}

// ClaimPending atomically moves up to limit pending jobs to running and
// returns them. Concurrent workers never claim the same job.
func (r *VideoJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.VideoJob, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM video_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE video_jobs
		 SET status = $3,
		     last_error = NULL,
		     updated_at = $4
		 FROM cte
		 WHERE video_jobs.id = cte.id
		 RETURNING video_jobs.id, video_jobs.video_id, video_jobs.status,
		           video_jobs.retries, video_jobs.last_error, video_jobs.created_at, video_jobs.updated_at`,
		domain.VideoJobStatusPending, limit, domain.VideoJobStatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVideoJobRows(rows)
}

func (r *VideoJobRepository) GetByID(ctx context.Context, id string) (*domain.VideoJob, error) {
	var job domain.VideoJob
	var lastError pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, video_id, status, retries, last_error, created_at, updated_at
		 FROM video_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.VideoID, &job.Status, &job.Retries, &lastError, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoJobNotFound
		}
		return nil, err
	}
	if lastError.Valid {
		job.LastError = lastError.String
	}
	return &job, nil
}

func (r *VideoJobRepository) UpdateStatus(ctx context.Context, id string, status domain.VideoJobStatus, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE video_jobs SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrVideoJobNotFound
	}
	return nil
}

func (r *VideoJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE video_jobs SET retries = retries + 1, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrVideoJobNotFound
	}
	return nil
}

// Requeue returns a running job to pending so a later poll retries it.
func (r *VideoJobRepository) Requeue(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, domain.VideoJobStatusPending, "")
}

func scanVideoJobRows(rows pgx.Rows) ([]*domain.VideoJob, error) {
	var jobs []*domain.VideoJob
	for rows.Next() {
		var job domain.VideoJob
		var lastError pgtype.Text
		if err := rows.Scan(&job.ID, &job.VideoID, &job.Status, &job.Retries, &lastError, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		if lastError.Valid {
			job.LastError = lastError.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}
