package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// VideoRepository handles persistence of video records. Transcript segments
// and descriptions are stored as jsonb alongside the flattened transcript
// text.
type VideoRepository struct {
	db dbtx
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{db: pool}
}

func NewVideoRepositoryWithTx(tx pgx.Tx) *VideoRepository {
	return &VideoRepository{db: tx}
}

func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) error {
	description, err := json.Marshal(v.Description)
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO videos (video_id, url, submitted_at, description, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		v.VideoID, v.URL, v.SubmittedAt, description, v.UpdatedAt,
	)
	return err
}

func (r *VideoRepository) GetByID(ctx context.Context, videoID string) (*domain.Video, error) {
	var v domain.Video
	var transcript, description []byte
	var transcriptText pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT video_id, url, submitted_at, transcript, transcript_text, description, updated_at
		 FROM videos WHERE video_id = $1`,
		videoID,
	).Scan(&v.VideoID, &v.URL, &v.SubmittedAt, &transcript, &transcriptText, &description, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	if transcriptText.Valid {
		v.TranscriptText = transcriptText.String
	}
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &v.Transcript); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
	}
	if len(description) > 0 {
		if err := json.Unmarshal(description, &v.Description); err != nil {
			return nil, fmt.Errorf("failed to decode description: %w", err)
		}
	}
	return &v, nil
}

func (r *VideoRepository) UpdateTranscript(ctx context.Context, videoID string, segments []domain.TranscriptSegment, text string) error {
	transcript, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE videos SET transcript = $1, transcript_text = $2, updated_at = $3 WHERE video_id = $4`,
		transcript, text, time.Now().UTC(), videoID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *VideoRepository) UpdateDescription(ctx context.Context, videoID string, description domain.VideoDescription) error {
	encoded, err := json.Marshal(description)
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE videos SET description = $1, updated_at = $2 WHERE video_id = $3`,
		encoded, time.Now().UTC(), videoID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}
