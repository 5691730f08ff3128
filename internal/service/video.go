package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/youtube"
)

// VideoRepository defines the persistence interface for video records.
type VideoRepository interface {
	GetByID(ctx context.Context, videoID string) (*domain.Video, error)
	Create(ctx context.Context, video *domain.Video) error
	UpdateTranscript(ctx context.Context, videoID string, segments []domain.TranscriptSegment, text string) error
	UpdateDescription(ctx context.Context, videoID string, description domain.VideoDescription) error
}

// VideoJobEnqueuer schedules background processing for a video. Enqueueing
// an id that already has a non-terminal job is a no-op.
type VideoJobEnqueuer interface {
	Enqueue(ctx context.Context, videoID string) error
}

// TranscriptFetcher retrieves the ordered caption segments for a video.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) ([]domain.TranscriptSegment, error)
}

// ChunkRepository persists chunk embeddings keyed by video id.
type ChunkRepository interface {
	ReplaceChunks(ctx context.Context, videoID string, chunks []domain.EmbeddedChunk) error
}

// DescriptionGenerator produces a structured description from transcript text.
type DescriptionGenerator interface {
	Generate(ctx context.Context, transcriptText string) domain.VideoDescription
}

// TranscriptArchiver stores and retrieves the raw transcript payload of a
// video. Fetch reports domain.ErrArchivedTranscriptNotFound for a video
// that was never archived.
type TranscriptArchiver interface {
	Store(ctx context.Context, videoID string, payload []byte) error
	Fetch(ctx context.Context, videoID string) ([]byte, error)
}

// VideoService owns the submit/process pipeline: URL intake, transcript
// fetching, description generation, and chunk embedding.
type VideoService struct {
	videos      VideoRepository
	jobs        VideoJobEnqueuer
	fetcher     TranscriptFetcher
	chunker     *Chunker
	embedding   EmbeddingClient
	chunks      ChunkRepository
	description DescriptionGenerator
	archive     TranscriptArchiver
}

// NewVideoService creates a VideoService. archive may be nil when no raw
// transcript store is configured.
func NewVideoService(
	videos VideoRepository,
	jobs VideoJobEnqueuer,
	fetcher TranscriptFetcher,
	chunker *Chunker,
	embedding EmbeddingClient,
	chunks ChunkRepository,
	description DescriptionGenerator,
	archive TranscriptArchiver,
) *VideoService {
	return &VideoService{
		videos:      videos,
		jobs:        jobs,
		fetcher:     fetcher,
		chunker:     chunker,
		embedding:   embedding,
		chunks:      chunks,
		description: description,
		archive:     archive,
	}
}

// Submit registers a video URL for processing and returns its video id.
// Submission is idempotent at the video_id granularity: resubmitting a
// processed video returns the existing id without re-running the pipeline.
// Resubmitting an unprocessed video re-enqueues it, so a record whose
// first enqueue failed is never stranded; Enqueue itself is a no-op while
// a non-terminal job exists.
func (s *VideoService) Submit(ctx context.Context, rawURL string) (string, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return "", err
	}

	existing, err := s.videos.GetByID(ctx, videoID)
	if err == nil && existing != nil {
		if !existing.Processed() {
			if err := s.jobs.Enqueue(ctx, videoID); err != nil {
				return "", fmt.Errorf("failed to enqueue video processing: %w", err)
			}
		}
		return videoID, nil
	}
	if err != nil && !errors.Is(err, domain.ErrVideoNotFound) {
		return "", fmt.Errorf("failed to look up video: %w", err)
	}

	now := time.Now().UTC()
	video := &domain.Video{
		VideoID:     videoID,
		URL:         rawURL,
		SubmittedAt: now,
		UpdatedAt:   now,
		Description: domain.VideoDescription{Title: domain.DescriptionPending},
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return "", fmt.Errorf("failed to create video record: %w", err)
	}

	if err := s.jobs.Enqueue(ctx, videoID); err != nil {
		return "", fmt.Errorf("failed to enqueue video processing: %w", err)
	}

	return videoID, nil
}

// Process runs the full transcript pipeline for a video: fetch captions,
// store the transcript, generate a description, then chunk, embed, and
// store the chunks. Reprocessing replaces the video's chunk set rather than
// duplicating it. Called by the background worker.
func (s *VideoService) Process(ctx context.Context, videoID string) error {
	if videoID == "" {
		return domain.ErrMissingVideoID
	}

	segments, err := s.fetcher.FetchTranscript(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to fetch transcript: %w", err)
	}
	if len(segments) == 0 {
		return domain.ErrTranscriptNotFound
	}

	text := textify(segments)
	if err := s.videos.UpdateTranscript(ctx, videoID, segments, text); err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}

	description := s.description.Generate(ctx, text)
	if err := s.videos.UpdateDescription(ctx, videoID, description); err != nil {
		return fmt.Errorf("failed to store description: %w", err)
	}

	chunks, err := s.chunker.ProcessTranscript(videoID, segments)
	if err != nil {
		return fmt.Errorf("failed to chunk transcript: %w", err)
	}

	embedded := make([]domain.EmbeddedChunk, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedding.GenerateEmbedding(ctx, chunk.Content)
		if err != nil {
			// One bad chunk must not sink the batch.
			log.Printf("video: embedding failed for chunk %d of video %s, skipping: %v", i, videoID, err)
			continue
		}
		embedded = append(embedded, domain.EmbeddedChunk{Chunk: chunk, Embedding: embedding})
	}

	if err := s.chunks.ReplaceChunks(ctx, videoID, embedded); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	if s.archive != nil {
		payload, err := json.Marshal(segments)
		if err == nil {
			if err := s.archive.Store(ctx, videoID, payload); err != nil {
				log.Printf("video: transcript archive failed for %s: %v", videoID, err)
			}
		}
	}

	return nil
}

// GetTranscript returns the stored plain-text transcript of a video.
func (s *VideoService) GetTranscript(ctx context.Context, videoID string) (string, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return "", err
	}
	if !video.Processed() {
		return "", domain.ErrTranscriptNotFound
	}
	return video.TranscriptText, nil
}

// GetArchivedTranscript returns the raw segment payload kept in the
// transcript archive. Videos submitted while no archive was configured
// report not found.
func (s *VideoService) GetArchivedTranscript(ctx context.Context, videoID string) ([]byte, error) {
	if videoID == "" {
		return nil, domain.ErrMissingVideoID
	}
	if s.archive == nil {
		return nil, domain.ErrArchivedTranscriptNotFound
	}
	return s.archive.Fetch(ctx, videoID)
}

// GetDetails returns the full stored record for a video. When the stored
// description is a recognized error placeholder and a transcript exists,
// the description is regenerated lazily and persisted before returning.
func (s *VideoService) GetDetails(ctx context.Context, videoID string) (*domain.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.Processed() && video.Description.IsPlaceholder() {
		description := s.description.Generate(ctx, video.TranscriptText)
		if !description.IsPlaceholder() {
			if err := s.videos.UpdateDescription(ctx, videoID, description); err != nil {
				return nil, fmt.Errorf("failed to store regenerated description: %w", err)
			}
			video.Description = description
		}
	}

	return video, nil
}

// textify flattens transcript segments to a single space-joined string.
func textify(segments []domain.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}
