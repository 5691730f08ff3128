package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// ChunkRepository handles persistence and vector search over transcript
// chunk embeddings.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// ReplaceChunks swaps the chunk set of a video atomically: existing rows
// are deleted and the new ones inserted in one transaction, so reprocessing
// never leaves a mixed chunk set behind.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, videoID string, chunks []domain.EmbeddedChunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE video_id = $1`, videoID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, c := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunks
				(video_id, chunk_index, content, source, start_seconds, end_seconds, duration_seconds, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			videoID, i, c.Content, c.Source, c.Start, c.End, c.Duration,
			pgvector.NewVector(c.Embedding), now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Search returns the k chunks nearest to the query embedding by cosine
// distance. An empty videoID searches across all videos.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, videoID string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	vec := pgvector.NewVector(embedding)

	var rows pgx.Rows
	var err error

	if videoID != "" {
		rows, err = r.pool.Query(ctx,
			`SELECT video_id, content, source, start_seconds, end_seconds, duration_seconds,
			        1.0 / (1.0 + (embedding <=> $1)) AS score
			 FROM chunks
			 WHERE video_id = $2
			 ORDER BY embedding <=> $1
			 LIMIT $3`,
			vec, videoID, k,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT video_id, content, source, start_seconds, end_seconds, duration_seconds,
			        1.0 / (1.0 + (embedding <=> $1)) AS score
			 FROM chunks
			 ORDER BY embedding <=> $1
			 LIMIT $2`,
			vec, k,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(&sc.VideoID, &sc.Content, &sc.Source, &sc.Start, &sc.End, &sc.Duration, &sc.Score); err != nil {
			return nil, err
		}
		results = append(results, sc)
	}

	return results, rows.Err()
}
