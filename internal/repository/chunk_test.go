//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/testutil"
)

// testEmbedding builds a 1536-dim unit-ish vector dominated by one axis so
// cosine ordering in tests is predictable.
func testEmbedding(axis int) []float32 {
	v := make([]float32, 1536)
	for i := range v {
		v[i] = 0.001
	}
	v[axis] = 1.0
	return v
}

func embeddedChunk(content string, start, end float64, embedding []float32) domain.EmbeddedChunk {
	return domain.EmbeddedChunk{
		Chunk: domain.Chunk{
			Content:  content,
			Source:   "youtube_transcript",
			Start:    start,
			End:      end,
			Duration: end - start,
		},
		Embedding: embedding,
	}
}

func TestChunkRepository_ReplaceChunksAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	videoRepo := NewVideoRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	video := newTestVideo("dQw4w9WgXcQ")
	require.NoError(t, videoRepo.Create(ctx, video))

	chunks := []domain.EmbeddedChunk{
		embeddedChunk("the mitochondria is the powerhouse", 0, 10, testEmbedding(0)),
		embeddedChunk("of the cell and produces energy", 8, 20, testEmbedding(1)),
		embeddedChunk("unrelated closing remarks", 18, 30, testEmbedding(2)),
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, video.VideoID, chunks))

	results, err := chunkRepo.Search(ctx, testEmbedding(1), video.VideoID, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "of the cell and produces energy", results[0].Content)
	assert.Equal(t, video.VideoID, results[0].VideoID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.InDelta(t, 1.0, float64(results[0].Score), 0.01)
}

func TestChunkRepository_ReplaceChunks_SwapsAtomically(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	videoRepo := NewVideoRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	video := newTestVideo("abc123def45")
	require.NoError(t, videoRepo.Create(ctx, video))

	first := []domain.EmbeddedChunk{
		embeddedChunk("old chunk one", 0, 10, testEmbedding(0)),
		embeddedChunk("old chunk two", 10, 20, testEmbedding(1)),
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, video.VideoID, first))

	second := []domain.EmbeddedChunk{
		embeddedChunk("new chunk", 0, 15, testEmbedding(2)),
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, video.VideoID, second))

	results, err := chunkRepo.Search(ctx, testEmbedding(0), video.VideoID, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new chunk", results[0].Content)
}

func TestChunkRepository_Search_FiltersByVideo(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	videoRepo := NewVideoRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	videoA := newTestVideo("aaaaaaaaaaa")
	videoB := newTestVideo("bbbbbbbbbbb")
	require.NoError(t, videoRepo.Create(ctx, videoA))
	require.NoError(t, videoRepo.Create(ctx, videoB))

	require.NoError(t, chunkRepo.ReplaceChunks(ctx, videoA.VideoID, []domain.EmbeddedChunk{
		embeddedChunk("content in video a", 0, 10, testEmbedding(0)),
	}))
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, videoB.VideoID, []domain.EmbeddedChunk{
		embeddedChunk("content in video b", 0, 10, testEmbedding(0)),
	}))

	scoped, err := chunkRepo.Search(ctx, testEmbedding(0), videoA.VideoID, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, videoA.VideoID, scoped[0].VideoID)

	global, err := chunkRepo.Search(ctx, testEmbedding(0), "", 10)
	require.NoError(t, err)
	assert.Len(t, global, 2)
}

func TestChunkRepository_Search_Empty(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	chunkRepo := NewChunkRepository(pool)

	results, err := chunkRepo.Search(ctx, testEmbedding(0), "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
