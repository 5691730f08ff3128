//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/testutil"
)

func TestVideoJobRepository_Enqueue_Idempotent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewVideoJobRepository(pool)

	require.NoError(t, repo.Enqueue(ctx, "dQw4w9WgXcQ"))
	require.NoError(t, repo.Enqueue(ctx, "dQw4w9WgXcQ"))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
	assert.Equal(t, "dQw4w9WgXcQ", claimed[0].VideoID)
}

func TestVideoJobRepository_Enqueue_AllowsNewJobAfterCompletion(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewVideoJobRepository(pool)

	require.NoError(t, repo.Enqueue(ctx, "dQw4w9WgXcQ"))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.NoError(t, repo.UpdateStatus(ctx, claimed[0].ID, domain.VideoJobStatusCompleted, ""))

	require.NoError(t, repo.Enqueue(ctx, "dQw4w9WgXcQ"))

	again, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestVideoJobRepository_ClaimPending_MarksRunning(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewVideoJobRepository(pool)

	require.NoError(t, repo.Enqueue(ctx, "aaaaaaaaaaa"))
	require.NoError(t, repo.Enqueue(ctx, "bbbbbbbbbbb"))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	for _, job := range claimed {
		assert.Equal(t, domain.VideoJobStatusRunning, job.Status)
		retrieved, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VideoJobStatusRunning, retrieved.Status)
	}

	// A second claim sees nothing left.
	again, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestVideoJobRepository_ClaimPending_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewVideoJobRepository(pool)

	for _, id := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"} {
		require.NoError(t, repo.Enqueue(ctx, id))
	}

	claimed, err := repo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)
}

func TestVideoJobRepository_UpdateStatus_Failed(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewVideoJobRepository(pool)

	require.NoError(t, repo.Enqueue(ctx, "dQw4w9WgXcQ"))
	claimed, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, repo.UpdateStatus(ctx, claimed[0].ID, domain.VideoJobStatusFailed, "transcript fetch failed"))

	retrieved, err := repo.GetByID(ctx, claimed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoJobStatusFailed, retrieved.Status)
	assert.Equal(t, "transcript fetch failed", retrieved.LastError)
}

func TestVideoJobRepository_UpdateStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewVideoJobRepository(pool)

	err := repo.UpdateStatus(ctx, uuid.NewString(), domain.VideoJobStatusCompleted, "")
	assert.ErrorIs(t, err, ErrVideoJobNotFound)
}

func TestVideoJobRepository_IncrementRetriesAndRequeue(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewVideoJobRepository(pool)

	require.NoError(t, repo.Enqueue(ctx, "dQw4w9WgXcQ"))
	claimed, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, repo.IncrementRetries(ctx, claimed[0].ID))
	require.NoError(t, repo.Requeue(ctx, claimed[0].ID))

	retrieved, err := repo.GetByID(ctx, claimed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoJobStatusPending, retrieved.Status)
	assert.Equal(t, 1, retrieved.Retries)
	assert.Empty(t, retrieved.LastError)

	// The requeued job is claimable again.
	again, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}
