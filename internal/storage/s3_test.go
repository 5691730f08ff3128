//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/testutil"
)

func newTestArchive(ctx context.Context, t *testing.T) (*TranscriptArchive, func()) {
	rc := testutil.NewRustFSContainer(ctx, t)

	archive, err := NewTranscriptArchive(ctx, ArchiveConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "tubenote-transcripts",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, archive.EnsureBucket(ctx))

	return archive, func() { rc.Terminate(ctx) }
}

func TestTranscriptArchive_StoreAndFetch(t *testing.T) {
	ctx := context.Background()
	archive, cleanup := newTestArchive(ctx, t)
	defer cleanup()

	payload := []byte(`[{"text":"welcome","start":0,"duration":2}]`)
	require.NoError(t, archive.Store(ctx, "dQw4w9WgXcQ", payload))

	got, err := archive.Fetch(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestTranscriptArchive_StoreOverwrites(t *testing.T) {
	ctx := context.Background()
	archive, cleanup := newTestArchive(ctx, t)
	defer cleanup()

	require.NoError(t, archive.Store(ctx, "vid123", []byte(`[{"text":"first"}]`)))
	require.NoError(t, archive.Store(ctx, "vid123", []byte(`[{"text":"second"}]`)))

	got, err := archive.Fetch(ctx, "vid123")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"text":"second"}]`), got)
}

func TestTranscriptArchive_FetchMissing(t *testing.T) {
	ctx := context.Background()
	archive, cleanup := newTestArchive(ctx, t)
	defer cleanup()

	_, err := archive.Fetch(ctx, "neverstored")
	assert.ErrorIs(t, err, domain.ErrArchivedTranscriptNotFound)
}
