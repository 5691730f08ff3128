package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

func TestChunker_ProcessTranscript_SingleChunk(t *testing.T) {
	chunker := NewChunker(DefaultChunkConfig())

	segments := []domain.TranscriptSegment{
		{Text: "Hello world", Start: 0.0, Duration: 2.0},
		{Text: "this is a test", Start: 2.0, Duration: 3.0},
	}

	chunks, err := chunker.ProcessTranscript("vid123", segments)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Contains(t, chunk.Content, "Hello world")
	assert.Contains(t, chunk.Content, "this is a test")
	assert.Equal(t, "vid123", chunk.VideoID)
	assert.Equal(t, "youtube_transcript_vid123", chunk.Source)
	assert.InDelta(t, 0.0, chunk.Start, 1e-9)
	assert.InDelta(t, 5.0, chunk.End, 1e-9)
	assert.InDelta(t, 5.0, chunk.Duration, 1e-9)
}

func TestChunker_ProcessTranscript_EmptyTranscript(t *testing.T) {
	chunker := NewChunker(DefaultChunkConfig())

	chunks, err := chunker.ProcessTranscript("vid123", nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = chunker.ProcessTranscript("vid123", []domain.TranscriptSegment{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunker_ProcessTranscript_MissingVideoID(t *testing.T) {
	chunker := NewChunker(DefaultChunkConfig())

	_, err := chunker.ProcessTranscript("", []domain.TranscriptSegment{{Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrMissingVideoID)
}

func TestChunker_ProcessTranscript_TimestampMonotonicity(t *testing.T) {
	chunker := NewChunker(ChunkConfig{Size: 120, Overlap: 30})

	segments := make([]domain.TranscriptSegment, 0, 40)
	for i := 0; i < 40; i++ {
		segments = append(segments, domain.TranscriptSegment{
			Text:     fmt.Sprintf("segment number %d talks about topic %d in some detail", i, i),
			Start:    float64(i) * 2.5,
			Duration: 2.5,
		})
	}

	chunks, err := chunker.ProcessTranscript("vid123", segments)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	prevStart := -1.0
	for i, chunk := range chunks {
		assert.LessOrEqual(t, chunk.Start, chunk.End, "chunk %d start must not exceed end", i)
		assert.GreaterOrEqual(t, chunk.Start, prevStart, "chunk %d starts must be non-decreasing", i)
		assert.InDelta(t, chunk.End-chunk.Start, chunk.Duration, 1e-9)
		prevStart = chunk.Start
	}
}

func TestChunker_ProcessTranscript_EveryChunkCoveredBySegments(t *testing.T) {
	chunker := NewChunker(ChunkConfig{Size: 80, Overlap: 20})

	segments := []domain.TranscriptSegment{
		{Text: strings.Repeat("alpha beta gamma ", 10), Start: 0.0, Duration: 10.0},
		{Text: strings.Repeat("delta epsilon zeta ", 10), Start: 10.0, Duration: 12.0},
		{Text: strings.Repeat("eta theta iota ", 10), Start: 22.0, Duration: 8.0},
	}

	chunks, err := chunker.ProcessTranscript("vid123", segments)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		// Timestamps are only ever taken from overlapping segments.
		assert.GreaterOrEqual(t, chunk.Start, 0.0)
		assert.LessOrEqual(t, chunk.End, 30.0)
		assert.Less(t, chunk.Start, chunk.End)
		assert.NotEmpty(t, chunk.Content)
	}
}

func TestChunker_ProcessTranscript_RepeatedPhraseKeepsLocalTimestamps(t *testing.T) {
	// The same sentence appears at the beginning and at the very end.
	// Offsets are tracked during splitting, so the chunks around the late
	// occurrence must carry the late timestamps, not the first
	// occurrence's.
	repeated := "the exact same phrase spoken twice"

	segments := make([]domain.TranscriptSegment, 0, 18)
	segments = append(segments, domain.TranscriptSegment{Text: repeated, Start: 0.0, Duration: 3.0})
	for i := 0; i < 16; i++ {
		segments = append(segments, domain.TranscriptSegment{
			Text:     "unrelated filler words go here",
			Start:    3.0 + 7.5*float64(i),
			Duration: 7.5,
		})
	}
	segments = append(segments, domain.TranscriptSegment{Text: repeated, Start: 123.0, Duration: 3.0})

	chunker := NewChunker(ChunkConfig{Size: 100, Overlap: 10})
	chunks, err := chunker.ProcessTranscript("vid123", segments)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.InDelta(t, 0.0, chunks[0].Start, 1e-9)

	last := chunks[len(chunks)-1]
	assert.Greater(t, last.Start, 60.0, "late occurrence must keep late timestamps")
	assert.InDelta(t, 126.0, last.End, 1e-9)
}

func TestChunker_ProcessTranscript_OverlapSharesText(t *testing.T) {
	chunker := NewChunker(ChunkConfig{Size: 60, Overlap: 20})

	words := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		words = append(words, fmt.Sprintf("w%02d", i))
	}
	segments := []domain.TranscriptSegment{
		{Text: strings.Join(words, " "), Start: 0.0, Duration: 60.0},
	}

	chunks, err := chunker.ProcessTranscript("vid123", segments)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prevFields := strings.Fields(chunks[i-1].Content)
		tail := prevFields[len(prevFields)-1]
		assert.Contains(t, chunks[i].Content, tail, "chunk %d should share overlap with its predecessor", i)
	}
}

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(ChunkConfig{})
	assert.Equal(t, DefaultChunkConfig(), c.cfg)

	c = NewChunker(ChunkConfig{Size: 100, Overlap: 100})
	assert.Equal(t, 50, c.cfg.Overlap)
}
