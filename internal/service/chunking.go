package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// ChunkConfig controls transcript chunking for embeddings.
type ChunkConfig struct {
	// Size is the target chunk length in runes.
	Size int
	// Overlap is how many runes adjacent chunks share.
	Overlap int
}

// DefaultChunkConfig provides sane defaults for transcript chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    1000,
		Overlap: 200,
	}
}

// separators are tried in order when looking for a cut point near the end
// of a chunk: paragraph, line, sentence, word, then a raw rune cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// span is a half-open rune range [Start, End) into the reconstructed
// full-transcript text.
type span struct {
	Start int
	End   int
}

// Chunker splits transcripts into overlapping chunks and re-attaches
// timestamp ranges from the original segments.
type Chunker struct {
	cfg ChunkConfig
}

// NewChunker creates a Chunker with the given configuration.
func NewChunker(cfg ChunkConfig) *Chunker {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.Size {
		cfg.Overlap = cfg.Size / 2
	}
	return &Chunker{cfg: cfg}
}

// ProcessTranscript concatenates the segment texts, splits the result into
// overlapping chunks, and aggregates each chunk's start/end timestamps from
// every segment whose character range overlaps the chunk's range.
//
// Chunk offsets are tracked during the split itself, so a phrase repeated
// verbatim elsewhere in the transcript cannot be attributed to the wrong
// timestamps. A chunk overlapping no segment is dropped and logged, never
// emitted with undefined timestamps. An empty transcript yields an empty
// slice and no error.
func (c *Chunker) ProcessTranscript(videoID string, segments []domain.TranscriptSegment) ([]domain.Chunk, error) {
	if videoID == "" {
		return nil, domain.ErrMissingVideoID
	}
	if len(segments) == 0 {
		return []domain.Chunk{}, nil
	}

	var builder strings.Builder
	segmentSpans := make([]span, len(segments))
	offset := 0
	for i, seg := range segments {
		runeLen := len([]rune(seg.Text))
		segmentSpans[i] = span{Start: offset, End: offset + runeLen}
		builder.WriteString(seg.Text)
		builder.WriteString(" ")
		// The advance includes the separator space.
		offset += runeLen + 1
	}

	fullText := []rune(builder.String())
	source := fmt.Sprintf("youtube_transcript_%s", videoID)

	chunks := make([]domain.Chunk, 0, len(fullText)/c.cfg.Size+1)
	for _, chunkSpan := range splitSpans(fullText, c.cfg) {
		minStart, maxEnd, found := aggregateTimestamps(chunkSpan, segments, segmentSpans)
		if !found {
			log.Printf("chunker: no timestamp overlap for chunk [%d,%d) of video %s, skipping", chunkSpan.Start, chunkSpan.End, videoID)
			continue
		}

		chunks = append(chunks, domain.Chunk{
			Content:  strings.TrimSpace(string(fullText[chunkSpan.Start:chunkSpan.End])),
			VideoID:  videoID,
			Source:   source,
			Start:    minStart,
			End:      maxEnd,
			Duration: maxEnd - minStart,
		})
	}

	return chunks, nil
}

// splitSpans cuts the text into overlapping spans of roughly cfg.Size runes,
// preferring paragraph, line, sentence, and word boundaries over raw cuts.
func splitSpans(text []rune, cfg ChunkConfig) []span {
	if len(text) == 0 {
		return nil
	}
	if len(text) <= cfg.Size {
		return []span{{Start: 0, End: len(text)}}
	}

	spans := make([]span, 0, len(text)/cfg.Size+1)
	start := 0
	for start < len(text) {
		end := start + cfg.Size
		if end >= len(text) {
			spans = append(spans, span{Start: start, End: len(text)})
			break
		}

		cut := findCut(text, start, end)
		spans = append(spans, span{Start: start, End: cut})

		next := cut - cfg.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return spans
}

// findCut looks backward from the size limit for the strongest separator,
// falling back to a hard rune cut when none occurs in the chunk.
func findCut(text []rune, start, end int) int {
	window := string(text[start:end])
	// Do not cut so early that chunks degenerate; keep at least half the
	// target size when a separator is available.
	minCut := (end - start) / 2

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := len([]rune(window[:idx])) + len([]rune(sep))
		if cut > minCut {
			return start + cut
		}
	}
	return end
}

// aggregateTimestamps computes min start and max end over all segments whose
// spans overlap the chunk span.
func aggregateTimestamps(chunkSpan span, segments []domain.TranscriptSegment, segmentSpans []span) (minStart, maxEnd float64, found bool) {
	for i, segSpan := range segmentSpans {
		if max(chunkSpan.Start, segSpan.Start) >= min(chunkSpan.End, segSpan.End) {
			continue
		}
		seg := segments[i]
		if !found || seg.Start < minStart {
			minStart = seg.Start
		}
		if !found || seg.End() > maxEnd {
			maxEnd = seg.End()
		}
		found = true
	}
	return minStart, maxEnd, found
}
