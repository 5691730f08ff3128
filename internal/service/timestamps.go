package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/openai"
)

const (
	// timestampRetrievalK is the default number of chunks offered to the
	// model for timestamp selection.
	timestampRetrievalK = 5
	// maxTimestampHits caps how many localized instants one query returns.
	maxTimestampHits = 3
	// fallbackSnippetChars bounds, in runes, the snippet synthesized from
	// the nearest chunk when the model returns nothing parseable.
	fallbackSnippetChars = 150
)

const timestampSystemPrompt = "You are an expert assistant at extracting precise timestamps from video transcripts. " +
	"Given the user's query and relevant transcript segments with their timestamps, " +
	"identify the most precise start times (HH:MM:SS or MM:SS) where the queried topic is discussed. " +
	"Provide only the timestamp and a very brief (1-2 sentences) snippet of the text that directly " +
	"relates to that timestamp. Use only timestamps and text present in the provided segments. " +
	"If the topic is not clearly present in the provided context, state that you cannot find it. " +
	"Do not make up answers or timestamps.\n\n" +
	"Format each answer line as: Timestamp: HH:MM:SS - \"Relevant snippet...\"\n" +
	"Example: Timestamp: 01:23 - \"This is where the topic is introduced.\"\n" +
	"If multiple timestamps are relevant, provide the top 3 most relevant, each on a new line."

// TimestampService localizes the instants of a video where a queried topic
// is discussed, grounded in retrieved transcript chunks.
type TimestampService struct {
	embedding EmbeddingClient
	searcher  ChunkSearcher
	chat      ChatCompleter
}

// NewTimestampService creates a TimestampService.
func NewTimestampService(embedding EmbeddingClient, searcher ChunkSearcher, chat ChatCompleter) *TimestampService {
	return &TimestampService{
		embedding: embedding,
		searcher:  searcher,
		chat:      chat,
	}
}

// Locate retrieves the top-k chunks of the video for the query and asks the
// model to select up to three timestamps strictly from those segments.
// Retrieval failures are errors; a topic absent from the video yields an
// empty slice. When the model's reply parses to nothing, the single nearest
// chunk synthesizes one entry so a relevant match is not lost to formatting.
func (s *TimestampService) Locate(ctx context.Context, query, videoID string, k int) ([]domain.TimestampHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrMissingQuery
	}
	if videoID == "" {
		return nil, domain.ErrMissingVideoID
	}
	if k <= 0 {
		k = timestampRetrievalK
	}

	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "query embedding failed", err)
	}

	chunks, err := s.searcher.Search(ctx, embedding, videoID, k)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector index query failed", err)
	}
	if len(chunks) == 0 {
		return []domain.TimestampHit{}, nil
	}

	response, err := s.chat.Complete(ctx, openai.ChatRequest{
		System: timestampSystemPrompt,
		User:   fmt.Sprintf("Query: %s\n\nTranscript Segments:\n%s", query, formatChunksForTimestamps(chunks)),
	})
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "timestamp extraction failed", err)
	}

	hits := parseTimestampResponse(response)
	if len(hits) == 0 {
		log.Printf("timestamps: model returned no parseable entries for video %s, falling back to nearest chunk", videoID)
		hits = nearestChunkFallback(chunks)
	}
	if len(hits) > maxTimestampHits {
		hits = hits[:maxTimestampHits]
	}
	return hits, nil
}

// FormatTimestamp converts seconds into MM:SS, or HH:MM:SS at one hour and
// beyond. Seconds are truncated, not rounded.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	minutes, secs := total/60, total%60
	hours, minutes := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

func formatChunksForTimestamps(chunks []domain.ScoredChunk) string {
	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		lines = append(lines, fmt.Sprintf("- Timestamp: %s\n  Text: %q", FormatTimestamp(c.Start), c.Content))
	}
	return strings.Join(lines, "\n")
}

// parseTimestampResponse extracts hits from lines shaped like
// `Timestamp: MM:SS - "snippet"`. Lines that do not parse are skipped.
func parseTimestampResponse(response string) []domain.TimestampHit {
	hits := make([]domain.TimestampHit, 0, maxTimestampHits)
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		rest, ok := strings.CutPrefix(line, "Timestamp:")
		if !ok {
			continue
		}
		timestamp, snippet, ok := strings.Cut(rest, " - ")
		if !ok {
			continue
		}
		timestamp = strings.TrimSpace(timestamp)
		snippet = strings.Trim(strings.TrimSpace(snippet), `"`)
		if timestamp == "" || snippet == "" {
			continue
		}
		hits = append(hits, domain.TimestampHit{Timestamp: timestamp, Text: snippet})
	}
	return hits
}

// nearestChunkFallback synthesizes a single hit from the highest-ranked
// retrieved chunk.
func nearestChunkFallback(chunks []domain.ScoredChunk) []domain.TimestampHit {
	top := chunks[0]
	snippet := top.Content
	if runes := []rune(snippet); len(runes) > fallbackSnippetChars {
		snippet = string(runes[:fallbackSnippetChars]) + "..."
	}
	return []domain.TimestampHit{{
		Timestamp: FormatTimestamp(top.Start),
		Text:      snippet,
	}}
}
