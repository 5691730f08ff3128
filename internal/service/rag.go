package service

import (
	"context"
	"strings"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/openai"
)

const (
	// retrievalK is how many chunks a RAG answer is grounded on.
	retrievalK = 5

	// noContextPlaceholder stands in for retrieved context when the index
	// returns nothing for a query.
	noContextPlaceholder = "No relevant video context found."
)

const ragSystemPrompt = "You are a helpful assistant for YouTube video content. " +
	"Use the following retrieved video transcript excerpts to answer the user's question. " +
	"If you don't know the answer based on the provided context, " +
	"politely state that you cannot find the answer in the given information. " +
	"You can make up answers but explicitly mention that this is outside of video information. " +
	"Be concise but informative."

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher serves nearest-neighbor queries over stored chunk
// embeddings. An empty videoID searches across all videos.
type ChunkSearcher interface {
	Search(ctx context.Context, embedding []float32, videoID string, k int) ([]domain.ScoredChunk, error)
}

// RAGService answers a single question grounded in retrieved transcript
// chunks, without conversation history.
type RAGService struct {
	embedding EmbeddingClient
	searcher  ChunkSearcher
	chat      ChatCompleter
}

// NewRAGService creates a RAGService.
func NewRAGService(embedding EmbeddingClient, searcher ChunkSearcher, chat ChatCompleter) *RAGService {
	return &RAGService{
		embedding: embedding,
		searcher:  searcher,
		chat:      chat,
	}
}

// Answer retrieves the top chunks for the question (filtered by video when
// videoID is non-empty) and generates a grounded answer. Retrieval and
// generation failures surface as typed errors; the HTTP boundary decides
// how to degrade.
func (s *RAGService) Answer(ctx context.Context, question, videoID string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.ErrMissingQuery
	}

	contextText, err := s.retrieveContext(ctx, question, videoID)
	if err != nil {
		return "", err
	}

	answer, err := s.chat.Complete(ctx, openai.ChatRequest{
		System: ragSystemPrompt,
		User:   "Context: " + contextText + "\nQuestion: " + question,
	})
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "answer generation failed", err)
	}

	return answer, nil
}

func (s *RAGService) retrieveContext(ctx context.Context, question, videoID string) (string, error) {
	embedding, err := s.embedding.GenerateEmbedding(ctx, question)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "query embedding failed", err)
	}

	chunks, err := s.searcher.Search(ctx, embedding, videoID, retrievalK)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector index query failed", err)
	}

	return formatChunks(chunks), nil
}

// formatChunks joins retrieved chunk contents with blank lines, or returns
// the fixed placeholder when nothing was retrieved.
func formatChunks(chunks []domain.ScoredChunk) string {
	if len(chunks) == 0 {
		return noContextPlaceholder
	}
	contents := make([]string, 0, len(chunks))
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}
	return strings.Join(contents, "\n\n")
}
