package service

import (
	"context"
	"strings"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/openai"
)

const chatRAGSystemPrompt = "You are a helpful assistant for YouTube video content. " +
	"Use the following retrieved video transcript excerpts AND " +
	"the conversation history to answer the user's question. " +
	"If you don't know the answer based on the provided context, " +
	"politely state that you cannot find the answer in the given information. " +
	"You can make up answers but explicitly mention that this is outside of video information. " +
	"Be concise but informative."

// HistoryBuilder bounds a full session history for one model call.
type HistoryBuilder interface {
	BuildLLMHistory(ctx context.Context, full []domain.ChatMessage) []domain.ChatMessage
}

// ChatRAGService answers follow-up questions: bounded conversation history
// plus retrieved transcript context feed a single generation call.
type ChatRAGService struct {
	embedding EmbeddingClient
	searcher  ChunkSearcher
	chat      ChatCompleter
	history   HistoryBuilder
}

// NewChatRAGService creates a ChatRAGService.
func NewChatRAGService(embedding EmbeddingClient, searcher ChunkSearcher, chat ChatCompleter, history HistoryBuilder) *ChatRAGService {
	return &ChatRAGService{
		embedding: embedding,
		searcher:  searcher,
		chat:      chat,
		history:   history,
	}
}

// Answer generates a history-aware answer to the question, grounded in
// chunks retrieved for the given video. History bounding and retrieval are
// independent, so they run concurrently; only the generation call waits on
// both.
func (s *ChatRAGService) Answer(ctx context.Context, question string, sessionHistory []domain.ChatMessage, videoID string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.ErrMissingQuery
	}

	type retrievalResult struct {
		contextText string
		err         error
	}

	retrievalCh := make(chan retrievalResult, 1)
	historyCh := make(chan []domain.ChatMessage, 1)

	go func() {
		contextText, err := s.retrieveContext(ctx, question, videoID)
		retrievalCh <- retrievalResult{contextText: contextText, err: err}
	}()
	go func() {
		historyCh <- s.history.BuildLLMHistory(ctx, sessionHistory)
	}()

	retrieval := <-retrievalCh
	llmHistory := <-historyCh
	if retrieval.err != nil {
		return "", retrieval.err
	}

	answer, err := s.chat.Complete(ctx, openai.ChatRequest{
		System:  chatRAGSystemPrompt,
		History: llmHistory,
		User:    "Context: " + retrieval.contextText + "\nQuestion: " + question,
	})
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "answer generation failed", err)
	}

	return answer, nil
}

func (s *ChatRAGService) retrieveContext(ctx context.Context, question, videoID string) (string, error) {
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
