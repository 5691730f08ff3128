package service

import (
	"context"
	"log"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/openai"
)

// MaxVerbatimTurns is how many (user+assistant) turns are passed to the
// model unmodified before older turns are collapsed into a summary.
const MaxVerbatimTurns = 6

// summaryFailureNotice stands in for the summary when the summarization
// call fails, so the conversation continues with explicit context loss
// instead of hard-failing the turn.
const summaryFailureNotice = "Error: Could not summarize previous conversation."

const summarizerSystemPrompt = "You are a helpful assistant whose sole purpose is to concisely summarize " +
	"the provided conversation history. Focus on the main topics and key information " +
	"discussed, ignoring conversational filler. The summary should be brief and " +
	"represent the essential context for continuing the conversation."

// ChatCompleter generates one assistant reply for a completion request.
type ChatCompleter interface {
	Complete(ctx context.Context, req openai.ChatRequest) (string, error)
}

// HistoryService bounds conversation history before it reaches the model:
// recent turns pass verbatim, older turns are summarized into a single
// synthetic assistant message.
type HistoryService struct {
	chat             ChatCompleter
	maxVerbatimTurns int
}

// NewHistoryService creates a HistoryService backed by the given chat model.
func NewHistoryService(chat ChatCompleter) *HistoryService {
	return &HistoryService{
		chat:             chat,
		maxVerbatimTurns: MaxVerbatimTurns,
	}
}

// BuildLLMHistory produces the bounded history passed to the model for one
// turn. With at most maxVerbatimTurns turns the history passes through
// unchanged; beyond that, everything before the most recent
// 2*maxVerbatimTurns messages is summarized and prepended as one synthetic
// assistant message. The output never exceeds 2*maxVerbatimTurns+1
// messages.
//
// The summary is regenerated from the same older slice on every call; there
// is no caching across turns. That is a documented inefficiency carried
// over deliberately, not a bug.
func (s *HistoryService) BuildLLMHistory(ctx context.Context, full []domain.ChatMessage) []domain.ChatMessage {
	turns := len(full) / 2
	if turns <= s.maxVerbatimTurns {
		return full
	}

	verbatimCount := s.maxVerbatimTurns * 2
	older := full[:len(full)-verbatimCount]
	recent := full[len(full)-verbatimCount:]

	summary := s.summarize(ctx, older)

	bounded := make([]domain.ChatMessage, 0, verbatimCount+1)
	bounded = append(bounded, domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: "Previous conversation summary: " + summary,
	})
	bounded = append(bounded, recent...)
	return bounded
}

func (s *HistoryService) summarize(ctx context.Context, older []domain.ChatMessage) string {
	summary, err := s.chat.Complete(ctx, openai.ChatRequest{
		System:  summarizerSystemPrompt,
		History: older,
		User:    "Please summarize the above conversation history.",
	})
	if err != nil {
		log.Printf("history: summarization failed, continuing with diagnostic summary: %v", err)
		return summaryFailureNotice
	}
	return summary
}
