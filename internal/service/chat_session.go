package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// SessionRepository persists chat sessions and their histories. AppendTurn
// stores the user and assistant messages of one turn together; a partial
// append is never observable to a subsequent reader.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.ChatSession) error
	GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)
	GetHistory(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
	AppendTurn(ctx context.Context, sessionID string, userMessage, assistantMessage domain.ChatMessage) error
}

// SessionLocker serializes turns against the same session id. Acquire
// blocks until the lock is held or ctx is done, and returns a release
// function.
type SessionLocker interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

// HistoryAnswerer generates a history-aware grounded answer.
type HistoryAnswerer interface {
	Answer(ctx context.Context, question string, sessionHistory []domain.ChatMessage, videoID string) (string, error)
}

// ChatInput carries one multi-turn chat request. An empty SessionID starts
// a new session.
type ChatInput struct {
	Question   string
	SessionID  string
	UserID     string
	VideoID    string
	NotebookID string
}

// ChatResult is the outcome of one persisted chat turn.
type ChatResult struct {
	Answer    string
	SessionID string
}

// SessionChatService composes session storage, per-session locking, and the
// multi-turn RAG answerer into the external chat operation.
type SessionChatService struct {
	answerer HistoryAnswerer
	sessions SessionRepository
	locks    SessionLocker
	now      func() time.Time
}

// NewSessionChatService creates a SessionChatService.
func NewSessionChatService(answerer HistoryAnswerer, sessions SessionRepository, locks SessionLocker) *SessionChatService {
	return &SessionChatService{
		answerer: answerer,
		sessions: sessions,
		locks:    locks,
		now:      time.Now,
	}
}

// Chat answers a question within a session, creating the session on the
// first turn. The turn is serialized per session id; the user and
// assistant messages are appended together only after generation
// succeeded, so a failed turn leaves the history untouched.
func (s *SessionChatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, domain.ErrMissingQuery
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release, err := s.locks.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	defer release()

	var history []domain.ChatMessage
	if input.SessionID == "" {
		now := s.now().UTC()
		session := &domain.ChatSession{
			SessionID:   sessionID,
			UserID:      input.UserID,
			VideoID:     input.VideoID,
			NotebookID:  input.NotebookID,
			FirstPrompt: input.Question,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		// Session creation failures must propagate: losing the session
		// write corrupts conversation continuity.
		if err := s.sessions.CreateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create chat session: %w", err)
		}
	} else {
		history, err = s.sessions.GetHistory(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}

	answer, err := s.answerer.Answer(ctx, input.Question, history, input.VideoID)
	if err != nil {
		return nil, err
	}

	userMessage := domain.ChatMessage{Role: domain.RoleUser, Content: input.Question}
	assistantMessage := domain.ChatMessage{Role: domain.RoleAssistant, Content: answer}
	if err := s.sessions.AppendTurn(ctx, sessionID, userMessage, assistantMessage); err != nil {
		return nil, fmt.Errorf("failed to persist chat turn: %w", err)
	}

	return &ChatResult{Answer: answer, SessionID: sessionID}, nil
}

// History returns the full persisted history of a session. A missing
// session or an empty history is a not-found condition.
func (s *SessionChatService) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	history, err := s.sessions.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, domain.ErrHistoryNotFound
	}
	return history, nil
}
