package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tubenote-ai/tubenote/internal/api"
	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/service"
)

type AnswerService interface {
	Answer(ctx context.Context, question, videoID string) (string, error)
}

type SessionChatService interface {
	Chat(ctx context.Context, input service.ChatInput) (*service.ChatResult, error)
	History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

type ChatHandler struct {
	answers  AnswerService
	sessions SessionChatService
}

func NewChatHandler(answers AnswerService, sessions SessionChatService) *ChatHandler {
	return &ChatHandler{answers: answers, sessions: sessions}
}

type AskRequest struct {
	Question string `json:"question"`
	VideoID  string `json:"video_id"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type ChatRequest struct {
	Question   string `json:"question"`
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	VideoID    string `json:"video_id"`
	NotebookID string `json:"notebook_id"`
}

type ChatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

type ChatMessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type HistoryResponse struct {
	SessionID string                `json:"session_id"`
	Messages  []ChatMessageResponse `json:"messages"`
}

// Ask answers a single question without session history.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.answers.Answer(r.Context(), req.Question, req.VideoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{Answer: answer})
}

// Chat answers a question within a session, creating the session on the
// first turn.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.sessions.Chat(r.Context(), service.ChatInput{
		Question:   req.Question,
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		VideoID:    req.VideoID,
		NotebookID: req.NotebookID,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Answer:    result.Answer,
		SessionID: result.SessionID,
	})
}

// History returns the full persisted history of a session.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	history, err := h.sessions.History(r.Context(), sessionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	messages := make([]ChatMessageResponse, 0, len(history))
	for _, msg := range history {
		messages = append(messages, ChatMessageResponse{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	api.Success(w, http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
	})
}
