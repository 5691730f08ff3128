package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tubenote-ai/tubenote/internal/api"
	"github.com/tubenote-ai/tubenote/internal/domain"
)

type TimestampService interface {
	Locate(ctx context.Context, query, videoID string, k int) ([]domain.TimestampHit, error)
}

type TimestampHandler struct {
	svc TimestampService
}

func NewTimestampHandler(svc TimestampService) *TimestampHandler {
	return &TimestampHandler{svc: svc}
}

type TimestampRequest struct {
	Query   string `json:"query"`
	VideoID string `json:"video_id"`
	TopK    int    `json:"top_k"`
}

type TimestampHitResponse struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

type TimestampResponse struct {
	VideoID string                 `json:"video_id"`
	Hits    []TimestampHitResponse `json:"hits"`
}

// Locate returns the instants of a video where the queried topic is
// discussed. An empty hit list means the topic is not in the video.
func (h *TimestampHandler) Locate(w http.ResponseWriter, r *http.Request) {
	var req TimestampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		api.Error(w, http.StatusBadRequest, "video_id is required")
		return
	}

	hits, err := h.svc.Locate(r.Context(), req.Query, req.VideoID, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]TimestampHitResponse, 0, len(hits))
	for _, hit := range hits {
		out = append(out, TimestampHitResponse{
			Timestamp: hit.Timestamp,
			Text:      hit.Text,
		})
	}

	api.Success(w, http.StatusOK, TimestampResponse{
		VideoID: req.VideoID,
		Hits:    out,
	})
}
