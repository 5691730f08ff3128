package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tubenote-ai/tubenote/internal/api"
	"github.com/tubenote-ai/tubenote/internal/domain"
)

type VideoService interface {
	Submit(ctx context.Context, rawURL string) (string, error)
	GetTranscript(ctx context.Context, videoID string) (string, error)
	GetArchivedTranscript(ctx context.Context, videoID string) ([]byte, error)
	GetDetails(ctx context.Context, videoID string) (*domain.Video, error)
}

type VideoHandler struct {
	svc VideoService
}

func NewVideoHandler(svc VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

type SubmitVideoRequest struct {
	URL string `json:"url"`
}

type SubmitVideoResponse struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

type TranscriptResponse struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
}

type ArchivedTranscriptResponse struct {
	VideoID  string          `json:"video_id"`
	Segments json.RawMessage `json:"segments"`
}

type VideoDescriptionResponse struct {
	Title               string   `json:"title"`
	Keywords            []string `json:"keywords"`
	CategoryTags        []string `json:"category_tags"`
	DetailedDescription string   `json:"detailed_description"`
	Summary             string   `json:"summary"`
}

type VideoResponse struct {
	VideoID     string                   `json:"video_id"`
	URL         string                   `json:"url"`
	Processed   bool                     `json:"processed"`
	Description VideoDescriptionResponse `json:"description"`
	SubmittedAt string                   `json:"submitted_at"`
	UpdatedAt   string                   `json:"updated_at"`
}

func videoToResponse(v *domain.Video) *VideoResponse {
	return &VideoResponse{
		VideoID:   v.VideoID,
		URL:       v.URL,
		Processed: v.Processed(),
		Description: VideoDescriptionResponse{
			Title:               v.Description.Title,
			Keywords:            v.Description.Keywords,
			CategoryTags:        v.Description.CategoryTags,
			DetailedDescription: v.Description.DetailedDescription,
			Summary:             v.Description.Summary,
		},
		SubmittedAt: v.SubmittedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   v.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Submit registers a YouTube URL for background processing.
func (h *VideoHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		api.Error(w, http.StatusBadRequest, "url is required")
		return
	}

	videoID, err := h.svc.Submit(r.Context(), req.URL)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, SubmitVideoResponse{
		VideoID: videoID,
		Status:  "processing",
	})
}

// GetTranscript returns the stored plain-text transcript of a video.
func (h *VideoHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	transcript, err := h.svc.GetTranscript(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TranscriptResponse{
		VideoID:    videoID,
		Transcript: transcript,
	})
}

// GetArchivedTranscript returns the raw segment payload from the
// transcript archive.
func (h *VideoHandler) GetArchivedTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	payload, err := h.svc.GetArchivedTranscript(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ArchivedTranscriptResponse{
		VideoID:  videoID,
		Segments: payload,
	})
}

// GetDetails returns the stored record for a video.
func (h *VideoHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	video, err := h.svc.GetDetails(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, videoToResponse(video))
}
