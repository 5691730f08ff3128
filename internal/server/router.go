package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tubenote-ai/tubenote/internal/api"
	"github.com/tubenote-ai/tubenote/internal/api/handlers"
	"github.com/tubenote-ai/tubenote/internal/api/middleware"
)

type RouterConfig struct {
	VideoHandler     *handlers.VideoHandler
	ChatHandler      *handlers.ChatHandler
	TimestampHandler *handlers.TimestampHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/videos", func(r chi.Router) {
		r.Post("/", cfg.VideoHandler.Submit)
		r.Get("/{videoID}", cfg.VideoHandler.GetDetails)
		r.Get("/{videoID}/transcript", cfg.VideoHandler.GetTranscript)
		r.Get("/{videoID}/transcript/raw", cfg.VideoHandler.GetArchivedTranscript)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Post("/", cfg.ChatHandler.Chat)
		r.Post("/once", cfg.ChatHandler.Ask)
		r.Get("/{sessionID}/history", cfg.ChatHandler.History)
	})

	r.Post("/timestamps", cfg.TimestampHandler.Locate)

	return r
}
