//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubenote-ai/tubenote/internal/api/handlers"
	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/jobs"
	"github.com/tubenote-ai/tubenote/internal/openai"
	"github.com/tubenote-ai/tubenote/internal/repository"
	"github.com/tubenote-ai/tubenote/internal/server"
	"github.com/tubenote-ai/tubenote/internal/service"
	"github.com/tubenote-ai/tubenote/internal/sessionlock"
	"github.com/tubenote-ai/tubenote/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests. The server runs
// in-process against a real database; the model and transcript providers
// are deterministic stubs.
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
	processor    *jobs.VideoWorker
}

// SetupE2EEnv creates a full E2E test environment with a database
// container and an in-process server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser, processor := startServer(t, pool, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		processor:    processor,
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// ProcessJobs drains the pending video job queue once, synchronously.
// Tests call this instead of waiting on the worker's poll interval.
func (e *E2ETestEnv) ProcessJobs() error {
	return e.processor.ProcessJobs(e.Ctx)
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server with all handlers wired against the
// pool and deterministic provider stubs.
func startServer(t *testing.T, pool *pgxpool.Pool, port int) (string, func(), *jobs.VideoWorker) {
	videoRepo := repository.NewVideoRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	jobRepo := repository.NewVideoJobRepository(pool)

	embedder := &stubEmbedder{}
	chat := &stubChatCompleter{}
	fetcher := &stubTranscriptFetcher{}

	chunker := service.NewChunker(service.DefaultChunkConfig())
	descriptionSvc := service.NewDescriptionService(chat)
	videoSvc := service.NewVideoService(
		videoRepo, jobRepo, fetcher, chunker, embedder, chunkRepo, descriptionSvc, nil,
	)

	ragSvc := service.NewRAGService(embedder, chunkRepo, chat)
	historySvc := service.NewHistoryService(chat)
	chatRAGSvc := service.NewChatRAGService(embedder, chunkRepo, chat, historySvc)
	timestampSvc := service.NewTimestampService(embedder, chunkRepo, chat)
	sessionChatSvc := service.NewSessionChatService(chatRAGSvc, sessionRepo, sessionlock.NewLocalLocker())

	processor := jobs.NewVideoWorker(jobRepo, videoSvc)

	router := server.NewRouter(server.RouterConfig{
		VideoHandler:     handlers.NewVideoHandler(videoSvc),
		ChatHandler:      handlers.NewChatHandler(ragSvc, sessionChatSvc),
		TimestampHandler: handlers.NewTimestampHandler(timestampSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, processor
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// stubEmbedder returns a deterministic 1536-dim vector derived from the
// text length so similar inputs map to similar vectors.
type stubEmbedder struct{}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, 1536)
	for i := range v {
		v[i] = 0.001
	}
	v[len(text)%1536] = 1.0
	return v, nil
}

const descriptionReply = `{
  "title": "Testing Video",
  "keywords": ["testing", "e2e"],
  "category_tags": ["Technology"],
  "detailed_description": ["Point 1: Covers setup.", "Point 2: Covers teardown."],
  "summary": "A short video about testing."
}`

// stubChatCompleter keys its canned reply off the system prompt so one
// stub serves description generation, timestamp extraction, and Q&A.
type stubChatCompleter struct{}

func (s *stubChatCompleter) Complete(ctx context.Context, req openai.ChatRequest) (string, error) {
	switch {
	case strings.Contains(req.System, "structured description"):
		return descriptionReply, nil
	case strings.Contains(req.System, "extracting precise timestamps"):
		return `Timestamp: 00:00 - "This is where the topic is introduced."`, nil
	default:
		return "The video covers software testing.", nil
	}
}

// stubTranscriptFetcher serves a fixed two-segment transcript for any id.
type stubTranscriptFetcher struct{}

func (s *stubTranscriptFetcher) FetchTranscript(ctx context.Context, videoID string) ([]domain.TranscriptSegment, error) {
	return []domain.TranscriptSegment{
		{Text: "welcome to this video about software testing", Start: 0, Duration: 5},
		{Text: "today we cover setup and teardown", Start: 5, Duration: 6},
	}, nil
}
