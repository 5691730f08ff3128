package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

const sampleTimedText = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0" dur="2">Hello world</text>
  <text start="2" dur="3">this is a test</text>
  <text start="5" dur="1.5">with &amp;quot;escapes&amp;quot;
and newlines</text>
  <text start="6.5" dur="1"></text>
</transcript>`

func TestParseTimedText(t *testing.T) {
	segments, err := ParseTimedText([]byte(sampleTimedText))
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "Hello world", segments[0].Text)
	assert.InDelta(t, 0.0, segments[0].Start, 1e-9)
	assert.InDelta(t, 2.0, segments[0].Duration, 1e-9)

	assert.Equal(t, "this is a test", segments[1].Text)
	assert.InDelta(t, 2.0, segments[1].Start, 1e-9)

	// Entities are unescaped and internal newlines collapsed.
	assert.Equal(t, `with "escapes" and newlines`, segments[2].Text)
}

func TestParseTimedText_Empty(t *testing.T) {
	_, err := ParseTimedText(nil)
	assert.ErrorIs(t, err, domain.ErrTranscriptNotFound)
}

func TestParseTimedText_Malformed(t *testing.T) {
	_, err := ParseTimedText([]byte("<transcript><text"))
	assert.Error(t, err)
}

func TestTranscriptClient_FetchTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("v"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(sampleTimedText))
	}))
	defer srv.Close()

	client := &TranscriptClient{httpClient: srv.Client(), endpoint: srv.URL, language: "en"}

	segments, err := client.FetchTranscript(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Len(t, segments, 3)
}

func TestTranscriptClient_FetchTranscript_MissingID(t *testing.T) {
	client := NewTranscriptClient()
	_, err := client.FetchTranscript(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingVideoID)
}

func TestTranscriptClient_FetchTranscript_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := &TranscriptClient{httpClient: srv.Client(), endpoint: srv.URL, language: "en"}

	_, err := client.FetchTranscript(context.Background(), "abc123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
