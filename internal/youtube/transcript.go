package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

const (
	timedTextEndpoint = "https://video.google.com/timedtext"
	defaultLanguage   = "en"
	fetchTimeout      = 30 * time.Second
)

// TranscriptClient fetches caption transcripts over HTTP.
type TranscriptClient struct {
	httpClient *http.Client
	endpoint   string
	language   string
}

// NewTranscriptClient creates a transcript client with sane defaults.
func NewTranscriptClient() *TranscriptClient {
	return &TranscriptClient{
		httpClient: &http.Client{Timeout: fetchTimeout},
		endpoint:   timedTextEndpoint,
		language:   defaultLanguage,
	}
}

// timedTextDocument mirrors the XML shape of the timedtext response.
type timedTextDocument struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextRow `xml:"text"`
}

type timedTextRow struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Body     string  `xml:",chardata"`
}

// FetchTranscript retrieves the caption track for a video as ordered
// transcript segments.
func (c *TranscriptClient) FetchTranscript(ctx context.Context, videoID string) ([]domain.TranscriptSegment, error) {
	if videoID == "" {
		return nil, domain.ErrMissingVideoID
	}

	query := url.Values{}
	query.Set("lang", c.language)
	query.Set("v", videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcript request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript response: %w", err)
	}

	return ParseTimedText(body)
}

// ParseTimedText converts a timedtext XML payload into transcript segments.
// An empty document yields an empty slice; a video without captions is a
// not-found condition for the caller.
func ParseTimedText(data []byte) ([]domain.TranscriptSegment, error) {
	if len(data) == 0 {
		return nil, domain.ErrTranscriptNotFound
	}

	var doc timedTextDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext response: %w", err)
	}

	segments := make([]domain.TranscriptSegment, 0, len(doc.Texts))
	for _, row := range doc.Texts {
		text := normalizeCaptionText(row.Body)
		if text == "" {
			continue
		}
		segments = append(segments, domain.TranscriptSegment{
			Text:     text,
			Start:    row.Start,
			Duration: row.Duration,
		})
	}

	return segments, nil
}

func normalizeCaptionText(raw string) string {
	text := html.UnescapeString(raw)
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}
