// Package youtube resolves video ids from URLs and fetches caption
// transcripts from YouTube's timedtext endpoint.
package youtube

import (
	"net/url"
	"strings"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// ExtractVideoID pulls the video id out of the common YouTube URL forms:
// youtube.com/watch?v=ID, youtu.be/ID, and youtube.com/shorts/ID.
func ExtractVideoID(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "not a recognizable YouTube URL", err)
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := parsed.Query().Get("v"); id != "" {
			return id, nil
		}
		if rest, ok := strings.CutPrefix(parsed.Path, "/shorts/"); ok {
			if id, _, _ := strings.Cut(rest, "/"); id != "" {
				return id, nil
			}
		}
	case "youtu.be":
		if id := strings.Trim(parsed.Path, "/"); id != "" {
			if first, _, _ := strings.Cut(id, "/"); first != "" {
				return first, nil
			}
		}
	}

	return "", domain.ErrInvalidVideoURL
}
