package domain

import "time"

// Placeholder titles a VideoDescription carries when generation or parsing
// failed. Callers can distinguish these from real content and retry.
const (
	DescriptionAPIError     = "API Error"
	DescriptionParsingError = "Parsing Error"
	DescriptionUnknownError = "Unknown Error"
	DescriptionPending      = "Pending"
)

// VideoDescription is the structured description generated from a
// transcript. DetailedDescription joins its points with "||"; Summary
// replaces internal newlines with "||" for storage consistency.
type VideoDescription struct {
	Title               string   `json:"title"`
	Keywords            []string `json:"keywords"`
	CategoryTags        []string `json:"category_tags"`
	DetailedDescription string   `json:"detailed_description"`
	Summary             string   `json:"summary"`
}

// IsPlaceholder reports whether the description is one of the recognized
// error or pending states rather than real generated content.
func (d VideoDescription) IsPlaceholder() bool {
	switch d.Title {
	case DescriptionAPIError, DescriptionParsingError, DescriptionUnknownError, DescriptionPending, "":
		return true
	}
	return false
}

// Video is the stored record for one submitted YouTube video.
// Transcript and TranscriptText stay empty until processing completes.
type Video struct {
	VideoID        string
	URL            string
	SubmittedAt    time.Time
	Transcript     []TranscriptSegment
	TranscriptText string
	Description    VideoDescription
	UpdatedAt      time.Time
}

// Processed reports whether the transcript pipeline has run for this video.
func (v *Video) Processed() bool {
	return v.TranscriptText != ""
}

// VideoJobStatus tracks the lifecycle of a video processing job.
type VideoJobStatus string

const (
	VideoJobStatusPending   VideoJobStatus = "pending"
	VideoJobStatusRunning   VideoJobStatus = "running"
	VideoJobStatusCompleted VideoJobStatus = "completed"
	VideoJobStatusFailed    VideoJobStatus = "failed"
)

// IsValid reports whether the status is a known lifecycle state.
func (s VideoJobStatus) IsValid() bool {
	switch s {
	case VideoJobStatusPending, VideoJobStatusRunning, VideoJobStatusCompleted, VideoJobStatusFailed:
		return true
	}
	return false
}

// VideoJob is one unit of background transcript processing work. At most
// one non-terminal job exists per video id, which makes submission
// idempotent at the video granularity.
type VideoJob struct {
	ID        string
	VideoID   string
	Status    VideoJobStatus
	Retries   int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
