package domain

// TranscriptSegment is one caption segment as delivered by the transcript
// source. Segments are immutable and ordered by original playback order.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the playback instant at which the segment finishes.
func (s TranscriptSegment) End() float64 {
	return s.Start + s.Duration
}

// Chunk is a bounded span of transcript text with aggregated timestamps,
// the unit of retrieval. Start is the minimum start and End the maximum
// end over all transcript segments whose character ranges overlap the
// chunk's range; a chunk that overlaps no segment is never stored.
type Chunk struct {
	Content  string
	VideoID  string
	Source   string
	Start    float64
	End      float64
	Duration float64
}

// ScoredChunk is a chunk paired with its retrieval similarity score.
type ScoredChunk struct {
	Chunk
	Score float32
}

// EmbeddedChunk pairs a chunk with its embedding vector for storage.
type EmbeddedChunk struct {
	Chunk
	Embedding []float32
}

// TimestampHit is one localized instant in a video: a formatted timestamp
// plus the transcript snippet that grounds it.
type TimestampHit struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}
