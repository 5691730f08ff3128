package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/openai"
)

const descriptionSystemPrompt = `As an expert video content analyst, your task is to generate a structured description of a YouTube video based on the provided transcript. The output MUST be in a strict JSON format.

Here's the required JSON schema:
{
  "title": "A concise and descriptive title for the video",
  "keywords": ["keyword1", "keyword2", "keyword3"],
  "category_tags": ["tag1", "tag2", "tag3"],
  "detailed_description": [
    "Point 1: Detailed explanation of the point.",
    "Point 2: Another detailed explanation."
  ],
  "summary": "A concise summary of the video in 1-2 paragraphs. Keep it engaging and informative."
}

Ensure that:
- The "title" is a single string.
- The "keywords" is an array of strings.
- The "category_tags" is an array of strings, categorizing the video content (e.g., "Technology", "Education", "Vlog", "Gaming", "Tutorial").
- The "detailed_description" is an array of strings, where each string is a distinct point starting with "Point X: ".
- The "summary" is a single string that can contain multiple sentences forming 1-2 paragraphs.`

// DescriptionService turns a transcript into a structured video
// description via the chat model.
type DescriptionService struct {
	chat ChatCompleter
}

// NewDescriptionService creates a DescriptionService.
func NewDescriptionService(chat ChatCompleter) *DescriptionService {
	return &DescriptionService{chat: chat}
}

// rawDescription mirrors the JSON shape the model is instructed to emit.
type rawDescription struct {
	Title               string   `json:"title"`
	Keywords            []string `json:"keywords"`
	CategoryTags        []string `json:"category_tags"`
	DetailedDescription []string `json:"detailed_description"`
	Summary             string   `json:"summary"`
}

// Generate produces a structured description from the transcript text.
// Generation and parsing failures never surface as errors: they produce the
// documented placeholder descriptions ("API Error", "Parsing Error") so the
// surrounding video record stays usable and the description can be
// regenerated later.
func (s *DescriptionService) Generate(ctx context.Context, transcriptText string) domain.VideoDescription {
	raw, err := s.chat.Complete(ctx, openai.ChatRequest{
		System:      descriptionSystemPrompt,
		User:        "Transcript:\n" + transcriptText,
		Temperature: 0.7,
	})
	if err != nil {
		log.Printf("description: generation call failed: %v", err)
		return placeholderDescription(domain.DescriptionAPIError)
	}

	parsed, ok := parseDescriptionJSON(raw)
	if !ok {
		log.Printf("description: could not parse model output, returning placeholder")
		return placeholderDescription(domain.DescriptionParsingError)
	}

	return domain.VideoDescription{
		Title:               parsed.Title,
		Keywords:            parsed.Keywords,
		CategoryTags:        parsed.CategoryTags,
		DetailedDescription: strings.Join(parsed.DetailedDescription, "||"),
		Summary:             strings.ReplaceAll(parsed.Summary, "\n", "||"),
	}
}

// parseDescriptionJSON extracts the JSON object from the model's reply,
// tolerating a markdown code fence around it.
func parseDescriptionJSON(raw string) (rawDescription, bool) {
	var parsed rawDescription

	body := extractJSONBlock(raw)
	if body == "" {
		return parsed, false
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return parsed, false
	}
	if parsed.Title == "" {
		return parsed, false
	}
	return parsed, true
}

func extractJSONBlock(raw string) string {
	text := strings.TrimSpace(raw)
	if fenced, ok := strings.CutPrefix(text, "```json"); ok {
		text = fenced
	} else if fenced, ok := strings.CutPrefix(text, "```"); ok {
		text = fenced
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func placeholderDescription(state string) domain.VideoDescription {
	return domain.VideoDescription{
		Title:               state,
		Keywords:            []string{},
		CategoryTags:        []string{},
		DetailedDescription: state,
		Summary:             state,
	}
}
