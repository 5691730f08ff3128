package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

const (
	// DefaultChatModel is the OpenAI model used for answer generation.
	DefaultChatModel = openai.GPT4oMini
	// DefaultChatTemperature balances factual grounding against
	// conversational tone.
	DefaultChatTemperature = 0.5
)

// ErrEmptyQuestion is returned when the user turn of a completion request is empty.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// ChatRequest carries one completion call: a system instruction, prior
// conversation messages in order, and the current user turn.
type ChatRequest struct {
	System      string
	History     []domain.ChatMessage
	User        string
	Temperature float32
}

// ChatAPI defines the interface for chat completion generation
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatClient wraps the OpenAI chat completion API
type ChatClient struct {
	api         ChatAPI
	model       string
	temperature float32
}

type ChatConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// NewChatClient creates a new chat completion client using defaults.
func NewChatClient(apiKey string) *ChatClient {
	return NewChatClientWithConfig(ChatConfig{APIKey: apiKey})
}

// NewChatClientWithConfig creates a new chat completion client with explicit configuration.
func NewChatClientWithConfig(cfg ChatConfig) *ChatClient {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultChatTemperature
	}
	return &ChatClient{
		api:         openai.NewClient(cfg.APIKey),
		model:       model,
		temperature: temperature,
	}
}

// Complete generates a single assistant reply for the given request.
func (c *ChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if req.User == "" {
		return "", ErrEmptyQuestion
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    roleToOpenAI(msg.Role),
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.temperature
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

func roleToOpenAI(role domain.Role) string {
	if role == domain.RoleAssistant {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}
