package openai

import (
	"context"
	"errors"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// MockChatAPI is a mock for the OpenAI chat completion API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(goopenai.ChatCompletionResponse), args.Error(1)
}

func completionResponse(content string) goopenai.ChatCompletionResponse {
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{
			{Message: goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestChatClient_Complete_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel, temperature: DefaultChatTemperature}

	ctx := context.Background()
	req := ChatRequest{
		System: "You are a helpful assistant.",
		History: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "What is the video about?"},
			{Role: domain.RoleAssistant, Content: "It covers the Go scheduler."},
		},
		User: "Which part explains preemption?",
	}

	mockAPI.On("CreateChatCompletion", ctx, mock.MatchedBy(func(r goopenai.ChatCompletionRequest) bool {
		if len(r.Messages) != 4 {
			return false
		}
		return r.Messages[0].Role == goopenai.ChatMessageRoleSystem &&
			r.Messages[1].Role == goopenai.ChatMessageRoleUser &&
			r.Messages[2].Role == goopenai.ChatMessageRoleAssistant &&
			r.Messages[3].Content == req.User
	})).Return(completionResponse("Around the second half."), nil)

	answer, err := client.Complete(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, "Around the second half.", answer)
	mockAPI.AssertExpectations(t)
}

func TestChatClient_Complete_EmptyQuestion(t *testing.T) {
	client := NewChatClient("")

	answer, err := client.Complete(context.Background(), ChatRequest{System: "sys"})

	assert.Error(t, err)
	assert.Equal(t, ErrEmptyQuestion, err)
	assert.Empty(t, answer)
}

func TestChatClient_Complete_APIError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel, temperature: DefaultChatTemperature}

	ctx := context.Background()
	apiErr := errors.New("model overloaded")
	mockAPI.On("CreateChatCompletion", ctx, mock.Anything).
		Return(goopenai.ChatCompletionResponse{}, apiErr)

	answer, err := client.Complete(ctx, ChatRequest{User: "hello"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create chat completion")
	assert.Empty(t, answer)
	mockAPI.AssertExpectations(t)
}

func TestChatClient_Complete_NoChoices(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel, temperature: DefaultChatTemperature}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, mock.Anything).
		Return(goopenai.ChatCompletionResponse{}, nil)

	answer, err := client.Complete(ctx, ChatRequest{User: "hello"})

	assert.Error(t, err)
	assert.Empty(t, answer)
	mockAPI.AssertExpectations(t)
}
