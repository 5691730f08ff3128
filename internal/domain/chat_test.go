package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{name: "user", input: "user", want: RoleUser},
		{name: "assistant", input: "assistant", want: RoleAssistant},
		{name: "unknown role", input: "system", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "User", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRole)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.False(t, Role("system").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestChatSession_Turns(t *testing.T) {
	s := &ChatSession{}
	assert.Equal(t, 0, s.Turns())

	s.History = []ChatMessage{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "more"},
		{Role: RoleAssistant, Content: "sure"},
	}
	assert.Equal(t, 2, s.Turns())

	// A dangling user message does not count as a full turn.
	s.History = append(s.History, ChatMessage{Role: RoleUser, Content: "again"})
	assert.Equal(t, 2, s.Turns())
}
