package domain

import "time"

// Role identifies the author of a chat message. It is a closed enum:
// only RoleUser and RoleAssistant are valid.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", ErrInvalidRole
	}
}

// IsValid reports whether the role is one of the two known variants.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is a single conversational message. Messages are immutable
// once appended to a session; ordering within a session is append order.
type ChatMessage struct {
	Role    Role
	Content string
}

// ChatSession holds the metadata and full history of one conversation.
// The history grows monotonically; a turn always appends the user message
// and the assistant message together.
type ChatSession struct {
	SessionID   string
	UserID      string
	VideoID     string
	NotebookID  string
	History     []ChatMessage
	FirstPrompt string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Turns returns the number of completed conversational turns
// (one user message plus one assistant message each).
func (s *ChatSession) Turns() int {
	return len(s.History) / 2
}
