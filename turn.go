package memoir

import (
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single utterance in a session's history. Turns are what the
// stores persist and what gets replayed into the prompt on the next request.
type Turn struct {
	ID        string
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// NewTurn builds a Turn with a fresh ID and timestamp.
func NewTurn(sessionID string, role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Param converts the turn into the message param the chat endpoint expects.
func (t Turn) Param() openai.ChatCompletionMessageParamUnion {
	switch t.Role {
	case RoleAssistant:
		return openai.AssistantMessage(t.Content)
	case RoleSystem:
		return openai.SystemMessage(t.Content)
	default:
		return openai.UserMessage(t.Content)
	}
}

// withDefaults fills the fields callers are allowed to leave empty so every
// store persists complete rows.
func (t Turn) withDefaults(sessionID string) Turn {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.SessionID == "" {
		t.SessionID = sessionID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return t
}
