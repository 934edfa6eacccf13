package memoir

import (
	"testing"
	"time"
)

func TestNewTurn(t *testing.T) {
	turn := NewTurn("session-1", RoleUser, "hello")

	if turn.ID == "" {
		t.Fatalf("Expected a generated turn ID, but got an empty string")
	}
	if turn.SessionID != "session-1" {
		t.Fatalf("Expected session ID 'session-1', but got '%s'", turn.SessionID)
	}
	if turn.Role != RoleUser {
		t.Fatalf("Expected role 'user', but got '%s'", turn.Role)
	}
	if turn.Content != "hello" {
		t.Fatalf("Expected content 'hello', but got '%s'", turn.Content)
	}
	if turn.CreatedAt.IsZero() {
		t.Fatalf("Expected a timestamp, but got the zero time")
	}

	other := NewTurn("session-1", RoleUser, "hello")
	if other.ID == turn.ID {
		t.Fatalf("Expected distinct IDs for distinct turns, but both were '%s'", turn.ID)
	}
}

func TestTurnParam(t *testing.T) {
	t.Run("UserTurn", func(t *testing.T) {
		msg := NewTurn("s", RoleUser, "a question").Param()
		if msg.OfUser == nil {
			t.Fatalf("Expected a user message param")
		}
		text, err := MessageText(msg)
		if err != nil {
			t.Fatalf("Failed to extract message text: %v", err)
		}
		if text != "a question" {
			t.Fatalf("Expected content 'a question', but got '%s'", text)
		}
	})

	t.Run("AssistantTurn", func(t *testing.T) {
		msg := NewTurn("s", RoleAssistant, "an answer").Param()
		if msg.OfAssistant == nil {
			t.Fatalf("Expected an assistant message param")
		}
	})

	t.Run("SystemTurn", func(t *testing.T) {
		msg := NewTurn("s", RoleSystem, "a summary").Param()
		if msg.OfSystem == nil {
			t.Fatalf("Expected a system message param")
		}
	})
}

func TestTurnWithDefaults(t *testing.T) {
	t.Run("FillsEmptyFields", func(t *testing.T) {
		turn := Turn{Role: RoleUser, Content: "bare"}.withDefaults("session-9")
		if turn.ID == "" {
			t.Fatalf("Expected an ID to be assigned")
		}
		if turn.SessionID != "session-9" {
			t.Fatalf("Expected session ID 'session-9', but got '%s'", turn.SessionID)
		}
		if turn.CreatedAt.IsZero() {
			t.Fatalf("Expected a timestamp to be assigned")
		}
	})

	t.Run("KeepsExistingFields", func(t *testing.T) {
		created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		turn := Turn{ID: "fixed", SessionID: "original", Role: RoleUser, Content: "x", CreatedAt: created}.withDefaults("other")
		if turn.ID != "fixed" {
			t.Fatalf("Expected ID 'fixed' to be kept, but got '%s'", turn.ID)
		}
		if turn.SessionID != "original" {
			t.Fatalf("Expected session ID 'original' to be kept, but got '%s'", turn.SessionID)
		}
		if !turn.CreatedAt.Equal(created) {
			t.Fatalf("Expected timestamp to be kept, but got %v", turn.CreatedAt)
		}
	})
}
