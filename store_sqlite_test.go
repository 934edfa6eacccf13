package memoir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	dbFile := filepath.Join(t.TempDir(), "turns.db")

	store, err := NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer store.Close()

	t.Run("UnknownSessionIsEmpty", func(t *testing.T) {
		turns, err := store.Turns(ctx, "never-seen", 0)
		if err != nil {
			t.Fatalf("Failed to read unknown session: %v", err)
		}
		if len(turns) != 0 {
			t.Fatalf("Expected 0 turns for an unknown session, but got %d", len(turns))
		}
	})

	t.Run("AppendAndReplay", func(t *testing.T) {
		err := store.Append(ctx, "s1",
			NewTurn("s1", RoleUser, "my name is Ada"),
			NewTurn("s1", RoleAssistant, "nice to meet you, Ada"),
		)
		if err != nil {
			t.Fatalf("Failed to append turns: %v", err)
		}

		turns, err := store.Turns(ctx, "s1", 0)
		if err != nil {
			t.Fatalf("Failed to read turns: %v", err)
		}
		if len(turns) != 2 {
			t.Fatalf("Expected 2 turns, but got %d", len(turns))
		}
		if turns[0].Role != RoleUser || turns[0].Content != "my name is Ada" {
			t.Fatalf("Expected the user turn first, but got %s: %s", turns[0].Role, turns[0].Content)
		}
		if turns[1].Role != RoleAssistant || turns[1].Content != "nice to meet you, Ada" {
			t.Fatalf("Expected the assistant turn second, but got %s: %s", turns[1].Role, turns[1].Content)
		}
		if turns[0].ID == "" || turns[0].CreatedAt.IsZero() {
			t.Fatalf("Expected stored turns to come back with ID and timestamp")
		}
	})

	t.Run("LimitKeepsTheTail", func(t *testing.T) {
		for i := 0; i < 6; i++ {
			err := store.Append(ctx, "s2", NewTurn("s2", RoleUser, fmt.Sprintf("message %d", i)))
			if err != nil {
				t.Fatalf("Failed to append turn %d: %v", i, err)
			}
		}

		turns, err := store.Turns(ctx, "s2", 3)
		if err != nil {
			t.Fatalf("Failed to read turns: %v", err)
		}
		if len(turns) != 3 {
			t.Fatalf("Expected 3 turns, but got %d", len(turns))
		}
		for i, want := range []string{"message 3", "message 4", "message 5"} {
			if turns[i].Content != want {
				t.Fatalf("Expected turn %d to be '%s', but got '%s'", i, want, turns[i].Content)
			}
		}
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		turns, err := store.Turns(ctx, "s1", 0)
		if err != nil {
			t.Fatalf("Failed to read turns: %v", err)
		}
		if len(turns) != 2 {
			t.Fatalf("Expected s1 to still have 2 turns, but got %d", len(turns))
		}
	})

	t.Run("Sessions", func(t *testing.T) {
		ids, err := store.Sessions(ctx)
		if err != nil {
			t.Fatalf("Failed to list sessions: %v", err)
		}
		if len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
			t.Fatalf("Expected sessions [s1 s2], but got %v", ids)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := store.Clear(ctx, "s2"); err != nil {
			t.Fatalf("Failed to clear session: %v", err)
		}
		turns, err := store.Turns(ctx, "s2", 0)
		if err != nil {
			t.Fatalf("Failed to read cleared session: %v", err)
		}
		if len(turns) != 0 {
			t.Fatalf("Expected 0 turns after Clear, but got %d", len(turns))
		}
	})
}

// The point of a persistent store: a new process (here, a new store handle on
// the same file) sees the session exactly where it left off.
func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbFile := filepath.Join(t.TempDir(), "turns.db")

	store, err := NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	err = store.Append(ctx, "persistent",
		NewTurn("persistent", RoleUser, "remember me"),
		NewTurn("persistent", RoleAssistant, "I will"),
	)
	if err != nil {
		t.Fatalf("Failed to append turns: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	turns, err := reopened.Turns(ctx, "persistent", 0)
	if err != nil {
		t.Fatalf("Failed to read turns after reopen: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns after reopen, but got %d", len(turns))
	}
	if turns[0].Content != "remember me" {
		t.Fatalf("Expected the history to survive the reopen, but got '%s'", turns[0].Content)
	}
}

func TestSQLiteStoreInMemory(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	defer store.Close()

	if err := store.Append(ctx, "tmp", NewTurn("tmp", RoleUser, "hello")); err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}
	turns, err := store.Turns(ctx, "tmp", 0)
	if err != nil {
		t.Fatalf("Failed to read turns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("Expected 1 turn, but got %d", len(turns))
	}
}

func TestSQLiteStoreBadPath(t *testing.T) {
	if _, err := NewSQLiteStore(filepath.Join(string(os.PathSeparator), "no", "such", "dir", "turns.db")); err == nil {
		t.Fatalf("Expected an error for an unwritable path, but got none")
	}
}
