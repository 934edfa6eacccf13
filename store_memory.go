package memoir

import (
	"context"
	"sort"
	"sync"
)

var _ Store = &MemoryStore{}

// MemoryStore keeps session histories in process memory. Everything is gone
// when the process exits, which makes it the honest baseline: run a program
// twice against a MemoryStore and the second run remembers nothing.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]Turn),
	}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	normalized := make([]Turn, 0, len(turns))
	for _, t := range turns {
		normalized = append(normalized, t.withDefaults(sessionID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[sessionID] = append(s.turns[sessionID], normalized...)
	return nil
}

func (s *MemoryStore) Turns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := ClampTurns(s.turns[sessionID], limit)
	out := make([]Turn, len(all))
	copy(out, all)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
	return nil
}

func (s *MemoryStore) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.turns))
	for id := range s.turns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
