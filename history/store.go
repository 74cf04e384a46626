// Package history persists conversation transcripts across runs.
package history

import (
	"context"
	"sort"
	"sync"

	"github.com/a2aview/a2aview/transcript"
)

// Store persists reconciled turns per conversation.
type Store interface {
	// SaveTurn inserts the turn, or updates its repeat count when the turn
	// was folded after an earlier save.
	SaveTurn(ctx context.Context, conversationID string, turn transcript.Turn) error
	// Turns returns the conversation's turns, oldest first.
	Turns(ctx context.Context, conversationID string) ([]transcript.Turn, error)
	// Conversations returns the IDs of all stored conversations.
	Conversations(ctx context.Context) ([]string, error)
	// DeleteConversation drops a conversation and its turns.
	DeleteConversation(ctx context.Context, conversationID string) error
	Close() error
}

// MemoryStore implements Store using in-memory maps.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]transcript.Turn
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]transcript.Turn)}
}

// SaveTurn stores a copy of the turn, replacing an existing turn with the
// same ID.
func (s *MemoryStore) SaveTurn(ctx context.Context, conversationID string, turn transcript.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.turns[conversationID]
	for i := range turns {
		if turns[i].ID == turn.ID {
			turns[i] = turn
			return nil
		}
	}
	s.turns[conversationID] = append(turns, turn)
	return nil
}

// Turns returns a copy of the conversation's turns.
func (s *MemoryStore) Turns(ctx context.Context, conversationID string) ([]transcript.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.turns[conversationID]
	out := make([]transcript.Turn, len(src))
	copy(out, src)
	return out, nil
}

// Conversations returns the stored conversation IDs, sorted.
func (s *MemoryStore) Conversations(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.turns))
	for id := range s.turns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// DeleteConversation drops a conversation.
func (s *MemoryStore) DeleteConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, conversationID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
