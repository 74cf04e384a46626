package transcript

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Merger folds batches of raw events into an ordered, de-duplicated turn
// sequence for one conversation. It owns the dedup ledger and the transcript;
// the transcript (via Turns) is the only state exposed outward.
//
// Merge is idempotent: replaying a batch produces no additional turns.
type Merger struct {
	mu             sync.Mutex
	logger         *zap.Logger
	conversationID string
	ledger         *Ledger
	turns          []Turn
	turnIDs        map[string]struct{}
}

// NewMerger creates a merger scoped to one conversation with a fresh ledger.
func NewMerger(conversationID string, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		logger:         logger.Named("merger").With(zap.String("conversationID", conversationID)),
		conversationID: conversationID,
		ledger:         NewLedger(),
		turnIDs:        make(map[string]struct{}),
	}
}

// ConversationID returns the conversation this merger is scoped to.
func (m *Merger) ConversationID() string {
	return m.conversationID
}

// Merge filters, orders and folds a batch of raw events into the transcript.
// It returns the number of events that changed the transcript (new turns plus
// repeat folds); the poller uses that count as its progress signal.
func (m *Merger) Merge(events []RawEvent) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. Keep events for this conversation whose identity is unseen.
	survivors := make([]RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.ConversationID() != m.conversationID {
			continue
		}
		if m.ledger.Seen(ev.Identity()) {
			continue
		}
		survivors = append(survivors, ev)
	}

	// 2. Stable sort by timestamp: ties keep arrival order.
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Timestamp < survivors[j].Timestamp
	})

	added := 0
	for _, ev := range survivors {
		// Record identity regardless of what happens to the event below,
		// so redeliveries are dropped even for content-free events.
		m.ledger.Record(ev.Identity())

		candidate := ev.Turn()
		if !candidate.HasContent() {
			continue
		}
		if _, dup := m.turnIDs[candidate.ID]; dup {
			m.logger.Debug("Dropping event for already known turn", zap.String("turnID", candidate.ID))
			continue
		}

		// Exact back-to-back repeats are a known upstream redelivery
		// pattern: fold them into the previous turn instead of appending.
		if last := m.lastTurn(); last != nil &&
			last.Role == candidate.Role && last.RenderedText() == candidate.RenderedText() {
			last.RepeatCount++
			m.turnIDs[candidate.ID] = struct{}{}
			added++
			continue
		}

		m.turns = append(m.turns, candidate)
		m.turnIDs[candidate.ID] = struct{}{}
		added++
	}
	return added
}

// AppendLocal appends a locally produced turn (e.g., the optimistic echo of
// the user's own message) without consulting the ledger.
func (m *Merger) AppendLocal(turn Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if turn.RepeatCount < 1 {
		turn.RepeatCount = 1
	}
	m.turns = append(m.turns, turn)
	m.turnIDs[turn.ID] = struct{}{}
}

// RemoveTurn drops a turn by ID. Used to retract an optimistic local turn
// when its dispatch failed or was superseded by the server-confirmed copy.
func (m *Merger) RemoveTurn(turnID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, turn := range m.turns {
		if turn.ID == turnID {
			m.turns = append(m.turns[:i], m.turns[i+1:]...)
			delete(m.turnIDs, turnID)
			return
		}
	}
}

// Turns returns a copy of the current transcript, oldest first.
func (m *Merger) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// LedgerSize returns the number of event identities recorded so far.
func (m *Merger) LedgerSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Len()
}

// LedgerIdentities returns the recorded identities in no particular order.
func (m *Merger) LedgerIdentities() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Identities()
}

func (m *Merger) lastTurn() *Turn {
	if len(m.turns) == 0 {
		return nil
	}
	return &m.turns[len(m.turns)-1]
}
