package transcript

// Ledger is the set of event identities already folded into the transcript.
// It is scoped to one conversation view: switching views must construct a
// fresh ledger so identities never bleed across conversations.
type Ledger struct {
	seen map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Seen reports whether the identity was already recorded.
func (l *Ledger) Seen(identity string) bool {
	_, ok := l.seen[identity]
	return ok
}

// Record marks the identity as processed.
func (l *Ledger) Record(identity string) {
	l.seen[identity] = struct{}{}
}

// Len returns the number of recorded identities.
func (l *Ledger) Len() int {
	return len(l.seen)
}

// Identities returns the recorded identities in no particular order.
func (l *Ledger) Identities() []string {
	out := make([]string, 0, len(l.seen))
	for id := range l.seen {
		out = append(out, id)
	}
	return out
}
