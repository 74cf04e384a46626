package transcript

import "sync"

// ThinkingLog collects interim "working" status messages per task, as an
// ordered side channel independent of the final artifact. Entries are kept
// verbatim and in order: superficially repeating thoughts are expected and
// never de-duplicated. Collapse/expand of the channel is presentation-owned.
type ThinkingLog struct {
	mu      sync.Mutex
	entries map[string][]string
}

// NewThinkingLog creates an empty log.
func NewThinkingLog() *ThinkingLog {
	return &ThinkingLog{entries: make(map[string][]string)}
}

// Push appends one interim text entry to the task's thinking list.
func (l *ThinkingLog) Push(taskID, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[taskID] = append(l.entries[taskID], text)
}

// Entries returns a copy of the task's thinking list, oldest first.
func (l *ThinkingLog) Entries(taskID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.entries[taskID]
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Clear drops all thinking entries for a task.
func (l *ThinkingLog) Clear(taskID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, taskID)
}
