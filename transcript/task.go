package transcript

import (
	"sync"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"go.uber.org/zap"
)

// TaskInfo is the tracked lifecycle state of one task.
type TaskInfo struct {
	ID        string
	SessionID string
	State     a2aSchema.TaskState
	// Final is set once a terminal state was applied (or inferred).
	Final bool
}

// Tracker owns task lifecycle state derived from stream or poll events.
//
// Allowed transitions: submitted → working → {input-required, completed,
// failed, canceled}; working may recur; input-required suspends and is
// re-enterable from working. Terminal states accept no further transitions;
// later events are dropped as protocol anomalies.
type Tracker struct {
	mu     sync.Mutex
	logger *zap.Logger
	tasks  map[string]*TaskInfo
}

// NewTracker creates an empty tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		logger: logger.Named("tracker"),
		tasks:  make(map[string]*TaskInfo),
	}
}

// Begin registers a newly dispatched task in the submitted state.
func (t *Tracker) Begin(taskID, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks[taskID] = &TaskInfo{ID: taskID, SessionID: sessionID, State: a2aSchema.TaskStateSubmitted}
}

// Apply transitions the task to the given state. It returns false when the
// transition was rejected: the task is already terminal, or the transition is
// not part of the lifecycle.
func (t *Tracker) Apply(taskID string, state a2aSchema.TaskState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.tasks[taskID]
	if !ok {
		// Updates can outrun Begin when events arrive for a task dispatched
		// elsewhere; track it rather than losing the state.
		info = &TaskInfo{ID: taskID, State: a2aSchema.TaskStateSubmitted}
		t.tasks[taskID] = info
	}

	if info.Final {
		t.logger.Warn("Ignoring state update for terminal task",
			zap.String("taskID", taskID),
			zap.String("current", string(info.State)),
			zap.String("rejected", string(state)))
		return false
	}
	if !validTransition(info.State, state) {
		t.logger.Warn("Ignoring invalid task state transition",
			zap.String("taskID", taskID),
			zap.String("from", string(info.State)),
			zap.String("to", string(state)))
		return false
	}

	info.State = state
	if state.IsTerminal() {
		info.Final = true
	}
	return true
}

// Get returns a copy of the task's tracked state.
func (t *Tracker) Get(taskID string) (TaskInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info, ok := t.tasks[taskID]
	if !ok {
		return TaskInfo{}, false
	}
	return *info, true
}

// Forget garbage-collects a finished task once the UI has consumed it.
func (t *Tracker) Forget(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tasks, taskID)
}

func validTransition(from, to a2aSchema.TaskState) bool {
	switch from {
	case a2aSchema.TaskStateSubmitted:
		return to == a2aSchema.TaskStateWorking || to == a2aSchema.TaskStateInputRequired || to.IsTerminal()
	case a2aSchema.TaskStateWorking:
		// working may recur: agents emit multiple working updates.
		return to == a2aSchema.TaskStateWorking || to == a2aSchema.TaskStateInputRequired || to.IsTerminal()
	case a2aSchema.TaskStateInputRequired:
		return to == a2aSchema.TaskStateWorking || to.IsTerminal()
	default:
		return false
	}
}
