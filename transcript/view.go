package transcript

import (
	"context"
	"fmt"
	"sync"
	"time"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Agent is the push-model transport surface a view can use: streaming plus
// the synchronous fallback for agents without streaming capability.
type Agent interface {
	TaskStream
	SendTask(ctx context.Context, params a2aSchema.TaskSendParams) (*a2aSchema.Task, error)
	CancelTask(ctx context.Context, params a2aSchema.TaskIdParams) (*a2aSchema.Task, error)
}

// Host is the pull-model backend the view dispatches user turns to.
type Host interface {
	Backend
	// SendMessage dispatches a user message and returns the server-confirmed
	// message ID used to track its processing.
	SendMessage(ctx context.Context, msg a2aSchema.Message) (string, error)
}

// View owns all reconciliation state for one open conversation: the merger
// (with its fresh dedup ledger), the thinking log, the artifact assembler and
// the task tracker, plus whichever controllers the configured transports
// allow. Switching conversations must construct a new View; state never
// bleeds between views.
type View struct {
	conversationID string
	sessionID      string
	logger         *zap.Logger

	merger    *Merger
	thinking  *ThinkingLog
	assembler *Assembler
	tracker   *Tracker

	host   Host
	agent  Agent
	poller *Poller

	mu           sync.Mutex
	activeStream *StreamHandle
	closed       bool
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithHost enables the pull model against the given backend.
func WithHost(host Host, pollerOptions ...PollerOption) ViewOption {
	return func(v *View) {
		v.host = host
		v.poller = NewPoller(host, v.merger, v.logger, pollerOptions...)
	}
}

// WithAgent enables the push model against the given agent transport.
func WithAgent(agent Agent) ViewOption {
	return func(v *View) {
		v.agent = agent
	}
}

// NewView constructs the reconciliation state for one conversation.
func NewView(conversationID string, logger *zap.Logger, options ...ViewOption) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("view").With(zap.String("conversationID", conversationID))
	v := &View{
		conversationID: conversationID,
		sessionID:      uuid.NewString(),
		logger:         logger,
		merger:         NewMerger(conversationID, logger),
		thinking:       NewThinkingLog(),
		assembler:      NewAssembler(logger),
		tracker:        NewTracker(logger),
	}
	for _, option := range options {
		option(v)
	}
	return v
}

// ConversationID returns the conversation this view is bound to.
func (v *View) ConversationID() string {
	return v.conversationID
}

// Turns returns the current transcript, oldest first.
func (v *View) Turns() []Turn {
	return v.merger.Turns()
}

// Thinking returns the interim thinking entries recorded for a task.
func (v *View) Thinking(taskID string) []string {
	return v.thinking.Entries(taskID)
}

// TaskState returns the tracked lifecycle state of a task.
func (v *View) TaskState(taskID string) (TaskInfo, bool) {
	return v.tracker.Get(taskID)
}

// SendMessage dispatches a user turn through the pull-model backend and
// starts the polling loop tracking its processing. The user's text appears in
// the transcript immediately; the server-confirmed copy arriving later via
// the event feed replaces the optimistic local one.
func (v *View) SendMessage(ctx context.Context, text string) (string, error) {
	if v.host == nil {
		return "", fmt.Errorf("view has no pull-model backend configured")
	}

	localID := "local-" + uuid.NewString()
	v.merger.AppendLocal(Turn{
		ID:          localID,
		Actor:       "user",
		Role:        "user",
		Parts:       []ContentPart{{MediaKind: MediaKindText, Text: text}},
		Timestamp:   nowEpoch(),
		RepeatCount: 1,
	})

	msg := a2aSchema.Message{
		Role:  "user",
		Parts: []a2aSchema.Part{a2aSchema.TextPart(text)},
		Metadata: &map[string]interface{}{
			"conversation_id": v.conversationID,
		},
	}
	messageID, err := v.host.SendMessage(ctx, msg)
	if err != nil {
		// Retract the optimistic turn and surface the failure as a regular
		// transcript turn rather than discarding the conversation.
		v.merger.RemoveTurn(localID)
		v.appendErrorTurn(err)
		return "", fmt.Errorf("send message: %w", err)
	}

	// The server's own echo of the message arrives through the event feed;
	// drop the optimistic copy so it is not duplicated.
	v.merger.RemoveTurn(localID)
	v.poller.Start(ctx, messageID)
	return messageID, nil
}

// StopPolling cancels the active polling loop, if any.
func (v *View) StopPolling() {
	if v.poller != nil {
		v.poller.Stop()
	}
}

// SendTask dispatches a user turn through the push-model agent transport and
// routes its stream into the view. It returns the task ID; the agent's answer
// is appended to the transcript when the stream reaches a terminal state.
func (v *View) SendTask(ctx context.Context, text string, cb StreamCallbacks) (string, error) {
	if v.agent == nil {
		return "", fmt.Errorf("view has no push-model agent configured")
	}

	taskID := uuid.NewString()
	v.merger.AppendLocal(Turn{
		ID:          "user-" + taskID,
		Actor:       "user",
		Role:        "user",
		Parts:       []ContentPart{{MediaKind: MediaKindText, Text: text}},
		Timestamp:   nowEpoch(),
		RepeatCount: 1,
	})

	params := a2aSchema.TaskSendParams{
		ID:                  taskID,
		SessionID:           &v.sessionID,
		AcceptedOutputModes: []string{"text"},
		Message: a2aSchema.Message{
			Role:  "user",
			Parts: []a2aSchema.Part{a2aSchema.TextPart(text)},
		},
	}

	streamer := NewStreamer(v.agent, v.assembler, v.thinking, v.tracker, v.logger)
	wrapped := StreamCallbacks{
		OnThinking: cb.OnThinking,
		OnArtifact: cb.OnArtifact,
		OnTerminal: func(id string, state a2aSchema.TaskState, content []ContentPart) {
			v.merger.AppendLocal(Turn{
				ID:          id,
				Actor:       "agent",
				Role:        "agent",
				Parts:       content,
				Timestamp:   nowEpoch(),
				RepeatCount: 1,
			})
			if cb.OnTerminal != nil {
				cb.OnTerminal(id, state, content)
			}
		},
		OnError: func(id string, err error) {
			v.appendErrorTurn(err)
			if cb.OnError != nil {
				cb.OnError(id, err)
			}
		},
	}

	handle, err := streamer.Open(ctx, params, wrapped)
	if err != nil {
		v.appendErrorTurn(err)
		return "", fmt.Errorf("open task stream: %w", err)
	}

	v.mu.Lock()
	if v.activeStream != nil {
		v.activeStream.Cancel()
	}
	v.activeStream = handle
	v.mu.Unlock()
	return taskID, nil
}

// SendTaskSync dispatches a user turn through `tasks/send` for agents
// without streaming capability. When the synchronous response is not yet
// terminal the task's final result is fetched with `tasks/get`.
func (v *View) SendTaskSync(ctx context.Context, text string) (string, error) {
	if v.agent == nil {
		return "", fmt.Errorf("view has no push-model agent configured")
	}

	taskID := uuid.NewString()
	v.merger.AppendLocal(Turn{
		ID:          "user-" + taskID,
		Actor:       "user",
		Role:        "user",
		Parts:       []ContentPart{{MediaKind: MediaKindText, Text: text}},
		Timestamp:   nowEpoch(),
		RepeatCount: 1,
	})
	v.tracker.Begin(taskID, v.sessionID)

	params := a2aSchema.TaskSendParams{
		ID:                  taskID,
		SessionID:           &v.sessionID,
		AcceptedOutputModes: []string{"text"},
		Message: a2aSchema.Message{
			Role:  "user",
			Parts: []a2aSchema.Part{a2aSchema.TextPart(text)},
		},
	}
	task, err := v.agent.SendTask(ctx, params)
	if err != nil {
		v.appendErrorTurn(err)
		return "", fmt.Errorf("send task: %w", err)
	}
	if !task.Status.State.IsTerminal() {
		task, err = v.agent.GetTask(ctx, a2aSchema.TaskQueryParams{ID: taskID})
		if err != nil {
			v.appendErrorTurn(err)
			return "", fmt.Errorf("fetch task result: %w", err)
		}
	}
	v.tracker.Apply(taskID, task.Status.State)

	var content []ContentPart
	if len(task.Artifacts) > 0 {
		content = RenderParts(task.Artifacts[0].Parts)
	} else if task.Status.Message != nil {
		content = RenderParts(task.Status.Message.Parts)
	}
	v.merger.AppendLocal(Turn{
		ID:          taskID,
		Actor:       "agent",
		Role:        "agent",
		Parts:       content,
		Timestamp:   nowEpoch(),
		RepeatCount: 1,
	})
	return taskID, nil
}

// CancelTask aborts the task's stream and asks the agent to cancel it.
func (v *View) CancelTask(ctx context.Context, taskID string) error {
	if v.agent == nil {
		return fmt.Errorf("view has no push-model agent configured")
	}

	v.mu.Lock()
	if v.activeStream != nil {
		v.activeStream.Cancel()
	}
	v.mu.Unlock()

	if _, err := v.agent.CancelTask(ctx, a2aSchema.TaskIdParams{ID: taskID}); err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	v.tracker.Apply(taskID, a2aSchema.TaskStateCanceled)
	return nil
}

// Close tears the view down: the polling loop and any open stream are
// canceled so stale turns cannot leak into a successor view.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.poller != nil {
		v.poller.Stop()
	}
	if v.activeStream != nil {
		v.activeStream.Cancel()
	}
	v.logger.Debug("View closed")
}

// appendErrorTurn surfaces a failure as a visible transcript turn.
func (v *View) appendErrorTurn(err error) {
	v.merger.AppendLocal(Turn{
		ID:          "error-" + uuid.NewString(),
		Actor:       "agent",
		Role:        "agent",
		Parts:       []ContentPart{{MediaKind: MediaKindText, Text: "Error: " + err.Error()}},
		Timestamp:   nowEpoch(),
		RepeatCount: 1,
	})
}

func nowEpoch() float64 {
	return float64(time.Now().UnixMilli()) / 1000
}
