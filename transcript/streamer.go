package transcript

import (
	"context"
	"sync"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/a2aview/a2aview/shared"
	"go.uber.org/zap"
)

// TaskStream is the push-model transport the streamer consumes: one SSE
// subscription per task plus the salvage fetch for ambiguous closures.
type TaskStream interface {
	SendTaskSubscribe(ctx context.Context, params a2aSchema.TaskSendParams) (<-chan shared.A2AStreamEvent, error)
	GetTask(ctx context.Context, params a2aSchema.TaskQueryParams) (*a2aSchema.Task, error)
}

// StreamCallbacks receive the routed results of one task stream. Callbacks
// are invoked from the stream's goroutine, in frame arrival order.
type StreamCallbacks struct {
	// OnThinking receives each interim "working" text entry.
	OnThinking func(taskID, text string)
	// OnArtifact receives the assembled artifact content after each fragment.
	OnArtifact func(taskID string, content []ContentPart, final bool)
	// OnTerminal receives the task's final state and content exactly once.
	OnTerminal func(taskID string, state a2aSchema.TaskState, content []ContentPart)
	// OnError receives transport-level delivery errors. The task is treated
	// as terminated; retry policy belongs to the caller.
	OnError func(taskID string, err error)
}

// StreamHandle cancels one open task stream.
type StreamHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel aborts the underlying connection. Safe to call multiple times and
// after natural completion.
func (h *StreamHandle) Cancel() {
	h.cancel()
}

// Done is closed when frame routing has fully stopped.
func (h *StreamHandle) Done() <-chan struct{} {
	return h.done
}

// Streamer drives the push model: it opens one persistent subscription per
// submitted task and routes incoming frames to the thinking log, the artifact
// assembler and the task tracker. A terminal frame stops routing; a stream
// that closes without one triggers exactly one salvage fetch of the task's
// current result, reported as terminal.
type Streamer struct {
	logger    *zap.Logger
	agent     TaskStream
	assembler *Assembler
	thinking  *ThinkingLog
	tracker   *Tracker
}

// NewStreamer creates a streamer routing into the given engine state.
func NewStreamer(agent TaskStream, assembler *Assembler, thinking *ThinkingLog, tracker *Tracker, logger *zap.Logger) *Streamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Streamer{
		logger:    logger.Named("streamer"),
		agent:     agent,
		assembler: assembler,
		thinking:  thinking,
		tracker:   tracker,
	}
}

// Open submits the task and begins routing its stream. The returned handle
// aborts the subscription; the error is non-nil only when the subscription
// itself could not be established.
func (s *Streamer) Open(ctx context.Context, params a2aSchema.TaskSendParams, cb StreamCallbacks) (*StreamHandle, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	events, err := s.agent.SendTaskSubscribe(streamCtx, params)
	if err != nil {
		cancel()
		return nil, err
	}

	sessionID := shared.StringPtrToString(params.SessionID)
	s.tracker.Begin(params.ID, sessionID)

	handle := &StreamHandle{cancel: cancel, done: make(chan struct{})}
	go s.route(streamCtx, params.ID, events, cb, handle)
	return handle, nil
}

func (s *Streamer) route(ctx context.Context, taskID string, events <-chan shared.A2AStreamEvent, cb StreamCallbacks, handle *StreamHandle) {
	defer close(handle.done)
	logger := s.logger.With(zap.String("taskID", taskID))

	var once sync.Once
	terminal := func(state a2aSchema.TaskState, content []ContentPart) {
		once.Do(func() {
			if cb.OnTerminal != nil {
				cb.OnTerminal(taskID, state, content)
			}
		})
	}

	for {
		var ev shared.A2AStreamEvent
		var ok bool
		select {
		case <-ctx.Done():
			logger.Debug("Stream canceled")
			return
		case ev, ok = <-events:
		}
		if !ok {
			// Ambiguous closure: the connection ended with no terminal
			// event observed. Salvage the task's current result once.
			logger.Info("Stream closed without terminal event, fetching task result")
			s.salvage(ctx, taskID, cb, terminal)
			return
		}

		if ev.Error != nil {
			logger.Warn("Stream delivery error", zap.Error(ev.Error))
			s.tracker.Apply(taskID, a2aSchema.TaskStateFailed)
			if cb.OnError != nil {
				cb.OnError(taskID, ev.Error)
			}
			return
		}

		switch ev.Type {
		case "status":
			status := ev.Status.Status
			s.tracker.Apply(taskID, status.State)
			if status.State == a2aSchema.TaskStateWorking && status.Message != nil {
				for _, part := range status.Message.Parts {
					if part.IsText() && *part.Text != "" {
						s.thinking.Push(taskID, *part.Text)
						if cb.OnThinking != nil {
							cb.OnThinking(taskID, *part.Text)
						}
					}
				}
			}
			if ev.Final || status.State.IsTerminal() {
				logger.Debug("Terminal status received", zap.String("state", string(status.State)))
				terminal(status.State, s.terminalContent(taskID, status.Message))
				return
			}
		case "artifact":
			content, final := s.assembler.Apply(taskID, ev.Artifact.Artifact)
			if cb.OnArtifact != nil {
				cb.OnArtifact(taskID, content, final)
			}
		default:
			logger.Warn("Dropping frame of unknown type", zap.String("type", ev.Type))
		}
	}
}

// salvage performs the one-time fallback fetch of the task's final result.
func (s *Streamer) salvage(ctx context.Context, taskID string, cb StreamCallbacks, terminal func(a2aSchema.TaskState, []ContentPart)) {
	task, err := s.agent.GetTask(ctx, a2aSchema.TaskQueryParams{ID: taskID})
	if err != nil {
		s.tracker.Apply(taskID, a2aSchema.TaskStateFailed)
		if cb.OnError != nil {
			cb.OnError(taskID, err)
		}
		return
	}

	state := task.Status.State
	if !state.IsTerminal() {
		// The stream is gone, so the task will never report back. Treat
		// the salvaged snapshot as the completed result.
		state = a2aSchema.TaskStateCompleted
	}
	s.tracker.Apply(taskID, state)

	content := s.assembler.Content(taskID)
	if len(task.Artifacts) > 0 {
		content = RenderParts(task.Artifacts[0].Parts)
	} else if task.Status.Message != nil {
		content = RenderParts(task.Status.Message.Parts)
	}
	terminal(state, content)
}

// terminalContent picks the content to surface for a terminal status frame:
// the assembled artifact when one exists, otherwise the terminal message.
func (s *Streamer) terminalContent(taskID string, msg *a2aSchema.Message) []ContentPart {
	if content := s.assembler.Content(taskID); len(content) > 0 {
		return content
	}
	if msg != nil {
		return RenderParts(msg.Parts)
	}
	return nil
}
