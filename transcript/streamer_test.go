package transcript_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/a2aview/a2aview/shared"
	"github.com/a2aview/a2aview/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTaskStream hands out one pre-filled event channel per subscription and
// serves a canned task snapshot for salvage fetches.
type fakeTaskStream struct {
	events chan shared.A2AStreamEvent

	mu       sync.Mutex
	getCalls int
	task     *a2aSchema.Task
	getErr   error
}

func (f *fakeTaskStream) SendTaskSubscribe(ctx context.Context, params a2aSchema.TaskSendParams) (<-chan shared.A2AStreamEvent, error) {
	return f.events, nil
}

func (f *fakeTaskStream) GetTask(ctx context.Context, params a2aSchema.TaskQueryParams) (*a2aSchema.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.task, nil
}

func (f *fakeTaskStream) salvageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func statusFrame(taskID string, state a2aSchema.TaskState, text string, final bool) shared.A2AStreamEvent {
	status := a2aSchema.TaskStatus{State: state}
	if text != "" {
		status.Message = &a2aSchema.Message{
			Role:  "agent",
			Parts: []a2aSchema.Part{a2aSchema.TextPart(text)},
		}
	}
	return shared.A2AStreamEvent{
		Type:   "status",
		Status: &a2aSchema.TaskStatusUpdateEvent{ID: taskID, Status: status, Final: final},
		Final:  final,
	}
}

func artifactFrame(taskID, text string, append, lastChunk bool) shared.A2AStreamEvent {
	return shared.A2AStreamEvent{
		Type: "artifact",
		Artifact: &a2aSchema.TaskArtifactUpdateEvent{
			ID:       taskID,
			Artifact: textArtifact(text, append, lastChunk),
		},
	}
}

type streamFixture struct {
	agent     *fakeTaskStream
	assembler *transcript.Assembler
	thinking  *transcript.ThinkingLog
	tracker   *transcript.Tracker
	streamer  *transcript.Streamer
}

func newStreamFixture() *streamFixture {
	f := &streamFixture{
		agent:     &fakeTaskStream{events: make(chan shared.A2AStreamEvent, 16)},
		assembler: transcript.NewAssembler(zap.NewNop()),
		thinking:  transcript.NewThinkingLog(),
		tracker:   transcript.NewTracker(zap.NewNop()),
	}
	f.streamer = transcript.NewStreamer(f.agent, f.assembler, f.thinking, f.tracker, zap.NewNop())
	return f
}

func (f *streamFixture) open(t *testing.T, taskID string, cb transcript.StreamCallbacks) *transcript.StreamHandle {
	t.Helper()
	sessionID := "session-1"
	handle, err := f.streamer.Open(context.Background(), a2aSchema.TaskSendParams{
		ID:        taskID,
		SessionID: &sessionID,
		Message: a2aSchema.Message{
			Role:  "user",
			Parts: []a2aSchema.Part{a2aSchema.TextPart("hello")},
		},
	}, cb)
	require.NoError(t, err)
	return handle
}

func waitDone(t *testing.T, handle *transcript.StreamHandle) {
	t.Helper()
	select {
	case <-handle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream routing did not finish in time")
	}
}

func TestStreamerRoutesFullStream(t *testing.T) {
	f := newStreamFixture()
	f.agent.events <- statusFrame("task-1", a2aSchema.TaskStateWorking, "let me check", false)
	f.agent.events <- artifactFrame("task-1", "Hel", false, false)
	f.agent.events <- artifactFrame("task-1", "lo", true, true)
	f.agent.events <- statusFrame("task-1", a2aSchema.TaskStateCompleted, "", true)

	var mu sync.Mutex
	var thinking []string
	var artifacts [][]transcript.ContentPart
	var terminalState a2aSchema.TaskState
	var terminalContent []transcript.ContentPart
	terminalCalls := 0

	handle := f.open(t, "task-1", transcript.StreamCallbacks{
		OnThinking: func(taskID, text string) {
			mu.Lock()
			thinking = append(thinking, text)
			mu.Unlock()
		},
		OnArtifact: func(taskID string, content []transcript.ContentPart, final bool) {
			mu.Lock()
			artifacts = append(artifacts, content)
			mu.Unlock()
		},
		OnTerminal: func(taskID string, state a2aSchema.TaskState, content []transcript.ContentPart) {
			mu.Lock()
			terminalCalls++
			terminalState = state
			terminalContent = content
			mu.Unlock()
		},
	})
	waitDone(t, handle)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"let me check"}, thinking)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "Hel", artifacts[0][0].Text)
	assert.Equal(t, "Hello", artifacts[1][0].Text)

	require.Equal(t, 1, terminalCalls)
	assert.Equal(t, a2aSchema.TaskStateCompleted, terminalState)
	require.Len(t, terminalContent, 1)
	assert.Equal(t, "Hello", terminalContent[0].Text)

	assert.Equal(t, []string{"let me check"}, f.thinking.Entries("task-1"))
	info, ok := f.tracker.Get("task-1")
	require.True(t, ok)
	assert.Equal(t, a2aSchema.TaskStateCompleted, info.State)
	assert.Equal(t, "session-1", info.SessionID)
	assert.Equal(t, 0, f.agent.salvageCalls())
}

func TestStreamerSalvagesAmbiguousClosure(t *testing.T) {
	f := newStreamFixture()
	f.agent.task = &a2aSchema.Task{
		ID:     "task-1",
		Status: a2aSchema.TaskStatus{State: a2aSchema.TaskStateCompleted},
		Artifacts: []a2aSchema.Artifact{{
			Parts: []a2aSchema.Part{a2aSchema.TextPart("salvaged result")},
		}},
	}
	f.agent.events <- statusFrame("task-1", a2aSchema.TaskStateWorking, "", false)
	close(f.agent.events)

	terminals := make(chan []transcript.ContentPart, 2)
	handle := f.open(t, "task-1", transcript.StreamCallbacks{
		OnTerminal: func(taskID string, state a2aSchema.TaskState, content []transcript.ContentPart) {
			terminals <- content
		},
	})
	waitDone(t, handle)

	content := <-terminals
	require.Len(t, content, 1)
	assert.Equal(t, "salvaged result", content[0].Text)
	// Exactly one salvage fetch, exactly one terminal report.
	assert.Equal(t, 1, f.agent.salvageCalls())
	assert.Empty(t, terminals)
}

func TestStreamerSalvageTreatsNonTerminalAsCompleted(t *testing.T) {
	f := newStreamFixture()
	f.agent.task = &a2aSchema.Task{
		ID:     "task-1",
		Status: a2aSchema.TaskStatus{State: a2aSchema.TaskStateWorking},
	}
	close(f.agent.events)

	states := make(chan a2aSchema.TaskState, 1)
	handle := f.open(t, "task-1", transcript.StreamCallbacks{
		OnTerminal: func(taskID string, state a2aSchema.TaskState, content []transcript.ContentPart) {
			states <- state
		},
	})
	waitDone(t, handle)

	// The stream is gone; the snapshot is all the answer there will be.
	assert.Equal(t, a2aSchema.TaskStateCompleted, <-states)
	info, _ := f.tracker.Get("task-1")
	assert.True(t, info.Final)
}

func TestStreamerSalvageFailureReportsError(t *testing.T) {
	f := newStreamFixture()
	f.agent.getErr = fmt.Errorf("agent unreachable")
	close(f.agent.events)

	errs := make(chan error, 1)
	handle := f.open(t, "task-1", transcript.StreamCallbacks{
		OnError: func(taskID string, err error) { errs <- err },
		OnTerminal: func(taskID string, state a2aSchema.TaskState, content []transcript.ContentPart) {
			t.Error("terminal must not fire when salvage fails")
		},
	})
	waitDone(t, handle)

	assert.ErrorContains(t, <-errs, "agent unreachable")
	info, _ := f.tracker.Get("task-1")
	assert.Equal(t, a2aSchema.TaskStateFailed, info.State)
}

func TestStreamerErrorFrameStopsRouting(t *testing.T) {
	f := newStreamFixture()
	f.agent.events <- shared.A2AStreamEvent{Error: fmt.Errorf("delivery broke")}

	errs := make(chan error, 1)
	handle := f.open(t, "task-1", transcript.StreamCallbacks{
		OnError: func(taskID string, err error) { errs <- err },
	})
	waitDone(t, handle)

	assert.ErrorContains(t, <-errs, "delivery broke")
	info, _ := f.tracker.Get("task-1")
	assert.Equal(t, a2aSchema.TaskStateFailed, info.State)
	// No salvage on explicit delivery errors.
	assert.Equal(t, 0, f.agent.salvageCalls())
}

func TestStreamerCancel(t *testing.T) {
	f := newStreamFixture()

	handle := f.open(t, "task-1", transcript.StreamCallbacks{})
	handle.Cancel()
	waitDone(t, handle)
	// Safe to cancel again after completion.
	handle.Cancel()
}
