package transcript

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poll loop defaults: probe every 500ms, give up 30s after the last probe
// that produced progress.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultPollWindow   = 30 * time.Second
)

// PollOutcome is the terminal result of one polling loop.
type PollOutcome string

const (
	// PollSettled means the tracked message left the pending set: the
	// upstream finished processing it.
	PollSettled PollOutcome = "settled"
	// PollTimeout means the deadline elapsed with no progress. Not an error:
	// whatever transcript state exists is kept.
	PollTimeout PollOutcome = "timeout"
)

// Backend is the pull-model transport the poller probes.
type Backend interface {
	// PendingMessages returns the identities the backend still reports as in
	// progress.
	PendingMessages(ctx context.Context) ([]string, error)
	// Events returns the full current event batch.
	Events(ctx context.Context) ([]RawEvent, error)
}

// PollHandle is the stoppable handle of one running poll loop.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the loop. Safe to call multiple times and after completion.
func (h *PollHandle) Stop() {
	h.cancel()
}

// Done is closed when the loop has fully exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Poller drives the pull model: a bounded loop of sequential probes against
// the backend's pending and event feeds, merging each batch into the
// conversation transcript. Probes are strictly sequential, never two in
// flight for the same tracked turn.
type Poller struct {
	logger   *zap.Logger
	backend  Backend
	merger   *Merger
	interval time.Duration
	window   time.Duration

	onProgress func(added int)
	onDone     func(outcome PollOutcome)

	mu      sync.Mutex
	current *PollHandle
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval overrides the probe interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithWindow overrides the no-progress deadline window.
func WithWindow(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.window = d
		}
	}
}

// OnProgress sets a callback invoked after every probe that merged new turns.
func OnProgress(fn func(added int)) PollerOption {
	return func(p *Poller) { p.onProgress = fn }
}

// OnDone sets a callback invoked once when the loop terminates on its own.
func OnDone(fn func(outcome PollOutcome)) PollerOption {
	return func(p *Poller) { p.onDone = fn }
}

// NewPoller creates a poller bound to one backend and one conversation merger.
func NewPoller(backend Backend, merger *Merger, logger *zap.Logger, options ...PollerOption) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{
		logger:   logger.Named("poller").With(zap.String("conversationID", merger.ConversationID())),
		backend:  backend,
		merger:   merger,
		interval: DefaultPollInterval,
		window:   DefaultPollWindow,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Start begins polling for the given tracked message ID and returns the
// stoppable handle. Any loop already running for this conversation is
// canceled first: exactly one probe loop per tracked turn.
func (p *Poller) Start(ctx context.Context, trackedID string) *PollHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	handle := &PollHandle{cancel: cancel, done: make(chan struct{})}
	p.current = handle
	go p.loop(loopCtx, trackedID, handle)
	return handle
}

// Stop cancels the active loop, if any.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
	}
}

func (p *Poller) loop(ctx context.Context, trackedID string, handle *PollHandle) {
	defer close(handle.done)
	logger := p.logger.With(zap.String("trackedID", trackedID))
	logger.Debug("Polling started")

	// Progress extends patience; silence does not.
	deadline := time.Now().Add(p.window)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Polling canceled")
			return
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			logger.Info("Polling deadline elapsed without progress, giving up")
			p.finish(PollTimeout)
			return
		}

		stillPending := false
		pendingKnown := false
		pending, err := p.backend.PendingMessages(ctx)
		if err != nil {
			logger.Warn("Pending probe failed", zap.Error(err))
		} else {
			pendingKnown = true
			stillPending = matchPending(pending, trackedID)
		}

		events, err := p.backend.Events(ctx)
		if err != nil {
			logger.Warn("Event probe failed", zap.Error(err))
		} else if added := p.merger.Merge(events); added > 0 {
			logger.Debug("Merged new turns", zap.Int("added", added))
			deadline = time.Now().Add(p.window)
			if p.onProgress != nil {
				p.onProgress(added)
			}
		}

		if pendingKnown && !stillPending {
			logger.Debug("Tracked message no longer pending, polling finished")
			p.finish(PollSettled)
			return
		}
	}
}

func (p *Poller) finish(outcome PollOutcome) {
	if p.onDone != nil {
		p.onDone(outcome)
	}
}

// matchPending reports whether any pending entry names the tracked ID. The
// backend reports composite identities, so this is a substring match.
func matchPending(pending []string, trackedID string) bool {
	for _, item := range pending {
		if strings.Contains(item, trackedID) {
			return true
		}
	}
	return false
}
