// Command a2aview is a terminal chat client for A2A agents. It reconciles
// agent task events into a conversation transcript, either by subscribing to
// a streaming agent directly or by polling a host backend's event feed.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/a2aview/a2aview/clients/a2aClient"
	"github.com/a2aview/a2aview/clients/hostClient"
	"github.com/a2aview/a2aview/history"
	"github.com/a2aview/a2aview/shared/config"
	"github.com/a2aview/a2aview/transcript"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	conversationID := flag.String("conversation", "", "Conversation ID to resume (default: create a new one)")
	flag.Parse()

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	bootLogger, err := loggerConfig.Build()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, bootLogger)
	if err != nil {
		bootLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	defer cfg.Close()
	if err := cfg.StartWatching(); err != nil {
		bootLogger.Warn("Config watching disabled", zap.Error(err))
	}

	loggerConfig.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	logger, err := loggerConfig.Build()
	if err != nil {
		bootLogger.Fatal("Failed to rebuild logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *conversationID, logger); err != nil && ctx.Err() == nil {
		logger.Fatal("Client exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, conversationID string, logger *zap.Logger) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var viewOptions []transcript.ViewOption

	var agent *a2aClient.Client
	var card *a2aSchema.AgentCard
	if cfg.AgentURL() != "" {
		card, err = a2aClient.FetchAgentCard(ctx, cfg.AgentURL(), nil, logger)
		if err != nil {
			return fmt.Errorf("discover agent: %w", err)
		}
		agent, err = a2aClient.New(card.URL, a2aClient.WithLogger(logger))
		if err != nil {
			return err
		}
		viewOptions = append(viewOptions, transcript.WithAgent(agent))
		fmt.Printf("Connected to agent %q (streaming: %v)\n", card.Name, card.Capabilities.Streaming)
	}

	pollDone := make(chan transcript.PollOutcome, 1)
	var host *hostClient.Client
	if cfg.BackendURL() != "" {
		host, err = hostClient.New(cfg.BackendURL(), hostClient.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := host.WaitReady(ctx); err != nil {
			return fmt.Errorf("backend not reachable: %w", err)
		}
		if conversationID == "" {
			conversationID, err = host.CreateConversation(ctx)
			if err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}
		}
		viewOptions = append(viewOptions,
			transcript.WithHost(host,
				transcript.WithInterval(cfg.PollInterval()),
				transcript.WithWindow(cfg.PollWindow()),
				transcript.OnDone(func(outcome transcript.PollOutcome) {
					pollDone <- outcome
				})))
	}
	if agent == nil && host == nil {
		return fmt.Errorf("neither agent.url nor backend.url configured")
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	view := transcript.NewView(conversationID, logger, viewOptions...)
	defer view.Close()
	fmt.Printf("Conversation %s - type a message, /quit to exit\n", conversationID)
	printStoredHistory(ctx, store, conversationID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return repl(gctx, view, store, card, agent, pollDone)
	})
	return g.Wait()
}

func openStore(cfg *config.Config, logger *zap.Logger) (history.Store, error) {
	if path := cfg.HistoryPath(); path != "" {
		store, err := history.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open history db: %w", err)
		}
		return store, nil
	}
	logger.Debug("No history path configured, transcript is not persisted")
	return history.NewMemoryStore(), nil
}

// printStoredHistory replays previously persisted turns when resuming a
// conversation.
func printStoredHistory(ctx context.Context, store history.Store, conversationID string) {
	turns, err := store.Turns(ctx, conversationID)
	if err != nil || len(turns) == 0 {
		return
	}
	for _, turn := range turns {
		repeat := ""
		if turn.RepeatCount > 1 {
			repeat = fmt.Sprintf(" (x%d)", turn.RepeatCount)
		}
		fmt.Printf("%s: %s%s\n", turn.Actor, turn.RenderedText(), repeat)
	}
}

func repl(ctx context.Context, view *transcript.View, store history.Store, card *a2aSchema.AgentCard, agent *a2aClient.Client, pollDone <-chan transcript.PollOutcome) error {
	scanner := bufio.NewScanner(os.Stdin)
	printed := 0
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		if card != nil && card.Capabilities.Streaming {
			if err := streamTurn(ctx, view, line); err != nil {
				fmt.Printf("! %v\n", err)
			}
		} else if agent != nil {
			if err := syncTurn(ctx, view, line); err != nil {
				fmt.Printf("! %v\n", err)
			}
		} else {
			if _, err := view.SendMessage(ctx, line); err != nil {
				fmt.Printf("! %v\n", err)
			} else {
				select {
				case <-pollDone:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		printed = printTurns(ctx, view, store, printed)
	}
}

// streamTurn dispatches via the push model and blocks until the task stream
// reaches a terminal state.
func streamTurn(ctx context.Context, view *transcript.View, text string) error {
	done := make(chan struct{})
	taskID, err := view.SendTask(ctx, text, transcript.StreamCallbacks{
		OnThinking: func(taskID, thought string) {
			fmt.Printf("  … %s\n", thought)
		},
		OnTerminal: func(taskID string, state a2aSchema.TaskState, content []transcript.ContentPart) {
			close(done)
		},
		OnError: func(taskID string, err error) {
			close(done)
		},
	})
	if err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		// Best effort: tell the agent to stop working on the abandoned task.
		_ = view.CancelTask(context.Background(), taskID)
		return ctx.Err()
	}
	return nil
}

// syncTurn dispatches via `tasks/send` for agents without streaming support,
// falling back to `tasks/get` when the synchronous response is not final.
func syncTurn(ctx context.Context, view *transcript.View, text string) error {
	_, err := view.SendTaskSync(ctx, text)
	return err
}

func printTurns(ctx context.Context, view *transcript.View, store history.Store, printed int) int {
	turns := view.Turns()
	for ; printed < len(turns); printed++ {
		turn := turns[printed]
		prefix := turn.Actor
		if turn.Role == "agent" {
			for _, thought := range view.Thinking(turn.ID) {
				fmt.Printf("  [thinking] %s\n", thought)
			}
		}
		repeat := ""
		if turn.RepeatCount > 1 {
			repeat = fmt.Sprintf(" (x%d)", turn.RepeatCount)
		}
		fmt.Printf("%s: %s%s\n", prefix, turn.RenderedText(), repeat)
		if err := store.SaveTurn(ctx, view.ConversationID(), turn); err != nil {
			fmt.Printf("! failed to persist turn: %v\n", err)
		}
	}
	return printed
}
