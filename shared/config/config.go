// Package config loads the YAML client configuration and keeps it current
// when the file changes on disk.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the file omits a value.
const (
	DefaultPollIntervalMs = 500
	DefaultPollWindowMs   = 30000
)

// yamlConfig is the on-disk configuration shape.
type yamlConfig struct {
	Backend struct {
		URL string `yaml:"url"`
	} `yaml:"backend"`
	Agent struct {
		URL string `yaml:"url"`
	} `yaml:"agent"`
	Poll struct {
		IntervalMs int `yaml:"interval_ms"`
		WindowMs   int `yaml:"window_ms"`
	} `yaml:"poll"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
}

// Config holds the loaded configuration. Getters are safe for concurrent use;
// values refresh when the watched file changes.
type Config struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	path    string
	current yamlConfig

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Load reads the configuration file at path.
func Load(path string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Config{
		logger: logger.Named("config").With(zap.String("path", path)),
		path:   path,
	}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var parsed yamlConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if parsed.Poll.IntervalMs <= 0 {
		parsed.Poll.IntervalMs = DefaultPollIntervalMs
	}
	if parsed.Poll.WindowMs <= 0 {
		parsed.Poll.WindowMs = DefaultPollWindowMs
	}

	c.mu.Lock()
	c.current = parsed
	c.mu.Unlock()
	c.logger.Debug("Configuration loaded")
	return nil
}

// StartWatching begins reloading the file when it changes. Safe to skip for
// one-shot tools.
func (c *Config) StartWatching() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(c.path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	c.watcher = watcher
	c.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := c.reload(); err != nil {
						c.logger.Warn("Config reload failed", zap.Error(err))
					} else {
						c.logger.Info("Configuration reloaded")
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("Config watcher error", zap.Error(err))
			case <-c.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher, if started.
func (c *Config) Close() {
	if c.done != nil {
		close(c.done)
	}
	if c.watcher != nil {
		_ = c.watcher.Close()
	}
}

// BackendURL returns the host backend base URL ("" disables the pull model).
func (c *Config) BackendURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Backend.URL
}

// AgentURL returns the A2A agent base URL ("" disables the push model).
func (c *Config) AgentURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Agent.URL
}

// PollInterval returns the probe interval.
func (c *Config) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.current.Poll.IntervalMs) * time.Millisecond
}

// PollWindow returns the no-progress deadline window.
func (c *Config) PollWindow() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.current.Poll.WindowMs) * time.Millisecond
}

// LogLevel parses the configured zap level, defaulting to info.
func (c *Config) LogLevel() zapcore.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	level, err := zapcore.ParseLevel(c.current.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// HistoryPath returns the transcript database path ("" disables persistence).
func (c *Config) HistoryPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.History.Path
}
