// Package logging provides JSON-lines structured logging for ghexplorer.
//
//	{"ts":"2026-01-15T10:30:00Z","level":"INFO","msg":"session started","provider":"github"}
//
// Log levels:
//   - debug: per-request timings and settlements (GHX_DEBUG=1)
//   - info: startup, shutdown, provider selection
//   - warn: recoverable failures and dropped telemetry
//   - error: high-severity failures
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a new JSON-lines structured logger.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}

// ParseLevel maps a config level name onto a slog.Level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenFile creates a logger writing to path, creating its directory. The
// returned closer must be closed on exit.
func OpenFile(path, level string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(&Config{Output: f, Level: ParseLevel(level)}), f, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(&Config{Output: io.Discard, Level: slog.LevelError + 1})
}

// LogStartup logs session startup.
func LogStartup(logger *slog.Logger, version, provider, configPath string) {
	logger.Info("session started",
		"version", version,
		"provider", provider,
		"config_path", configPath,
		"pid", os.Getpid(),
	)
}

// LogShutdown logs session shutdown.
func LogShutdown(logger *slog.Logger, reason string) {
	logger.Info("session shutting down", "reason", reason)
}

// LogProviderUnavailable logs a provider that was registered but cannot serve requests.
func LogProviderUnavailable(logger *slog.Logger, name string, err error) {
	logger.Warn("provider unavailable", "provider", name, "error", err)
}
