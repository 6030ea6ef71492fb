package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger initializes the application logger based on configuration.
// When a log file is configured, output is rotated via lumberjack; otherwise
// logs go to a file under the state dir so they do not interfere with the
// TUI on stdout.
func InitLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	level := parseLogLevel(cfg.Level)

	if cfg.File == "" {
		cfg.File = filepath.Join(getStateDir(), "cinehome", "cinehome.log")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var writer io.Writer = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// NewConsoleLogger builds a logger writing human-readable output to w,
// used by CLI subcommands that run outside the TUI.
func NewConsoleLogger(w io.Writer, cfg *LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Color {
		return slog.New(newColoredTextHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// coloredTextHandler wraps slog.TextHandler to colorize console output by level
type coloredTextHandler struct {
	handler slog.Handler
	writer  io.Writer
	opts    *slog.HandlerOptions
}

func newColoredTextHandler(w io.Writer, opts *slog.HandlerOptions) *coloredTextHandler {
	return &coloredTextHandler{
		handler: slog.NewTextHandler(w, opts),
		writer:  w,
		opts:    opts,
	}
}

func (h *coloredTextHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf strings.Builder
	if err := slog.NewTextHandler(&buf, h.opts).Handle(ctx, r); err != nil {
		return err
	}

	_, err := h.writer.Write([]byte(colorize(buf.String(), r.Level)))
	return err
}

// colorize wraps the leading time=... token in an ANSI color chosen by level
func colorize(line string, level slog.Level) string {
	var code string
	switch {
	case level >= slog.LevelError:
		code = "31" // red
	case level >= slog.LevelWarn:
		code = "33" // yellow
	case level >= slog.LevelInfo:
		code = "32" // green
	default:
		code = "90" // gray
	}

	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 2 {
		return fmt.Sprintf("\033[%sm%s\033[0m %s", code, parts[0], parts[1])
	}
	return fmt.Sprintf("\033[%sm%s\033[0m", code, line)
}

func (h *coloredTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &coloredTextHandler{handler: h.handler.WithAttrs(attrs), writer: h.writer, opts: h.opts}
}

func (h *coloredTextHandler) WithGroup(name string) slog.Handler {
	return &coloredTextHandler{handler: h.handler.WithGroup(name), writer: h.writer, opts: h.opts}
}

func (h *coloredTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
