package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	log      *slog.Logger
	pkg      string
	file     string
	function string
}

// Setup installs the process-wide slog handler. Production gets JSON, everything
// else gets the text handler.
func Setup(environment, level string, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(environment, "production") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func New(pkg string) Logger {
	return Logger{
		log: slog.Default().With("package", pkg),
		pkg: pkg,
	}
}

func (l Logger) File(name string) Logger {
	l.file = name
	l.log = l.log.With("file", name)
	return l
}

func (l Logger) Function(name string) Logger {
	l.function = name
	l.log = l.log.With("function", name)
	return l
}

func (l Logger) With(args ...any) Logger {
	l.log = l.log.With(args...)
	return l
}

func (l Logger) Debug(msg string, args ...any) {
	l.log.Debug(msg, args...)
}

func (l Logger) Info(msg string, args ...any) {
	l.log.Info(msg, args...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.log.Warn(msg, args...)
}

// Er logs err without returning it.
func (l Logger) Er(msg string, err error, args ...any) {
	l.log.Error(msg, append([]any{"error", err}, args...)...)
}

func (l Logger) ErMsg(msg string, args ...any) {
	l.log.Error(msg, args...)
}

// Err logs err and returns it wrapped with msg so errors.Is keeps working.
func (l Logger) Err(msg string, err error, args ...any) error {
	l.Er(msg, err, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

func (l Logger) ErrMsg(msg string) error {
	l.log.Error(msg)
	return errors.New(msg)
}

// Error logs msg with the given attributes and returns it as a new error.
func (l Logger) Error(msg string, args ...any) error {
	l.log.Error(msg, args...)
	return errors.New(msg)
}
