// Package log builds the slog.Logger used across kbdswitch.
//
// Without a log file, records below error go to stdout and errors go to
// stderr. With a log file, the console only gets stderr and the file gets
// everything at the configured level.
package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is below Debug and logs every state machine transition.
const LevelTrace slog.Level = -8

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
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

// sink is a handler that only sees the levels accept allows. A nil accept
// lets everything through.
type sink struct {
	h      slog.Handler
	accept func(slog.Level) bool
}

func (s sink) wants(ctx context.Context, l slog.Level) bool {
	return (s.accept == nil || s.accept(l)) && s.h.Enabled(ctx, l)
}

// fanout hands each record to every sink that wants it.
type fanout []sink

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, s := range f {
		if s.wants(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f {
		if s.wants(ctx, r.Level) {
			errs = append(errs, s.h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) derive(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, s := range f {
		out[i] = sink{h: fn(s.h), accept: s.accept}
	}
	return out
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if l, ok := a.Value.Any().(slog.Level); ok && a.Key == slog.LevelKey && l == LevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
			return a
		},
	})
}

func belowError(l slog.Level) bool { return l < slog.LevelError }
func atLeastError(l slog.Level) bool { return l >= slog.LevelError }

// NewConsole returns a logger split between stdout and stderr.
func NewConsole(stdout, stderr io.Writer, level slog.Level) *slog.Logger {
	return slog.New(fanout{
		{h: textHandler(stdout, level), accept: belowError},
		{h: textHandler(stderr, level), accept: atLeastError},
	})
}

// SetupLogger builds the process logger. The returned closers must be closed
// on exit.
func SetupLogger(logLevel, logFile string) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(logLevel)
	if logFile == "" {
		return NewConsole(os.Stdout, os.Stderr, level), nil, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(fanout{
		{h: textHandler(os.Stderr, level)},
		{h: textHandler(f, level)},
	})
	return logger, []io.Closer{f}, nil
}
