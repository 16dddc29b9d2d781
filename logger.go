package owlite

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/owlite/reason"
)

// Logger wraps slog.Logger with owlite-specific helpers that use consistent
// field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler writing to stderr at info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))}
}

func (l *Logger) orNoop() *Logger {
	if l == nil {
		return NoopLogger()
	}
	return l
}

// WithPath adds a path field.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{Logger: l.Logger.With("path", path)}
}

// WithProperty adds a property field.
func (l *Logger) WithProperty(name string) *Logger {
	return &Logger{Logger: l.Logger.With("property", name)}
}

// LogMaterialize logs the outcome of a materialization pass.
func (l *Logger) LogMaterialize(ctx context.Context, axioms int, rep *reason.Report, err error) {
	if err != nil {
		l.ErrorContext(ctx, "materialize failed",
			"axioms", axioms,
			"error", err,
		)
		return
	}

	attrs := []any{
		"axioms", axioms,
		"added", rep.Added,
		"retracted", rep.Retracted,
		"rounds", rep.Rounds,
		"duration", rep.Duration,
	}
	switch {
	case len(rep.Violations) > 0:
		l.WarnContext(ctx, "materialize completed with cardinality violations",
			append(attrs, "violations", len(rep.Violations))...)
	case len(rep.CapReached) > 0:
		l.WarnContext(ctx, "materialize stopped at iteration cap",
			append(attrs, "capped_properties", len(rep.CapReached))...)
	default:
		l.InfoContext(ctx, "materialize completed", attrs...)
	}
}

// LogViolation logs a single functional-property conflict. Callers name the
// property through WithProperty.
func (l *Logger) LogViolation(ctx context.Context, v *reason.Violation) {
	l.DebugContext(ctx, "cardinality violation",
		"property_id", v.Property,
		"subject", v.Subject,
		"kept", v.Kept,
		"conflicting", v.Conflicting,
		"retracted", v.Retracted,
	)
}

// LogWrite logs an image write.
func (l *Logger) LogWrite(ctx context.Context, path string, size uint64, triples uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "image write failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "image written",
		"path", path,
		"bytes", size,
		"triples", triples,
	)
}

// LogOpen logs an image open. Callers name the image through WithPath.
func (l *Logger) LogOpen(ctx context.Context, triples, nodes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "image open failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "image opened",
		"triples", triples,
		"nodes", nodes,
	)
}
