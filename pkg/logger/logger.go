// Package logger builds the service's slog logger and tags records with
// the active OpenTelemetry trace.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type Options struct {
	Level   string
	Format  Format
	Service string
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// New returns a logger writing to w. An empty level means info.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level := slog.LevelInfo
	if opts.Level != "" {
		l, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	hopts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch opts.Format {
	case FormatText:
		h = slog.NewTextHandler(w, hopts)
	case FormatJSON, "":
		h = slog.NewJSONHandler(w, hopts)
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	log := slog.New(&traceHandler{Handler: h})
	if opts.Service != "" {
		log = log.With(slog.String("service", opts.Service))
	}
	return log, nil
}

// traceHandler adds trace_id and span_id when the record's context carries a span.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}
