package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandlerOptions wraps the standard slog.HandlerOptions so callers can
// configure level/source behaviour without depending on the handler's
// internal fields.
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// PrettyHandler renders log records as a single colourised line:
// [HH:MM:SS.mmm] LEVEL: message {attrs-as-json}
type PrettyHandler struct {
	Handler slog.Handler
	l       *log.Logger
	mu      *sync.Mutex
	attrs   []slog.Attr
}

// NewPrettyHandler builds a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	h := &PrettyHandler{
		Handler: slog.NewJSONHandler(w, &opts.SlogOpts),
		l:       log.New(w, "", 0),
		mu:      &sync.Mutex{},
	}
	return h
}

func (h *PrettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.Handler.Enabled(ctx, level)
}

// NewLogger builds the process-wide logger from the LOG_FORMAT/LOG_LEVEL
// convention: "pretty" (default) selects PrettyHandler, "json" selects
// slog.NewJSONHandler; an unrecognized level falls back to Info.
func NewLogger(format, level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	opts := slog.HandlerOptions{Level: slogLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	}
	return slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{SlogOpts: opts}))
}

func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	attrs := map[string]interface{}{}
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	b, err := json.Marshal(attrs)
	if err != nil {
		return err
	}

	timestamp := r.Time.Format("15:04:05.000")

	h.mu.Lock()
	defer h.mu.Unlock()
	h.l.Println(fmt.Sprintf("[%s] %s %s %s", timestamp, level, r.Message, string(b)))

	return nil
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{
		Handler: h.Handler.WithAttrs(attrs),
		l:       h.l,
		mu:      h.mu,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		Handler: h.Handler.WithGroup(name),
		l:       h.l,
		mu:      h.mu,
		attrs:   h.attrs,
	}
}
