// Package logging provides the process log sink: a standard slog text
// handler fanned out with a capacity-bounded in-memory recorder that
// backs the diagnostics endpoint. The recorder is constructed once in
// server wiring and injected; there is no package-level logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Record is one captured log line.
type Record struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// Recorder is a slog.Handler that retains the most recent records in a
// fixed-capacity ring buffer. Older records are overwritten in place.
type Recorder struct {
	level slog.Level
	attrs []slog.Attr

	mu   *sync.Mutex
	buf  []Record
	next *int
	full *bool
}

// NewRecorder returns a recorder holding at most capacity records.
func NewRecorder(capacity int, level slog.Level) *Recorder {
	if capacity < 1 {
		capacity = 1
	}
	next := 0
	full := false
	return &Recorder{
		level: level,
		mu:    &sync.Mutex{},
		buf:   make([]Record, capacity),
		next:  &next,
		full:  &full,
	}
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	entry := Record{
		Time:    rec.Time,
		Level:   rec.Level.String(),
		Message: rec.Message,
	}

	attrs := make(map[string]string, rec.NumAttrs()+len(r.attrs))
	for _, attr := range r.attrs {
		attrs[attr.Key] = attr.Value.String()
	}
	rec.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.String()
		return true
	})
	if len(attrs) > 0 {
		entry.Attrs = attrs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[*r.next] = entry
	*r.next = (*r.next + 1) % len(r.buf)
	if *r.next == 0 {
		*r.full = true
	}
	return nil
}

// WithAttrs returns a recorder sharing the same ring buffer with the
// extra attributes applied to every record.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *r
	clone.attrs = append(append([]slog.Attr{}, r.attrs...), attrs...)
	return &clone
}

// WithGroup is accepted but flattened: grouped attributes keep their
// own keys. Good enough for a diagnostics buffer.
func (r *Recorder) WithGroup(string) slog.Handler {
	return r
}

// Recent returns the buffered records, oldest first.
func (r *Recorder) Recent() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !*r.full {
		out := make([]Record, *r.next)
		copy(out, r.buf[:*r.next])
		return out
	}

	out := make([]Record, 0, len(r.buf))
	out = append(out, r.buf[*r.next:]...)
	out = append(out, r.buf[:*r.next]...)
	return out
}

// NewLogger builds the application logger: text output to w fanned out
// with the recorder.
func NewLogger(w io.Writer, level slog.Level, recorder *Recorder) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(fanout{text, recorder})
}

// fanout dispatches each record to every handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
