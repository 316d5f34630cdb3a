// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log entry with its attributes flattened.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record it handles.
//
// Thread-safety: all methods are safe for concurrent use.
type LogRecorder struct {
	mu      sync.Mutex
	records []Record
	attrs   []slog.Attr
	root    *LogRecorder
}

// NewLogRecorder returns an empty recorder and a logger that writes to it.
// The logger records every level, including debug.
func NewLogRecorder() (*LogRecorder, *slog.Logger) {
	r := &LogRecorder{}
	r.root = r
	return r, slog.New(r)
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any, rec.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Resolve().Any()
		return true
	})

	root := r.root
	root.mu.Lock()
	defer root.mu.Unlock()
	root.records = append(root.records, Record{Level: rec.Level, Message: rec.Message, Attrs: attrs})
	return nil
}

func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{
		attrs: append(append([]slog.Attr{}, r.attrs...), attrs...),
		root:  r.root,
	}
}

// WithGroup is not needed by any caller; groups are flattened.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of everything recorded so far.
func (r *LogRecorder) Records() []Record {
	root := r.root
	root.mu.Lock()
	defer root.mu.Unlock()
	return append([]Record(nil), root.records...)
}

// Find returns the records whose message is msg, in order.
func (r *LogRecorder) Find(msg string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Message == msg {
			out = append(out, rec)
		}
	}
	return out
}

// Reset discards all records.
func (r *LogRecorder) Reset() {
	root := r.root
	root.mu.Lock()
	defer root.mu.Unlock()
	root.records = nil
}
