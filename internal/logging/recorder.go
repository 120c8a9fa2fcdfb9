package logging

import (
	"context"
	"sync"
)

// Entry is one record captured by a Recorder.
type Entry struct {
	Level string
	Msg   string
	Args  []any
}

// Recorder is a Logger that keeps every record in memory. Tests use it to
// assert that something was logged.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	base    []any
	parent  *Recorder
}

func (r *Recorder) Debug(_ context.Context, msg string, args ...any) { r.add("DEBUG", msg, args) }
func (r *Recorder) Info(_ context.Context, msg string, args ...any)  { r.add("INFO", msg, args) }
func (r *Recorder) Warn(_ context.Context, msg string, args ...any)  { r.add("WARN", msg, args) }
func (r *Recorder) Error(_ context.Context, msg string, args ...any) { r.add("ERROR", msg, args) }

func (r *Recorder) With(args ...any) Logger {
	root := r.root()
	base := append(append([]any{}, r.base...), args...)
	return &Recorder{base: base, parent: root}
}

// Entries returns a copy of the captured records.
func (r *Recorder) Entries() []Entry {
	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	return append([]Entry(nil), root.entries...)
}

// Messages returns the messages logged at level.
func (r *Recorder) Messages(level string) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Msg)
		}
	}
	return out
}

func (r *Recorder) root() *Recorder {
	if r.parent != nil {
		return r.parent
	}
	return r
}

func (r *Recorder) add(level, msg string, args []any) {
	root := r.root()
	all := append(append([]any{}, r.base...), args...)
	root.mu.Lock()
	root.entries = append(root.entries, Entry{Level: level, Msg: msg, Args: all})
	root.mu.Unlock()
}
