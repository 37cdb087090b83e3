package compress

import (
	"context"
	"path/filepath"
	"strings"
)

// Task is one file to process.
type Task struct {
	InputPath  string
	Ext        string // lower-cased, with the leading dot
	OutputPath string
}

// NewTask builds a Task for input, mirrored to output.
func NewTask(input, output string) Task {
	return Task{
		InputPath:  input,
		Ext:        strings.ToLower(filepath.Ext(input)),
		OutputPath: output,
	}
}

// Status is the outcome of one task.
type Status int

const (
	Compressed Status = iota
	Copied
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Compressed:
		return "compressed"
	case Copied:
		return "copied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress tags.
const (
	TagOK        = "ok"
	TagCopy      = "copy"
	TagSkipError = "skip-error"
	TagSkipWrite = "skip-write"
)

// Result reports what a handler did. Fault holds a recovered fault, if any.
type Result struct {
	Status Status
	Bytes  int64
	Fault  error
	Tag    string
}

// Handler compresses one file. A non-nil error is a fault the run does not
// recover from; recovered faults are reported through Result.Fault.
type Handler interface {
	Name() string
	Compress(ctx context.Context, task Task) (Result, error)
}

// streamer is implemented by handlers that write their destination through
// an open stream and want it to exist before they start.
type streamer interface {
	StreamsOutput() bool
}

// StreamsOutput reports whether h expects an empty destination file to be
// created before Compress is called.
func StreamsOutput(h Handler) bool {
	s, ok := h.(streamer)
	return ok && s.StreamsOutput()
}

// Table maps lower-cased extensions to handlers, with a fallback for
// everything unmapped.
type Table struct {
	handlers map[string]Handler
	fallback Handler
}

// NewTable creates an empty table routing everything to fallback.
func NewTable(fallback Handler) *Table {
	return &Table{handlers: make(map[string]Handler), fallback: fallback}
}

// Register routes each extension to h, replacing earlier entries.
func (t *Table) Register(h Handler, exts ...string) {
	for _, ext := range exts {
		t.handlers[strings.ToLower(ext)] = h
	}
}

// Lookup returns the handler for ext, or the fallback.
func (t *Table) Lookup(ext string) Handler {
	if h, ok := t.handlers[strings.ToLower(ext)]; ok {
		return h
	}
	return t.fallback
}

// Extensions returns the mapped extensions in no particular order.
func (t *Table) Extensions() []string {
	exts := make([]string, 0, len(t.handlers))
	for ext := range t.handlers {
		exts = append(exts, ext)
	}
	return exts
}
