package compress

import (
	"errors"
	"fmt"
)

// Fault kinds. Match with errors.Is against a returned error or
// Result.Fault.
var (
	// ErrMinify is a script/style/vector transform failure. Recovered by
	// copying the source verbatim.
	ErrMinify = errors.New("minify fault")
	// ErrParse is malformed structured data. Never recovered.
	ErrParse = errors.New("parse fault")
	// ErrStream is a quantizer failure. Recovered by skipping the file.
	ErrStream = errors.New("stream fault")
	// ErrFilesystem is a read, write or create failure. Recovered only by
	// the image handler.
	ErrFilesystem = errors.New("filesystem fault")
	// ErrMarkup is a markup transform failure. Never recovered.
	ErrMarkup = errors.New("markup fault")
)

// Fault ties a fault kind to the file it happened on.
type Fault struct {
	Kind error
	Path string
	Err  error
}

func newFault(kind error, path string, err error) *Fault {
	return &Fault{Kind: kind, Path: path, Err: err}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%v: %s: %v", f.Kind, f.Path, f.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (f *Fault) Unwrap() []error { return []error{f.Kind, f.Err} }
