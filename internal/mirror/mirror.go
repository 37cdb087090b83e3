// Package mirror maps input files onto their mirrored location under the
// output root and makes sure the destination directories exist.
package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrOutsideRoot is returned for inputs that are not under the input root.
var ErrOutsideRoot = errors.New("path is outside the input root")

// Resolver re-roots input paths under an output root. Resolved paths are
// remembered per input, so repeated calls return the same answer without
// touching the filesystem again. All methods are goroutine-safe.
type Resolver struct {
	inputRoot  string
	outputRoot string

	mu       sync.Mutex
	resolved map[string]string // input path → output path
}

// NewResolver creates a resolver for the two roots. Both are cleaned and
// made absolute.
func NewResolver(inputRoot, outputRoot string) (*Resolver, error) {
	in, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil, err
	}
	out, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		inputRoot:  in,
		outputRoot: out,
		resolved:   make(map[string]string),
	}, nil
}

// InputRoot returns the absolute input root.
func (r *Resolver) InputRoot() string { return r.inputRoot }

// OutputRoot returns the absolute output root.
func (r *Resolver) OutputRoot() string { return r.outputRoot }

// Rel returns input's path relative to the input root.
func (r *Resolver) Rel(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.inputRoot, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, input)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, input)
	}
	return rel, nil
}

// Path computes the mirrored output path without touching the filesystem.
//
//	<inputRoot>/a/b/c.js → <outputRoot>/a/b/c.js
func (r *Resolver) Path(input string) (string, error) {
	rel, err := r.Rel(input)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.outputRoot, rel), nil
}

// Resolve returns the mirrored output path for input and creates every
// missing parent directory. With ensureFile set it also creates an empty
// destination file when none exists (an existing file is left untouched).
// Pre-existing parents are never an error.
func (r *Resolver) Resolve(input string, ensureFile bool) (string, error) {
	r.mu.Lock()
	out, ok := r.resolved[input]
	r.mu.Unlock()

	if !ok {
		var err error
		out, err = r.Path(input)
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if ensureFile {
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return "", fmt.Errorf("create output file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", err
		}
	}

	r.mu.Lock()
	r.resolved[input] = out
	r.mu.Unlock()
	return out, nil
}
