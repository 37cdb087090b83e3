package pngquant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Executor runs pngquant as a streaming filter.
type Executor struct {
	opts Options
}

// NewExecutor returns an Executor for opts.
func NewExecutor(opts Options) *Executor {
	return &Executor{opts: opts}
}

// Quantize pipes src through pngquant into dst. It returns nil on success,
// an [*Error] for a non-zero exit, or the start/I/O error otherwise. A write
// failure on dst usually surfaces as a non-zero exit (pngquant gets a broken
// pipe), so callers that need to tell the two apart should watch dst
// themselves.
func (e *Executor) Quantize(ctx context.Context, src io.Reader, dst io.Writer) error {
	args := Build(e.opts)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = src
	cmd.Stdout = dst

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return classifyExit(exitErr.ExitCode(), stderrBuf.String())
	}
	return fmt.Errorf("run %s: %w", e.opts.Binary, err)
}

// Version returns the first line of `pngquant --version`.
func (e *Executor) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.opts.Binary, "--version").Output()
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(out))
	if idx := strings.Index(line, "\n"); idx > 0 {
		line = line[:idx]
	}
	return line, nil
}

// LookPath resolves the configured binary on PATH.
func (e *Executor) LookPath() (string, error) {
	return exec.LookPath(e.opts.Binary)
}
