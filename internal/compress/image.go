package compress

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/backmassage/supermin/internal/pngquant"
)

// Quantizer streams a PNG through a palette-reduction filter.
// *pngquant.Executor implements it.
type Quantizer interface {
	Quantize(ctx context.Context, src io.Reader, dst io.Writer) error
}

// ImageState is a step of one image task.
type ImageState int

const (
	StateStart ImageState = iota
	StateStreaming
	StateQuantError
	StateWriteError
	StateFinished
)

func (s ImageState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateStreaming:
		return "streaming"
	case StateQuantError:
		return "quant-error"
	case StateWriteError:
		return "write-error"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the task.
func (s ImageState) Terminal() bool {
	return s == StateQuantError || s == StateWriteError || s == StateFinished
}

// ImageQuantizer runs START → STREAMING → {QUANT_ERROR, WRITE_ERROR,
// FINISHED}. The destination never ends up larger than the source: on
// FINISHED an empty or not-smaller result is replaced with the source
// bytes. Faults are recovered as skips, never returned.
type ImageQuantizer struct {
	q      Quantizer
	atomic bool

	// OnTransition, when set, observes every state change.
	OnTransition func(task Task, from, to ImageState)
}

// NewImageQuantizer creates the PNG handler. With atomic set the filter
// writes to a temporary sibling that replaces the destination only on
// FINISHED; otherwise a failed stream leaves its partial bytes behind.
func NewImageQuantizer(q Quantizer, atomic bool) *ImageQuantizer {
	return &ImageQuantizer{q: q, atomic: atomic}
}

func (h *ImageQuantizer) Name() string { return "image" }

// StreamsOutput is true: the destination is opened for streaming.
func (h *ImageQuantizer) StreamsOutput() bool { return true }

type imageRun struct {
	h     *ImageQuantizer
	task  Task
	state ImageState
}

func (r *imageRun) to(s ImageState) {
	if r.h.OnTransition != nil {
		r.h.OnTransition(r.task, r.state, s)
	}
	r.state = s
}

func (r *imageRun) quantError(err error) Result {
	r.to(StateQuantError)
	return Result{Status: Skipped, Fault: newFault(ErrStream, r.task.InputPath, err), Tag: TagSkipError}
}

func (r *imageRun) writeError(err error) Result {
	r.to(StateWriteError)
	return Result{Status: Skipped, Fault: newFault(ErrFilesystem, r.task.OutputPath, err), Tag: TagSkipWrite}
}

func (r *imageRun) finished(status Status, n int64) Result {
	r.to(StateFinished)
	return Result{Status: status, Bytes: n, Tag: TagOK}
}

func (h *ImageQuantizer) Compress(ctx context.Context, task Task) (Result, error) {
	run := &imageRun{h: h, task: task, state: StateStart}

	src, err := os.Open(task.InputPath)
	if err != nil {
		return run.quantError(err), nil
	}
	defer src.Close()
	srcInfo, err := src.Stat()
	if err != nil {
		return run.quantError(err), nil
	}

	target := task.OutputPath
	if h.atomic {
		target = tempSibling(task.OutputPath)
	}
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return run.writeError(err), nil
	}
	fw := &faultWriter{w: dst}

	run.to(StateStreaming)
	qerr := h.q.Quantize(ctx, src, fw)
	cerr := dst.Close()

	switch {
	case fw.err != nil:
		h.discard(target)
		return run.writeError(fw.err), nil
	case qerr != nil && !pngquant.Declined(qerr):
		h.discard(target)
		return run.quantError(qerr), nil
	case cerr != nil:
		h.discard(target)
		return run.writeError(cerr), nil
	}

	status, n, err := keepSmaller(task.InputPath, target, srcInfo.Size())
	if err != nil {
		h.discard(target)
		return run.writeError(err), nil
	}
	if h.atomic {
		if err := os.Rename(target, task.OutputPath); err != nil {
			h.discard(target)
			return run.writeError(err), nil
		}
	}
	return run.finished(status, n), nil
}

// keepSmaller leaves dst alone when it is non-empty and strictly smaller
// than the source, and otherwise overwrites it with the source bytes.
func keepSmaller(srcPath, dstPath string, srcSize int64) (Status, int64, error) {
	info, err := os.Stat(dstPath)
	if err != nil {
		return Failed, 0, err
	}
	if info.Size() > 0 && info.Size() < srcSize {
		return Compressed, info.Size(), nil
	}
	n, err := copyFile(srcPath, dstPath)
	if err != nil {
		return Failed, 0, err
	}
	return Copied, n, nil
}

// discard removes the temporary file in atomic mode. Without atomic mode
// the partial destination stays.
func (h *ImageQuantizer) discard(target string) {
	if h.atomic {
		_ = os.Remove(target)
	}
}

func tempSibling(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
}

// faultWriter records the first write error so a destination fault can be
// told apart from a quantizer fault after the filter exits.
type faultWriter struct {
	w   io.Writer
	err error
}

func (f *faultWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil && f.err == nil {
		f.err = err
	}
	return n, err
}
