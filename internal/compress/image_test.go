package compress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/supermin/internal/pngquant"
)

type quantizerFunc func(ctx context.Context, src io.Reader, dst io.Writer) error

func (f quantizerFunc) Quantize(ctx context.Context, src io.Reader, dst io.Writer) error {
	return f(ctx, src, dst)
}

// writes returns a quantizer that drains src, writes out and returns err.
func writes(out []byte, err error) Quantizer {
	return quantizerFunc(func(_ context.Context, src io.Reader, dst io.Writer) error {
		if _, rerr := io.Copy(io.Discard, src); rerr != nil {
			return rerr
		}
		if _, werr := dst.Write(out); werr != nil {
			return werr
		}
		return err
	})
}

var declined = &pngquant.Error{Code: 98, Reason: pngquant.ErrNotSmaller}

func recordStates(h *ImageQuantizer) *[]ImageState {
	var states []ImageState
	h.OnTransition = func(_ Task, _, to ImageState) {
		states = append(states, to)
	}
	return &states
}

func TestImageQuantizer_Outcomes(t *testing.T) {
	src := bytes.Repeat([]byte("P"), 100)
	tests := []struct {
		name      string
		q         Quantizer
		wantOut   []byte
		wantState ImageState
		wantTag   string
		wantKind  error
	}{
		{"smaller kept", writes([]byte("small"), nil), []byte("small"), StateFinished, TagOK, nil},
		{"larger replaced", writes(bytes.Repeat([]byte("L"), 200), nil), src, StateFinished, TagOK, nil},
		{"equal replaced", writes(bytes.Repeat([]byte("E"), 100), nil), src, StateFinished, TagOK, nil},
		{"declined empty", writes(nil, declined), src, StateFinished, TagOK, nil},
		{"clean but empty", writes(nil, nil), src, StateFinished, TagOK, nil},
		{"quantizer fault keeps partial bytes", writes([]byte("par"), pngquant.ErrFailed), []byte("par"), StateQuantError, TagSkipError, ErrStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTask(t, "hero.png", src)
			h := NewImageQuantizer(tt.q, false)
			states := recordStates(h)

			res, err := h.Compress(context.Background(), task)
			if err != nil {
				t.Fatalf("image faults must be recovered, got %v", err)
			}
			if res.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", res.Tag, tt.wantTag)
			}
			if tt.wantKind != nil && !errors.Is(res.Fault, tt.wantKind) {
				t.Errorf("Fault = %v, want %v", res.Fault, tt.wantKind)
			}
			if got := readFile(t, task.OutputPath); !bytes.Equal(got, tt.wantOut) {
				t.Errorf("output = %q, want %q", got, tt.wantOut)
			}
			assertOneTerminal(t, *states, tt.wantState)
		})
	}
}

func assertOneTerminal(t *testing.T, states []ImageState, want ImageState) {
	t.Helper()
	terminals := 0
	for _, s := range states {
		if s.Terminal() {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("states = %v, want exactly one terminal", states)
	}
	if len(states) == 0 || states[len(states)-1] != want {
		t.Errorf("states = %v, want to end in %v", states, want)
	}
}

func TestImageQuantizer_NeverLargerThanSource(t *testing.T) {
	src := bytes.Repeat([]byte{0x89}, 64)
	for _, size := range []int{0, 1, 63, 64, 65, 1000} {
		task := newTask(t, "a.png", src)
		h := NewImageQuantizer(writes(bytes.Repeat([]byte{1}, size), nil), false)
		if _, err := h.Compress(context.Background(), task); err != nil {
			t.Fatal(err)
		}
		fi, err := os.Stat(task.OutputPath)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() > int64(len(src)) {
			t.Errorf("quantized %d bytes: destination %d > source %d", size, fi.Size(), len(src))
		}
	}
}

func TestImageQuantizer_MissingSource(t *testing.T) {
	dir := t.TempDir()
	task := NewTask(filepath.Join(dir, "gone.png"), filepath.Join(dir, "out.png"))
	h := NewImageQuantizer(writes(nil, nil), false)
	states := recordStates(h)

	res, err := h.Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tag != TagSkipError || res.Status != Skipped {
		t.Errorf("result = %+v", res)
	}
	assertOneTerminal(t, *states, StateQuantError)
}

func TestImageQuantizer_UnopenableDestination(t *testing.T) {
	task := newTask(t, "hero.png", []byte("png"))
	// A directory in place of the destination cannot be opened for writing.
	if err := os.Mkdir(task.OutputPath, 0o755); err != nil {
		t.Fatal(err)
	}
	h := NewImageQuantizer(writes([]byte("x"), nil), false)
	states := recordStates(h)

	res, err := h.Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tag != TagSkipWrite || !errors.Is(res.Fault, ErrFilesystem) {
		t.Errorf("result = %+v", res)
	}
	assertOneTerminal(t, *states, StateWriteError)
}

func TestImageQuantizer_DestinationWriteFault(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	task := newTask(t, "hero.png", bytes.Repeat([]byte("P"), 100))
	task.OutputPath = "/dev/full"

	// The quantizer sees the write error too and fails; the write fault wins.
	h := NewImageQuantizer(writes([]byte("data"), nil), false)
	states := recordStates(h)

	res, err := h.Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tag != TagSkipWrite {
		t.Errorf("Tag = %q, want %q", res.Tag, TagSkipWrite)
	}
	assertOneTerminal(t, *states, StateWriteError)
}

func TestImageQuantizer_Atomic(t *testing.T) {
	src := bytes.Repeat([]byte("P"), 100)

	t.Run("finished replaces destination", func(t *testing.T) {
		task := newTask(t, "hero.png", src)
		h := NewImageQuantizer(writes([]byte("tiny"), nil), true)
		if _, err := h.Compress(context.Background(), task); err != nil {
			t.Fatal(err)
		}
		if got := readFile(t, task.OutputPath); string(got) != "tiny" {
			t.Errorf("output = %q", got)
		}
		assertNoTemps(t, filepath.Dir(task.OutputPath))
	})

	t.Run("fault leaves destination untouched", func(t *testing.T) {
		task := newTask(t, "hero.png", src)
		if err := os.WriteFile(task.OutputPath, []byte("previous"), 0o644); err != nil {
			t.Fatal(err)
		}
		h := NewImageQuantizer(writes([]byte("par"), pngquant.ErrFailed), true)
		res, err := h.Compress(context.Background(), task)
		if err != nil {
			t.Fatal(err)
		}
		if res.Tag != TagSkipError {
			t.Errorf("Tag = %q", res.Tag)
		}
		if got := readFile(t, task.OutputPath); string(got) != "previous" {
			t.Errorf("output = %q", got)
		}
		assertNoTemps(t, filepath.Dir(task.OutputPath))
	})
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) > 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestFaultWriter_KeepsFirstError(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "closed"))
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	fw := &faultWriter{w: f}
	if _, err := fw.Write([]byte("a")); err == nil {
		t.Fatal("expected write to closed file to fail")
	}
	first := fw.err
	fw.Write([]byte("b"))
	if fw.err != first || first == nil {
		t.Errorf("err = %v, want first error kept", fw.err)
	}
}
