package compress

import (
	"context"
	"io"
	"os"
)

// Copier duplicates the source verbatim.
type Copier struct{}

func (Copier) Name() string { return "copy" }

func (Copier) Compress(_ context.Context, task Task) (Result, error) {
	n, err := copyFile(task.InputPath, task.OutputPath)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.OutputPath, err)
	}
	return Result{Status: Copied, Bytes: n, Tag: TagCopy}, nil
}

// copyFile overwrites dst with the contents of src.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func writeFile(path string, data []byte) (int64, error) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
