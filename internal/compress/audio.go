package compress

import "context"

// AudioStripper replaces audio with a zero-byte placeholder.
type AudioStripper struct{}

func (AudioStripper) Name() string { return "audio" }

func (AudioStripper) Compress(_ context.Context, task Task) (Result, error) {
	if _, err := writeFile(task.OutputPath, nil); err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.OutputPath, err)
	}
	return Result{Status: Compressed, Tag: TagOK}, nil
}
