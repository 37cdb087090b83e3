package compress

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"os"

	"github.com/tdewolff/minify/v2"
)

var errMalformedJSON = errors.New("malformed JSON")

// DataCanonicalizer rewrites JSON without incidental whitespace, keeping
// key order and number spelling. Malformed input is an ErrParse fault.
type DataCanonicalizer struct {
	m *minify.M
}

// NewDataCanonicalizer creates the JSON handler.
func NewDataCanonicalizer(m *minify.M) *DataCanonicalizer {
	return &DataCanonicalizer{m: m}
}

func (h *DataCanonicalizer) Name() string { return "data" }

func (h *DataCanonicalizer) Compress(_ context.Context, task Task) (Result, error) {
	src, err := os.ReadFile(task.InputPath)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.InputPath, err)
	}
	// The tokenizer behind json.Minify accepts some input a strict parser
	// rejects, so validity is decided here.
	if !stdjson.Valid(src) {
		return Result{Status: Failed}, newFault(ErrParse, task.InputPath, errMalformedJSON)
	}
	out, err := h.m.Bytes(MediaJSON, src)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrParse, task.InputPath, err)
	}
	n, err := writeFile(task.OutputPath, out)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.OutputPath, err)
	}
	return Result{Status: Compressed, Bytes: n, Tag: TagOK}, nil
}
