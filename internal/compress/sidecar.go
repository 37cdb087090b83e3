package compress

import (
	"context"

	"github.com/backmassage/supermin/internal/config"
	"github.com/backmassage/supermin/internal/precompress"
)

// withSidecars writes precompressed siblings of the output after the
// wrapped handler succeeds.
type withSidecars struct {
	Handler
	algos []config.Algorithm
}

// WithSidecars wraps h so every output it writes also gets one sidecar per
// algorithm. With no algorithms h is returned unchanged.
func WithSidecars(h Handler, algos []config.Algorithm) Handler {
	if len(algos) == 0 {
		return h
	}
	return &withSidecars{Handler: h, algos: algos}
}

func (s *withSidecars) Compress(ctx context.Context, task Task) (Result, error) {
	res, err := s.Handler.Compress(ctx, task)
	if err != nil {
		return res, err
	}
	if err := precompress.WriteSidecars(ctx, task.OutputPath, s.algos); err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.OutputPath, err)
	}
	return res, nil
}
