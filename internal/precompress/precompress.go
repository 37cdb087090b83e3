// Package precompress writes precompressed sidecar files (.gz, .br, .zst,
// .lz4, .sz) next to minified text assets so static servers can serve them
// without compressing on the fly.
package precompress

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"

	"github.com/backmassage/supermin/internal/config"
)

// Extension mapping
var extensions = map[config.Algorithm]string{
	config.AlgorithmGzip:   ".gz",
	config.AlgorithmBrotli: ".br",
	config.AlgorithmZstd:   ".zst",
	config.AlgorithmLZ4:    ".lz4",
	config.AlgorithmSnappy: ".sz",
}

// Extension returns the sidecar suffix for algo, or "" when unknown.
func Extension(algo config.Algorithm) string {
	return extensions[algo]
}

// SidecarPath returns the path of algo's sidecar for path.
func SidecarPath(path string, algo config.Algorithm) string {
	return path + Extension(algo)
}

// newWriter creates a best-compression encoder for algo writing to w.
func newWriter(algo config.Algorithm, w io.Writer) (io.WriteCloser, error) {
	switch algo {
	case config.AlgorithmGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case config.AlgorithmBrotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	case config.AlgorithmZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case config.AlgorithmLZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
			return nil, err
		}
		return zw, nil
	case config.AlgorithmSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported precompress algorithm %q", algo)
	}
}

// Encode compresses data with algo into w.
func Encode(algo config.Algorithm, w io.Writer, data []byte) error {
	zw, err := newWriter(algo, w)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// WriteSidecars reads path once and writes one sidecar per algorithm. The
// encoders run concurrently; WriteSidecars returns after all of them have
// finished, with the first error encountered.
func WriteSidecars(ctx context.Context, path string, algos []config.Algorithm) error {
	if len(algos) == 0 {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, algo := range algos {
		algo := algo
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return writeSidecar(SidecarPath(path, algo), algo, data)
		})
	}
	return g.Wait()
}

func writeSidecar(dst string, algo config.Algorithm, data []byte) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := Encode(algo, f, data); err != nil {
		f.Close()
		return fmt.Errorf("%s sidecar %s: %w", algo, dst, err)
	}
	return f.Close()
}
