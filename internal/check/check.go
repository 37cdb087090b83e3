// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for pngquant, the minifier registry and
// the sidecar encoders.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/supermin/internal/compress"
	"github.com/backmassage/supermin/internal/config"
	"github.com/backmassage/supermin/internal/pngquant"
	"github.com/backmassage/supermin/internal/precompress"
)

// Sentinel errors returned by CheckDeps when the quantizer is unusable.
var (
	ErrPngquantNotFound = errors.New("pngquant not found (install it or pass --pngquant)")
	ErrPngquantBroken   = errors.New("pngquant found but --version failed")
)

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// Samples minified by the --check flow, one per registered media type.
var minifierSamples = []struct {
	name      string
	mediaType string
	src       string
}{
	{"script", compress.MediaJS, "function add(a, b) {\n  return a + b;\n}\n"},
	{"style", compress.MediaCSS, "body {\n  margin: 0px;\n}\n"},
	{"markup", compress.MediaHTML, "<html>\n  <body>\n    <p> hi </p>\n  </body>\n</html>\n"},
	{"data", compress.MediaJSON, "{\n  \"a\": [1, 2]\n}\n"},
	{"vector", compress.MediaSVG, "<svg xmlns=\"http://www.w3.org/2000/svg\">\n  <rect width=\"10\" height=\"10\"/>\n</svg>\n"},
}

var allAlgorithms = []config.Algorithm{
	config.AlgorithmGzip,
	config.AlgorithmBrotli,
	config.AlgorithmZstd,
	config.AlgorithmLZ4,
	config.AlgorithmSnappy,
}

// RunCheck runs the interactive --check flow: pngquant availability and
// version, a sample run of every minifier, every sidecar encoder, and the
// configured directories. It is informational only and does not stop on
// failure; it returns the number of failed checks.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) int {
	log.Info("=== System Check ===")

	failed := 0
	if !checkPngquant(ctx, cfg, log) {
		failed++
	}
	failed += checkMinifiers(log)
	failed += checkSidecars(log)
	checkDirs(cfg, log)
	return failed
}

// checkPngquant verifies pngquant resolves and logs its version string.
func checkPngquant(ctx context.Context, cfg *config.Config, log Logger) bool {
	e := pngquant.NewExecutor(pngquant.OptionsFromConfig(cfg))
	path, err := e.LookPath()
	if err != nil {
		log.Error("pngquant not found (%s)", cfg.PngquantPath)
		return false
	}
	version, err := e.Version(ctx)
	if err != nil {
		log.Warn("pngquant found at %s but --version failed: %v", path, err)
		return false
	}
	log.Success("pngquant %s (%s)", version, path)
	log.Debug("  args: %v", pngquant.Build(pngquant.OptionsFromConfig(cfg)))
	return true
}

// checkMinifiers runs each sample through the shared registry.
func checkMinifiers(log Logger) int {
	log.Info("Minifiers:")
	m := compress.NewMinifier()
	failed := 0
	for _, s := range minifierSamples {
		out, err := m.Bytes(s.mediaType, []byte(s.src))
		if err != nil {
			log.Error("  %s (%s): %v", s.name, s.mediaType, err)
			failed++
			continue
		}
		log.Success("  %s (%s): %d → %d bytes", s.name, s.mediaType, len(s.src), len(out))
	}
	return failed
}

// checkSidecars encodes a small payload with every algorithm.
func checkSidecars(log Logger) int {
	log.Info("Sidecar encoders:")
	payload := bytes.Repeat([]byte("supermin "), 64)
	failed := 0
	for _, algo := range allAlgorithms {
		var buf bytes.Buffer
		if err := precompress.Encode(algo, &buf, payload); err != nil {
			log.Error("  %s: %v", algo, err)
			failed++
			continue
		}
		log.Success("  %s (%s): %d → %d bytes", algo, precompress.Extension(algo), len(payload), buf.Len())
	}
	return failed
}

// checkDirs reports whether the input exists and where output would go.
func checkDirs(cfg *config.Config, log Logger) {
	if cfg.InputDir == "" {
		return
	}
	in, _ := filepath.Abs(cfg.InputDir)
	if fi, err := os.Stat(in); err != nil || !fi.IsDir() {
		log.Warn("Input directory %s does not exist", in)
	} else {
		log.Info("Input directory: %s", in)
	}
	if cfg.OutputDir != "" {
		out, _ := filepath.Abs(cfg.OutputDir)
		log.Info("Output directory: %s", out)
	}
}

// CheckDeps is the pre-pipeline validation: it verifies that the configured
// pngquant binary resolves and answers --version. Returns a sentinel error
// on failure.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	e := pngquant.NewExecutor(pngquant.OptionsFromConfig(cfg))
	if _, err := e.LookPath(); err != nil {
		return fmt.Errorf("%w: %s", ErrPngquantNotFound, cfg.PngquantPath)
	}
	if _, err := e.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPngquantBroken, err)
	}
	return nil
}
