// Package config holds runtime configuration: defaults, CLI flag binding,
// optional YAML file overlay, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// --- Enum types for validated string fields ---

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Algorithm names a sidecar precompression codec.
type Algorithm string

const (
	AlgorithmGzip   Algorithm = "gzip"
	AlgorithmBrotli Algorithm = "br"
	AlgorithmZstd   Algorithm = "zstd"
	AlgorithmLZ4    Algorithm = "lz4"
	AlgorithmSnappy Algorithm = "snappy"
)

// ParseAlgorithm maps user spellings ("gz", "brotli", "zst", ...) onto an
// Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gzip", "gz":
		return AlgorithmGzip, nil
	case "br", "brotli":
		return AlgorithmBrotli, nil
	case "zstd", "zst":
		return AlgorithmZstd, nil
	case "lz4":
		return AlgorithmLZ4, nil
	case "snappy", "sz":
		return AlgorithmSnappy, nil
	default:
		return "", fmt.Errorf("invalid precompress algorithm %q (use gzip, br, zstd, lz4 or snappy)", s)
	}
}

const (
	DefaultOutputDir = "./supermin_output"
	DefaultPngquant  = "pngquant"
	MaxColors        = 256
	MinColors        = 2
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [LoadFile], and mutated by the bound CLI flags
// before being passed (by pointer) to packages that need it.
type Config struct {
	// Paths.
	InputDir  string
	OutputDir string
	Exclude   []string // doublestar patterns, relative to InputDir.

	// Audio. KeepMusic is accepted but the audio handler does not read it.
	KeepMusic bool

	// Image quantization.
	PngquantPath string // Default: "pngquant" (resolved on PATH).
	Colors       int    // Default: 256.
	AtomicImages bool   // Write through a temp file and rename on success.

	// Sidecars.
	Precompress []Algorithm

	// Behavior.
	Watch bool

	// Display and logging.
	Verbose    bool
	ColorMode  ColorMode // Default: "auto".
	LogFile    string    // Optional log file path.
	CheckOnly  bool      // Run --check diagnostics and exit.
	Analyze    bool      // Report the input tree by handler and exit.
	ConfigFile string    // Optional YAML file.
}

// DefaultConfig returns a Config matching the historical supermin defaults.
func DefaultConfig() Config {
	return Config{
		InputDir:     ".",
		OutputDir:    DefaultOutputDir,
		KeepMusic:    false,
		PngquantPath: DefaultPngquant,
		Colors:       MaxColors,
		AtomicImages: false,
		Watch:        false,
		Verbose:      false,
		ColorMode:    ColorAuto,
		CheckOnly:    false,
		Analyze:      false,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, ranges and patterns. When not in CheckOnly
// mode, it also requires that both directory paths are non-empty.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.Colors < MinColors || c.Colors > MaxColors {
		return fmt.Errorf("colors must be between %d and %d (got %d)", MinColors, MaxColors, c.Colors)
	}
	if strings.TrimSpace(c.PngquantPath) == "" {
		return errors.New("pngquant path must not be empty")
	}

	seen := make(map[Algorithm]bool, len(c.Precompress))
	deduped := c.Precompress[:0]
	for _, a := range c.Precompress {
		norm, err := ParseAlgorithm(string(a))
		if err != nil {
			return err
		}
		if !seen[norm] {
			seen[norm] = true
			deduped = append(deduped, norm)
		}
	}
	c.Precompress = deduped

	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" || c.OutputDir == "" {
		return errors.New("input and output directories must not be empty")
	}
	c.InputDir = NormalizeDirArg(c.InputDir)
	c.OutputDir = NormalizeDirArg(c.OutputDir)
	return nil
}

// ValidatePaths rejects an output directory equal to the input directory,
// which would overwrite inputs in place. Output nested inside input is
// allowed (the default layout does that); discovery prunes it instead.
// Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if outputAbs == inputAbs {
		return errors.New("output directory must differ from input directory")
	}
	if strings.HasPrefix(withSep(inputAbs), withSep(outputAbs)) {
		return errors.New("input directory must not be inside output directory")
	}
	return nil
}

// OutputInsideInput reports whether outputAbs is nested under inputAbs.
func OutputInsideInput(inputAbs, outputAbs string) bool {
	return outputAbs != inputAbs && strings.HasPrefix(withSep(outputAbs), withSep(inputAbs))
}

func withSep(p string) string {
	sep := string(filepath.Separator)
	if strings.HasSuffix(p, sep) {
		return p
	}
	return p + sep
}
