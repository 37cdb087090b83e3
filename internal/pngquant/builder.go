package pngquant

import (
	"strconv"

	"github.com/backmassage/supermin/internal/config"
)

// Options controls one pngquant invocation.
type Options struct {
	Binary       string
	Colors       int  // 2-256.
	SkipIfLarger bool // Exit 98 with no output instead of growing the file.
	Force        bool
	Dither       bool // Floyd-Steinberg; off means --nofs.
}

// OptionsFromConfig returns the fixed supermin quantization options for cfg:
// skip if larger, force, no dithering.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Binary:       cfg.PngquantPath,
		Colors:       cfg.Colors,
		SkipIfLarger: true,
		Force:        true,
		Dither:       false,
	}
}

// Build constructs the complete argument slice, binary first. The input is
// always stdin and the output stdout ("-").
func Build(opts Options) []string {
	args := make([]string, 0, 8)
	args = append(args, opts.Binary)
	if opts.SkipIfLarger {
		args = append(args, "--skip-if-larger")
	}
	if opts.Force {
		args = append(args, "--force")
	}
	if !opts.Dither {
		args = append(args, "--nofs")
	}
	colors := opts.Colors
	if colors <= 0 {
		colors = config.MaxColors
	}
	args = append(args, strconv.Itoa(colors), "-")
	return args
}
