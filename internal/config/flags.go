package config

// This file implements CLI flag binding on a pflag set (owned by the cobra
// root command). Flags are grouped into paths, images, output and display;
// cobra itself owns --help and --version. Negated flags (--no-color) and the config file overlay are applied
// by [Flags.Finish] after parsing, so values the user passed explicitly
// always win.

import (
	"strings"

	"github.com/spf13/pflag"
)

// Flags ties a parsed flag set to the Config it writes into.
type Flags struct {
	fs      *pflag.FlagSet
	cfg     *Config
	negated negatedFlags
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor bool
	noColor    bool
}

// BindFlags registers every supermin flag on fs, bound to cfg's fields.
// Call [Flags.Finish] once fs has been parsed.
func BindFlags(fs *pflag.FlagSet, cfg *Config) *Flags {
	f := &Flags{fs: fs, cfg: cfg}
	definePathFlags(fs, cfg)
	defineImageFlags(fs, cfg)
	defineOutputFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &f.negated)
	return f
}

// definePathFlags registers -i/--input, -o/--output, --exclude, --config.
func definePathFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.InputDir, "input", "i", cfg.InputDir, "input directory")
	fs.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "output directory")
	fs.StringArrayVar(&cfg.Exclude, "exclude", nil, "skip files matching this glob (relative to input, repeatable)")
	fs.StringVar(&cfg.ConfigFile, "config", "", "read defaults from a YAML file")
}

// defineImageFlags registers --pngquant, --colors, --atomic-images.
func defineImageFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.PngquantPath, "pngquant", cfg.PngquantPath, "pngquant binary")
	fs.IntVar(&cfg.Colors, "colors", cfg.Colors, "maximum palette size for PNG quantization (2-256)")
	fs.BoolVar(&cfg.AtomicImages, "atomic-images", false, "write quantized images to a temp file and rename on success")
}

// defineOutputFlags registers -m/--keep-music, --precompress, --watch.
func defineOutputFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.KeepMusic, "keep-music", "m", false, "keep music resources (accepted, not yet honored)")
	fs.Var(&algorithmListValue{&cfg.Precompress}, "precompress", "write precompressed sidecars: gzip,br,zstd,lz4,snappy")
	fs.BoolVar(&cfg.Watch, "watch", false, "keep running and recompress files as they change")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check,
// --analyze, --log.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "disable colored logs")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose output")
	fs.BoolVarP(&cfg.CheckOnly, "check", "c", false, "run system diagnostics and exit")
	fs.BoolVarP(&cfg.Analyze, "analyze", "a", false, "report the input tree by file type and exit")
	fs.StringVarP(&cfg.LogFile, "log", "l", "", "append logs to file")
}

// Finish applies the config file overlay (for flags the user did not pass)
// and then the negated flags.
func (f *Flags) Finish() error {
	if f.cfg.ConfigFile != "" {
		fc, err := LoadFile(f.cfg.ConfigFile)
		if err != nil {
			return err
		}
		if err := fc.applyTo(f.cfg, f.fs.Changed); err != nil {
			return err
		}
	}
	applyNegatedFlags(f.cfg, &f.negated)
	return nil
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// pflag.Value adapter so --precompress accepts "gzip,br" or repeated use.

type algorithmListValue struct{ p *[]Algorithm }

func (a *algorithmListValue) String() string {
	if a.p == nil {
		return ""
	}
	parts := make([]string, len(*a.p))
	for i, alg := range *a.p {
		parts[i] = string(alg)
	}
	return strings.Join(parts, ",")
}

func (a *algorithmListValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		alg, err := ParseAlgorithm(part)
		if err != nil {
			return err
		}
		*a.p = append(*a.p, alg)
	}
	return nil
}

func (a *algorithmListValue) Type() string { return "list" }

var _ pflag.Value = (*algorithmListValue)(nil)
