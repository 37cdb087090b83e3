package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/backmassage/supermin/internal/check"
	"github.com/backmassage/supermin/internal/compress"
	"github.com/backmassage/supermin/internal/config"
	"github.com/backmassage/supermin/internal/display"
	"github.com/backmassage/supermin/internal/logging"
	"github.com/backmassage/supermin/internal/mirror"
	"github.com/backmassage/supermin/internal/pngquant"
)

// Runner owns the handler table and output resolver for one input/output
// pair. It is not safe for concurrent use: tasks run one at a time.
type Runner struct {
	cfg      *config.Config
	log      *logging.Logger
	table    *compress.Table
	resolver *mirror.Resolver
	prune    string

	// preflight verifies the image quantizer before the first PNG task.
	// Its failure is only a warning.
	preflight func(ctx context.Context) error
	checked   bool
}

// NewRunner builds the default handler table from cfg.
func NewRunner(cfg *config.Config, log *logging.Logger) (*Runner, error) {
	resolver, err := mirror.NewResolver(cfg.InputDir, cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	q := pngquant.NewExecutor(pngquant.OptionsFromConfig(cfg))
	r := &Runner{
		cfg: cfg,
		log: log,
		table: compress.DefaultTable(compress.Options{
			Quantizer:    q,
			AtomicImages: cfg.AtomicImages,
			Precompress:  cfg.Precompress,
		}),
		resolver: resolver,
		preflight: func(ctx context.Context) error {
			return check.CheckDeps(ctx, cfg)
		},
	}
	if config.OutputInsideInput(resolver.InputRoot(), resolver.OutputRoot()) {
		r.prune = resolver.OutputRoot()
	}
	return r, nil
}

// Run is the top-level batch entry point. It discovers files, processes
// each one sequentially, and returns aggregate stats. A non-nil error means
// the run was aborted by a fault no handler recovers from.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (RunStats, error) {
	r, err := NewRunner(cfg, log)
	if err != nil {
		return RunStats{}, err
	}
	return r.Run(ctx)
}

// Run discovers every file under the input root and processes them.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	files, err := r.discover()
	if err != nil {
		return RunStats{}, fmt.Errorf("file discovery failed: %w", err)
	}
	r.logBatchHeader(len(files))
	return r.Process(ctx, files)
}

func (r *Runner) discover() ([]string, error) {
	return Discover(r.resolver.InputRoot(), r.cfg.Exclude, r.prune)
}

// Process runs files through their handlers in order. The context is
// checked only between tasks; a task that has started always completes.
func (r *Runner) Process(ctx context.Context, files []string) (RunStats, error) {
	stats := RunStats{Total: len(files)}
	r.warnDeps(ctx, files)

	stats.Sizes.Origin = sumSizes(files)
	outputs := make([]string, 0, len(files))
	for i, path := range files {
		if ctx.Err() != nil {
			r.log.Warn("Interrupted")
			stats.Interrupted = true
			break
		}
		stats.Current = i + 1

		out, err := r.processFile(ctx, path, &stats)
		if err != nil {
			return stats, err
		}
		outputs = append(outputs, out)
	}
	stats.Sizes.Compressed = sumSizes(outputs)

	r.logSummary(&stats)
	return stats, nil
}

// processFile resolves the mirrored output, dispatches to the handler for
// the file's extension and logs one progress line.
func (r *Runner) processFile(ctx context.Context, path string, stats *RunStats) (string, error) {
	rel, err := r.resolver.Rel(path)
	if err != nil {
		stats.Failed++
		return "", err
	}
	prefix := fmt.Sprintf("[%d/%d] %s", stats.Current, stats.Total, filepath.ToSlash(rel))

	task := compress.NewTask(path, "")
	h := r.table.Lookup(task.Ext)

	out, err := r.resolver.Resolve(path, compress.StreamsOutput(h))
	if err != nil {
		stats.Failed++
		r.log.Error("%s failed", prefix)
		return "", fmt.Errorf("%s: %w", rel, err)
	}
	task.OutputPath = out

	res, err := h.Compress(context.WithoutCancel(ctx), task)
	if err != nil {
		stats.Failed++
		r.log.Error("%s failed", prefix)
		return out, err
	}
	stats.record(res)
	r.logProgress(prefix, res)
	if in := sumSizes([]string{path}); in > 0 {
		r.log.Debug("  %s: %s → %s (%s)", h.Name(), display.FormatBytes(in),
			display.FormatBytes(res.Bytes), display.FormatRatio(in, res.Bytes))
	}
	return out, nil
}

// warnDeps runs the preflight check once, and only when files contains
// something the image handler will process. A failure is logged and the run
// goes on: each PNG then fails to stream and is skipped on its own.
func (r *Runner) warnDeps(ctx context.Context, files []string) {
	if r.checked || r.preflight == nil {
		return
	}
	for _, f := range files {
		if _, ok := r.table.Lookup(filepath.Ext(f)).(*compress.ImageQuantizer); ok {
			r.checked = true
			if err := r.preflight(ctx); err != nil {
				r.log.Warn("PNG files will be skipped: %v", err)
			}
			return
		}
	}
}

// --- Logging helpers ---

func (r *Runner) logProgress(prefix string, res compress.Result) {
	line := prefix + " " + res.Tag
	switch {
	case res.Fault != nil && errors.Is(res.Fault, compress.ErrMinify):
		r.log.Error("%s: %v", line, faultCause(res.Fault))
	case res.Fault != nil:
		r.log.Warn("%s: %v", line, faultCause(res.Fault))
	case res.Tag == compress.TagCopy:
		r.log.Info("%s", line)
	default:
		r.log.Success("%s", line)
	}
}

func faultCause(err error) error {
	var f *compress.Fault
	if errors.As(err, &f) {
		return f.Err
	}
	return err
}

func (r *Runner) logBatchHeader(total int) {
	r.log.Info("Found %d files in %s", total, r.resolver.InputRoot())
	r.log.Info("Output: %s", r.resolver.OutputRoot())
	r.log.Info("Images: %s, %d colors", r.cfg.PngquantPath, r.cfg.Colors)
	if r.cfg.AtomicImages {
		r.log.Info("Images: atomic writes (temp file + rename)")
	}
	if len(r.cfg.Precompress) > 0 {
		names := make([]string, len(r.cfg.Precompress))
		for i, a := range r.cfg.Precompress {
			names[i] = string(a)
		}
		r.log.Info("Sidecars: %s", strings.Join(names, ", "))
	}
	if len(r.cfg.Exclude) > 0 {
		r.log.Info("Exclude: %s", strings.Join(r.cfg.Exclude, ", "))
	}
	if r.prune != "" {
		r.log.Debug("Output is inside input, not descending into %s", r.prune)
	}
	if r.cfg.KeepMusic {
		r.log.Warn("--keep-music is not honored yet: audio files are still written as empty placeholders")
	}
}

func (r *Runner) logSummary(stats *RunStats) {
	r.log.Info("==============================")
	r.log.Info("Done: %d compressed, %d copied, %d skipped", stats.Compressed, stats.Copied, stats.Skipped)
	r.log.Info("  Files processed:  %d of %d", stats.Current, stats.Total)
	r.log.Info("  Input directory:  %s", r.resolver.InputRoot())
	r.log.Info("  Output directory: %s", r.resolver.OutputRoot())
	r.log.Info("  Origin size:      %s", display.FormatMegabytes(stats.Sizes.Origin))
	r.log.Info("  Compressed size:  %s", display.FormatMegabytes(stats.Sizes.Compressed))

	saved := stats.SpaceSaved()
	if saved >= 0 {
		r.log.Success("  Total space saved: %s", display.FormatBytes(saved))
	} else {
		r.log.Warn("  Total space saved: -%s (overall output is larger)", display.FormatBytes(-saved))
	}
}
