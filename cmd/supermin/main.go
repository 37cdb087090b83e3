// Command supermin is the CLI entrypoint for the supermin asset minifier.
//
// It parses flags, validates configuration and paths, and either runs
// system diagnostics (--check), the input analysis (--analyze), or the
// compression pipeline, optionally followed by watch mode (--watch).
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/backmassage/supermin/internal/check"
	"github.com/backmassage/supermin/internal/config"
	"github.com/backmassage/supermin/internal/display"
	"github.com/backmassage/supermin/internal/logging"
	"github.com/backmassage/supermin/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// exitInterrupted is returned when SIGINT/SIGTERM stopped the run early.
const exitInterrupted = 130

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	code := 0
	cmd := newRootCommand(&cfg, func(cfg *config.Config) { code = execute(cfg) })
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "supermin: %v\n", err)
		return 1
	}
	return code
}

// newRootCommand binds every flag onto cfg. After parsing it applies the
// config file, validates, and hands cfg to action.
func newRootCommand(cfg *config.Config, action func(*config.Config)) *cobra.Command {
	var flags *config.Flags
	cmd := &cobra.Command{
		Use:           "supermin -i /path/to/game/ -o /path/to/out/directory/ [-m]",
		Short:         "Mirror an asset tree with per-file-type compression",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.Finish(); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			action(cfg)
			return nil
		},
	}
	flags = config.BindFlags(cmd.Flags(), cfg)
	return cmd
}

func execute(cfg *config.Config) int {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "supermin: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available. All output goes through log from here on.
	display.PrintBanner(os.Stdout)

	if cfg.CheckOnly {
		if failed := check.RunCheck(context.Background(), cfg, log); failed > 0 {
			return 1
		}
		return 0
	}

	// Resolve and validate paths: input must exist, output is created if
	// needed (except for --analyze, which writes nothing).
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputDir)
		return 1
	}
	if !cfg.Analyze {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			log.Error("Cannot create output directory: %s", cfg.OutputDir)
			return 1
		}
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		return 1
	}
	cfg.InputDir, cfg.OutputDir = inputAbs, outputAbs

	log.Info("=== supermin v%s (%s) run %s ===", version, commit, uuid.NewString())
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Out: %s", cfg.OutputDir)

	// Phase 3: Signal handling. Cancel the context on SIGINT/SIGTERM so the
	// pipeline stops between files; the file in progress always completes.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing current file…")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Phase 4: Analyze, or run the pipeline (and keep watching).
	if cfg.Analyze {
		if err := pipeline.Analyze(ctx, cfg, log); err != nil {
			log.Error("%v", err)
			return 1
		}
		return 0
	}

	runner, err := pipeline.NewRunner(cfg, log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	stats, err := runner.Run(ctx)
	if err != nil {
		log.Error("Run aborted: %v", err)
		if !cfg.Watch {
			return 1
		}
	}

	if cfg.Watch && ctx.Err() == nil {
		if err := runner.Watch(ctx, pipeline.DefaultDebounce); err != nil {
			log.Error("Watch failed: %v", err)
			return 1
		}
		return 0
	}
	if stats.Interrupted {
		return exitInterrupted
	}
	return 0
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies. A path that does not exist yet
// is returned absolute but unresolved, along with the lookup error.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, err
	}
	return resolved, nil
}
