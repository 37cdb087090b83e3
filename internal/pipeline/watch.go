package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the input tree must be quiet before changed
// files are processed.
const DefaultDebounce = 300 * time.Millisecond

// Watch keeps recompressing created and written files until ctx is
// cancelled. Batches go through [Runner.Process], so tasks stay strictly
// sequential. A batch aborted by a fault is logged and watching continues.
func (r *Runner) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := r.watchTree(w, r.resolver.InputRoot()); err != nil {
		return err
	}
	r.log.Info("Watching %s for changes (Ctrl+C to stop)", r.resolver.InputRoot())

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			r.collect(w, ev, pending)
			if len(pending) > 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("Watch error: %v", err)
		case <-timer.C:
			files := drain(pending)
			if len(files) == 0 {
				continue
			}
			r.log.Info("Changed: %d file(s)", len(files))
			if _, err := r.Process(ctx, files); err != nil {
				r.log.Error("Batch aborted: %v", err)
			}
		}
	}
}

// watchTree adds root and every directory below it, skipping the pruned
// output directory.
func (r *Runner) watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if r.prune != "" && path == r.prune {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// collect turns one event into pending files. A new directory is watched
// and its existing files are queued, since events for them may have fired
// before the watch was added.
func (r *Runner) collect(w *fsnotify.Watcher, ev fsnotify.Event, pending map[string]struct{}) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if r.inPrunedTree(ev.Name) {
		return
	}
	fi, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if fi.IsDir() {
		if !ev.Has(fsnotify.Create) {
			return
		}
		if err := r.watchTree(w, ev.Name); err != nil {
			r.log.Warn("Cannot watch %s: %v", ev.Name, err)
		}
		files, err := Discover(ev.Name, nil, r.prune)
		if err != nil {
			return
		}
		for _, f := range files {
			if !excluded(r.resolver.InputRoot(), f, r.cfg.Exclude) {
				pending[f] = struct{}{}
			}
		}
		return
	}
	if !fi.Mode().IsRegular() || excluded(r.resolver.InputRoot(), ev.Name, r.cfg.Exclude) {
		return
	}
	pending[ev.Name] = struct{}{}
}

func (r *Runner) inPrunedTree(path string) bool {
	if r.prune == "" {
		return false
	}
	return path == r.prune || strings.HasPrefix(path, r.prune+string(filepath.Separator))
}

// drain empties pending and returns its keys sorted.
func drain(pending map[string]struct{}) []string {
	files := make([]string, 0, len(pending))
	for f := range pending {
		files = append(files, f)
		delete(pending, f)
	}
	sort.Strings(files)
	return files
}
