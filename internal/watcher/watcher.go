// Package watcher tails append-only session-log files and archives their
// entries into the heap/era model. Ingestion runs as a single polling loop;
// sources are processed one at a time so heap-boundary decisions stay
// strictly ordered, and a failing source never blocks the others.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"mnemos.app/archive/core/config"
)

type Watcher struct {
	ingestor *Ingestor
	dirs     []string
	interval time.Duration
	notify   bool
	logger   *slog.Logger
}

func New(ingestor *Ingestor, cfg config.WatcherConfig, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		ingestor: ingestor,
		dirs:     splitDirs(cfg.WatchDirs),
		interval: cfg.PollInterval,
		notify:   cfg.Notify,
		logger:   log,
	}
}

// Run polls all sources until the context is cancelled. When file-change
// notification is enabled, a write to a watched directory triggers an early
// poll; correctness never depends on it.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		wake      <-chan fsnotify.Event
		watchErrs <-chan error
	)
	if w.notify {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.logger.WarnContext(ctx, "file notification unavailable, polling only", "error", err)
		} else {
			defer fsw.Close()
			for _, dir := range w.dirs {
				if err := fsw.Add(dir); err != nil {
					w.logger.WarnContext(ctx, "cannot watch directory", "dir", dir, "error", err)
				}
			}
			wake = fsw.Events
			watchErrs = fsw.Errors
		}
	}

	w.logger.InfoContext(ctx, "watcher started", "dirs", w.dirs, "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.pollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "watcher stopping")
			return ctx.Err()
		case <-ticker.C:
			w.pollAll(ctx)
		case ev := <-wake:
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				w.pollPath(ctx, ev.Name)
			}
		case err := <-watchErrs:
			// Must be drained or fsnotify's event goroutine blocks.
			w.logger.WarnContext(ctx, "file notification error", "error", err)
		}
	}
}

// pollAll ingests every discovered source. Errors are isolated per source:
// a failed batch keeps its cursor and is retried whole next poll.
func (w *Watcher) pollAll(ctx context.Context) {
	sources, err := DiscoverSources(w.dirs)
	if err != nil {
		w.logger.ErrorContext(ctx, "source discovery failed", "error", err)
		return
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.ingestor.PollAndIngest(ctx, src); err != nil {
			w.logger.WarnContext(ctx, "batch failed, will retry", "source_id", src.ID, "error", err)
		}
	}
}

func (w *Watcher) pollPath(ctx context.Context, path string) {
	if filepath.Ext(path) != ".jsonl" {
		return
	}
	src := NewSource(path)
	if _, err := w.ingestor.PollAndIngest(ctx, src); err != nil {
		w.logger.WarnContext(ctx, "batch failed, will retry", "source_id", src.ID, "error", err)
	}
}

func splitDirs(dirs string) []string {
	var out []string
	for _, d := range strings.Split(dirs, ":") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
