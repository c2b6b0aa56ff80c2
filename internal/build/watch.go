package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches bursts of filesystem events (editors typically
// fire several per save) into a single rebuild.
const debounceDelay = 300 * time.Millisecond

// Watch runs an initial build, then rebuilds whenever a file under the
// source tree changes. It blocks until ctx is cancelled.
func (p *Pipeline) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watchDirs := []string{p.SrcDir}
	for _, sub := range append([]string{"css", "js"}, staticDirs...) {
		watchDirs = append(watchDirs, filepath.Join(p.SrcDir, sub))
	}
	for _, dir := range watchDirs {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("not watching directory", "dir", dir, "error", err)
		}
	}

	if err := p.Run(); err != nil {
		return err
	}

	var debounce *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Ignore editor temp and hidden files
			base := filepath.Base(event.Name)
			if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
				continue
			}

			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					select {
					case rebuild <- struct{}{}:
					default:
					}
				})
			}

		case <-rebuild:
			slog.Info("source changed, rebuilding")
			if err := p.Run(); err != nil {
				slog.Error("rebuild failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
