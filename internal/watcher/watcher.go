package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/stage"
)

type implWatcher struct {
	watchDir string
	handler  EventHandler
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
}

// Start begins monitoring the drop folder for new audio files. Each file is
// handed to the handler on its own goroutine; the pipeline's worker slots
// bound how many actually run at once.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Watching for local recordings: %s", w.watchDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing ingests to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !stage.IsAudioFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-audio file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New recording detected: %s", event.Name)

			// Small delay to ensure file is fully written
			time.Sleep(500 * time.Millisecond)

			w.wg.Add(1)
			go func(filePath string) {
				defer w.wg.Done()
				if err := w.handler(ctx, filePath); err != nil {
					w.logger.Error(ctx, "Failed to ingest %s: %v", filePath, err)
				}
			}(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}
