package watcher

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/scribeflow/internal/logger"
)

// New creates a new Watcher over the drop folder for local recordings.
func New(watchDir string, handler EventHandler, log logger.Logger) (Watcher, error) {
	if err := os.MkdirAll(watchDir, 0755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(watchDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &implWatcher{
		watchDir: watchDir,
		handler:  handler,
		logger:   log,
		watcher:  fsw,
	}, nil
}
