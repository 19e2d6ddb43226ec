package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/drive"
	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/orchestrator"
	"github.com/nguyentantai21042004/scribeflow/internal/poller"
	"github.com/nguyentantai21042004/scribeflow/internal/server"
	"github.com/nguyentantai21042004/scribeflow/internal/source"
	"github.com/nguyentantai21042004/scribeflow/internal/stage"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
	"github.com/nguyentantai21042004/scribeflow/internal/structurer"
	"github.com/nguyentantai21042004/scribeflow/internal/transcriber"
	"github.com/nguyentantai21042004/scribeflow/internal/watcher"
	"github.com/nguyentantai21042004/scribeflow/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "========================================")
	log.Info(ctx, "ScribeFlow recording pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "Max concurrent stages: %d", cfg.Performance.MaxConcurrent)

	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	db, err := store.InitDB(cfg.Database.Path)
	if err != nil {
		log.Error(ctx, "Failed to open database: %v", err)
		os.Exit(1)
	}
	st := store.NewStore(db, cfg.Limits.MaxHistoryEntries)
	defer st.Close()
	if err := st.InitialMigration(ctx); err != nil {
		log.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// External collaborators.
	src := source.New(cfg.Source.BaseURL, cfg.Source.Token, cfg.Source.PageSize, log)
	trans := transcriber.New(cfg.Whisper, executor.New(), log)
	structSvc := structurer.New(cfg.Structurer, log)

	var storage drive.Storage
	if cfg.Drive.Enabled {
		storage, err = drive.New(ctx, cfg.Drive, log)
		if err != nil {
			log.Error(ctx, "Failed to init remote storage: %v", err)
			os.Exit(1)
		}
	} else {
		log.Warn(ctx, "Remote storage disabled; documents stay local")
	}

	stages := stage.New(cfg, src, trans, structSvc, storage, log)
	orch := orchestrator.New(cfg, st, stages, log)

	// Jobs found mid-stage died with a previous process; roll them back
	// before anything new runs.
	if n, err := orch.RecoverOrphans(ctx); err != nil {
		log.Error(ctx, "Failed to recover orphaned jobs: %v", err)
		os.Exit(1)
	} else if n > 0 {
		log.Info(ctx, "Recovered %d orphaned jobs", n)
	}

	p := poller.New(src, st, orch, cfg.Source.PollInterval, log)

	w, err := watcher.New(cfg.Paths.Watch, func(ctx context.Context, path string) error {
		j, err := orch.IngestLocal(ctx, path)
		if err != nil {
			return err
		}
		if _, err := orch.Enqueue(ctx, j.ID); err != nil && !errors.Is(err, job.ErrBusy) {
			return err
		}
		return nil
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to create watcher: %v", err)
		os.Exit(1)
	}
	defer w.Stop()

	srv := server.New(cfg, st, orch, p, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 3)
	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()
	go func() {
		if err := p.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()
	go func() {
		if err := srv.Run(ctx); err != nil {
			errChan <- err
		}
	}()

	log.Info(ctx, "========================================")
	log.Info(ctx, "ScribeFlow is ready!")
	log.Info(ctx, "Dashboard API: %s", cfg.Server.Address)
	log.Info(ctx, "Drop folder: %s", cfg.Paths.Watch)
	log.Info(ctx, "Source poll interval: %ds", cfg.Source.PollInterval)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Component error: %v", err)
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	log.Info(ctx, "ScribeFlow stopped")
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Watch,
		cfg.Paths.Audio,
		cfg.Paths.Transcripts,
		cfg.Paths.Outlines,
		cfg.Paths.Documents,
		cfg.Paths.Archive,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
