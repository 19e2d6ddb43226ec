package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/source"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

// Start runs the sync loop until the context is cancelled. The first pass
// runs immediately.
func (p *implPoller) Start(ctx context.Context) error {
	p.logger.Info(ctx, "Source poller started (interval: %s)", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if n, err := p.SyncOnce(ctx); err != nil {
			p.logger.Warn(ctx, "Source sync failed: %v", err)
		} else if n > 0 {
			p.logger.Info(ctx, "Source sync registered %d new recordings", n)
		}

		select {
		case <-ctx.Done():
			p.logger.Info(ctx, "Source poller stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SyncOnce lists the remote recordings, registers unseen ones as new jobs,
// and kicks each through the pipeline in the background.
func (p *implPoller) SyncOnce(ctx context.Context) (int, error) {
	recordings, err := p.src.List(ctx)

	p.mu.Lock()
	if err != nil {
		p.status = source.Status{OK: false, Message: err.Error()}
	} else {
		p.status = source.Status{OK: true, Message: "connected", RecordingCount: len(recordings)}
	}
	p.mu.Unlock()

	if err != nil {
		return 0, fmt.Errorf("list recordings: %w", err)
	}

	created := 0
	for _, rec := range recordings {
		if _, err := p.store.Jobs().Get(ctx, rec.ID); err == nil {
			continue
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return created, fmt.Errorf("look up recording %s: %w", rec.ID, err)
		}

		j, err := p.store.Jobs().Create(ctx, job.Job{
			ID:       rec.ID,
			Filename: rec.Filename,
			Source:   job.SourceRemote,
			Status:   job.StatusNew,
		})
		if err != nil {
			// A concurrent sync may have won the insert.
			if errors.Is(err, store.ErrDuplicateKey) {
				continue
			}
			return created, fmt.Errorf("register recording %s: %w", rec.ID, err)
		}
		created++

		go func(id string) {
			if _, err := p.orch.Enqueue(ctx, id); err != nil && !errors.Is(err, job.ErrBusy) {
				p.logger.Error(ctx, "Pipeline run for %s failed: %v", id, err)
			}
		}(j.ID)
	}
	return created, nil
}

// SourceStatus returns the most recent connection snapshot.
func (p *implPoller) SourceStatus() source.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}
