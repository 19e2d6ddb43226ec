package poller

import (
	"context"

	"github.com/nguyentantai21042004/scribeflow/internal/source"
)

// Poller periodically syncs the remote recorder's file list into the job
// store and drives new jobs through the pipeline.
type Poller interface {
	Start(ctx context.Context) error
	// SyncOnce performs one list-and-register pass. Returns how many new
	// jobs were created.
	SyncOnce(ctx context.Context) (int, error)
	// SourceStatus returns the most recent connection snapshot.
	SourceStatus() source.Status
}
