package orchestrator

import (
	"context"

	"github.com/nguyentantai21042004/scribeflow/internal/job"
)

// ArtifactKind selects which local artifacts DeleteArtifacts removes.
type ArtifactKind string

const (
	ArtifactAudio     ArtifactKind = "audio"
	ArtifactDocuments ArtifactKind = "documents"
	ArtifactAll       ArtifactKind = "all"
)

// Orchestrator owns every status transition. Each recording id is mutated
// by at most one caller at a time; a second caller gets job.ErrBusy instead
// of waiting.
type Orchestrator interface {
	// Advance runs exactly one stage for the job and persists the outcome.
	// A stage failure is recorded on the returned job, not returned as an
	// error; the error return is for orchestration problems only.
	Advance(ctx context.Context, id string) (*job.Job, error)

	// Enqueue drives the job through its remaining stages until it reaches
	// a terminal status, retrying retryable failures up to the attempt
	// limit. Blocks on the shared worker slot.
	Enqueue(ctx context.Context, id string) (*job.Job, error)

	// Reprocess resets a terminal job to the furthest status its surviving
	// artifacts support. Non-terminal jobs are rejected.
	Reprocess(ctx context.Context, id string) (*job.Job, error)

	// DeleteArtifacts removes local artifact files and downgrades the job
	// status to match what is left on disk.
	DeleteArtifacts(ctx context.Context, id string, kind ArtifactKind) (*job.Job, error)

	// RecoverOrphans rolls every mid-stage job back to its last completed
	// status. Run once at startup, before any stage executes.
	RecoverOrphans(ctx context.Context) (int, error)

	// IngestLocal registers an audio file dropped into the watch folder as
	// an already-downloaded job.
	IngestLocal(ctx context.Context, path string) (*job.Job, error)
}
