package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/stage"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

// Advance runs exactly one stage for the job.
func (o *implOrchestrator) Advance(ctx context.Context, id string) (*job.Job, error) {
	if !o.locks.tryAcquire(id) {
		return nil, job.ErrBusy
	}
	defer o.locks.release(id)

	j, err := o.store.Jobs().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.advanceLocked(ctx, j)
}

// advanceLocked runs the job's pending stage. Caller holds the id lock.
func (o *implOrchestrator) advanceLocked(ctx context.Context, j *job.Job) (*job.Job, error) {
	st := j.NextStage()
	if st == "" {
		return nil, fmt.Errorf("job %s has no pending stage (status %s)", j.ID, j.Status)
	}
	exec, ok := o.stages[st]
	if !ok {
		return nil, fmt.Errorf("no executor for stage %s", st)
	}

	// The mid-stage status is persisted before the stage runs, so a crash
	// during the run is visible at the next startup.
	j.Status = st.RunningStatus()
	if err := o.store.Jobs().Update(ctx, j); err != nil {
		return nil, fmt.Errorf("persist %s: %w", j.Status, err)
	}

	o.logger.Info(ctx, "Job %s: running %s stage (attempt %d)", j.ID, st, j.Attempts(st)+1)

	stageCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.Limits.StageTimeoutSeconds)*time.Second)
	runErr := exec.Run(stageCtx, j)
	// Checked before cancel: a stage may flatten the context error out of
	// its chain, but the deadline firing on stageCtx itself is authoritative.
	timedOut := errors.Is(stageCtx.Err(), context.DeadlineExceeded)
	cancel()

	if runErr != nil && (timedOut || errors.Is(runErr, context.DeadlineExceeded)) {
		runErr = job.Failf(job.KindTimedOut, "%s stage exceeded %ds", st, o.cfg.Limits.StageTimeoutSeconds)
	}

	j.BumpAttempts(st)
	if runErr != nil {
		j.Status = job.StatusFailed
		j.FailedStage = st
		j.FailureKind = job.KindOf(runErr)
		j.LastError = logger.FormatError(runErr)
		o.logger.Warn(ctx, "Job %s: %s stage failed (%s): %v", j.ID, st, j.FailureKind, runErr)
	} else {
		j.Status = st.DoneStatus()
		j.FailedStage = ""
		j.FailureKind = ""
		j.LastError = ""
		o.logger.Info(ctx, "Job %s: %s -> %s", j.ID, st, j.Status)
	}

	if err := o.store.Jobs().Update(ctx, j); err != nil {
		return nil, fmt.Errorf("persist stage outcome: %w", err)
	}
	if j.Terminal() {
		o.recordHistory(ctx, j)
	}
	return j, nil
}

// Enqueue drives the job to a terminal status on a shared worker slot.
func (o *implOrchestrator) Enqueue(ctx context.Context, id string) (*job.Job, error) {
	if err := o.sem.acquire(ctx); err != nil {
		return nil, err
	}
	defer o.sem.release()

	for {
		j, err := o.Advance(ctx, id)
		if err != nil {
			return nil, err
		}
		if j.Status == job.StatusFailed {
			if !o.shouldRetry(j) {
				return j, nil
			}
			o.logger.Info(ctx, "Job %s: retrying %s stage (%d/%d attempts used)",
				j.ID, j.FailedStage, j.Attempts(j.FailedStage), o.cfg.Limits.MaxStageAttempts)
			if err := o.rewindFailure(ctx, j); err != nil {
				return nil, err
			}
			continue
		}
		if j.Terminal() {
			return j, nil
		}
	}
}

func (o *implOrchestrator) shouldRetry(j *job.Job) bool {
	return job.Retryable(j.FailureKind) &&
		j.Attempts(j.FailedStage) < o.cfg.Limits.MaxStageAttempts
}

// rewindFailure resets a failed job to the status preceding its failed
// stage so the stage can run again.
func (o *implOrchestrator) rewindFailure(ctx context.Context, j *job.Job) error {
	j.Status = job.Rollback(j.FailedStage.RunningStatus())
	j.FailedStage = ""
	j.FailureKind = ""
	j.LastError = ""
	return o.store.Jobs().Update(ctx, j)
}

// Reprocess resets a terminal job based on which artifacts still exist.
func (o *implOrchestrator) Reprocess(ctx context.Context, id string) (*job.Job, error) {
	if !o.locks.tryAcquire(id) {
		return nil, job.ErrBusy
	}
	defer o.locks.release(id)

	j, err := o.store.Jobs().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !j.Terminal() {
		return nil, job.ErrNotReprocessable
	}

	transcriptOK := fileExists(j.TranscriptPath)
	audioOK := fileExists(j.AudioPath)
	j.Status = j.ReentryStatus(transcriptOK, audioOK)
	if !transcriptOK {
		j.TranscriptPath = ""
	}
	if !audioOK {
		j.AudioPath = ""
		j.AudioSize = 0
		j.AudioFingerprint = ""
	}
	j.FailedStage = ""
	j.FailureKind = ""
	j.LastError = ""
	j.DownloadAttempts = 0
	j.TranscribeAttempts = 0
	j.StructureAttempts = 0
	j.PublishAttempts = 0

	if err := o.store.Jobs().Update(ctx, j); err != nil {
		return nil, err
	}

	o.logger.Info(ctx, "Job %s: reprocessing from %s (transcript=%t audio=%t)",
		j.ID, j.Status, transcriptOK, audioOK)
	return j, nil
}

// DeleteArtifacts removes local files and downgrades the status to match
// what survives on disk.
func (o *implOrchestrator) DeleteArtifacts(ctx context.Context, id string, kind ArtifactKind) (*job.Job, error) {
	if !o.locks.tryAcquire(id) {
		return nil, job.ErrBusy
	}
	defer o.locks.release(id)

	j, err := o.store.Jobs().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.Status.InProgress() {
		return nil, job.ErrBusy
	}

	if kind == ArtifactAudio || kind == ArtifactAll {
		removeFile(j.AudioPath)
		j.AudioPath = ""
		j.AudioSize = 0
		j.AudioFingerprint = ""
	}
	if kind == ArtifactDocuments || kind == ArtifactAll {
		removeFile(j.DocumentPath)
		removeFile(j.OutlinePath)
		removeFile(j.TranscriptPath)
		j.DocumentPath = ""
		j.DocumentFingerprint = ""
		j.OutlinePath = ""
		j.TranscriptPath = ""
	}

	// Failed jobs stay failed until an explicit reprocess; everything else
	// falls back to the furthest status the remaining artifacts support.
	if j.Status != job.StatusFailed {
		j.Status = j.ReentryStatus(j.TranscriptPath != "", j.AudioPath != "")
	}

	if err := o.store.Jobs().Update(ctx, j); err != nil {
		return nil, err
	}

	o.logger.Info(ctx, "Job %s: deleted %s artifacts, status now %s", j.ID, kind, j.Status)
	return j, nil
}

// RecoverOrphans rolls mid-stage jobs back to their last completed status.
func (o *implOrchestrator) RecoverOrphans(ctx context.Context) (int, error) {
	orphans, err := o.store.Jobs().ListByStatus(ctx,
		job.StatusDownloading, job.StatusTranscribing, job.StatusStructuring, job.StatusPublishing)
	if err != nil {
		return 0, fmt.Errorf("list orphans: %w", err)
	}

	for i := range orphans {
		j := &orphans[i]
		prev := j.Status
		j.Status = job.Rollback(prev)
		if err := o.store.Jobs().Update(ctx, j); err != nil {
			return 0, fmt.Errorf("roll back job %s: %w", j.ID, err)
		}
		o.logger.Warn(ctx, "Job %s: found %s at startup, rolled back to %s", j.ID, prev, j.Status)
	}
	return len(orphans), nil
}

// IngestLocal registers a dropped audio file as an already-downloaded job.
func (o *implOrchestrator) IngestLocal(ctx context.Context, path string) (*job.Job, error) {
	if !stage.IsAudioFile(path) {
		return nil, fmt.Errorf("%s is not a supported audio file", path)
	}

	filename := stage.SanitizeFilename(filepath.Base(path))
	if err := os.MkdirAll(o.cfg.Paths.Audio, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	destPath := filepath.Join(o.cfg.Paths.Audio, filename)
	if err := stage.MoveFile(path, destPath); err != nil {
		return nil, fmt.Errorf("move into audio dir: %w", err)
	}

	fingerprint, err := stage.Fingerprint(destPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(destPath)
	if err != nil {
		return nil, err
	}

	created, err := o.store.Jobs().Create(ctx, job.Job{
		ID:               "local-" + uuid.NewString(),
		Filename:         filename,
		Source:           job.SourceLocal,
		Status:           job.StatusDownloaded,
		AudioPath:        destPath,
		AudioSize:        info.Size(),
		AudioFingerprint: fingerprint,
	})
	if err != nil {
		return nil, fmt.Errorf("register local recording: %w", err)
	}

	o.logger.Info(ctx, "Ingested local recording %s as %s", filename, created.ID)
	return created, nil
}

func (o *implOrchestrator) recordHistory(ctx context.Context, j *job.Job) {
	message := "Document published"
	if j.Status == job.StatusFailed {
		message = fmt.Sprintf("%s stage failed (%s): %s", j.FailedStage, j.FailureKind, j.LastError)
	}
	err := o.store.History().Append(ctx, store.HistoryEntry{
		RecordingID: j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		Message:     message,
	})
	if err != nil {
		o.logger.Warn(ctx, "Failed to append history for %s: %v", j.ID, err)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func removeFile(path string) {
	if path != "" {
		os.Remove(path)
	}
}
