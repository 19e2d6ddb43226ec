package stage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/drive"
	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/outline"
	"github.com/nguyentantai21042004/scribeflow/internal/renderer"
)

type publishStage struct {
	storage drive.Storage
	paths   config.PathsConfig
	logger  logger.Logger
}

func (s *publishStage) Name() job.Stage { return job.StagePublish }

func (s *publishStage) Run(ctx context.Context, j *job.Job) error {
	if j.OutlinePath == "" {
		return job.Failf(job.KindInternal, "job %s has no outline artifact", j.ID)
	}

	raw, err := os.ReadFile(j.OutlinePath)
	if err != nil {
		return job.Failf(job.KindTransientIO, "read outline: %v", err)
	}
	parsed, err := outline.Parse(string(raw))
	if err != nil {
		// The outline artifact was validated when written; a parse failure
		// here means it was edited or corrupted on disk.
		return job.NewFailure(job.KindMalformedOutline, err)
	}

	if err := os.MkdirAll(s.paths.Documents, 0755); err != nil {
		return fmt.Errorf("create documents dir: %w", err)
	}
	base := baseName(j.Filename)
	docPath := filepath.Join(s.paths.Documents, base+".docx")

	if err := renderer.WriteDocx(base, parsed, docPath); err != nil {
		return job.Failf(job.KindTransientIO, "render document: %v", err)
	}
	fingerprint, err := Fingerprint(docPath)
	if err != nil {
		return job.Failf(job.KindTransientIO, "fingerprint document: %v", err)
	}

	j.DocumentPath = docPath
	j.DocumentFingerprint = fingerprint

	if s.storage != nil {
		if err := s.upload(ctx, j, docPath); err != nil {
			return err
		}
	} else {
		s.logger.Info(ctx, "Remote storage disabled, document kept locally: %s", docPath)
	}

	if err := s.archiveAudio(ctx, j); err != nil {
		return err
	}

	s.logger.Info(ctx, "Published %s (%s)", docPath, fingerprint[:12])
	return nil
}

func (s *publishStage) upload(ctx context.Context, j *job.Job, docPath string) error {
	folders, err := s.storage.EnsureFolders(ctx)
	if err != nil {
		return job.Failf(job.KindTransientIO, "ensure remote folders: %v", err)
	}

	_, skipped, err := s.storage.Upload(ctx, folders.Documents, filepath.Base(docPath), docPath, j.DocumentFingerprint)
	if err != nil {
		return job.Failf(job.KindTransientIO, "upload document: %v", err)
	}
	if skipped {
		s.logger.Info(ctx, "Document already published, upload skipped: %s", j.ID)
	}

	if j.TranscriptPath != "" {
		if _, _, err := s.storage.Upload(ctx, folders.Documents, filepath.Base(j.TranscriptPath), j.TranscriptPath, ""); err != nil {
			return job.Failf(job.KindTransientIO, "upload transcript: %v", err)
		}
	}
	if j.AudioPath != "" {
		if _, _, err := s.storage.Upload(ctx, folders.Recordings, filepath.Base(j.AudioPath), j.AudioPath, j.AudioFingerprint); err != nil {
			return job.Failf(job.KindTransientIO, "upload recording: %v", err)
		}
	}
	return nil
}

// archiveAudio moves the published recording out of the working audio dir so
// reprocessing a job never re-reads a file the operator may have cleaned up.
func (s *publishStage) archiveAudio(ctx context.Context, j *job.Job) error {
	if j.AudioPath == "" || s.paths.Archive == "" {
		return nil
	}
	if _, err := os.Stat(j.AudioPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.MkdirAll(s.paths.Archive, 0755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	dest := filepath.Join(s.paths.Archive, filepath.Base(j.AudioPath))
	if err := MoveFile(j.AudioPath, dest); err != nil {
		return job.Failf(job.KindTransientIO, "archive audio: %v", err)
	}

	j.AudioPath = dest
	s.logger.Debug(ctx, "Archived audio to %s", dest)
	return nil
}

// MoveFile renames when possible and copies across filesystems.
func MoveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
