package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/source"
)

type downloadStage struct {
	src    source.Source
	paths  config.PathsConfig
	limits config.LimitsConfig
	logger logger.Logger
}

func (s *downloadStage) Name() job.Stage { return job.StageDownload }

func (s *downloadStage) Run(ctx context.Context, j *job.Job) error {
	filename := EnsureAudioExt(SanitizeFilename(j.Filename))
	if j.Filename == "" {
		filename = EnsureAudioExt(SanitizeFilename(j.ID))
	}

	if err := os.MkdirAll(s.paths.Audio, 0755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	destPath := filepath.Join(s.paths.Audio, filename)

	size, err := s.src.Download(ctx, j.ID, destPath, s.limits.MaxAudioBytes)
	if err != nil {
		switch {
		case errors.Is(err, source.ErrTooLarge):
			return job.NewFailure(job.KindResourceLimit, err)
		case errors.Is(err, source.ErrUnavailable):
			return job.NewFailure(job.KindSourceUnavailable, err)
		}
		return job.NewFailure(job.KindTransientIO, err)
	}

	fingerprint, err := Fingerprint(destPath)
	if err != nil {
		return job.NewFailure(job.KindTransientIO, err)
	}

	j.Filename = filename
	j.AudioPath = destPath
	j.AudioSize = size
	j.AudioFingerprint = fingerprint

	s.logger.Info(ctx, "Downloaded %s (%d bytes, %s)", filename, size, fingerprint[:12])
	return nil
}
