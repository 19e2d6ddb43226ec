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
	"github.com/nguyentantai21042004/scribeflow/internal/outline"
	"github.com/nguyentantai21042004/scribeflow/internal/structurer"
)

type structureStage struct {
	svc    structurer.Structurer
	paths  config.PathsConfig
	logger logger.Logger
}

func (s *structureStage) Name() job.Stage { return job.StageStructure }

func (s *structureStage) Run(ctx context.Context, j *job.Job) error {
	if j.TranscriptPath == "" {
		return job.Failf(job.KindInternal, "job %s has no transcript artifact", j.ID)
	}

	transcript, err := os.ReadFile(j.TranscriptPath)
	if err != nil {
		return job.Failf(job.KindTransientIO, "read transcript: %v", err)
	}

	raw, err := s.svc.Structure(ctx, string(transcript))
	if err != nil {
		if errors.Is(err, structurer.ErrUnavailable) {
			return job.NewFailure(job.KindStructuringUnavailable, err)
		}
		return job.NewFailure(job.KindTransientIO, err)
	}

	// The service output must fit the outline grammar. A malformed outline
	// is surfaced to the operator, never coerced into a degraded document.
	parsed, err := outline.Parse(raw)
	if err != nil {
		return job.NewFailure(job.KindMalformedOutline, err)
	}

	if err := os.MkdirAll(s.paths.Outlines, 0755); err != nil {
		return fmt.Errorf("create outlines dir: %w", err)
	}
	outlinePath := filepath.Join(s.paths.Outlines, baseName(j.Filename)+".md")

	// The artifact is the normalized serialization, so publish re-parses
	// exactly what was validated here.
	if err := os.WriteFile(outlinePath, []byte(outline.Markdown(parsed)), 0644); err != nil {
		return job.Failf(job.KindTransientIO, "write outline: %v", err)
	}

	j.OutlinePath = outlinePath

	s.logger.Info(ctx, "Outline saved: %s (%d blocks)", outlinePath, len(parsed.Blocks))
	return nil
}
