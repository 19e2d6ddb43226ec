package stage

import (
	"context"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/drive"
	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/source"
	"github.com/nguyentantai21042004/scribeflow/internal/structurer"
	"github.com/nguyentantai21042004/scribeflow/internal/transcriber"
)

// Executor runs one idempotent unit of pipeline work. Run mutates the job
// in memory only; the orchestrator persists the outcome. Failures carry a
// job.Failure in their chain so the failure kind survives wrapping.
type Executor interface {
	Name() job.Stage
	Run(ctx context.Context, j *job.Job) error
}

// New wires the four executors to their external collaborators. storage
// may be nil when remote publishing is disabled; the publish stage then
// renders locally only.
func New(
	cfg *config.Config,
	src source.Source,
	trans transcriber.Transcriber,
	structSvc structurer.Structurer,
	storage drive.Storage,
	log logger.Logger,
) map[job.Stage]Executor {
	return map[job.Stage]Executor{
		job.StageDownload:   &downloadStage{src: src, paths: cfg.Paths, limits: cfg.Limits, logger: log},
		job.StageTranscribe: &transcribeStage{trans: trans, paths: cfg.Paths, limits: cfg.Limits, logger: log},
		job.StageStructure:  &structureStage{svc: structSvc, paths: cfg.Paths, logger: log},
		job.StagePublish:    &publishStage{storage: storage, paths: cfg.Paths, logger: log},
	}
}
