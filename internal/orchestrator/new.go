package orchestrator

import (
	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/stage"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

type implOrchestrator struct {
	cfg    *config.Config
	store  store.Store
	stages map[job.Stage]stage.Executor
	locks  *lockRegistry
	sem    *semaphore
	logger logger.Logger
}

// New creates a new Orchestrator instance.
func New(cfg *config.Config, st store.Store, stages map[job.Stage]stage.Executor, log logger.Logger) Orchestrator {
	return &implOrchestrator{
		cfg:    cfg,
		store:  st,
		stages: stages,
		locks:  newLockRegistry(),
		sem:    newSemaphore(cfg.Performance.MaxConcurrent),
		logger: log,
	}
}
