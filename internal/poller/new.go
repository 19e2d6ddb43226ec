package poller

import (
	"sync"
	"time"

	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/orchestrator"
	"github.com/nguyentantai21042004/scribeflow/internal/source"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

type implPoller struct {
	src      source.Source
	store    store.Store
	orch     orchestrator.Orchestrator
	interval time.Duration
	logger   logger.Logger

	mu     sync.RWMutex
	status source.Status
}

// New creates a new Poller instance.
func New(src source.Source, st store.Store, orch orchestrator.Orchestrator, intervalSeconds int, log logger.Logger) Poller {
	return &implPoller{
		src:      src,
		store:    st,
		orch:     orch,
		interval: time.Duration(intervalSeconds) * time.Second,
		logger:   log,
		status:   source.Status{Message: "not checked yet"},
	}
}
