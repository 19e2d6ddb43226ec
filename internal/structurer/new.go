package structurer

import (
	"sync"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
)

type implStructurer struct {
	apiKeys []string

	// currentKey rotates on quota errors; Structure runs on multiple
	// workers at once.
	mu         sync.Mutex
	currentKey int

	model    string
	template string
	logger   logger.Logger
}

// New creates a Structurer that rotates through the supplied Gemini API
// keys on quota errors.
func New(cfg config.StructurerConfig, log logger.Logger) Structurer {
	return &implStructurer{
		apiKeys:  cfg.APIKeys,
		model:    cfg.Model,
		template: cfg.PromptTemplate,
		logger:   log,
	}
}
