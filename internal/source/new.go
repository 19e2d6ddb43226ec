package source

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nguyentantai21042004/scribeflow/internal/logger"
)

type implSource struct {
	// baseURL may be rewritten by a region redirect while other calls
	// read it.
	mu      sync.RWMutex
	baseURL string

	token    string
	pageSize int
	client   *http.Client
	logger   logger.Logger
}

// New creates a Source for the recorder consumer API. The token is sent as
// a bearer Authorization header; tokens copied from the web app already
// carry the prefix.
func New(baseURL, token string, pageSize int, log logger.Logger) Source {
	token = strings.TrimSpace(token)
	if token != "" && !strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = "bearer " + token
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	return &implSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		pageSize: pageSize,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   log,
	}
}
