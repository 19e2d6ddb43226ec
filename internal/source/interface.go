package source

import "context"

// Recording is the metadata the recorder API exposes for one file.
type Recording struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	DurationMS int64  `json:"duration"`
	StartTime  int64  `json:"start_time"`
}

// Status is the connection snapshot shown on the dashboard.
type Status struct {
	OK             bool   `json:"ok"`
	Message        string `json:"message"`
	RecordingCount int    `json:"recordingCount"`
}

// Source lists and downloads recordings from the remote recorder API.
// Download rejects payloads larger than maxBytes without keeping them.
type Source interface {
	List(ctx context.Context) ([]Recording, error)
	Download(ctx context.Context, id, destPath string, maxBytes int64) (int64, error)
	TestConnection(ctx context.Context) Status
}
