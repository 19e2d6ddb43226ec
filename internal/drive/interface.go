package drive

import "context"

// Folders holds the resolved remote folder ids.
type Folders struct {
	Root       string
	Documents  string
	Recordings string
}

// Storage is the remote document/recording store. Upload skips (skipped ==
// true) when the target folder already holds an object with the same
// content fingerprint.
type Storage interface {
	EnsureFolders(ctx context.Context) (Folders, error)
	Upload(ctx context.Context, folderID, filename, localPath, fingerprint string) (objectID string, skipped bool, err error)
	ListFingerprints(ctx context.Context, folderID string) (map[string]string, error)
}
