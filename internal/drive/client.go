package drive

import (
	"context"
	"fmt"
	"os"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
)

const (
	folderMimeType     = "application/vnd.google-apps.folder"
	documentsFolder    = "Documents"
	recordingsFolder   = "Recordings"
	fingerprintPropKey = "fingerprint"
)

// EnsureFolders finds or creates <root>/Documents and <root>/Recordings.
func (s *implStorage) EnsureFolders(ctx context.Context) (Folders, error) {
	rootID, err := s.getOrCreateFolder(ctx, s.rootFolder, "root")
	if err != nil {
		return Folders{}, fmt.Errorf("ensure root folder: %w", err)
	}
	docsID, err := s.getOrCreateFolder(ctx, documentsFolder, rootID)
	if err != nil {
		return Folders{}, fmt.Errorf("ensure documents folder: %w", err)
	}
	recsID, err := s.getOrCreateFolder(ctx, recordingsFolder, rootID)
	if err != nil {
		return Folders{}, fmt.Errorf("ensure recordings folder: %w", err)
	}

	return Folders{Root: rootID, Documents: docsID, Recordings: recsID}, nil
}

func (s *implStorage) getOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf(
		"name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), folderMimeType, parentID,
	)
	list, err := s.svc.Files.List().Context(ctx).Q(query).Fields("files(id, name)").PageSize(1).Do()
	if err != nil {
		return "", fmt.Errorf("list folders: %w", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder, err := s.svc.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Context(ctx).Fields("id").Do()
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", name, err)
	}

	s.logger.Info(ctx, "Created remote folder: %s (%s)", name, folder.Id)
	return folder.Id, nil
}

// Upload stores a local file in the folder unless an object with the same
// fingerprint is already there; repeated publishes of the same content
// leave exactly one stored object.
func (s *implStorage) Upload(ctx context.Context, folderID, filename, localPath, fingerprint string) (string, bool, error) {
	if fingerprint != "" {
		existing, err := s.ListFingerprints(ctx, folderID)
		if err != nil {
			return "", false, fmt.Errorf("check existing fingerprints: %w", err)
		}
		if id, ok := existing[fingerprint]; ok {
			s.logger.Info(ctx, "Skipping upload, fingerprint already stored: %s (%s)", filename, id)
			return id, true, nil
		}
		// Objects stored before fingerprinting carry no property; fall back
		// to a name match so they are not duplicated.
		if id, err := s.findByName(ctx, folderID, filename); err != nil {
			return "", false, fmt.Errorf("check existing names: %w", err)
		} else if id != "" {
			s.logger.Info(ctx, "Skipping upload, name already stored: %s (%s)", filename, id)
			return id, true, nil
		}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	meta := &gdrive.File{
		Name:    filename,
		Parents: []string{folderID},
	}
	if fingerprint != "" {
		meta.AppProperties = map[string]string{fingerprintPropKey: fingerprint}
	}

	uploaded, err := s.svc.Files.Create(meta).Context(ctx).Media(f).Fields("id").Do()
	if err != nil {
		return "", false, fmt.Errorf("upload %s: %w", filename, err)
	}

	s.logger.Info(ctx, "Uploaded %s (%s)", filename, uploaded.Id)
	return uploaded.Id, false, nil
}

// ListFingerprints maps stored content fingerprints to object ids for one
// folder.
func (s *implStorage) ListFingerprints(ctx context.Context, folderID string) (map[string]string, error) {
	out := make(map[string]string)
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)

	pageToken := ""
	for {
		call := s.svc.Files.List().Context(ctx).Q(query).
			Fields("nextPageToken, files(id, appProperties)").PageSize(100)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folderID, err)
		}
		for _, f := range list.Files {
			if fp := f.AppProperties[fingerprintPropKey]; fp != "" {
				out[fp] = f.Id
			}
		}
		if list.NextPageToken == "" {
			return out, nil
		}
		pageToken = list.NextPageToken
	}
}

// findByName returns the id of a non-trashed object with the exact name, or
// "" when none exists.
func (s *implStorage) findByName(ctx context.Context, folderID, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), folderID)
	list, err := s.svc.Files.List().Context(ctx).Q(query).Fields("files(id)").PageSize(1).Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}
	return "", nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
