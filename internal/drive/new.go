package drive

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
)

const googleTokenURL = "https://oauth2.googleapis.com/token"

type implStorage struct {
	svc        *gdrive.Service
	rootFolder string
	logger     logger.Logger
}

// New creates a Drive-backed Storage. The oauth2 transport refreshes the
// access token from the stored refresh token as needed.
func New(ctx context.Context, cfg config.DriveConfig, log logger.Logger) (Storage, error) {
	if cfg.RefreshToken == "" {
		return nil, fmt.Errorf("drive refresh token is not configured")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: googleTokenURL},
		Scopes:       []string{gdrive.DriveFileScope},
	}
	client := oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gdrive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &implStorage{
		svc:        svc,
		rootFolder: cfg.RootFolderName,
		logger:     log,
	}, nil
}
