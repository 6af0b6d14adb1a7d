package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"

	"github.com/JakeFAU/index-inspector/internal/config"
)

// Scopes requested for the service account.
var Scopes = []string{
	"https://www.googleapis.com/auth/webmasters.readonly",
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

// ErrNoCredentials means neither the JSON variable nor the key file is set.
var ErrNoCredentials = errors.New("no service account credentials")

// Credentials is a loaded service account key.
type Credentials struct {
	*google.Credentials
	ClientEmail string
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	ProjectID   string `json:"project_id"`
}

// LoadCredentials reads the service account key from cfg.CredentialsJSON, or
// from cfg.CredentialsFile when the JSON is empty.
func LoadCredentials(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (*Credentials, error) {
	data := []byte(cfg.CredentialsJSON)
	source := "environment"
	if len(data) == 0 {
		if cfg.CredentialsFile == "" {
			return nil, ErrNoCredentials
		}
		fileData, err := os.ReadFile(cfg.CredentialsFile)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: GOOGLE_CREDENTIALS is not set and %s was not found", ErrNoCredentials, cfg.CredentialsFile)
		}
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		data = fileData
		source = cfg.CredentialsFile
	}

	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	logger.Info("Using service account",
		zap.String("source", source),
		zap.String("client_email", key.ClientEmail),
		zap.String("project_id", key.ProjectID),
	)
	return &Credentials{Credentials: creds, ClientEmail: key.ClientEmail}, nil
}
