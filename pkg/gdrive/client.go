package gdrive

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Client provides access to the Google Drive API.
type Client struct {
	Drive *drive.Service
}

// NewClient creates a new Google Drive client from an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	driveService, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Client{Drive: driveService}, nil
}

// NewClientFromConfig creates a client by authenticating with the given config.
func NewClientFromConfig(ctx context.Context, cfg *Config) (*Client, error) {
	httpClient, err := Authenticate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewClient(ctx, httpClient)
}
