package gdrive

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/drive/v3"
)

// MimeTypeFolder is the MIME type for Google Drive folders.
const MimeTypeFolder = "application/vnd.google-apps.folder"

// FolderInfo contains information about a Drive folder.
type FolderInfo struct {
	ID   string
	Name string
	URL  string
}

// CreateFolder creates a new folder in Google Drive.
func (c *Client) CreateFolder(ctx context.Context, name string, parentID string) (*FolderInfo, error) {
	folder := &drive.File{
		Name:     name,
		MimeType: MimeTypeFolder,
	}

	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	created, err := c.Drive.Files.Create(folder).
		Context(ctx).
		Fields("id, name, webViewLink").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", name, err)
	}

	return &FolderInfo{
		ID:   created.Id,
		Name: created.Name,
		URL:  created.WebViewLink,
	}, nil
}

// FindFolder finds a folder by name within a parent folder.
// Returns nil if not found.
func (c *Client) FindFolder(ctx context.Context, name string, parentID string) (*FolderInfo, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeName(name), MimeTypeFolder)
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", parentID)
	}

	result, err := c.Drive.Files.List().
		Context(ctx).
		Q(query).
		Fields("files(id, name, webViewLink)").
		PageSize(1).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search for folder %q: %w", name, err)
	}

	if len(result.Files) == 0 {
		return nil, nil
	}

	f := result.Files[0]
	return &FolderInfo{
		ID:   f.Id,
		Name: f.Name,
		URL:  f.WebViewLink,
	}, nil
}

// FindOrCreateFolder finds a folder by name, or creates it if it doesn't exist.
func (c *Client) FindOrCreateFolder(ctx context.Context, name string, parentID string) (*FolderInfo, error) {
	folder, err := c.FindFolder(ctx, name, parentID)
	if err != nil {
		return nil, err
	}

	if folder != nil {
		return folder, nil
	}

	return c.CreateFolder(ctx, name, parentID)
}

// UploadFile uploads a local file into the given Drive folder, replacing
// any existing file with the same name.
func (c *Client) UploadFile(ctx context.Context, path string, folderID string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)

	if existingID, err := c.findFile(ctx, name, folderID); err != nil {
		return "", err
	} else if existingID != "" {
		updated, err := c.Drive.Files.Update(existingID, &drive.File{}).
			Context(ctx).
			Media(f).
			Fields("id").
			Do()
		if err != nil {
			return "", fmt.Errorf("failed to update %s in Drive: %w", name, err)
		}
		return updated.Id, nil
	}

	meta := &drive.File{
		Name:     name,
		MimeType: mimeTypeFor(name),
		Parents:  []string{folderID},
	}

	created, err := c.Drive.Files.Create(meta).
		Context(ctx).
		Media(f).
		Fields("id").
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to Drive: %w", name, err)
	}

	return created.Id, nil
}

// UploadDirectory uploads every regular file under dir into the given Drive
// folder, mirroring one level of subdirectories as Drive subfolders. Returns
// the number of files uploaded.
func (c *Client) UploadDirectory(ctx context.Context, dir string, folderID string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := c.FindOrCreateFolder(ctx, entry.Name(), folderID)
			if err != nil {
				return count, err
			}
			n, err := c.UploadDirectory(ctx, path, sub.ID)
			count += n
			if err != nil {
				return count, err
			}
			continue
		}

		// Skip in-progress temp files from atomic writes.
		if strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}

		if _, err := c.UploadFile(ctx, path, folderID); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// findFile returns the ID of a non-folder file with the given name in the
// parent folder, or "" if none exists.
func (c *Client) findFile(ctx context.Context, name string, parentID string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType != '%s' and trashed = false and '%s' in parents",
		escapeName(name), MimeTypeFolder, parentID)

	result, err := c.Drive.Files.List().
		Context(ctx).
		Q(query).
		Fields("files(id)").
		PageSize(1).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for file %q: %w", name, err)
	}

	if len(result.Files) == 0 {
		return "", nil
	}
	return result.Files[0].Id, nil
}

// escapeName escapes single quotes for Drive query strings.
func escapeName(name string) string {
	return strings.ReplaceAll(name, "'", "\\'")
}

func mimeTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
