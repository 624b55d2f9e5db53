package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/jflowers/slackstash/pkg/models"
	"github.com/jflowers/slackstash/pkg/slackapi"
)

// FileStore downloads file attachments into a flat, content-addressed
// directory. A file is fetched at most once per ID; files already on disk
// are skipped, which makes re-runs cheap.
type FileStore struct {
	client *slackapi.Client
	dir    string
	log    *zap.Logger

	// mu makes the existence-check-then-write sequence atomic should two
	// fetchers ever target the same file ID.
	mu sync.Mutex
}

// NewFileStore creates a file store rooted at outputDir/files.
func NewFileStore(client *slackapi.Client, outputDir string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{
		client: client,
		dir:    filepath.Join(outputDir, "files"),
		log:    log,
	}
}

// EnsureDownloaded downloads every file referenced by the message that is
// not already on disk. A failure on one file is logged and skipped; a
// single broken attachment must not lose the conversation around it.
// Cancellation is the only error that propagates.
func (s *FileStore) EnsureDownloaded(ctx context.Context, msg *models.Message) error {
	for _, f := range msg.Files {
		if f.ID == "" || f.URLPrivate == "" {
			continue
		}
		if err := s.ensure(ctx, f); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("attachment fetch failed",
				zap.String("file", f.ID),
				zap.String("message", msg.TS),
				zap.Error(err))
		}
	}
	return nil
}

// Path returns the on-disk location for a file reference.
func (s *FileStore) Path(f models.FileRef) string {
	ext := f.Filetype
	if ext == "" {
		ext = "bin"
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s", f.ID, ext))
}

func (s *FileStore) ensure(ctx context.Context, f models.FileRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(f)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create files directory: %w", err)
	}

	data, err := s.client.Fetch(ctx, f.URLPrivate)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.log.Debug("downloaded attachment", zap.String("file", f.ID), zap.Int("bytes", len(data)))
	return nil
}
