package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jflowers/slackstash/pkg/models"
	"github.com/jflowers/slackstash/pkg/slackapi"
)

func newTestFileStore(t *testing.T, handler http.Handler) (*FileStore, string, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := slackapi.NewClient("testws", "xoxc-test", "xoxd-test",
		slackapi.NewBackoff(time.Millisecond),
		slackapi.WithBaseURL(srv.URL),
		slackapi.WithHTTPClient(srv.Client()),
		slackapi.WithPause(func() time.Duration { return 0 }),
	)

	dir := t.TempDir()
	return NewFileStore(client, dir, nil), dir, srv
}

func TestEnsureDownloadedOnce(t *testing.T) {
	fetches := 0
	fs, dir, srv := newTestFileStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte("png-bytes"))
	}))

	ref := models.FileRef{ID: "F1", Filetype: "png", URLPrivate: srv.URL + "/files-pri/F1"}
	first := &models.Message{TS: "1.0", Files: []models.FileRef{ref}}
	second := &models.Message{TS: "2.0", Files: []models.FileRef{ref}}

	if err := fs.EnsureDownloaded(context.Background(), first); err != nil {
		t.Fatalf("EnsureDownloaded() error: %v", err)
	}
	if err := fs.EnsureDownloaded(context.Background(), second); err != nil {
		t.Fatalf("EnsureDownloaded() error: %v", err)
	}

	if fetches != 1 {
		t.Errorf("server saw %d fetches, want 1", fetches)
	}

	data, err := os.ReadFile(filepath.Join(dir, "files", "F1.png"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("file content = %q", data)
	}
}

func TestEnsureDownloadedSkipsExisting(t *testing.T) {
	fs, dir, srv := newTestFileStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no fetch should happen for a file already on disk")
	}))

	filesDir := filepath.Join(dir, "files")
	if err := os.MkdirAll(filesDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(filesDir, "F1.png"), []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	msg := &models.Message{TS: "1.0", Files: []models.FileRef{
		{ID: "F1", Filetype: "png", URLPrivate: srv.URL + "/files-pri/F1"},
	}}
	if err := fs.EnsureDownloaded(context.Background(), msg); err != nil {
		t.Fatalf("EnsureDownloaded() error: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(filesDir, "F1.png"))
	if string(data) != "original" {
		t.Errorf("existing file was overwritten: %q", data)
	}
}

func TestEnsureDownloadedIsolatesFailures(t *testing.T) {
	fs, dir, srv := newTestFileStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("ok"))
	}))

	msg := &models.Message{TS: "1.0", Files: []models.FileRef{
		{ID: "F1", Filetype: "png", URLPrivate: srv.URL + "/broken"},
		{ID: "F2", Filetype: "txt", URLPrivate: srv.URL + "/fine"},
	}}

	if err := fs.EnsureDownloaded(context.Background(), msg); err != nil {
		t.Fatalf("EnsureDownloaded() should isolate per-file failures, got: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "files", "F2.txt")); err != nil {
		t.Errorf("F2 should have been downloaded despite F1 failing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "files", "F1.png")); err == nil {
		t.Error("F1 should not exist")
	}
}

func TestEnsureDownloadedSkipsIncompleteRefs(t *testing.T) {
	fs, _, _ := newTestFileStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no fetch should happen for refs without a locator")
	}))

	msg := &models.Message{TS: "1.0", Files: []models.FileRef{
		{ID: "F1", Filetype: "png"}, // no url_private
		{Filetype: "png", URLPrivate: "http://example.invalid/x"}, // no id
	}}
	if err := fs.EnsureDownloaded(context.Background(), msg); err != nil {
		t.Fatalf("EnsureDownloaded() error: %v", err)
	}
}

func TestFileStorePathFallbackExtension(t *testing.T) {
	fs := NewFileStore(nil, "/out", nil)
	got := fs.Path(models.FileRef{ID: "F9"})
	want := filepath.Join("/out", "files", "F9.bin")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
