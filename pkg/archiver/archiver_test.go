package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jflowers/slackstash/pkg/archive"
	"github.com/jflowers/slackstash/pkg/config"
	"github.com/jflowers/slackstash/pkg/slackapi"
)

// fakeWorkspace serves a tiny two-channel workspace: #general with a
// threaded message carrying a file, and a DM.
func fakeWorkspace(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/conversations.list", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": true, "channels": [
			{"id": "C1", "name": "general", "is_channel": true},
			{"id": "D1", "is_im": true, "user": "U2"}
		], "response_metadata": {"next_cursor": ""}}`)
	})

	mux.HandleFunc("/conversations.view", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": true, "users": [
			{"id": "U1", "name": "jsmith", "profile": {"display_name": "John Smith"}},
			{"id": "U2", "name": "ada", "profile": {"display_name": "Ada"}}
		]}`)
	})

	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("latest") != "" {
			fmt.Fprint(w, `{"ok": true, "messages": []}`)
			return
		}
		srvURL := "http://" + r.Host
		switch r.Form.Get("channel") {
		case "C1":
			fmt.Fprintf(w, `{"ok": true, "messages": [
				{"ts": "300.0", "user": "U1", "text": "with file",
				 "files": [{"id": "F1", "filetype": "png", "url_private": "%s/files-pri/F1"}]},
				{"ts": "200.0", "user": "U2", "text": "threaded", "reply_count": 1},
				{"ts": "100.0", "user": "U1", "text": "first"}
			]}`, srvURL)
		case "D1":
			fmt.Fprint(w, `{"ok": true, "messages": [
				{"ts": "500.0", "user": "U2", "text": "hi there"}
			]}`)
		default:
			fmt.Fprint(w, `{"ok": false, "error": "channel_not_found"}`)
		}
	})

	mux.HandleFunc("/conversations.replies", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("latest") != "" {
			fmt.Fprint(w, `{"ok": true, "messages": []}`)
			return
		}
		fmt.Fprint(w, `{"ok": true, "messages": [
			{"ts": "200.0", "user": "U2", "text": "threaded", "reply_count": 1},
			{"ts": "250.0", "user": "U1", "text": "a reply"}
		]}`)
	})

	mux.HandleFunc("/files-pri/F1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestArchiver(t *testing.T, srv *httptest.Server, outputDir string, resume bool) *Archiver {
	cfg := &config.Config{
		Workspace: "testws",
		Token:     "xoxc-test",
		Cookie:    "xoxd-test",
	}

	a, err := New(cfg, Options{
		OutputDir: outputDir,
		Resume:    resume,
		ClientOptions: []slackapi.ClientOption{
			slackapi.WithBaseURL(srv.URL),
			slackapi.WithHTTPClient(srv.Client()),
			slackapi.WithPause(func() time.Duration { return 0 }),
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return a
}

func TestRunEndToEnd(t *testing.T) {
	srv := fakeWorkspace(t)
	dir := t.TempDir()

	a := newTestArchiver(t, srv, dir, false)
	summary, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if summary.Channels != 2 {
		t.Errorf("Channels = %d, want 2", summary.Channels)
	}
	if summary.Messages != 4 {
		t.Errorf("Messages = %d, want 4", summary.Messages)
	}

	// Archive document on disk.
	data, err := os.ReadFile(filepath.Join(dir, archive.ArchiveFilename))
	if err != nil {
		t.Fatalf("archive missing: %v", err)
	}
	var doc archive.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("archive not valid JSON: %v", err)
	}

	general := doc.Conversations["C1"]
	if general.Name != "general" || len(general.Messages) != 3 {
		t.Fatalf("general = %+v", general)
	}
	for i, want := range []string{"100.0", "200.0", "300.0"} {
		if general.Messages[i].TS != want {
			t.Errorf("general.Messages[%d].TS = %q, want %q", i, general.Messages[i].TS, want)
		}
	}
	if replies := general.Messages[1].Replies; len(replies) != 1 || replies[0].TS != "250.0" {
		t.Errorf("thread replies = %+v", replies)
	}

	dm := doc.Conversations["D1"]
	if dm.Name != "Ada" {
		t.Errorf("dm name = %q, want resolved counterpart name", dm.Name)
	}

	// Attachment downloaded exactly once into the file cache.
	file, err := os.ReadFile(filepath.Join(dir, "files", "F1.png"))
	if err != nil {
		t.Fatalf("attachment missing: %v", err)
	}
	if string(file) != "png-bytes" {
		t.Errorf("attachment content = %q", file)
	}

	// Transcripts alongside the archive.
	transcript, err := os.ReadFile(filepath.Join(dir, "general.txt"))
	if err != nil {
		t.Fatalf("transcript missing: %v", err)
	}
	if !strings.Contains(string(transcript), "[John Smith] first") {
		t.Errorf("transcript = %q", transcript)
	}
	if !strings.Contains(string(transcript), "    [John Smith] a reply") {
		t.Errorf("transcript missing indented reply: %q", transcript)
	}
}

func TestRunResumeSkipsCompleted(t *testing.T) {
	srv := fakeWorkspace(t)
	dir := t.TempDir()

	first := newTestArchiver(t, srv, dir, false)
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	second := newTestArchiver(t, srv, dir, true)
	summary, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}

	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if summary.Channels != 0 {
		t.Errorf("Channels = %d, want 0", summary.Channels)
	}
}

func TestRunChannelSelection(t *testing.T) {
	srv := fakeWorkspace(t)
	dir := t.TempDir()

	cfg := &config.Config{
		Workspace: "testws",
		Token:     "xoxc-test",
		Cookie:    "xoxd-test",
		Channels:  map[string]string{"C1": "general"},
	}
	a, err := New(cfg, Options{
		OutputDir: dir,
		ClientOptions: []slackapi.ClientOption{
			slackapi.WithBaseURL(srv.URL),
			slackapi.WithHTTPClient(srv.Client()),
			slackapi.WithPause(func() time.Duration { return 0 }),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	summary, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Channels != 1 {
		t.Errorf("Channels = %d, want only the selected one", summary.Channels)
	}

	data, _ := os.ReadFile(filepath.Join(dir, archive.ArchiveFilename))
	var doc archive.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Conversations["D1"]; ok {
		t.Error("unselected channel D1 should not be in the archive")
	}
}
