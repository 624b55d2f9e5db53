package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jflowers/slackstash/pkg/models"
)

func TestWriterAppendAndFlush(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}

	channels := map[string]models.Channel{
		"C1": {ID: "C1", Kind: models.ChannelKindChannel, Name: "general"},
	}
	users := map[string]models.User{
		"U1": {ID: "U1", Name: "jsmith"},
	}
	if err := w.SetDirectory(channels, users); err != nil {
		t.Fatalf("SetDirectory() error: %v", err)
	}

	msgs := []models.Message{
		{TS: "100.0", UserID: "U1", Text: "hello"},
		{TS: "200.0", UserID: "U1", Text: "world"},
	}
	if err := w.AppendChannel("C1", "general", msgs); err != nil {
		t.Fatalf("AppendChannel() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ArchiveFilename))
	if err != nil {
		t.Fatalf("archive not on disk: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("archive is not valid JSON: %v", err)
	}

	conv, ok := doc.Conversations["C1"]
	if !ok {
		t.Fatal("C1 missing from conversations")
	}
	if conv.Name != "general" || len(conv.Messages) != 2 {
		t.Errorf("conversation = %+v", conv)
	}
	if conv.Messages[0].TS != "100.0" {
		t.Errorf("first message ts = %q", conv.Messages[0].TS)
	}
	if doc.People["U1"].Name != "jsmith" {
		t.Errorf("people = %+v", doc.People)
	}
	if doc.Channels["C1"].Name != "general" {
		t.Errorf("channels = %+v", doc.Channels)
	}
}

func TestWriterReloadsPriorArchive(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AppendChannel("C1", "general", []models.Message{{TS: "1.0", UserID: "U1", Text: "x"}}); err != nil {
		t.Fatal(err)
	}

	// A second run must start from the prior archive, not from scratch.
	w2, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() on existing archive error: %v", err)
	}
	if !w2.HasConversation("C1") {
		t.Error("prior conversation lost on reload")
	}
	if err := w2.AppendChannel("C2", "random", nil); err != nil {
		t.Fatal(err)
	}
	if w2.ConversationCount() != 2 {
		t.Errorf("ConversationCount() = %d, want 2", w2.ConversationCount())
	}
}

func TestWriterNoPartialFlushArtifacts(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AppendChannel("C1", "general", nil); err != nil {
		t.Fatal(err)
	}

	// The temp file from the atomic write must not linger.
	if _, err := os.Stat(w.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after flush")
	}
}

func TestNewWriterRejectsCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ArchiveFilename), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewWriter(dir); err == nil {
		t.Fatal("expected error for corrupt archive, got nil")
	}
}
