package util

import (
	"testing"
)

func TestCheckpointMarkAndQuery(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewCheckpoint(dir)
	if err != nil {
		t.Fatalf("NewCheckpoint() error: %v", err)
	}

	if cp.IsCompleted("C1") {
		t.Error("fresh checkpoint should have no completed channels")
	}

	cp.MarkCompleted("C1", "general", 42)
	if !cp.IsCompleted("C1") {
		t.Error("C1 should be completed")
	}

	completed, total := cp.Stats()
	if completed != 1 || total != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", completed, total)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cp, err := NewCheckpoint(dir)
	if err != nil {
		t.Fatal(err)
	}
	cp.MarkCompleted("C1", "general", 10)
	cp.MarkCompleted("D1", "John Smith", 3)
	if err := cp.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded, err := NewCheckpoint(dir)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if !reloaded.IsCompleted("C1") || !reloaded.IsCompleted("D1") {
		t.Error("reloaded checkpoint lost completed channels")
	}
	if got := reloaded.Channels()["C1"]; got.MessageCount != 10 || got.ChannelName != "general" {
		t.Errorf("C1 checkpoint = %+v", got)
	}
}

func TestCheckpointSaveCleanNoop(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewCheckpoint(dir)
	if err != nil {
		t.Fatal(err)
	}
	// Nothing marked: Save must not create a file.
	if err := cp.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := NewCheckpoint(dir); err != nil {
		t.Fatalf("reload error: %v", err)
	}
}

func TestCheckpointReset(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewCheckpoint(dir)
	if err != nil {
		t.Fatal(err)
	}
	cp.MarkCompleted("C1", "general", 1)
	if err := cp.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if cp.IsCompleted("C1") {
		t.Error("Reset() should clear completion")
	}

	reloaded, err := NewCheckpoint(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.IsCompleted("C1") {
		t.Error("reset state should persist")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"general", "general"},
		{"a/b\\c", "a_b_c"},
		{"  trimmed. ", "trimmed"},
		{"", "unnamed"},
		{"what?.txt", "what_.txt"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
