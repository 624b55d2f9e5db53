// Package archive maintains the crawl's output document and its durable
// JSON form, plus the per-channel plain-text transcripts.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jflowers/slackstash/pkg/models"
)

// ArchiveFilename is the name of the durable archive document.
const ArchiveFilename = "slack.json"

// Document is the top-level archive: everything a crawl run has extracted
// so far. It is appended to one channel at a time and flushed whole after
// each channel, so the on-disk form never contains a partial channel.
type Document struct {
	Channels      map[string]models.Channel `json:"channels"`
	People        map[string]models.User    `json:"people"`
	Conversations map[string]Conversation   `json:"conversations"`
}

// Conversation is one fully crawled channel inside the document.
type Conversation struct {
	Name     string           `json:"name"`
	Messages []models.Message `json:"messages"`
}

// NewDocument creates an empty archive document.
func NewDocument() *Document {
	return &Document{
		Channels:      make(map[string]models.Channel),
		People:        make(map[string]models.User),
		Conversations: make(map[string]Conversation),
	}
}

// Writer owns the document and its durable form on disk.
type Writer struct {
	mu  sync.Mutex
	doc *Document
	dir string
}

// NewWriter creates a writer rooted at outputDir. If a prior archive exists
// there it is loaded, so a re-run starts from what was already extracted.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	w := &Writer{doc: NewDocument(), dir: outputDir}

	path := w.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return w, nil
		}
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	if err := json.Unmarshal(data, w.doc); err != nil {
		return nil, fmt.Errorf("failed to parse existing archive %s: %w", path, err)
	}
	// A hand-edited archive could be missing maps.
	if w.doc.Channels == nil {
		w.doc.Channels = make(map[string]models.Channel)
	}
	if w.doc.People == nil {
		w.doc.People = make(map[string]models.User)
	}
	if w.doc.Conversations == nil {
		w.doc.Conversations = make(map[string]Conversation)
	}

	return w, nil
}

// Path returns the archive document's location.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, ArchiveFilename)
}

// SetDirectory records the discovered channel and user maps. Called once
// after directory resolution, before any channel is crawled.
func (w *Writer) SetDirectory(channels map[string]models.Channel, users map[string]models.User) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, ch := range channels {
		w.doc.Channels[id] = ch
	}
	for id, u := range users {
		w.doc.People[id] = u
	}
	return w.flush()
}

// AppendChannel records a fully crawled channel and flushes the whole
// document to disk. The flush is atomic (write to a temp path, rename over
// the target) so a crash mid-write never exposes a half-written archive.
func (w *Writer) AppendChannel(channelID, name string, messages []models.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.doc.Conversations[channelID] = Conversation{
		Name:     name,
		Messages: messages,
	}
	return w.flush()
}

// HasConversation reports whether a channel is already present in the
// document, i.e. was fully crawled by this or a prior run.
func (w *Writer) HasConversation(channelID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.doc.Conversations[channelID]
	return ok
}

// ConversationCount returns the number of fully crawled channels.
func (w *Writer) ConversationCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.doc.Conversations)
}

func (w *Writer) flush() error {
	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}

	path := w.Path()
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename archive: %w", err)
	}
	return nil
}
