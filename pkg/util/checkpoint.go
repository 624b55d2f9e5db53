package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const checkpointFilename = ".slackstash-checkpoint.json"

// Checkpoint tracks per-channel crawl completion for resumability. The
// archive document itself is the durable data; the checkpoint is the small
// sidecar that lets a restart skip channels already fully extracted.
type Checkpoint struct {
	mu       sync.RWMutex
	filePath string
	data     CheckpointData
	dirty    bool
}

// CheckpointData holds the persistent checkpoint state.
type CheckpointData struct {
	Version     int                          `json:"version"`
	LastUpdated time.Time                    `json:"last_updated"`
	Channels    map[string]ChannelCheckpoint `json:"channels"`
}

// ChannelCheckpoint tracks progress for a single channel.
type ChannelCheckpoint struct {
	ChannelID    string    `json:"channel_id"`
	ChannelName  string    `json:"channel_name"`
	MessageCount int       `json:"message_count"`
	Completed    bool      `json:"completed"`
	LastUpdated  time.Time `json:"last_updated"`
}

// NewCheckpoint creates or loads a checkpoint file in dir.
func NewCheckpoint(dir string) (*Checkpoint, error) {
	cp := &Checkpoint{
		filePath: filepath.Join(dir, checkpointFilename),
		data: CheckpointData{
			Version:  1,
			Channels: make(map[string]ChannelCheckpoint),
		},
	}

	if data, err := os.ReadFile(cp.filePath); err == nil {
		if err := json.Unmarshal(data, &cp.data); err != nil {
			return nil, fmt.Errorf("failed to parse checkpoint file: %w", err)
		}
		if cp.data.Channels == nil {
			cp.data.Channels = make(map[string]ChannelCheckpoint)
		}
	}

	return cp, nil
}

// MarkCompleted records a fully crawled channel.
func (c *Checkpoint) MarkCompleted(channelID, name string, msgCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Channels[channelID] = ChannelCheckpoint{
		ChannelID:    channelID,
		ChannelName:  name,
		MessageCount: msgCount,
		Completed:    true,
		LastUpdated:  time.Now(),
	}
	c.dirty = true
}

// IsCompleted reports whether a channel was fully crawled by a prior run.
func (c *Checkpoint) IsCompleted(channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp, ok := c.data.Channels[channelID]
	return ok && cp.Completed
}

// Stats returns the number of completed channels and the total tracked.
func (c *Checkpoint) Stats() (completed, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cp := range c.data.Channels {
		if cp.Completed {
			completed++
		}
	}
	return completed, len(c.data.Channels)
}

// Channels returns a copy of the tracked channel states.
func (c *Checkpoint) Channels() map[string]ChannelCheckpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]ChannelCheckpoint, len(c.data.Channels))
	for id, cp := range c.data.Channels {
		out[id] = cp
	}
	return out
}

// Save persists the checkpoint to disk with an atomic rename.
func (c *Checkpoint) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	c.data.LastUpdated = time.Now()

	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmpPath := c.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, c.filePath); err != nil {
		return fmt.Errorf("failed to rename checkpoint: %w", err)
	}

	c.dirty = false
	return nil
}

// Reset clears the checkpoint data.
func (c *Checkpoint) Reset() error {
	c.mu.Lock()
	c.data = CheckpointData{
		Version:  1,
		Channels: make(map[string]ChannelCheckpoint),
	}
	c.dirty = true
	c.mu.Unlock()

	return c.Save()
}
