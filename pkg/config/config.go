// Package config loads and validates the crawl configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	// Slack ID and credential patterns
	channelIDPattern = regexp.MustCompile(`^[CDGW][A-Z0-9]+$`)
	workspacePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

// Config holds everything a crawl run needs: the workspace, the session
// credentials, and the channel selection.
type Config struct {
	// Workspace is the Slack subdomain, e.g. "mycompany".
	Workspace string `json:"workspace"`

	// Token is the xoxc- session token.
	Token string `json:"token"`

	// Cookie is the xoxd- session cookie value.
	Cookie string `json:"cookie"`

	// Channels maps channel IDs to display labels. When non-empty, only
	// these channels are crawled; when empty, every discovered channel is.
	Channels map[string]string `json:"channels,omitempty"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config back to disk. Used by the auth command after
// extracting fresh credentials from the browser.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the config for structural problems.
func (c *Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace is required")
	}
	if !workspacePattern.MatchString(c.Workspace) {
		return fmt.Errorf("invalid workspace: %s", c.Workspace)
	}
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if !strings.HasPrefix(c.Token, "xoxc-") {
		return fmt.Errorf("token must be an xoxc- session token")
	}
	if c.Cookie == "" {
		return fmt.Errorf("cookie is required")
	}
	for id := range c.Channels {
		if !channelIDPattern.MatchString(id) {
			return fmt.Errorf("invalid channel id: %s", id)
		}
	}
	return nil
}

// Selected reports whether a channel ID is part of the crawl selection.
// An empty selection means every channel.
func (c *Config) Selected(channelID string) bool {
	if len(c.Channels) == 0 {
		return true
	}
	_, ok := c.Channels[channelID]
	return ok
}
