// Package chrome connects to a running Chrome/Chromium session and pulls
// Slack session credentials out of it, so tokens never need to be copied
// by hand.
package chrome

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Session is a connection to a browser with an authenticated Slack tab.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// Config holds connection settings.
type Config struct {
	// DebugPort is the Chrome DevTools Protocol port (default 9222).
	// Start the browser with --remote-debugging-port=9222.
	DebugPort int

	// Timeout for browser operations.
	Timeout time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebugPort: 9222,
		Timeout:   30 * time.Second,
	}
}

// Connect attaches to an existing browser via the DevTools protocol.
func Connect(ctx context.Context, cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	debugURL := fmt.Sprintf("ws://127.0.0.1:%d", cfg.DebugPort)
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, debugURL)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Run a trivial action to verify the connection.
	testCtx, testCancel := context.WithTimeout(browserCtx, cfg.Timeout)
	defer testCancel()

	var title string
	if err := chromedp.Run(testCtx, chromedp.Title(&title)); err != nil {
		allocCancel()
		cancel()
		return nil, fmt.Errorf("failed to connect to browser at %s: %w", debugURL, err)
	}

	return &Session{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      cancel,
	}, nil
}

// Close releases all resources associated with the session.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// TabInfo describes one browser tab.
type TabInfo struct {
	TargetID string
	Title    string
	URL      string
}

// findSlackTab locates a tab with Slack loaded.
func (s *Session) findSlackTab() (*TabInfo, error) {
	targets, err := chromedp.Targets(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list browser tabs: %w", err)
	}

	for _, t := range targets {
		if t.Type == "page" && strings.Contains(t.URL, "slack.com") {
			return &TabInfo{
				TargetID: string(t.TargetID),
				Title:    t.Title,
				URL:      t.URL,
			}, nil
		}
	}

	return nil, fmt.Errorf("no Slack tab found - open your workspace in the browser first")
}
