package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second

	// Pause bounds applied after every successful call, to stay under
	// burst limits even when the server never throttles explicitly.
	minCallPause = 250 * time.Millisecond
	maxCallPause = 750 * time.Millisecond
)

// Client is a Slack API client using browser session credentials.
// All JSON calls go through Call, which retries rate-limited responses
// against the shared Backoff governor indefinitely.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string // xoxc- token
	cookie     string // xoxd- cookie
	backoff    *Backoff
	pause      func() time.Duration
	log        *zap.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(u string) ClientOption {
	return func(client *Client) {
		client.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(client *Client) {
		client.log = log
	}
}

// WithPause overrides the post-call pause duration source.
func WithPause(f func() time.Duration) ClientOption {
	return func(client *Client) {
		client.pause = f
	}
}

// NewClient creates a client for the given workspace. The backoff governor
// is shared state: pass the same instance to every client of a run.
func NewClient(workspace, token, cookie string, backoff *Backoff, opts ...ClientOption) *Client {
	if backoff == nil {
		backoff = NewBackoff(0)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    fmt.Sprintf("https://%s.slack.com/api", workspace),
		token:      token,
		cookie:     cookie,
		backoff:    backoff,
		pause:      randomPause,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func randomPause() time.Duration {
	return minCallPause + rand.N(maxCallPause-minCallPause)
}

// Call makes a JSON API call, decoding the response into result. A response
// whose body signals "ratelimited" (or an HTTP 429) sleeps the shared
// backoff duration and retries the same call until it succeeds or the
// server returns a different error. Transport failures and all other API
// errors are returned as-is.
func (c *Client) Call(ctx context.Context, method, endpoint string, params url.Values, result interface{}) error {
	for {
		data, status, err := c.do(ctx, method, endpoint, params)
		if err != nil {
			return err
		}

		if status == http.StatusTooManyRequests {
			if err := c.sleepBackoff(ctx, endpoint); err != nil {
				return err
			}
			continue
		}
		if status != http.StatusOK {
			return &TransportError{Endpoint: endpoint, StatusCode: status}
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("malformed response from %s: %w", endpoint, err)
		}
		if !env.OK {
			if env.Error == ErrCodeRateLimited {
				if err := c.sleepBackoff(ctx, endpoint); err != nil {
					return err
				}
				continue
			}
			return classifyError(env.Error, endpoint)
		}

		if result != nil {
			if err := json.Unmarshal(data, result); err != nil {
				return fmt.Errorf("malformed response from %s: %w", endpoint, err)
			}
		}

		return c.sleepPause(ctx)
	}
}

// Fetch downloads raw bytes from an absolute URL with the session
// credentials attached. Used for file attachments.
func (c *Client) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: fileURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Endpoint: fileURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: fileURL, Err: err}
	}

	if err := c.sleepPause(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

// do performs one HTTP round trip and returns the raw body and status.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values) ([]byte, int, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, endpoint)

	var body io.Reader
	if params != nil {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &TransportError{Endpoint: endpoint, Err: err}
	}

	return data, resp.StatusCode, nil
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.cookie != "" {
		req.Header.Set("Cookie", "d="+c.cookie)
	}
}

// sleepBackoff sleeps the shared backoff duration for one rate-limit event.
func (c *Client) sleepBackoff(ctx context.Context, endpoint string) error {
	d := c.backoff.Next()
	c.log.Warn("rate limited, backing off",
		zap.String("endpoint", endpoint),
		zap.Duration("sleep", d),
		zap.Duration("next", c.backoff.Current()))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Client) sleepPause(ctx context.Context) error {
	d := c.pause()
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ListConversations retrieves one page of the conversation list.
func (c *Client) ListConversations(ctx context.Context, types []string, cursor string) (*ConversationsListResponse, error) {
	params := url.Values{}
	params.Set("limit", "200")
	if len(types) > 0 {
		params.Set("types", strings.Join(types, ","))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp ConversationsListResponse
	if err := c.Call(ctx, "POST", "conversations.list", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConversationView retrieves the view of a conversation, including the user
// records of everyone visible in it.
func (c *Client) ConversationView(ctx context.Context, channelID string) (*ConversationViewResponse, error) {
	params := url.Values{}
	params.Set("channel", channelID)

	var resp ConversationViewResponse
	if err := c.Call(ctx, "POST", "conversations.view", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History retrieves one page of a conversation's message history. A
// non-empty latest bounds the page to messages strictly older than that
// timestamp token.
func (c *Client) History(ctx context.Context, channelID, latest string, limit int) (*HistoryResponse, error) {
	params := url.Values{}
	params.Set("channel", channelID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if latest != "" {
		params.Set("latest", latest)
	}

	var resp HistoryResponse
	if err := c.Call(ctx, "POST", "conversations.history", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Replies retrieves one page of replies to a thread root. The page includes
// the root message itself; callers drop it.
func (c *Client) Replies(ctx context.Context, channelID, threadTS, latest string, limit int) (*HistoryResponse, error) {
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("ts", threadTS)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if latest != "" {
		params.Set("latest", latest)
	}

	var resp HistoryResponse
	if err := c.Call(ctx, "POST", "conversations.replies", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
