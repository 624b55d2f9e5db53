package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Credentials are the session secrets a crawl run needs.
type Credentials struct {
	Token     string // xoxc- token from localStorage
	Cookie    string // xoxd- cookie value
	Workspace string // workspace subdomain, e.g. "mycompany"
	TeamID    string
}

// localConfigV2 mirrors the structure Slack keeps in localStorage.
type localConfigV2 struct {
	Teams map[string]teamConfig `json:"teams"`
}

type teamConfig struct {
	Token  string `json:"token"`
	ID     string `json:"id"`
	Domain string `json:"domain"`
}

// ExtractCredentials pulls the xoxc token and xoxd cookie from the first
// authenticated workspace found in the browser. A non-empty workspace
// restricts extraction to that subdomain.
func (s *Session) ExtractCredentials(ctx context.Context, workspace string) (*Credentials, error) {
	tab, err := s.findSlackTab()
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(target.ID(tab.TargetID)))
	defer cancel()

	var raw string
	if err := chromedp.Run(tabCtx,
		chromedp.Evaluate(`localStorage.getItem('localConfig_v2')`, &raw),
	); err != nil {
		return nil, fmt.Errorf("failed to read localStorage: %w", err)
	}
	if raw == "" {
		return nil, fmt.Errorf("no Slack config found in localStorage")
	}

	var cfg localConfigV2
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse localStorage config: %w", err)
	}

	var creds Credentials
	for _, team := range cfg.Teams {
		if !strings.HasPrefix(team.Token, "xoxc-") {
			continue
		}
		if workspace != "" && team.Domain != workspace {
			continue
		}
		creds.Token = team.Token
		creds.TeamID = team.ID
		creds.Workspace = team.Domain
		break
	}
	if creds.Token == "" {
		if workspace != "" {
			return nil, fmt.Errorf("no xoxc token found for workspace %q", workspace)
		}
		return nil, fmt.Errorf("no xoxc token found in browser session")
	}

	cookie, err := extractSessionCookie(tabCtx)
	if err != nil {
		return nil, err
	}
	creds.Cookie = cookie

	return &creds, nil
}

// extractSessionCookie reads the 'd' cookie from the slack.com domain.
func extractSessionCookie(ctx context.Context) (string, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Target))
			return err
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to get cookies: %w", err)
	}

	for _, c := range cookies {
		if c.Name == "d" && strings.Contains(c.Domain, "slack.com") {
			return c.Value, nil
		}
	}

	return "", fmt.Errorf("no 'd' cookie found for slack.com")
}
