// slackstash: a Slack message history archiver using session-based
// authentication. Designed for workspaces where traditional API access
// is restricted.
package main

import (
	"os"

	"github.com/jflowers/slackstash/internal/cli"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
