package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jflowers/slackstash/pkg/chrome"
	"github.com/jflowers/slackstash/pkg/config"
)

var authWorkspace string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Extract Slack session credentials from a running browser",
	Long: `Extract the xoxc session token and xoxd cookie from a Chrome session
with an authenticated Slack tab, and save them to the config file.

Prerequisites:
  - Chrome/Chromium running with --remote-debugging-port=9222
  - Your Slack workspace open and signed in in a tab

Examples:
  # Grab credentials for whatever workspace the tab has open
  slackstash auth

  # Restrict extraction to one workspace
  slackstash auth --workspace mycompany`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().StringVar(&authWorkspace, "workspace", "", "Workspace subdomain to extract credentials for")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println("Connecting to Chrome...")
	chromeCfg := chrome.DefaultConfig()
	chromeCfg.DebugPort = chromePort
	session, err := chrome.Connect(ctx, chromeCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Chrome: %w", err)
	}
	defer session.Close()

	fmt.Println("Extracting Slack credentials...")
	creds, err := session.ExtractCredentials(ctx, authWorkspace)
	if err != nil {
		return err
	}
	fmt.Printf("Found workspace: %s\n", creds.Workspace)

	// Keep an existing channel selection across re-auth.
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = &config.Config{}
	}
	cfg.Workspace = creds.Workspace
	cfg.Token = creds.Token
	cfg.Cookie = creds.Cookie

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("extracted credentials are not usable: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Printf("Credentials saved to %s\n", configPath)
	return nil
}
