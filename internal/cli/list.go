package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jflowers/slackstash/pkg/config"
	"github.com/jflowers/slackstash/pkg/crawler"
	"github.com/jflowers/slackstash/pkg/models"
	"github.com/jflowers/slackstash/pkg/slackapi"
)

var listKind string

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the channels visible to your session",
	Long: `List every conversation the session credentials can see, grouped by
kind. Channels in the current selection are marked; run 'slackstash pick'
to change the selection.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listKind, "kind", "", "Filter by kind: channel, private_channel, im, mpim")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	channels, users, err := discoverChannels(ctx, cfg, log)
	if err != nil {
		return err
	}

	kindOrder := []models.ChannelKind{
		models.ChannelKindChannel,
		models.ChannelKindPrivate,
		models.ChannelKindIM,
		models.ChannelKindMPIM,
	}
	kindNames := map[models.ChannelKind]string{
		models.ChannelKindChannel: "Channels",
		models.ChannelKindPrivate: "Private Channels",
		models.ChannelKindIM:      "Direct Messages",
		models.ChannelKindMPIM:    "Group Messages",
	}

	byKind := make(map[models.ChannelKind][]models.Channel)
	for _, ch := range channels {
		if listKind != "" && string(ch.Kind) != listKind {
			continue
		}
		byKind[ch.Kind] = append(byKind[ch.Kind], ch)
	}

	for _, kind := range kindOrder {
		group := byKind[kind]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return crawler.ResolveName(group[i], users) < crawler.ResolveName(group[j], users)
		})

		fmt.Println(headingStyle.Render(fmt.Sprintf("%s (%d)", kindNames[kind], len(group))))
		for _, ch := range group {
			mark := "  "
			if len(cfg.Channels) > 0 && cfg.Selected(ch.ID) {
				mark = selectedStyle.Render("* ")
			}
			fmt.Printf("%s%-30s %s\n", mark, crawler.ResolveName(ch, users), idStyle.Render(ch.ID))
		}
		fmt.Println()
	}

	if len(cfg.Channels) == 0 {
		fmt.Println("All channels are selected. Run 'slackstash pick' to narrow the selection.")
	}
	return nil
}

// discoverChannels queries the workspace for its channel directory and the
// users needed to render display names.
func discoverChannels(ctx context.Context, cfg *config.Config, log *zap.Logger) (map[string]models.Channel, map[string]models.User, error) {
	client := slackapi.NewClient(cfg.Workspace, cfg.Token, cfg.Cookie,
		slackapi.NewBackoff(0), slackapi.WithLogger(log))
	dir := crawler.NewDirectory(client, log)

	channels, err := dir.ListChannels(ctx)
	if err != nil {
		return nil, nil, err
	}
	users, err := dir.BuildUsers(ctx, channels)
	if err != nil {
		return nil, nil, err
	}
	return channels, users, nil
}
