package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jflowers/slackstash/pkg/crawler"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactively choose which channels to archive",
	Long: `Pick channels from the workspace directory and save the selection to
the config file. Later crawls only touch the selected channels.

Clearing the selection (picking nothing) restores the default of
archiving every channel.`,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
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

	fmt.Println("Fetching channel directory...")
	channels, users, err := discoverChannels(ctx, cfg, log)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return fmt.Errorf("no channels visible to this session")
	}

	names := make(map[string]string, len(channels))
	options := make([]huh.Option[string], 0, len(channels))
	preselected := make([]string, 0, len(cfg.Channels))
	for id, ch := range channels {
		name := crawler.ResolveName(ch, users)
		names[id] = name
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", name, id), id))
		if len(cfg.Channels) > 0 && cfg.Selected(id) {
			preselected = append(preselected, id)
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Key < options[j].Key })

	selected := preselected
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Channels to archive").
			Description("Space toggles, enter confirms. An empty selection means all channels.").
			Options(options...).
			Value(&selected),
	))
	if err := form.Run(); err != nil {
		return err
	}

	if len(selected) == 0 {
		cfg.Channels = nil
		fmt.Println("Selection cleared; every channel will be archived.")
	} else {
		cfg.Channels = make(map[string]string, len(selected))
		for _, id := range selected {
			cfg.Channels[id] = names[id]
		}
		fmt.Printf("Selected %d channels.\n", len(selected))
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Printf("Selection saved to %s\n", configPath)
	return nil
}
