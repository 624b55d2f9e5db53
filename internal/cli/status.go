package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jflowers/slackstash/pkg/archive"
	"github.com/jflowers/slackstash/pkg/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crawl progress for the output directory",
	Long: `Show which channels the checkpoint records as completed, with message
counts, plus how many conversations the archive document holds.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	checkpoint, err := util.NewCheckpoint(outputDir)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	channels := checkpoint.Channels()
	if len(channels) == 0 {
		fmt.Println("No crawl state found. Run 'slackstash crawl' to start.")
		return nil
	}

	ids := make([]string, 0, len(channels))
	for id := range channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println(headingStyle.Render(fmt.Sprintf("Crawled channels (%d)", len(channels))))
	totalMsgs := 0
	for _, id := range ids {
		cp := channels[id]
		lastUpdated := "never"
		if !cp.LastUpdated.IsZero() {
			lastUpdated = cp.LastUpdated.Format("Jan 2 15:04")
		}
		fmt.Printf("  %-30s %s %6d msgs  %s\n",
			cp.ChannelName, idStyle.Render(fmt.Sprintf("%-12s", id)), cp.MessageCount, lastUpdated)
		totalMsgs += cp.MessageCount
	}

	completed, total := checkpoint.Stats()
	fmt.Printf("\nSummary: %d/%d channels completed, %d messages\n", completed, total, totalMsgs)

	if writer, err := archive.NewWriter(outputDir); err == nil {
		fmt.Printf("Archive: %s (%d conversations)\n", writer.Path(), writer.ConversationCount())
	}
	return nil
}
