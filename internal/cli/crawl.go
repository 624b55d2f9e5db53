package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jflowers/slackstash/pkg/archiver"
	"github.com/jflowers/slackstash/pkg/gdrive"
	"github.com/jflowers/slackstash/pkg/util"
)

var (
	crawlResume      bool
	crawlReset       bool
	crawlDriveFolder string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the workspace and write the archive",
	Long: `Crawl message history for every selected channel and write the
archive document, per-channel transcripts, and attachment files to the
output directory.

The crawl is incremental by construction: the archive is reloaded on
start, and each channel's history is walked oldest-first until the
server has nothing older to return. Rate limits are respected with an
ever-growing shared backoff; a run against a large workspace can take
hours, which is expected.

Examples:
  # Crawl all selected channels
  slackstash crawl

  # Skip channels a previous run already finished
  slackstash crawl --resume

  # Start over, discarding checkpoint state
  slackstash crawl --reset

  # Also upload the finished archive to Google Drive
  slackstash crawl --drive-folder "Slack Archive"`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().BoolVar(&crawlResume, "resume", false, "Skip channels completed by a previous run")
	crawlCmd.Flags().BoolVar(&crawlReset, "reset", false, "Discard checkpoint state before crawling")
	crawlCmd.Flags().StringVar(&crawlDriveFolder, "drive-folder", "", "Upload results to this Google Drive folder when done")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
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

	if crawlReset {
		checkpoint, err := util.NewCheckpoint(outputDir)
		if err != nil {
			return err
		}
		if err := checkpoint.Reset(); err != nil {
			return fmt.Errorf("failed to reset checkpoint: %w", err)
		}
		log.Info("checkpoint reset", zap.String("output", outputDir))
	}

	arch, err := archiver.New(cfg, archiver.Options{
		OutputDir: outputDir,
		Resume:    crawlResume,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	summary, err := arch.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nDone: %d channels crawled, %d skipped, %d messages\n",
		summary.Channels, summary.Skipped, summary.Messages)

	if crawlDriveFolder != "" {
		return uploadToDrive(ctx, log)
	}
	return nil
}

// uploadToDrive pushes the whole output directory into a Drive folder.
func uploadToDrive(ctx context.Context, log *zap.Logger) error {
	gcfg := gdrive.DefaultConfig(filepath.Dir(configPath))
	if !gdrive.HasCredentials(gcfg) {
		return fmt.Errorf("no Google credentials at %s; see 'slackstash crawl --help'", gcfg.CredentialsPath)
	}

	client, err := gdrive.NewClientFromConfig(ctx, gcfg)
	if err != nil {
		return fmt.Errorf("failed to authenticate with Google Drive: %w", err)
	}

	folder, err := client.FindOrCreateFolder(ctx, crawlDriveFolder, "")
	if err != nil {
		return err
	}

	count, err := client.UploadDirectory(ctx, outputDir, folder.ID)
	if err != nil {
		return fmt.Errorf("upload failed after %d files: %w", count, err)
	}

	log.Info("uploaded archive to Drive",
		zap.String("folder", folder.Name),
		zap.String("url", folder.URL),
		zap.Int("files", count))
	fmt.Printf("Uploaded %d files to %s\n", count, folder.URL)
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	return ctx, cancel
}
