// Package archiver orchestrates a crawl run: directory resolution, per
// channel history crawling, archive flushing, and transcript rendering.
package archiver

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jflowers/slackstash/pkg/archive"
	"github.com/jflowers/slackstash/pkg/config"
	"github.com/jflowers/slackstash/pkg/crawler"
	"github.com/jflowers/slackstash/pkg/models"
	"github.com/jflowers/slackstash/pkg/slackapi"
	"github.com/jflowers/slackstash/pkg/util"
)

// Archiver runs the whole extraction pipeline against one workspace.
type Archiver struct {
	cfg        *config.Config
	dir        *crawler.Directory
	crawl      *crawler.Crawler
	writer     *archive.Writer
	checkpoint *util.Checkpoint
	files      *util.FileWriter
	log        *zap.Logger
	resume     bool
}

// Options configures an Archiver.
type Options struct {
	OutputDir string

	// Resume skips channels a prior run already completed.
	Resume bool

	Logger *zap.Logger

	// ClientOptions are passed through to the API client; tests use them
	// to point the client at a fake server.
	ClientOptions []slackapi.ClientOption
}

// Summary reports what a run accomplished.
type Summary struct {
	Channels int // channels crawled this run
	Skipped  int // channels skipped via resume
	Messages int // top-level messages crawled this run
}

// New wires up the pipeline. One Backoff instance is shared by every
// remote call of the run.
func New(cfg *config.Config, opts Options) (*Archiver, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	clientOpts := append([]slackapi.ClientOption{slackapi.WithLogger(log)}, opts.ClientOptions...)
	client := slackapi.NewClient(cfg.Workspace, cfg.Token, cfg.Cookie, slackapi.NewBackoff(0), clientOpts...)

	writer, err := archive.NewWriter(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	checkpoint, err := util.NewCheckpoint(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	files, err := util.NewFileWriter(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	store := crawler.NewFileStore(client, opts.OutputDir, log)

	return &Archiver{
		cfg:        cfg,
		dir:        crawler.NewDirectory(client, log),
		crawl:      crawler.New(client, store, log),
		writer:     writer,
		checkpoint: checkpoint,
		files:      files,
		log:        log,
		resume:     opts.Resume,
	}, nil
}

// Run executes the crawl. On a fatal error the archive on disk still holds
// every channel completed before the failure.
func (a *Archiver) Run(ctx context.Context) (*Summary, error) {
	channels, err := a.dir.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("channel discovery failed: %w", err)
	}

	selected := a.selectChannels(channels)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no channels selected for crawling")
	}

	users, err := a.dir.BuildUsers(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("user resolution failed: %w", err)
	}

	if err := a.writer.SetDirectory(channels, users); err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, id := range sortedIDs(selected) {
		if a.resume && (a.checkpoint.IsCompleted(id) || a.writer.HasConversation(id)) {
			a.log.Info("skipping completed channel", zap.String("channel", id))
			summary.Skipped++
			continue
		}

		ch := selected[id]
		name := a.channelName(ch, users)
		a.log.Info("crawling channel", zap.String("channel", id), zap.String("name", name))

		messages, err := a.crawl.Crawl(ctx, id)
		if err != nil {
			return summary, fmt.Errorf("crawl of %s failed: %w", id, err)
		}

		if err := a.writer.AppendChannel(id, name, messages); err != nil {
			return summary, err
		}

		transcript := archive.RenderTranscript(messages, users)
		if err := a.files.WriteFile(archive.TranscriptFilename(name), transcript); err != nil {
			return summary, err
		}

		a.checkpoint.MarkCompleted(id, name, len(messages))
		if err := a.checkpoint.Save(); err != nil {
			return summary, err
		}

		a.log.Info("channel checkpointed",
			zap.String("channel", id),
			zap.Int("messages", len(messages)))
		summary.Channels++
		summary.Messages += len(messages)
	}

	return summary, nil
}

// selectChannels narrows discovery to the config's channel selection.
func (a *Archiver) selectChannels(channels map[string]models.Channel) map[string]models.Channel {
	selected := make(map[string]models.Channel)
	for id, ch := range channels {
		if a.cfg.Selected(id) {
			selected[id] = ch
		}
	}
	// IDs configured but not discovered are still crawlable; the history
	// endpoint does not require a listing entry.
	for id := range a.cfg.Channels {
		if _, ok := selected[id]; !ok {
			selected[id] = models.Channel{ID: id, Kind: models.ChannelKindChannel, Name: a.cfg.Channels[id]}
		}
	}
	return selected
}

func (a *Archiver) channelName(ch models.Channel, users map[string]models.User) string {
	if name := crawler.ResolveName(ch, users); name != "" {
		return name
	}
	if label := a.cfg.Channels[ch.ID]; label != "" {
		return label
	}
	return ch.ID
}

func sortedIDs(channels map[string]models.Channel) []string {
	ids := make([]string, 0, len(channels))
	for id := range channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
