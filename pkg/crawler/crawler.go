package crawler

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/jflowers/slackstash/pkg/models"
	"github.com/jflowers/slackstash/pkg/slackapi"
)

// threadDepthLimit caps reply expansion. Slack threads are one level deep
// by convention, so replies are never scanned for further reply counts.
// Deepening the walk is a matter of raising this constant.
const threadDepthLimit = 1

const defaultPageLimit = 200

// Crawler walks a channel's message history page by page, expanding thread
// replies and downloading attachments along the way.
type Crawler struct {
	client    *slackapi.Client
	files     *FileStore
	log       *zap.Logger
	pageLimit int
}

// CrawlerOption configures the crawler.
type CrawlerOption func(*Crawler)

// WithPageLimit sets the per-page message limit.
func WithPageLimit(n int) CrawlerOption {
	return func(c *Crawler) {
		c.pageLimit = n
	}
}

// New creates a crawler. files may be nil to skip attachment downloads.
func New(client *slackapi.Client, files *FileStore, log *zap.Logger, opts ...CrawlerOption) *Crawler {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Crawler{
		client:    client,
		files:     files,
		log:       log,
		pageLimit: defaultPageLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl retrieves a channel's complete top-level history, ascending by
// timestamp token with no duplicates. Messages with replies carry them in
// Replies, fetched by the same algorithm rooted at the message's token.
func (c *Crawler) Crawl(ctx context.Context, channelID string) ([]models.Message, error) {
	return c.crawl(ctx, channelID, "", 0)
}

// crawl walks one history: the channel's own when rootTS is empty, a
// thread's when rootTS names its root message. Pages are bounded by a
// watermark equal to the oldest token seen so far (exclusive), giving
// strictly decreasing pagination.
func (c *Crawler) crawl(ctx context.Context, channelID, rootTS string, depth int) ([]models.Message, error) {
	var acc []models.Message
	watermark := ""

	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var resp *slackapi.HistoryResponse
		var err error
		if rootTS == "" {
			resp, err = c.client.History(ctx, channelID, watermark, c.pageLimit)
		} else {
			resp, err = c.client.Replies(ctx, channelID, rootTS, watermark, c.pageLimit)
		}
		if err != nil {
			return nil, err
		}

		c.log.Debug("fetched page",
			zap.String("channel", channelID),
			zap.String("thread", rootTS),
			zap.Int("depth", depth),
			zap.Int("page", page),
			zap.Int("messages", len(resp.Messages)))

		msgs := convertPage(resp.Messages, rootTS)
		if len(msgs) == 0 {
			break
		}

		// A server that hands back the boundary message again would spin
		// this loop forever; the watermark check cuts it off.
		if oldestTS(msgs) == watermark {
			break
		}

		fresh := dropToken(msgs, watermark)
		for i := range fresh {
			if depth == 0 && c.files != nil {
				if err := c.files.EnsureDownloaded(ctx, &fresh[i]); err != nil {
					return nil, err
				}
			}
			if depth < threadDepthLimit && fresh[i].ReplyCount > 0 {
				replies, err := c.crawl(ctx, channelID, fresh[i].TS, depth+1)
				if err != nil {
					return nil, err
				}
				fresh[i].Replies = replies
			}
		}

		acc = append(acc, fresh...)
		sort.SliceStable(acc, func(i, j int) bool {
			return models.CompareTS(acc[i].TS, acc[j].TS) < 0
		})
		watermark = acc[0].TS
	}

	return acc, nil
}

// convertPage maps wire messages into domain messages, dropping the thread
// root itself from reply pages.
func convertPage(msgs []slackapi.Message, rootTS string) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if rootTS != "" && m.Timestamp == rootTS {
			continue
		}
		out = append(out, toMessage(m))
	}
	return out
}

// dropToken removes messages whose token equals the watermark. The latest
// bound is exclusive, so these are boundary duplicates.
func dropToken(msgs []models.Message, token string) []models.Message {
	if token == "" {
		return msgs
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m.TS == token {
			continue
		}
		out = append(out, m)
	}
	return out
}

func oldestTS(msgs []models.Message) string {
	oldest := msgs[0].TS
	for _, m := range msgs[1:] {
		if models.CompareTS(m.TS, oldest) < 0 {
			oldest = m.TS
		}
	}
	return oldest
}

func toMessage(m slackapi.Message) models.Message {
	msg := models.Message{
		TS:         m.Timestamp,
		UserID:     m.User,
		Text:       m.Text,
		ReplyCount: m.ReplyCount,
	}
	for _, f := range m.Files {
		msg.Files = append(msg.Files, models.FileRef{
			ID:         f.ID,
			Filetype:   f.Filetype,
			URLPrivate: f.URLPrivate,
			Name:       f.Name,
			Mimetype:   f.Mimetype,
		})
	}
	return msg
}
