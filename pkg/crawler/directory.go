// Package crawler walks a workspace's channels, message history, threads,
// and file attachments.
package crawler

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jflowers/slackstash/pkg/models"
	"github.com/jflowers/slackstash/pkg/slackapi"
)

// allChannelTypes enumerates every conversation kind the directory scan
// asks for.
var allChannelTypes = []string{"public_channel", "private_channel", "mpim", "im"}

// Directory discovers the channels and users visible to the session.
type Directory struct {
	client *slackapi.Client
	log    *zap.Logger
}

// NewDirectory creates a directory resolver.
func NewDirectory(client *slackapi.Client, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{client: client, log: log}
}

// ListChannels enumerates every conversation of every kind, following the
// cursor until the listing is exhausted.
func (d *Directory) ListChannels(ctx context.Context) (map[string]models.Channel, error) {
	channels := make(map[string]models.Channel)

	cursor := ""
	for {
		resp, err := d.client.ListConversations(ctx, allChannelTypes, cursor)
		if err != nil {
			return nil, err
		}

		for _, conv := range resp.Channels {
			ch := toChannel(conv)
			channels[ch.ID] = ch
		}

		if resp.ResponseMetadata.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetadata.NextCursor
	}

	d.log.Info("discovered channels", zap.Int("count", len(channels)))
	return channels, nil
}

// BuildUsers unions the user records returned by each channel's view.
// Later occurrences of an ID overwrite earlier ones; user records are
// near-static within a run, so last-write-wins is harmless.
func (d *Directory) BuildUsers(ctx context.Context, channels map[string]models.Channel) (map[string]models.User, error) {
	users := make(map[string]models.User)

	for id := range channels {
		resp, err := d.client.ConversationView(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, u := range resp.Users {
			users[u.ID] = toUser(u)
		}
		d.log.Debug("viewed channel", zap.String("channel", id), zap.Int("users", len(users)))
	}

	d.log.Info("resolved users", zap.Int("count", len(users)))
	return users, nil
}

// ResolveName derives a channel's display name. DMs resolve to the
// counterpart's name, group messages to the comma-joined member names in
// member-list order, and named channels to their own name. Pure: same
// inputs always give the same string.
func ResolveName(ch models.Channel, users map[string]models.User) string {
	if ch.User != "" {
		return userName(ch.User, users)
	}
	if len(ch.Members) > 0 {
		names := make([]string, len(ch.Members))
		for i, id := range ch.Members {
			names[i] = userName(id, users)
		}
		return strings.Join(names, ", ")
	}
	return ch.Name
}

// userName looks up a display name, degrading to the raw ID for unknowns.
func userName(id string, users map[string]models.User) string {
	if u, ok := users[id]; ok {
		return u.BestName()
	}
	return id
}

func toChannel(conv slackapi.Conversation) models.Channel {
	kind := models.ChannelKindChannel
	switch {
	case conv.IsIM:
		kind = models.ChannelKindIM
	case conv.IsMPIM:
		kind = models.ChannelKindMPIM
	case conv.IsPrivate:
		kind = models.ChannelKindPrivate
	}
	return models.Channel{
		ID:      conv.ID,
		Kind:    kind,
		Name:    conv.Name,
		User:    conv.User,
		Members: conv.Members,
	}
}

func toUser(u slackapi.User) models.User {
	return models.User{
		ID:          u.ID,
		Name:        u.Name,
		RealName:    firstNonEmpty(u.Profile.RealName, u.RealName),
		DisplayName: u.Profile.DisplayName,
		IsBot:       u.IsBot,
		Deleted:     u.Deleted,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
