package archive

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jflowers/slackstash/pkg/models"
	"github.com/jflowers/slackstash/pkg/util"
)

// transcriptTimeLayout is an ISO-like local wall-clock rendering of the
// message token. Local time makes transcripts readable but
// timezone-dependent; the archive document keeps the raw token.
const transcriptTimeLayout = "2006-01-02T15:04:05"

// Slack mrkdwn patterns resolved when rendering transcripts.
var (
	userMentionPattern    = regexp.MustCompile(`<@(U[A-Z0-9]+)(?:\|([^>]+))?>`)
	channelMentionPattern = regexp.MustCompile(`<#(C[A-Z0-9]+)(?:\|([^>]+))?>`)
	urlWithTextPattern    = regexp.MustCompile(`<(https?://[^|>]+)\|([^>]+)>`)
	urlOnlyPattern        = regexp.MustCompile(`<(https?://[^>]+)>`)
	specialMentionPattern = regexp.MustCompile(`<!([a-z]+)(?:\|([^>]+))?>`)
)

// RenderTranscript produces the plain-text form of a channel: one line per
// top-level message, one indented line per reply, a blank line between
// top-level entries.
func RenderTranscript(messages []models.Message, users map[string]models.User) string {
	var b strings.Builder

	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: [%s] %s\n",
			m.Time().Format(transcriptTimeLayout),
			displayName(m.UserID, users),
			resolveText(m.Text, users))

		for _, r := range m.Replies {
			fmt.Fprintf(&b, "    [%s] %s\n",
				displayName(r.UserID, users),
				resolveText(r.Text, users))
		}
	}

	return b.String()
}

// TranscriptFilename derives the transcript file name from a channel's
// resolved display name. Spaces and commas become underscores.
func TranscriptFilename(resolvedName string) string {
	name := strings.NewReplacer(" ", "_", ",", "_").Replace(resolvedName)
	return util.SanitizeFilename(name) + ".txt"
}

func displayName(userID string, users map[string]models.User) string {
	if u, ok := users[userID]; ok {
		return u.BestName()
	}
	return userID
}

// resolveText rewrites Slack mrkdwn tokens into readable text: user and
// channel mentions, links, and broadcast mentions.
func resolveText(text string, users map[string]models.User) string {
	result := userMentionPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := userMentionPattern.FindStringSubmatch(match)
		if sub[2] != "" {
			return "@" + sub[2]
		}
		return "@" + displayName(sub[1], users)
	})

	result = channelMentionPattern.ReplaceAllStringFunc(result, func(match string) string {
		sub := channelMentionPattern.FindStringSubmatch(match)
		if sub[2] != "" {
			return "#" + sub[2]
		}
		return "#" + sub[1]
	})

	result = urlWithTextPattern.ReplaceAllString(result, "$2 ($1)")
	result = urlOnlyPattern.ReplaceAllString(result, "$1")
	result = specialMentionPattern.ReplaceAllString(result, "@$1")

	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")

	return result
}
