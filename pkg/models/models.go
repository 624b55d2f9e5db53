// Package models defines the domain types for the Slack workspace archive.
package models

import "time"

// ChannelKind represents the kind of Slack conversation.
type ChannelKind string

const (
	ChannelKindChannel ChannelKind = "channel"
	ChannelKindPrivate ChannelKind = "private_channel"
	ChannelKindIM      ChannelKind = "im"
	ChannelKindMPIM    ChannelKind = "mpim"
)

// Channel represents a named channel, DM, or group message.
// Immutable once fetched; lives for a single crawl run.
type Channel struct {
	ID      string      `json:"id"`
	Kind    ChannelKind `json:"kind"`
	Name    string      `json:"name,omitempty"`
	User    string      `json:"user,omitempty"`    // DM counterpart user ID
	Members []string    `json:"members,omitempty"` // group message member IDs
}

// User represents a Slack workspace member.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RealName    string `json:"real_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsBot       bool   `json:"is_bot,omitempty"`
	Deleted     bool   `json:"deleted,omitempty"`
}

// BestName returns the best available display name for a user.
func (u *User) BestName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.RealName != "" {
		return u.RealName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// Message represents a single Slack message. Replies carries one level of
// thread expansion; replies of replies are never populated.
type Message struct {
	TS         string    `json:"ts"`
	UserID     string    `json:"user"`
	Text       string    `json:"text"`
	ReplyCount int       `json:"reply_count,omitempty"`
	Replies    []Message `json:"replies,omitempty"`
	Files      []FileRef `json:"files,omitempty"`
}

// Time converts the message timestamp token to wall-clock time.
// Tokens are Unix epoch seconds with microseconds after the decimal point.
// The result is in the local timezone, which makes the rendered form
// timezone-dependent; the token itself stays authoritative.
func (m *Message) Time() time.Time {
	sec, usec, ok := splitTS(m.TS)
	if !ok {
		return time.Time{}
	}
	return time.Unix(sec, usec*1000)
}

func splitTS(ts string) (sec, usec int64, ok bool) {
	if ts == "" {
		return 0, 0, false
	}
	dot := false
	for _, c := range ts {
		switch {
		case c == '.':
			if dot {
				return 0, 0, false
			}
			dot = true
		case c >= '0' && c <= '9':
			if dot {
				usec = usec*10 + int64(c-'0')
			} else {
				sec = sec*10 + int64(c-'0')
			}
		default:
			return 0, 0, false
		}
	}
	return sec, usec, true
}

// CompareTS orders two timestamp tokens. Tokens are decimal strings like
// "1700000000.123456"; comparing the integer part by length before value
// keeps the ordering correct across epoch-digit boundaries.
func CompareTS(a, b string) int {
	ai, af := cutTS(a)
	bi, bf := cutTS(b)
	if len(ai) != len(bi) {
		if len(ai) < len(bi) {
			return -1
		}
		return 1
	}
	if ai != bi {
		if ai < bi {
			return -1
		}
		return 1
	}
	if af != bf {
		if af < bf {
			return -1
		}
		return 1
	}
	return 0
}

func cutTS(ts string) (intPart, fracPart string) {
	for i := 0; i < len(ts); i++ {
		if ts[i] == '.' {
			return ts[:i], ts[i+1:]
		}
	}
	return ts, ""
}

// FileRef references an uploaded file attached to a message. Files are
// deduplicated on disk by ID; multiple messages may reference the same one.
type FileRef struct {
	ID         string `json:"id"`
	Filetype   string `json:"filetype"`
	URLPrivate string `json:"url_private"`
	Name       string `json:"name,omitempty"`
	Mimetype   string `json:"mimetype,omitempty"`
}
