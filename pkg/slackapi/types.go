// Package slackapi provides a rate-limited Slack API client using browser
// session credentials (xoxc token + xoxd cookie).
package slackapi

// Conversation is the wire shape of a Slack conversation record.
type Conversation struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	IsIM      bool     `json:"is_im"`
	IsMPIM    bool     `json:"is_mpim"`
	IsPrivate bool     `json:"is_private"`
	IsChannel bool     `json:"is_channel"`
	IsGroup   bool     `json:"is_group"`
	User      string   `json:"user"` // For DMs, the other user's ID
	Members   []string `json:"members,omitempty"`
}

// Message is the wire shape of a Slack message.
type Message struct {
	Type       string `json:"type"`
	Subtype    string `json:"subtype,omitempty"`
	User       string `json:"user"`
	Text       string `json:"text"`
	Timestamp  string `json:"ts"`
	ThreadTS   string `json:"thread_ts,omitempty"`
	ReplyCount int    `json:"reply_count,omitempty"`
	Files      []File `json:"files,omitempty"`
}

// File is the wire shape of a shared file.
type File struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Mimetype   string `json:"mimetype"`
	Filetype   string `json:"filetype"`
	URLPrivate string `json:"url_private"`
}

// User is the wire shape of a Slack user record.
type User struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	RealName string  `json:"real_name"`
	IsBot    bool    `json:"is_bot"`
	Deleted  bool    `json:"deleted"`
	Profile  Profile `json:"profile"`
}

// Profile holds user profile information.
type Profile struct {
	RealName    string `json:"real_name"`
	DisplayName string `json:"display_name"`
}

// envelope is the part of every Slack response consulted before decoding
// the endpoint-specific payload.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ConversationsListResponse is the response from conversations.list.
type ConversationsListResponse struct {
	OK               bool           `json:"ok"`
	Error            string         `json:"error,omitempty"`
	Channels         []Conversation `json:"channels"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// ConversationViewResponse is the response from conversations.view, the
// endpoint the Slack web client uses to open a conversation. It carries
// the user records of everyone visible in the conversation.
type ConversationViewResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Users []User `json:"users"`
}

// HistoryResponse is the response from conversations.history and
// conversations.replies.
type HistoryResponse struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}
