package domain

import "time"

// UnknownUserName is stored when no display name can be resolved
const UnknownUserName = "Unknown"

// Reply represents one stored direct-message reply
type Reply struct {
	ID        int64
	UserName  string
	UserID    string
	Message   string
	Timestamp time.Time // UTC
}

// IsAfter checks if the reply was sent at or after the specified time
func (r *Reply) IsAfter(t time.Time) bool {
	return !r.Timestamp.Before(t)
}

// View projects the reply into its wire form
func (r *Reply) View() ReplyView {
	return ReplyView{
		ID:        r.ID,
		UserName:  r.UserName,
		UserID:    r.UserID,
		Message:   r.Message,
		Timestamp: FormatTimestamp(r.Timestamp),
	}
}

// ReplyView is the query projection of a Reply
type ReplyView struct {
	ID        int64  `json:"id"`
	UserName  string `json:"user_name"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Time parses the view timestamp back into an instant
func (v ReplyView) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v.Timestamp)
}

// RepliesWindow is the result of a trailing-window query
type RepliesWindow struct {
	Count   int         `json:"count"`
	Replies []ReplyView `json:"replies"`
}

// NewRepliesWindow builds a window from stored replies, keeping their order
func NewRepliesWindow(replies []*Reply) *RepliesWindow {
	views := make([]ReplyView, 0, len(replies))
	for _, r := range replies {
		views = append(views, r.View())
	}
	return &RepliesWindow{Count: len(views), Replies: views}
}

const (
	timestampLayout       = "2006-01-02T15:04:05Z"
	timestampLayoutMicros = "2006-01-02T15:04:05.000000Z"
)

// FormatTimestamp renders an instant as ISO-8601 with an explicit UTC marker
// Fractions are always six digits; whole seconds carry none
func FormatTimestamp(t time.Time) string {
	t = t.UTC().Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format(timestampLayout)
	}
	return t.Format(timestampLayoutMicros)
}

// IncomingReply is a storable reply extracted from a webhook event
type IncomingReply struct {
	UserID    string
	Text      string
	TS        string // platform timestamp token, epoch seconds as a decimal string
	ChannelID string
}
