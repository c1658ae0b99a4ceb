package data

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/replydigest/replydigest/internal/biz/domain"
)

// SlackConfig contains Slack client configuration
type SlackConfig struct {
	BotToken  string
	ChannelID string // report channel
	APIURL    string // optional override, must end with "/"
}

// SlackRepo implements identity lookup, channel posting and direct messages
type SlackRepo struct {
	api       *slack.Client
	channelID string
}

// NewSlackRepo creates a Slack repository with an explicit HTTP client
func NewSlackRepo(cfg SlackConfig) *SlackRepo {
	opts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: notifyTimeout}),
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &SlackRepo{
		api:       slack.New(cfg.BotToken, opts...),
		channelID: cfg.ChannelID,
	}
}

// LookupUser fetches the profile of userID
func (r *SlackRepo) LookupUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	user, err := r.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("users.info %s: %w", userID, err)
	}
	return &domain.UserProfile{
		UserID:                user.ID,
		Name:                  user.Name,
		DisplayNameNormalized: user.Profile.DisplayNameNormalized,
		RealNameNormalized:    user.Profile.RealNameNormalized,
	}, nil
}

// Post sends text to the report channel
func (r *SlackRepo) Post(ctx context.Context, text string) (*domain.PostedMessage, error) {
	if r.channelID == "" {
		return nil, fmt.Errorf("report channel is not configured")
	}
	return r.post(ctx, r.channelID, text)
}

// SendDirect opens the DM channel with userID and posts text there
func (r *SlackRepo) SendDirect(ctx context.Context, userID, text string) (*domain.PostedMessage, error) {
	ch, _, _, err := r.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return nil, fmt.Errorf("conversations.open %s: %w", userID, err)
	}
	return r.post(ctx, ch.ID, text)
}

func (r *SlackRepo) post(ctx context.Context, channelID, text string) (*domain.PostedMessage, error) {
	channel, ts, err := r.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return nil, fmt.Errorf("chat.postMessage %s: %w", channelID, err)
	}
	return &domain.PostedMessage{Channel: channel, Timestamp: ts}, nil
}
