package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"
)

// FeishuConfig contains Feishu notifier configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
	ChatID    string // report chat
	BaseURL   string // optional open platform override
}

// feishuRepo posts reports to a Feishu group chat
type feishuRepo struct {
	client *lark.Client
	chatID string
}

// NewFeishuRepo creates a Feishu notifier
func NewFeishuRepo(cfg FeishuConfig) repo.NotifierRepo {
	opts := []lark.ClientOptionFunc{
		lark.WithHttpClient(&http.Client{Timeout: notifyTimeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}
	return &feishuRepo{
		client: lark.NewClient(cfg.AppID, cfg.AppSecret, opts...),
		chatID: cfg.ChatID,
	}
}

// Post sends text to the report chat
func (r *feishuRepo) Post(ctx context.Context, text string) (*domain.PostedMessage, error) {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(r.chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := r.client.Im.Message.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("send message error: %s", resp.Msg)
	}

	posted := &domain.PostedMessage{Channel: r.chatID}
	if resp.Data != nil {
		posted.Timestamp = larkcore.StringValue(resp.Data.MessageId)
	}
	return posted, nil
}
