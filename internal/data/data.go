package data

import (
	"fmt"
	"time"

	"github.com/replydigest/replydigest/internal/biz"
	"github.com/replydigest/replydigest/internal/conf"
)

// notifyTimeout bounds every chat platform call: lookups, posts and direct messages
const notifyTimeout = 30 * time.Second

// NewRepositories creates all repositories from configuration
// The caller owns the returned reply store and must close it
func NewRepositories(cfg *conf.Config) (biz.Deps, error) {
	replies, err := NewReplyRepo(cfg.Store.DBPath)
	if err != nil {
		return biz.Deps{}, err
	}

	slackRepo := NewSlackRepo(SlackConfig{
		BotToken:  cfg.Slack.BotToken,
		ChannelID: cfg.Slack.ChannelID,
		APIURL:    cfg.Slack.APIURL,
	})

	deps := biz.Deps{
		Replies:   replies,
		Identity:  slackRepo,
		Notifier:  slackRepo,
		Messenger: slackRepo,
	}

	switch cfg.Generator.Backend {
	case conf.GeneratorOpenAI:
		deps.Generator = NewOpenAIRepo(OpenAIConfig{
			APIKey:  cfg.Generator.OpenAIAPIKey,
			BaseURL: cfg.Generator.OpenAIBaseURL,
			Model:   cfg.Generator.OpenAIModel,
		})
	case conf.GeneratorOllama, "":
		deps.Generator = NewOllamaRepo(OllamaConfig{
			BaseURL: cfg.Generator.OllamaURL,
			Model:   cfg.Generator.OllamaModel,
		})
	default:
		replies.Close()
		return biz.Deps{}, fmt.Errorf("unknown generator backend %q", cfg.Generator.Backend)
	}

	if cfg.Notifier.Backend == conf.NotifierFeishu {
		deps.Notifier = NewFeishuRepo(FeishuConfig{
			AppID:     cfg.Feishu.AppID,
			AppSecret: cfg.Feishu.AppSecret,
			ChatID:    cfg.Feishu.ChatID,
		})
	}

	return deps, nil
}
