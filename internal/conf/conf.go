package conf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/usecase"
)

// Generator backends
const (
	GeneratorOllama = "ollama"
	GeneratorOpenAI = "openai"
)

// Notifier backends
const (
	NotifierSlack  = "slack"
	NotifierFeishu = "feishu"
)

// Config represents application configuration
type Config struct {
	Slack     SlackConfig
	Store     StoreConfig
	HTTP      HTTPConfig
	Generator GeneratorConfig
	Summary   SummaryConfig
	Notifier  NotifierConfig
	Feishu    FeishuConfig
	Digest    DigestConfig

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig
	// PromptsErr is set when the prompts file was unusable and defaults were applied
	PromptsErr error

	LogLevel string
	Debug    bool
}

// SlackConfig contains Slack configuration
type SlackConfig struct {
	BotToken      string
	SigningSecret string // empty disables webhook signature verification
	ChannelID     string
	APIURL        string
}

// StoreConfig contains reply store configuration
type StoreConfig struct {
	DBPath string
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Addr string
}

// GeneratorConfig selects and configures the summary backend
type GeneratorConfig struct {
	Backend       string
	OllamaURL     string
	OllamaModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// SummaryConfig contains summarization settings
type SummaryConfig struct {
	Concurrency int
	Timezone    string
}

// NotifierConfig selects where reports are posted
type NotifierConfig struct {
	Backend string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
	ChatID    string
}

// DigestConfig contains the scheduled digest settings
type DigestConfig struct {
	Cron  string // empty disables the schedule
	Hours int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".replydigest", "replies.db")
	}

	// CHANNEL_ID is the historic name
	channelID := os.Getenv("CHANNEL_ID")
	if channelID == "" {
		channelID = os.Getenv("SLACK_CHANNEL_ID")
	}

	// Load prompts from YAML
	promptsConfig, promptsErr := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))
	if promptsErr != nil {
		promptsConfig = DefaultPromptsConfig()
	}

	return &Config{
		Slack: SlackConfig{
			BotToken:      os.Getenv("SLACK_BOT_TOKEN"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
			ChannelID:     channelID,
			APIURL:        os.Getenv("SLACK_API_URL"),
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		HTTP: HTTPConfig{
			Addr: envOr("HTTP_ADDR", ":8000"),
		},
		Generator: GeneratorConfig{
			Backend:       strings.ToLower(envOr("GENERATOR", GeneratorOllama)),
			OllamaURL:     envOr("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:   envOr("OLLAMA_MODEL", "llama3.2:1b"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
			OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		},
		Summary: SummaryConfig{
			Concurrency: envInt("SUMMARY_CONCURRENCY", 1),
			Timezone:    envOr("SUMMARY_TIMEZONE", "UTC"),
		},
		Notifier: NotifierConfig{
			Backend: strings.ToLower(envOr("NOTIFIER", NotifierSlack)),
		},
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
			ChatID:    os.Getenv("FEISHU_CHAT_ID"),
		},
		Digest: DigestConfig{
			Cron:  os.Getenv("DIGEST_CRON"),
			Hours: envInt("DIGEST_HOURS", usecase.DefaultDigestHours),
		},
		Prompts:    promptsConfig,
		PromptsErr: promptsErr,
		LogLevel:   envOr("LOG_LEVEL", "info"),
		Debug:      os.Getenv("DEBUG") == "true",
	}
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// ToSummaryConfig converts to summarizer configuration
func (c *Config) ToSummaryConfig() (usecase.SummaryConfig, error) {
	cfg := usecase.DefaultSummaryConfig()
	cfg.Concurrency = c.Summary.Concurrency

	loc, err := time.LoadLocation(c.Summary.Timezone)
	if err != nil {
		return cfg, &ConfigError{Field: "SUMMARY_TIMEZONE", Message: err.Error()}
	}
	cfg.Location = loc

	if c.Prompts != nil {
		cfg.SystemPrompt = c.Prompts.Summary.SystemPrompt
		cfg.Sampling = domain.SamplingConfig{
			Temperature: c.Prompts.Summary.Temperature,
			MaxTokens:   c.Prompts.Summary.MaxTokens,
		}
	}
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL (or DEBUG=true) to a slog level
func (c *Config) SlogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate validates the configuration needed to serve
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return &ConfigError{Field: "SLACK_BOT_TOKEN", Message: "required"}
	}

	switch c.Notifier.Backend {
	case NotifierSlack:
		if c.Slack.ChannelID == "" {
			return &ConfigError{Field: "CHANNEL_ID", Message: "required when NOTIFIER=slack"}
		}
	case NotifierFeishu:
		if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" || c.Feishu.ChatID == "" {
			return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET/FEISHU_CHAT_ID", Message: "required when NOTIFIER=feishu"}
		}
	default:
		return &ConfigError{Field: "NOTIFIER", Message: fmt.Sprintf("unknown backend %q", c.Notifier.Backend)}
	}

	switch c.Generator.Backend {
	case GeneratorOllama:
	case GeneratorOpenAI:
		if c.Generator.OpenAIAPIKey == "" && c.Generator.OpenAIBaseURL == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Message: "required when GENERATOR=openai"}
		}
	default:
		return &ConfigError{Field: "GENERATOR", Message: fmt.Sprintf("unknown backend %q", c.Generator.Backend)}
	}

	if c.Summary.Concurrency < 1 {
		return &ConfigError{Field: "SUMMARY_CONCURRENCY", Message: "must be at least 1"}
	}
	if _, err := time.LoadLocation(c.Summary.Timezone); err != nil {
		return &ConfigError{Field: "SUMMARY_TIMEZONE", Message: err.Error()}
	}

	if c.Digest.Hours < 1 {
		return &ConfigError{Field: "DIGEST_HOURS", Message: "must be at least 1"}
	}
	if c.Digest.Cron != "" {
		if _, err := cron.ParseStandard(c.Digest.Cron); err != nil {
			return &ConfigError{Field: "DIGEST_CRON", Message: err.Error()}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
