// Package commands implements the replydigest CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/replydigest/replydigest/internal/biz"
	"github.com/replydigest/replydigest/internal/conf"
	"github.com/replydigest/replydigest/internal/data"
)

// NewRootCmd creates the root command with every subcommand registered
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "replydigest",
		Short: "Collect Slack DM replies and post per-user digests",
		Long: `replydigest stores direct-message replies received through the Slack
Events API and summarizes them per user with a local or hosted model.

Examples:
  replydigest serve
  replydigest send-message -u U123 -u U456 "How is the release going?"
  replydigest summarize --hours 12 --post
  replydigest init-db`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("env-file", "", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(
		newServeCmd(),
		newSendMessageCmd(),
		newSummarizeCmd(),
		newInitDBCmd(),
		newMCPCmd(version),
	)

	return rootCmd
}

// loadConfig reads the dotenv file and environment into a validated config
func loadConfig(cmd *cobra.Command) (*conf.Config, *slog.Logger, error) {
	cfg, logger := loadEnv(cmd)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

// loadEnv reads configuration without validating it
func loadEnv(cmd *cobra.Command) (*conf.Config, *slog.Logger) {
	envFile, _ := cmd.Flags().GetString("env-file")
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	envErr := godotenv.Load(files...)

	cfg := conf.LoadFromEnv()

	// stdout belongs to command output and to the MCP stdio transport
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using environment variables", "error", envErr)
	}
	if cfg.PromptsErr != nil {
		logger.Warn("invalid prompts config, using defaults", "error", cfg.PromptsErr)
	} else if cfg.Prompts.Source != "" {
		logger.Debug("loaded prompts", "path", cfg.Prompts.Source)
	}
	return cfg, logger
}

// bootstrap builds the repositories and usecases for a validated config
func bootstrap(cfg *conf.Config, logger *slog.Logger) (*biz.Usecases, func(), error) {
	summaryCfg, err := cfg.ToSummaryConfig()
	if err != nil {
		return nil, nil, err
	}

	deps, err := data.NewRepositories(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create repositories: %w", err)
	}
	cleanup := func() {
		if err := deps.Replies.Close(); err != nil {
			logger.Warn("failed to close reply store", "error", err)
		}
	}

	return biz.NewUsecases(deps, summaryCfg, logger), cleanup, nil
}
