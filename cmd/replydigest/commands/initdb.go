package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replydigest/replydigest/internal/data"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Drop and recreate the reply table",
		Long:  `Drop every stored reply and recreate an empty user_replies table. Only the store settings are read.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := loadEnv(cmd)

			replies, err := data.NewReplyRepo(cfg.Store.DBPath)
			if err != nil {
				return err
			}
			defer replies.Close()

			if err := replies.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset reply store: %w", err)
			}
			logger.Info("reply store initialized", "db", cfg.Store.DBPath)
			return nil
		},
	}
}
