package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replydigest/replydigest/internal/biz/usecase"
)

func newSendMessageCmd() *cobra.Command {
	var userIDs []string

	cmd := &cobra.Command{
		Use:   "send-message [message]",
		Short: "Send a direct message to one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			usecases, cleanup, err := bootstrap(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := usecases.Message.SendDirect(cmd.Context(), userIDs, strings.Join(args, " "))
			if result != nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(result); encErr != nil {
					return encErr
				}
			}
			if errors.Is(err, usecase.ErrAllDeliveriesFailed) {
				return fmt.Errorf("failed to send message to all users")
			}
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&userIDs, "user", "u", nil, "recipient user ID (repeatable or comma separated)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
