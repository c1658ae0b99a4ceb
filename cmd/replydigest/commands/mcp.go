package commands

import (
	"github.com/spf13/cobra"

	"github.com/replydigest/replydigest/internal/mcp"
)

func newMCPCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve reply tools to an MCP client over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			usecases, cleanup, err := bootstrap(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return mcp.NewServer(usecases, version, logger).Run(cmd.Context())
		},
	}
}
