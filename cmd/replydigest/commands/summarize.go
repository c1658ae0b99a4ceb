package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replydigest/replydigest/internal/biz/usecase"
)

func newSummarizeCmd() *cobra.Command {
	var (
		hours  int
		post   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize recent replies per user",
		Long: `Summarize the replies of the last N hours per user and print the report.
With --post the report is also published to the configured channel.`,
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

			run := usecases.Digest.Preview
			if post {
				run = usecases.Digest.Run
			}
			res, err := run(cmd.Context(), hours)
			if err != nil {
				return fmt.Errorf("failed to generate summary: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Report)
			}
			fmt.Println(res.Text)
			if res.Posted {
				fmt.Fprintf(os.Stderr, "posted report (ts=%s)\n", res.PostTimestamp)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", usecase.DefaultDigestHours, "trailing window in hours")
	cmd.Flags().BoolVar(&post, "post", false, "publish the report to the configured channel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON instead of text")
	return cmd
}
