package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/replydigest/replydigest/internal/api"
	"github.com/replydigest/replydigest/internal/infra/metrics"
	"github.com/replydigest/replydigest/internal/server"
	"github.com/replydigest/replydigest/internal/service"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and reporting HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.HTTP.Addr = addr
			}

			usecases, cleanup, err := bootstrap(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			m := metrics.New()
			ingestSvc := service.NewIngestService(usecases.Ingest, m, logger)
			apiServer := api.NewServer(usecases, ingestSvc, cfg.Slack.SigningSecret, m, cfg.HTTP.Addr, logger)

			var scheduler *service.DigestScheduler
			if cfg.Digest.Cron != "" {
				scheduler = service.NewDigestScheduler(usecases.Digest, cfg.Digest.Cron, cfg.Digest.Hours, m, logger)
			}
			srv := server.New(apiServer, ingestSvc, scheduler, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(ctx) }()

			logger.Info("replydigest started",
				"addr", cfg.HTTP.Addr,
				"db", cfg.Store.DBPath,
				"generator", cfg.Generator.Backend,
				"notifier", cfg.Notifier.Backend)

			select {
			case err := <-errCh:
				// server exited before any signal
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

