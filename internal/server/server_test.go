package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/replydigest/replydigest/internal/api"
	"github.com/replydigest/replydigest/internal/biz/usecase"
	"github.com/replydigest/replydigest/internal/service"
)

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, hours int) (*usecase.DigestResult, error) {
	return &usecase.DigestResult{TimeRangeHours: hours}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_StartStop(t *testing.T) {
	logger := discardLogger()
	apiServer := api.NewServer(nil, nil, "", nil, "127.0.0.1:0", logger)
	scheduler := service.NewDigestScheduler(noopRunner{}, "@daily", 24, nil, logger)
	srv := New(apiServer, nil, scheduler, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestServer_InvalidSchedule(t *testing.T) {
	logger := discardLogger()
	apiServer := api.NewServer(nil, nil, "", nil, "127.0.0.1:0", logger)
	scheduler := service.NewDigestScheduler(noopRunner{}, "every tuesday", 24, nil, logger)

	if err := New(apiServer, nil, scheduler, logger).Start(context.Background()); err == nil {
		t.Error("Expected invalid schedule to fail Start")
	}
}
