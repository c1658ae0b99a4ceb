package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/usecase"
	"github.com/replydigest/replydigest/internal/infra/metrics"
)

const ingestTimeout = 30 * time.Second

// Ingester stores one incoming reply
type Ingester interface {
	Ingest(ctx context.Context, in *domain.IncomingReply) usecase.IngestResult
}

// IngestService runs reply ingestion off the webhook request path
// Failures are logged and counted, never returned to the platform
type IngestService struct {
	ingester Ingester
	metrics  *metrics.Metrics
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewIngestService creates a new ingestion service
func NewIngestService(ingester Ingester, m *metrics.Metrics, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		ingester: ingester,
		metrics:  m,
		logger:   logger.With("component", "ingest"),
	}
}

// Dispatch ingests the reply in the background
// The request context only contributes values; its cancellation is ignored
func (s *IngestService) Dispatch(ctx context.Context, in *domain.IncomingReply) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ingestTimeout)
		defer cancel()

		res := s.ingester.Ingest(ctx, in)
		if s.metrics != nil {
			s.metrics.Ingests.WithLabelValues(string(res.Status)).Inc()
		}
		if res.Status == usecase.IngestFailed {
			s.logger.Error("reply ingestion failed", "user_id", in.UserID, "ts", in.TS, "error", res.Err)
		}
	}()
}

// Wait blocks until every dispatched ingestion has finished
func (s *IngestService) Wait() {
	s.wg.Wait()
}
