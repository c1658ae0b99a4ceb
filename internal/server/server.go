package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/replydigest/replydigest/internal/api"
	"github.com/replydigest/replydigest/internal/service"
)

// Server runs the HTTP API alongside the optional digest scheduler
type Server struct {
	api       *api.Server
	ingestSvc *service.IngestService
	scheduler *service.DigestScheduler
	logger    *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// New creates a new server; scheduler may be nil
func New(apiServer *api.Server, ingestSvc *service.IngestService, scheduler *service.DigestScheduler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		api:       apiServer,
		ingestSvc: ingestSvc,
		scheduler: scheduler,
		logger:    logger.With("component", "server"),
	}
}

// Start starts the scheduler and blocks serving HTTP until Stop
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	return s.api.Start()
}

// Stop drains HTTP requests, then pending ingestions, then the scheduler
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true

	err := s.api.Stop(ctx)
	if s.ingestSvc != nil {
		s.ingestSvc.Wait()
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.logger.Info("server stopped")
	return err
}
