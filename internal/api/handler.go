package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"github.com/replydigest/replydigest/internal/biz"
	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/usecase"
	"github.com/replydigest/replydigest/internal/infra/metrics"
	"github.com/replydigest/replydigest/internal/service"
)

const maxBodyBytes = 1 << 20

// Server exposes the Slack webhook and the reporting endpoints
type Server struct {
	usecases      *biz.Usecases
	ingestSvc     *service.IngestService
	signingSecret string
	metrics       *metrics.Metrics
	logger        *slog.Logger

	server *http.Server
	addr   string
}

// NewServer creates a new API server
// An empty signingSecret disables webhook signature verification
func NewServer(usecases *biz.Usecases, ingestSvc *service.IngestService, signingSecret string, m *metrics.Metrics, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		usecases:      usecases,
		ingestSvc:     ingestSvc,
		signingSecret: signingSecret,
		metrics:       m,
		logger:        logger.With("component", "api"),
		addr:          addr,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /slack/connect", s.handleConnect)
	mux.HandleFunc("POST /slack/send-message", s.handleSendMessage)
	mux.HandleFunc("GET /slack/summarize", s.handleSummarize)
	mux.HandleFunc("GET /slack/user-replies", s.handleUserReplies)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return withObservability(mux, s.metrics, s.logger)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
// Calling Stop before Start makes Start return immediately
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ============ Webhook ============

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.signingSecret != "" {
		if err := s.verifySignature(r.Header, body); err != nil {
			s.logger.Warn("webhook signature rejected", "request_id", RequestID(r.Context()), "error", err)
			s.writeDetail(w, http.StatusUnauthorized, "invalid request signature")
			return
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Error("slack handler failed", "error", err)
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	decision, err := usecase.Classify(payload)
	if err != nil {
		s.logger.Error("slack handler failed", "error", err)
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.Events.WithLabelValues(decision.Kind.String()).Inc()
	}

	switch decision.Kind {
	case usecase.KindChallenge:
		s.writeJSON(w, http.StatusOK, map[string]any{"challenge": decision.Challenge})
		return
	case usecase.KindStore:
		s.ingestSvc.Dispatch(r.Context(), decision.Reply)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": decision.Status()})
}

func (s *Server) verifySignature(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, s.signingSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

// ============ Direct messages ============

// SendMessageRequest is the body of POST /slack/send-message
type SendMessageRequest struct {
	UserIDs []string `json:"user_ids"`
	Message string   `json:"message"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := s.usecases.Message.SendDirect(r.Context(), req.UserIDs, req.Message)
	if result != nil && s.metrics != nil {
		s.metrics.Deliveries.WithLabelValues("successful").Add(float64(len(result.Successful)))
		s.metrics.Deliveries.WithLabelValues("failed").Add(float64(len(result.Failed)))
	}

	switch {
	case errors.Is(err, usecase.ErrNoRecipients):
		s.writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrAllDeliveriesFailed):
		details, _ := json.Marshal(result.Failed)
		w.Header().Set("X-Details", string(details))
		s.writeDetail(w, http.StatusInternalServerError, "Failed to send message to all users")
	case err != nil:
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, result)
	}
}

// ============ Reports ============

// SummarizeResponse is the body of GET /slack/summarize
type SummarizeResponse struct {
	Status         string            `json:"status"`
	TimeRangeHours int               `json:"time_range_hours"`
	SlackMessage   string            `json:"slack_message"`
	SlackPosted    bool              `json:"slack_posted"`
	SlackTimestamp string            `json:"slack_timestamp"`
	Message        string            `json:"message,omitempty"`
	Summaries      *domain.Summaries `json:"summaries"`
	TotalUsers     int               `json:"total_users"`
	TotalMessages  int               `json:"total_messages"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	hours, err := parseLastHours(r, usecase.DefaultDigestHours)
	if err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := s.usecases.Digest.Run(r.Context(), hours)
	if err != nil {
		s.countReport("error")
		s.logger.Error("error generating summary", "request_id", RequestID(r.Context()), "error", err)
		s.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate summary: %v", err))
		return
	}
	s.countReport("posted")
	s.countSummaries(res.Report)

	s.writeJSON(w, http.StatusOK, SummarizeResponse{
		Status:         res.Report.Status,
		TimeRangeHours: res.TimeRangeHours,
		SlackMessage:   res.Text,
		SlackPosted:    res.Posted,
		SlackTimestamp: res.PostTimestamp,
		Message:        res.Report.Message,
		Summaries:      res.Report.Summaries,
		TotalUsers:     res.Report.TotalUsers,
		TotalMessages:  res.Report.TotalMessages,
	})
}

func (s *Server) handleUserReplies(w http.ResponseWriter, r *http.Request) {
	// absent means every stored reply
	hours, err := parseLastHours(r, 0)
	if err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	window, err := s.usecases.Query.Window(r.Context(), hours)
	if err != nil {
		s.logger.Error("failed to query replies", "request_id", RequestID(r.Context()), "error", err)
		s.writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, window)
}

// parseLastHours reads last_hours; a present value must be an integer >= 1
func parseLastHours(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("last_hours")
	if raw == "" {
		return fallback, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 {
		return 0, fmt.Errorf("last_hours must be an integer >= 1, got %q", raw)
	}
	return hours, nil
}

func (s *Server) countReport(result string) {
	if s.metrics != nil {
		s.metrics.Reports.WithLabelValues("http", result).Inc()
	}
}

func (s *Server) countSummaries(report *domain.SummaryReport) {
	if s.metrics == nil || report.Summaries == nil {
		return
	}
	for pair := report.Summaries.Oldest(); pair != nil; pair = pair.Next() {
		outcome := "succeeded"
		if pair.Value.Failed() {
			outcome = "failed"
		}
		s.metrics.Summaries.WithLabelValues(outcome).Inc()
	}
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
