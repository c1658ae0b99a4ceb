package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/replydigest/replydigest/internal/biz"
	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/usecase"
)

// Server exposes stored replies and summaries as MCP tools
type Server struct {
	server   *mcp.Server
	usecases *biz.Usecases
	logger   *slog.Logger
}

// NewServer creates a new MCP server and registers its tools
func NewServer(usecases *biz.Usecases, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "replydigest",
			Version: version,
		}, nil),
		usecases: usecases,
		logger:   logger.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves MCP over an arbitrary transport
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_replies",
		Description: "List stored direct-message replies from the last N hours (0 or omitted for all).",
	}, s.handleListReplies)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize_replies",
		Description: "Summarize each user's replies from the last N hours (default 24). Set post to publish the report to the team channel.",
	}, s.handleSummarize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "send_direct_message",
		Description: "Send the same direct message to each listed user and report per-user delivery.",
	}, s.handleSendDirect)
}

// ListRepliesInput is the input for list_replies
type ListRepliesInput struct {
	LastHours int `json:"last_hours,omitempty" jsonschema:"Trailing window in hours"`
}

func (s *Server) handleListReplies(ctx context.Context, req *mcp.CallToolRequest, in ListRepliesInput) (*mcp.CallToolResult, domain.RepliesWindow, error) {
	window, err := s.usecases.Query.Window(ctx, in.LastHours)
	if err != nil {
		return nil, domain.RepliesWindow{}, err
	}
	return nil, *window, nil
}

// SummarizeInput is the input for summarize_replies
type SummarizeInput struct {
	LastHours int  `json:"last_hours,omitempty" jsonschema:"Trailing window in hours, at least 1"`
	Post      bool `json:"post,omitempty" jsonschema:"Publish the rendered report to the team channel"`
}

// SummarizeOutput is the output for summarize_replies
type SummarizeOutput struct {
	TimeRangeHours int                  `json:"time_range_hours"`
	Text           string               `json:"text"`
	Posted         bool                 `json:"posted"`
	PostTimestamp  string               `json:"post_timestamp,omitempty"`
	Summaries      []domain.UserSummary `json:"summaries"`
	TotalUsers     int                  `json:"total_users"`
	TotalMessages  int                  `json:"total_messages"`
}

func (s *Server) handleSummarize(ctx context.Context, req *mcp.CallToolRequest, in SummarizeInput) (*mcp.CallToolResult, SummarizeOutput, error) {
	hours := in.LastHours
	if hours == 0 {
		hours = usecase.DefaultDigestHours
	}

	run := s.usecases.Digest.Preview
	if in.Post {
		run = s.usecases.Digest.Run
	}
	res, err := run(ctx, hours)
	if err != nil {
		return nil, SummarizeOutput{}, fmt.Errorf("failed to generate summary: %w", err)
	}

	// ordered list keeps the report order across JSON decoders
	summaries := make([]domain.UserSummary, 0, res.Report.TotalUsers)
	for pair := res.Report.Summaries.Oldest(); pair != nil; pair = pair.Next() {
		summaries = append(summaries, pair.Value)
	}

	return nil, SummarizeOutput{
		TimeRangeHours: res.TimeRangeHours,
		Text:           res.Text,
		Posted:         res.Posted,
		PostTimestamp:  res.PostTimestamp,
		Summaries:      summaries,
		TotalUsers:     res.Report.TotalUsers,
		TotalMessages:  res.Report.TotalMessages,
	}, nil
}

// SendDirectInput is the input for send_direct_message
type SendDirectInput struct {
	UserIDs []string `json:"user_ids" jsonschema:"Slack user IDs to message"`
	Message string   `json:"message" jsonschema:"Message text"`
}

func (s *Server) handleSendDirect(ctx context.Context, req *mcp.CallToolRequest, in SendDirectInput) (*mcp.CallToolResult, domain.DeliveryResult, error) {
	result, err := s.usecases.Message.SendDirect(ctx, in.UserIDs, in.Message)
	if err != nil {
		return nil, domain.DeliveryResult{}, err
	}
	return nil, *result, nil
}
