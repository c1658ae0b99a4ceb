package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"
)

// DefaultDigestHours is the trailing window used when none is given
const DefaultDigestHours = 24

// DigestResult is the outcome of one on-demand summary run
type DigestResult struct {
	TimeRangeHours int
	Text           string
	Report         *domain.SummaryReport
	Posted         bool
	PostTimestamp  string
}

// DigestUsecase queries, summarizes, formats and posts a report
type DigestUsecase struct {
	queryUC      *QueryUsecase
	summarizerUC *SummarizerUsecase
	notifier     repo.NotifierRepo
	logger       *slog.Logger
}

// NewDigestUsecase creates a new digest usecase
func NewDigestUsecase(queryUC *QueryUsecase, summarizerUC *SummarizerUsecase, notifier repo.NotifierRepo, logger *slog.Logger) *DigestUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DigestUsecase{
		queryUC:      queryUC,
		summarizerUC: summarizerUC,
		notifier:     notifier,
		logger:       logger.With("component", "digest"),
	}
}

// Run produces the report for the last hours and posts it once
// A failed post fails the run; it is not retried
func (uc *DigestUsecase) Run(ctx context.Context, hours int) (*DigestResult, error) {
	result, err := uc.Preview(ctx, hours)
	if err != nil {
		return nil, err
	}

	posted, err := uc.notifier.Post(ctx, result.Text)
	if err != nil {
		return nil, fmt.Errorf("post report: %w", err)
	}

	result.Posted = true
	result.PostTimestamp = posted.Timestamp
	uc.logger.Info("report posted", "channel", posted.Channel, "ts", posted.Timestamp,
		"users", result.Report.TotalUsers, "messages", result.Report.TotalMessages)
	return result, nil
}

// Preview builds the report without posting it
func (uc *DigestUsecase) Preview(ctx context.Context, hours int) (*DigestResult, error) {
	if hours < 1 {
		return nil, ErrInvalidWindow
	}

	window, err := uc.queryUC.Window(ctx, hours)
	if err != nil {
		return nil, err
	}

	report, err := uc.summarizerUC.Summarize(ctx, window)
	if err != nil {
		return nil, err
	}

	return &DigestResult{
		TimeRangeHours: hours,
		Text:           FormatReport(report, hours),
		Report:         report,
	}, nil
}
