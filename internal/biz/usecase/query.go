package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"
)

// QueryUsecase retrieves stored replies over a trailing window
type QueryUsecase struct {
	replyRepo repo.ReplyRepo
	logger    *slog.Logger
	now       func() time.Time
}

// NewQueryUsecase creates a new query usecase
func NewQueryUsecase(replyRepo repo.ReplyRepo, logger *slog.Logger) *QueryUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryUsecase{
		replyRepo: replyRepo,
		logger:    logger.With("component", "query"),
		now:       time.Now,
	}
}

// Window returns replies from the last lastHours hours; 0 means all replies
func (uc *QueryUsecase) Window(ctx context.Context, lastHours int) (*domain.RepliesWindow, error) {
	if lastHours < 0 {
		return nil, ErrInvalidWindow
	}

	var since time.Time
	if lastHours > 0 {
		since = uc.now().UTC().Add(-time.Duration(lastHours) * time.Hour)
		uc.logger.Debug("filtering replies", "last_hours", lastHours, "since", since)
	}

	replies, err := uc.replyRepo.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	return domain.NewRepliesWindow(replies), nil
}
