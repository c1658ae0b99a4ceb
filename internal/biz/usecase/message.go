package usecase

import (
	"context"
	"log/slog"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"
)

// MessageUsecase sends direct messages to a set of users
type MessageUsecase struct {
	messenger repo.MessengerRepo
	logger    *slog.Logger
}

// NewMessageUsecase creates a new direct message usecase
func NewMessageUsecase(messenger repo.MessengerRepo, logger *slog.Logger) *MessageUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageUsecase{
		messenger: messenger,
		logger:    logger.With("component", "messenger"),
	}
}

// SendDirect delivers text to every user and partitions the outcomes
// The result is returned alongside ErrAllDeliveriesFailed when nobody got it
func (uc *MessageUsecase) SendDirect(ctx context.Context, userIDs []string, text string) (*domain.DeliveryResult, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoRecipients
	}

	result := &domain.DeliveryResult{
		Successful: []domain.DeliverySuccess{},
		Failed:     []domain.DeliveryFailure{},
	}
	for _, userID := range userIDs {
		posted, err := uc.messenger.SendDirect(ctx, userID, text)
		if err != nil {
			uc.logger.Error("failed to send direct message", "user_id", userID, "error", err)
			result.Failed = append(result.Failed, domain.DeliveryFailure{UserID: userID, Error: err.Error()})
			continue
		}
		result.Successful = append(result.Successful, domain.DeliverySuccess{
			UserID:    userID,
			Channel:   posted.Channel,
			Timestamp: posted.Timestamp,
		})
	}

	uc.logger.Info("message delivery completed", "successful", len(result.Successful), "failed", len(result.Failed))

	if result.AllFailed() {
		return result, ErrAllDeliveriesFailed
	}
	return result, nil
}
