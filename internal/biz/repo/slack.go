package repo

import (
	"context"

	"github.com/replydigest/replydigest/internal/biz/domain"
)

// IdentityRepo resolves platform user identifiers to profiles
type IdentityRepo interface {
	LookupUser(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// NotifierRepo posts a text to the configured report channel
type NotifierRepo interface {
	Post(ctx context.Context, text string) (*domain.PostedMessage, error)
}

// MessengerRepo delivers direct messages to single users
type MessengerRepo interface {
	// SendDirect opens (or reuses) the DM channel with userID and posts text
	SendDirect(ctx context.Context, userID, text string) (*domain.PostedMessage, error)
}
