package repo

import (
	"context"
	"time"

	"github.com/replydigest/replydigest/internal/biz/domain"
)

// ReplyRepo is the reply store interface
// Replies are immutable once created
type ReplyRepo interface {
	// Create persists a reply in a single write transaction and assigns its ID
	Create(ctx context.Context, reply *domain.Reply) error

	// ListSince returns replies with timestamp >= since, in natural store order
	// A zero since returns every reply
	ListSince(ctx context.Context, since time.Time) ([]*domain.Reply, error)

	// Reset drops and recreates the reply table
	Reset(ctx context.Context) error

	Close() error
}
