package repo

import (
	"context"

	"github.com/replydigest/replydigest/internal/biz/domain"
)

// GeneratorRepo is the text-generation backend interface
// Implementations make one non-streaming call and never retry
type GeneratorRepo interface {
	Generate(ctx context.Context, prompt string, sampling domain.SamplingConfig) (string, error)
}
