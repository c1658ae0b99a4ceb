package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"
)

// DefaultSystemPrompt is the fixed instruction prepended to every user prompt
const DefaultSystemPrompt = `You are a project manager assistant. Your task is to analyze user messages and create a concise, professional summary for each user.

For each user, provide a brief summary covering:
1. What they worked on yesterday (if mentioned)
2. What they're working on today (if mentioned)
3. Any blockers or dependencies (if mentioned)
4. Any other relevant updates

Keep the summary concise (2-4 sentences max per user). Be factual and professional. If information is not mentioned, don't make assumptions.`

// SummaryConfig contains summarization configuration
type SummaryConfig struct {
	SystemPrompt string
	Sampling     domain.SamplingConfig
	Concurrency  int            // parallel backend calls, 1 = sequential
	Location     *time.Location // zone used for transcript timestamps
}

// DefaultSummaryConfig returns default summarization configuration
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		SystemPrompt: DefaultSystemPrompt,
		Sampling:     domain.DefaultSampling,
		Concurrency:  1,
		Location:     time.UTC,
	}
}

// SummarizerUsecase turns a replies window into per-user summaries
type SummarizerUsecase struct {
	generator repo.GeneratorRepo
	config    SummaryConfig
	logger    *slog.Logger
}

// NewSummarizerUsecase creates a new summarizer usecase
func NewSummarizerUsecase(generator repo.GeneratorRepo, config SummaryConfig, logger *slog.Logger) *SummarizerUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	if config.Sampling == (domain.SamplingConfig{}) {
		config.Sampling = domain.DefaultSampling
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &SummarizerUsecase{
		generator: generator,
		config:    config,
		logger:    logger.With("component", "summarizer"),
	}
}

type timedMessage struct {
	at   time.Time
	text string
}

// userBucket holds one user's messages in retrieval order
type userBucket struct {
	name     string
	messages []timedMessage
}

// userOutcome is the per-user result: a summary or an error
type userOutcome struct {
	summary string
	err     error
}

// Summarize builds the report; a failing user never aborts the others
func (uc *SummarizerUsecase) Summarize(ctx context.Context, window *domain.RepliesWindow) (*domain.SummaryReport, error) {
	if window == nil || len(window.Replies) == 0 {
		return &domain.SummaryReport{
			Status:    domain.StatusSuccess,
			Message:   domain.NoRepliesMessage,
			Summaries: domain.NewSummaries(),
		}, nil
	}

	buckets, err := groupByUser(window.Replies)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	uc.logger.Info("generating summaries", "users", len(buckets), "messages", window.Count)

	outcomes := make([]userOutcome, len(buckets))
	var g errgroup.Group
	g.SetLimit(uc.config.Concurrency)
	for i, b := range buckets {
		g.Go(func() error {
			outcomes[i] = uc.summarizeUser(ctx, b)
			return nil
		})
	}
	_ = g.Wait()

	summaries := domain.NewSummaries()
	for i, b := range buckets {
		s := domain.UserSummary{
			UserName:     b.name,
			Summary:      outcomes[i].summary,
			MessageCount: len(b.messages),
		}
		if outcomes[i].err != nil {
			s.Summary = domain.SummaryErrorText
			s.Error = outcomes[i].err.Error()
		}
		summaries.Set(b.name, s)
	}

	return &domain.SummaryReport{
		Status:        domain.StatusSuccess,
		Summaries:     summaries,
		TotalUsers:    len(buckets),
		TotalMessages: window.Count,
	}, nil
}

func (uc *SummarizerUsecase) summarizeUser(ctx context.Context, b *userBucket) userOutcome {
	uc.logger.Debug("summarizing user", "user_name", b.name, "messages", len(b.messages))

	prompt := uc.buildPrompt(b.name, b.messages)
	text, err := uc.generator.Generate(ctx, prompt, uc.config.Sampling)
	if err != nil {
		uc.logger.Error("summary generation failed", "user_name", b.name, "error", err)
		return userOutcome{err: fmt.Errorf("failed to generate summary: %w", err)}
	}
	return userOutcome{summary: strings.TrimSpace(text)}
}

// buildPrompt renders the system instruction and a chronological transcript
func (uc *SummarizerUsecase) buildPrompt(userName string, messages []timedMessage) string {
	sorted := make([]timedMessage, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].at.Before(sorted[j].at)
	})

	var sb strings.Builder
	sb.WriteString(uc.config.SystemPrompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Messages from %s:\n", userName)
	for _, m := range sorted {
		fmt.Fprintf(&sb, "- [%s] %s\n", m.at.In(uc.config.Location).Format("2006-01-02 15:04"), m.text)
	}
	fmt.Fprintf(&sb, "\n\nProvide a concise summary for %s:", userName)
	return sb.String()
}

// groupByUser buckets replies by display name in first-seen order
func groupByUser(replies []domain.ReplyView) ([]*userBucket, error) {
	var buckets []*userBucket
	index := make(map[string]*userBucket)
	for _, r := range replies {
		at, err := r.Time()
		if err != nil {
			return nil, fmt.Errorf("reply %d: invalid timestamp %q: %w", r.ID, r.Timestamp, err)
		}
		b, ok := index[r.UserName]
		if !ok {
			b = &userBucket{name: r.UserName}
			index[r.UserName] = b
			buckets = append(buckets, b)
		}
		b.messages = append(b.messages, timedMessage{at: at, text: r.Message})
	}
	return buckets, nil
}
