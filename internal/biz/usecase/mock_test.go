package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/replydigest/replydigest/internal/biz/domain"
)

// Mock implementations

type mockReplyRepo struct {
	mu      sync.Mutex
	replies []*domain.Reply
	nextID  int64
	err     error
}

func (m *mockReplyRepo) Create(ctx context.Context, reply *domain.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	reply.ID = m.nextID
	m.replies = append(m.replies, reply)
	return nil
}

func (m *mockReplyRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []*domain.Reply
	for _, r := range m.replies {
		if since.IsZero() || r.IsAfter(since) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReplyRepo) Reset(ctx context.Context) error {
	m.replies = nil
	return nil
}

func (m *mockReplyRepo) Close() error {
	return nil
}

type mockIdentityRepo struct {
	profiles map[string]*domain.UserProfile
	err      error
}

func (m *mockIdentityRepo) LookupUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, errors.New("user_not_found")
	}
	return p, nil
}

// mockGenerator answers by matching a substring of the prompt
type mockGenerator struct {
	mu       sync.Mutex
	prompts  []string
	failWhen string
	reply    string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, sampling domain.SamplingConfig) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.failWhen != "" && strings.Contains(prompt, "Messages from "+m.failWhen+":\n") {
		return "", errors.New("ollama returned status 500")
	}
	if m.reply != "" {
		return m.reply, nil
	}
	return "  summary  \n", nil
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type mockNotifier struct {
	posts []string
	err   error
}

func (m *mockNotifier) Post(ctx context.Context, text string) (*domain.PostedMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.posts = append(m.posts, text)
	return &domain.PostedMessage{Channel: "C123", Timestamp: "1700000000.000100"}, nil
}

type mockMessenger struct {
	failing map[string]bool
	sent    []string
}

func (m *mockMessenger) SendDirect(ctx context.Context, userID, text string) (*domain.PostedMessage, error) {
	if m.failing[userID] {
		return nil, errors.New("user_not_found")
	}
	m.sent = append(m.sent, userID)
	return &domain.PostedMessage{Channel: "D" + userID, Timestamp: "1700000000.000200"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
