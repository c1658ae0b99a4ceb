package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/replydigest/replydigest/internal/biz"
	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/usecase"
	"github.com/replydigest/replydigest/internal/infra/metrics"
	"github.com/replydigest/replydigest/internal/service"
)

// MockReplyRepo implements repo.ReplyRepo for testing
type MockReplyRepo struct {
	mu      sync.Mutex
	replies []*domain.Reply
	err     error
}

func (m *MockReplyRepo) Create(ctx context.Context, reply *domain.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	reply.ID = int64(len(m.replies) + 1)
	m.replies = append(m.replies, reply)
	return nil
}

func (m *MockReplyRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Reply
	for _, r := range m.replies {
		if since.IsZero() || r.IsAfter(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReplyRepo) Reset(ctx context.Context) error { return nil }
func (m *MockReplyRepo) Close() error                    { return nil }

func (m *MockReplyRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replies)
}

// MockSlack implements the identity, notifier and messenger repos
type MockSlack struct {
	postErr error
	failing map[string]bool
	posts   []string
}

func (m *MockSlack) LookupUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return &domain.UserProfile{UserID: userID, DisplayNameNormalized: "Name-" + userID}, nil
}

func (m *MockSlack) Post(ctx context.Context, text string) (*domain.PostedMessage, error) {
	if m.postErr != nil {
		return nil, m.postErr
	}
	m.posts = append(m.posts, text)
	return &domain.PostedMessage{Channel: "C123", Timestamp: "1700000000.000100"}, nil
}

func (m *MockSlack) SendDirect(ctx context.Context, userID, text string) (*domain.PostedMessage, error) {
	if m.failing[userID] {
		return nil, errors.New("user_not_found")
	}
	return &domain.PostedMessage{Channel: "D" + userID, Timestamp: "1700000000.000200"}, nil
}

// MockGenerator implements repo.GeneratorRepo for testing
type MockGenerator struct {
	failFor string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, sampling domain.SamplingConfig) (string, error) {
	if m.failFor != "" && strings.Contains(prompt, "Messages from "+m.failFor+":") {
		return "", errors.New("connection refused")
	}
	return "summary text", nil
}

type testEnv struct {
	server  *Server
	handler http.Handler
	replies *MockReplyRepo
	slack   *MockSlack
	gen     *MockGenerator
	ingest  *service.IngestService
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		replies: &MockReplyRepo{},
		slack:   &MockSlack{failing: map[string]bool{}},
		gen:     &MockGenerator{},
	}
	ucs := biz.NewUsecases(biz.Deps{
		Replies:   env.replies,
		Identity:  env.slack,
		Generator: env.gen,
		Notifier:  env.slack,
		Messenger: env.slack,
	}, usecase.DefaultSummaryConfig(), logger)

	m := metrics.New()
	env.ingest = service.NewIngestService(ucs.Ingest, m, logger)
	env.server = NewServer(ucs, env.ingest, secret, m, ":0", logger)
	env.handler = env.server.Handler()
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return out
}

const imEvent = `{"type":"event_callback","event":{"type":"message","channel_type":"im","user":"U1","text":"  shipped the fix  ","ts":"1700000000.000100","channel":"D1"}}`

func TestConnect_Challenge(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(`{"type":"url_verification","challenge":"abc123"}`))

	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if decode(t, w)["challenge"] != "abc123" {
		t.Errorf("Expected challenge echo, got %s", w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("Expected request id header")
	}
}

func TestConnect_ChallengeEchoedVerbatim(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		body string
		want any
	}{
		{`{"type":"url_verification","challenge":42}`, float64(42)},
		{`{"type":"url_verification","challenge":null}`, nil},
		{`{"type":"url_verification"}`, nil},
	}
	for _, tt := range tests {
		w := env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(tt.body)))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", tt.body, w.Code)
		}
		got, ok := decode(t, w)["challenge"]
		if !ok || got != tt.want {
			t.Errorf("%s: expected challenge %#v, got %s", tt.body, tt.want, w.Body.String())
		}
	}
}

func TestConnect_StoresReply(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(imEvent)))
	if w.Code != http.StatusOK || decode(t, w)["status"] != "ok" {
		t.Fatalf("Expected ok, got %d %s", w.Code, w.Body.String())
	}

	env.ingest.Wait()
	if env.replies.count() != 1 {
		t.Fatalf("Expected 1 stored reply, got %d", env.replies.count())
	}
	got := env.replies.replies[0]
	if got.Message != "shipped the fix" || got.UserName != "Name-U1" {
		t.Errorf("Unexpected stored reply: %+v", got)
	}
}

func TestConnect_IgnoredAndAcknowledged(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status string
	}{
		{"bot echo", `{"type":"event_callback","event":{"type":"message","channel_type":"im","bot_id":"B1","user":"U1","text":"hi","ts":"1.0"}}`, "ignored"},
		{"edited", `{"type":"event_callback","event":{"type":"message","subtype":"message_changed","channel_type":"im"}}`, "ignored"},
		{"channel message", `{"type":"event_callback","event":{"type":"message","channel_type":"channel","user":"U1","text":"hi","ts":"1.0"}}`, "ok"},
		{"blank text", `{"type":"event_callback","event":{"type":"message","channel_type":"im","user":"U1","text":"   ","ts":"1.0"}}`, "ok"},
		{"unknown payload", `{"type":"app_rate_limited"}`, "ignored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			w := env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(tt.body)))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got := decode(t, w)["status"]; got != tt.status {
				t.Errorf("Expected status %s, got %v", tt.status, got)
			}
			env.ingest.Wait()
			if env.replies.count() != 0 {
				t.Errorf("Expected nothing stored, got %d", env.replies.count())
			}
		})
	}
}

func TestConnect_MalformedPayload(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(`{not json`)))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if decode(t, w)["detail"] == "" {
		t.Error("Expected parse error detail")
	}

	missingUser := `{"type":"event_callback","event":{"type":"message","channel_type":"im","text":"hi","ts":"1.0"}}`
	w = env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(missingUser)))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 for missing user, got %d", w.Code)
	}
}

func TestConnect_StorageFailureNotSurfaced(t *testing.T) {
	env := newTestEnv(t, "")
	env.replies.err = errors.New("disk I/O error")

	w := env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(imEvent)))
	env.ingest.Wait()
	if w.Code != http.StatusOK {
		t.Errorf("Expected webhook to succeed despite storage failure, got %d", w.Code)
	}
}

func signedRequest(secret, body string, ts time.Time) *http.Request {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + stamp + ":" + body))

	req := httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", stamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestConnect_SignatureVerification(t *testing.T) {
	env := newTestEnv(t, "shhh")
	body := `{"type":"url_verification","challenge":"abc"}`

	if w := env.do(signedRequest("shhh", body, time.Now())); w.Code != http.StatusOK {
		t.Errorf("Expected valid signature to pass, got %d", w.Code)
	}
	if w := env.do(signedRequest("wrong", body, time.Now())); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected bad signature to be rejected, got %d", w.Code)
	}
	if w := env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(body))); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected unsigned request to be rejected, got %d", w.Code)
	}
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t, "")
	env.slack.failing["U2"] = true

	body, _ := json.Marshal(SendMessageRequest{UserIDs: []string{"U1", "U2"}, Message: "standup"})
	w := env.do(httptest.NewRequest(http.MethodPost, "/slack/send-message", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result domain.DeliveryResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(result.Successful) != 1 || result.Successful[0].Channel != "DU1" || result.Successful[0].Timestamp == "" {
		t.Errorf("Unexpected successes: %+v", result.Successful)
	}
	if len(result.Failed) != 1 || result.Failed[0].UserID != "U2" {
		t.Errorf("Unexpected failures: %+v", result.Failed)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(httptest.NewRequest(http.MethodPost, "/slack/send-message", strings.NewReader(`{"user_ids":[],"message":"x"}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty recipients, got %d", w.Code)
	}
	if decode(t, w)["detail"] != "user_ids cannot be empty" {
		t.Errorf("Unexpected detail: %s", w.Body.String())
	}

	env.slack.failing = map[string]bool{"U1": true, "U2": true}
	w = env.do(httptest.NewRequest(http.MethodPost, "/slack/send-message", strings.NewReader(`{"user_ids":["U1","U2"],"message":"x"}`)))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 when all fail, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("X-Details"), "user_not_found") {
		t.Errorf("Expected X-Details header with failures, got %q", w.Header().Get("X-Details"))
	}

	w = env.do(httptest.NewRequest(http.MethodPost, "/slack/send-message", strings.NewReader(`[`)))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for bad body, got %d", w.Code)
	}
}

func seedReplies(env *testEnv) {
	now := time.Now().UTC()
	_ = env.replies.Create(context.Background(), &domain.Reply{UserName: "Carol", UserID: "U3", Message: "reviewing", Timestamp: now.Add(-2 * time.Hour)})
	_ = env.replies.Create(context.Background(), &domain.Reply{UserName: "Alice", UserID: "U1", Message: "blocked", Timestamp: now.Add(-time.Hour)})
	_ = env.replies.Create(context.Background(), &domain.Reply{UserName: "Dave", UserID: "U4", Message: "old", Timestamp: now.Add(-48 * time.Hour)})
}

func TestSummarize(t *testing.T) {
	env := newTestEnv(t, "")
	seedReplies(env)
	env.gen.failFor = "Alice"

	w := env.do(httptest.NewRequest(http.MethodGet, "/slack/summarize", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	out := decode(t, w)
	if out["status"] != "success" || out["time_range_hours"] != float64(24) || out["slack_posted"] != true {
		t.Errorf("Unexpected envelope: %v", out)
	}
	if out["slack_timestamp"] != "1700000000.000100" {
		t.Errorf("Expected post ts, got %v", out["slack_timestamp"])
	}
	if out["total_users"] != float64(2) || out["total_messages"] != float64(2) {
		t.Errorf("Unexpected totals: %v / %v", out["total_users"], out["total_messages"])
	}

	body := w.Body.String()
	if strings.Index(body, `"Carol"`) > strings.Index(body, `"Alice"`) {
		t.Errorf("Expected first-seen order in summaries: %s", body)
	}
	summaries := out["summaries"].(map[string]any)
	alice := summaries["Alice"].(map[string]any)
	if alice["summary"] != domain.SummaryErrorText || alice["error"] == nil {
		t.Errorf("Expected isolated failure for Alice, got %v", alice)
	}
	if len(env.slack.posts) != 1 || env.slack.posts[0] != out["slack_message"] {
		t.Error("Expected the returned message to be the posted one")
	}
}

func TestSummarize_Errors(t *testing.T) {
	env := newTestEnv(t, "")

	for _, q := range []string{"0", "-1", "abc"} {
		w := env.do(httptest.NewRequest(http.MethodGet, "/slack/summarize?last_hours="+q, nil))
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected status 422 for last_hours=%s, got %d", q, w.Code)
		}
	}

	env.slack.postErr = errors.New("not_in_channel")
	w := env.do(httptest.NewRequest(http.MethodGet, "/slack/summarize?last_hours=6", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if detail, _ := decode(t, w)["detail"].(string); !strings.HasPrefix(detail, "Failed to generate summary: ") {
		t.Errorf("Unexpected detail: %q", detail)
	}
}

func TestUserReplies(t *testing.T) {
	env := newTestEnv(t, "")
	seedReplies(env)

	w := env.do(httptest.NewRequest(http.MethodGet, "/slack/user-replies?last_hours=24", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var window domain.RepliesWindow
	if err := json.Unmarshal(w.Body.Bytes(), &window); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if window.Count != 2 || len(window.Replies) != 2 {
		t.Errorf("Expected 2 recent replies, got %d", window.Count)
	}
	if window.Replies[0].UserName != "Carol" || !strings.HasSuffix(window.Replies[0].Timestamp, "Z") {
		t.Errorf("Unexpected first reply: %+v", window.Replies[0])
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/slack/user-replies", nil))
	if decode(t, w)["count"] != float64(3) {
		t.Errorf("Expected all replies without last_hours, got %s", w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/slack/user-replies?last_hours=0", nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", w.Code)
	}
}

func TestUserReplies_StoreError(t *testing.T) {
	env := newTestEnv(t, "")
	env.replies.err = errors.New("disk I/O error")

	w := env.do(httptest.NewRequest(http.MethodGet, "/slack/user-replies", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if detail := decode(t, w)["detail"]; detail != "Internal server error" {
		t.Errorf("Expected generic detail, got %v", detail)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("Unexpected health response: %d %s", w.Code, w.Body.String())
	}

	env.do(httptest.NewRequest(http.MethodPost, "/slack/connect", strings.NewReader(`{"type":"url_verification","challenge":"c"}`)))
	w = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `replydigest_webhook_events_total{kind="challenge"} 1`) {
		t.Errorf("Expected event counter, got:\n%s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `route="POST /slack/connect"`) {
		t.Error("Expected per-route request counter")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(httptest.NewRequest(http.MethodGet, "/slack/connect", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}
