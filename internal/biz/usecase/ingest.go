package usecase

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"
)

// IngestStatus describes what happened to an incoming reply
type IngestStatus string

const (
	IngestStored             IngestStatus = "stored"
	IngestStoredFallbackName IngestStatus = "stored_with_fallback_name"
	IngestFailed             IngestStatus = "failed"
)

// IngestResult is the best-effort outcome of an ingestion
type IngestResult struct {
	Status IngestStatus
	Reply  *domain.Reply
	Err    error
}

// IngestUsecase is the only write path into the reply store
type IngestUsecase struct {
	replyRepo    repo.ReplyRepo
	identityRepo repo.IdentityRepo
	logger       *slog.Logger
	now          func() time.Time
}

// NewIngestUsecase creates a new ingestion usecase
func NewIngestUsecase(replyRepo repo.ReplyRepo, identityRepo repo.IdentityRepo, logger *slog.Logger) *IngestUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUsecase{
		replyRepo:    replyRepo,
		identityRepo: identityRepo,
		logger:       logger.With("component", "ingest"),
		now:          time.Now,
	}
}

// Ingest resolves the sender, normalizes the timestamp and stores the reply
// Failures are logged and reported in the result, never returned as errors
func (uc *IngestUsecase) Ingest(ctx context.Context, in *domain.IncomingReply) IngestResult {
	userName, resolved := uc.resolveName(ctx, in.UserID)

	reply := &domain.Reply{
		UserName:  userName,
		UserID:    in.UserID,
		Message:   in.Text,
		Timestamp: ParseSlackTS(in.TS, uc.now),
	}

	if err := uc.replyRepo.Create(ctx, reply); err != nil {
		uc.logger.Error("failed to store reply", "user_id", in.UserID, "channel", in.ChannelID, "error", err)
		return IngestResult{Status: IngestFailed, Err: err}
	}

	uc.logger.Info("stored reply", "id", reply.ID, "user_id", in.UserID, "user_name", userName)

	status := IngestStored
	if !resolved {
		status = IngestStoredFallbackName
	}
	return IngestResult{Status: status, Reply: reply}
}

// resolveName returns the display name and whether it came from the profile
func (uc *IngestUsecase) resolveName(ctx context.Context, userID string) (string, bool) {
	if uc.identityRepo == nil {
		return domain.UnknownUserName, false
	}

	profile, err := uc.identityRepo.LookupUser(ctx, userID)
	if err != nil {
		uc.logger.Warn("user lookup failed", "user_id", userID, "error", err)
		return domain.UnknownUserName, false
	}

	name := profile.DisplayName()
	return name, name != domain.UnknownUserName
}

// Representable epoch seconds: 0001-01-01T00:00:00Z to 9999-12-31T23:59:59Z
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

// ParseSlackTS converts an epoch-seconds token like "1700000000.123456" to UTC
// Unparseable or out-of-range tokens fall back to now
func ParseSlackTS(ts string, now func() time.Time) time.Time {
	secs, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil || math.IsNaN(secs) || secs < minEpochSeconds || secs > maxEpochSeconds {
		return now().UTC()
	}
	return time.UnixMicro(int64(math.Round(secs * 1e6))).UTC()
}
