package usecase

import (
	"fmt"
	"strings"

	"github.com/replydigest/replydigest/internal/biz/domain"
)

const (
	payloadTypeURLVerification = "url_verification"
	payloadTypeEventCallback   = "event_callback"
	eventTypeMessage           = "message"
	channelTypeIM              = "im"
)

// DecisionKind is the outcome of classifying a webhook payload
type DecisionKind int

const (
	// KindIgnored: unknown payload, bot echo or edited/deleted message
	KindIgnored DecisionKind = iota
	// KindChallenge: url_verification handshake, echo the challenge
	KindChallenge
	// KindAcknowledged: a callback that is accepted but stores nothing
	KindAcknowledged
	// KindStore: a genuine human DM reply
	KindStore
)

func (k DecisionKind) String() string {
	switch k {
	case KindChallenge:
		return "challenge"
	case KindAcknowledged:
		return "acknowledged"
	case KindStore:
		return "store"
	default:
		return "ignored"
	}
}

// Decision is the classifier verdict for one payload
type Decision struct {
	Kind      DecisionKind
	Challenge any                   // set for KindChallenge, echoed as received
	Reply     *domain.IncomingReply // set for KindStore
}

// Status returns the acknowledgement status for non-challenge decisions
func (d Decision) Status() string {
	if d.Kind == KindIgnored {
		return "ignored"
	}
	return "ok"
}

// Classify inspects a decoded webhook payload
// It performs no I/O; storage is the caller's job for KindStore
func Classify(payload map[string]any) (Decision, error) {
	switch stringField(payload, "type") {
	case payloadTypeURLVerification:
		return Decision{Kind: KindChallenge, Challenge: payload["challenge"]}, nil
	case payloadTypeEventCallback:
		event, _ := payload["event"].(map[string]any)
		return classifyEvent(event)
	default:
		return Decision{Kind: KindIgnored}, nil
	}
}

func classifyEvent(event map[string]any) (Decision, error) {
	if stringField(event, "type") != eventTypeMessage {
		return Decision{Kind: KindAcknowledged}, nil
	}

	// Edits, deletions and bot echoes carry one of these markers
	if present(event, "bot_id") || present(event, "subtype") {
		return Decision{Kind: KindIgnored}, nil
	}

	if stringField(event, "channel_type") != channelTypeIM {
		return Decision{Kind: KindAcknowledged}, nil
	}

	text := strings.TrimSpace(stringField(event, "text"))
	if text == "" {
		return Decision{Kind: KindAcknowledged}, nil
	}

	userID := stringField(event, "user")
	if userID == "" {
		return Decision{}, fmt.Errorf("%w: message event without user", ErrMalformedPayload)
	}

	return Decision{
		Kind: KindStore,
		Reply: &domain.IncomingReply{
			UserID:    userID,
			Text:      text,
			TS:        stringField(event, "ts"),
			ChannelID: stringField(event, "channel"),
		},
	}, nil
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// present reports whether key holds a truthy value
func present(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}
