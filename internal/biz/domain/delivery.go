package domain

// UserProfile holds the identity fields used to resolve a display name
type UserProfile struct {
	UserID                string
	Name                  string // raw handle
	DisplayNameNormalized string
	RealNameNormalized    string
}

// DisplayName picks the best available name, falling back to UnknownUserName
func (p *UserProfile) DisplayName() string {
	if p == nil {
		return UnknownUserName
	}
	for _, name := range []string{p.DisplayNameNormalized, p.RealNameNormalized, p.Name} {
		if name != "" {
			return name
		}
	}
	return UnknownUserName
}

// PostedMessage identifies a message accepted by the chat platform
type PostedMessage struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

// DeliverySuccess records a direct message delivered to one user
type DeliverySuccess struct {
	UserID    string `json:"user_id"`
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

// DeliveryFailure records a direct message that could not be delivered
type DeliveryFailure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// DeliveryResult partitions a direct-message fan-out by outcome
type DeliveryResult struct {
	Successful []DeliverySuccess `json:"successful"`
	Failed     []DeliveryFailure `json:"failed"`
}

// AllFailed reports whether no recipient received the message
func (r *DeliveryResult) AllFailed() bool {
	return len(r.Successful) == 0 && len(r.Failed) > 0
}
