package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// StatusSuccess is the only status a built report carries
	StatusSuccess = "success"

	// SummaryErrorText replaces the summary of a user whose generation failed
	SummaryErrorText = "Error generating summary"

	// NoRepliesMessage explains an empty report
	NoRepliesMessage = "No replies to summarize"
)

// UserSummary is the generated summary for one user
type UserSummary struct {
	UserName     string `json:"user_name"`
	Summary      string `json:"summary"`
	MessageCount int    `json:"message_count"`
	Error        string `json:"error,omitempty"`
}

// Failed reports whether generation failed for this user
func (s UserSummary) Failed() bool {
	return s.Error != ""
}

// Summaries maps display name to summary, in first-seen order
type Summaries = orderedmap.OrderedMap[string, UserSummary]

// NewSummaries creates an empty ordered summaries mapping
func NewSummaries() *Summaries {
	return orderedmap.New[string, UserSummary]()
}

// SummaryReport is the structured result of summarizing a window
type SummaryReport struct {
	Status        string     `json:"status"`
	Message       string     `json:"message,omitempty"`
	Summaries     *Summaries `json:"summaries"`
	TotalUsers    int        `json:"total_users"`
	TotalMessages int        `json:"total_messages"`
}

// Users returns the display names in report order
func (r *SummaryReport) Users() []string {
	if r.Summaries == nil {
		return nil
	}
	names := make([]string, 0, r.Summaries.Len())
	for pair := r.Summaries.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// SamplingConfig controls the generation backend
type SamplingConfig struct {
	Temperature float32
	MaxTokens   int
}

// DefaultSampling is the fixed low-temperature, bounded-length configuration
var DefaultSampling = SamplingConfig{
	Temperature: 0.3,
	MaxTokens:   300,
}
