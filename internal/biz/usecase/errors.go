package usecase

import "errors"

var (
	// ErrMalformedPayload is returned when a webhook payload lacks required fields
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrInvalidWindow is returned for a negative trailing window
	ErrInvalidWindow = errors.New("last_hours must be a positive integer")

	// ErrSummarizationFailed wraps failures outside the per-user isolation boundary
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrNoRecipients is returned when a direct message has no targets
	ErrNoRecipients = errors.New("user_ids cannot be empty")

	// ErrAllDeliveriesFailed is returned when every direct message failed
	ErrAllDeliveriesFailed = errors.New("failed to send message to all users")
)
