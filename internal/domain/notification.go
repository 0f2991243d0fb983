package domain

import "time"

// DeliveryOutcome is the result of one notification attempt
type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeSkipped   DeliveryOutcome = "skipped"
	OutcomeFailed    DeliveryOutcome = "failed"
)

// ChannelResult is the outcome of a single email send
type ChannelResult struct {
	Outcome DeliveryOutcome `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
}

// NotifyResult holds the independent outcomes of the admin notification and
// the auto-reply sent for one submission.
type NotifyResult struct {
	Admin ChannelResult `json:"admin"`
	User  ChannelResult `json:"user"`
}

// SubmissionCreatedEvent is published after a submission is stored
type SubmissionCreatedEvent struct {
	Reference string    `json:"reference"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Interests string    `json:"interests"`
	CreatedAt time.Time `json:"created_at"`
}
