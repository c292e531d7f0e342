package domain

import "time"

// EventKind identifies a payment lifecycle event.
type EventKind string

const (
	EventCreated   EventKind = "payment:created"
	EventRetrying  EventKind = "payment:retrying"
	EventSubmitted EventKind = "payment:submitted"
	EventConfirmed EventKind = "payment:confirmed"
	EventFailed    EventKind = "payment:failed"
	EventRefunded  EventKind = "payment:refunded"
)

// Event is an outbound lifecycle notification. The core only emits; it does
// not depend on delivery guarantees from any sink.
type Event struct {
	Kind      EventKind `json:"type"`
	PaymentID string    `json:"paymentId"`
	Timestamp time.Time `json:"timestamp"`

	// Status-specific fields.
	Amount    float64 `json:"amount,omitempty"`
	Recipient string  `json:"recipient,omitempty"`
	Attempts  int     `json:"attempts,omitempty"`
	TxHash    string  `json:"txHash,omitempty"`
	Error     string  `json:"error,omitempty"`
}
