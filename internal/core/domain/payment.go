package domain

import "time"

// PaymentStatus is the lifecycle state of a payment record.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusRetrying  PaymentStatus = "RETRYING"
	StatusSubmitted PaymentStatus = "SUBMITTED"
	StatusConfirmed PaymentStatus = "CONFIRMED"
	StatusFailed    PaymentStatus = "FAILED"
	StatusRefunded  PaymentStatus = "REFUNDED"
)

// transitions is the forward-only state machine. Terminal states have no
// entry; a status absent from its own allowed set cannot self-loop.
var transitions = map[PaymentStatus][]PaymentStatus{
	StatusPending:   {StatusRetrying},
	StatusRetrying:  {StatusRetrying, StatusSubmitted, StatusFailed},
	StatusSubmitted: {StatusConfirmed, StatusRefunded},
}

// Terminal reports whether the status has no outgoing transitions.
func (s PaymentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether the state machine permits moving from s to
// next. Self-transitions are only allowed where listed (RETRYING).
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment is the persistent record of one payment moving through the
// lifecycle. JSON tags match the public API wire shape.
type Payment struct {
	PaymentID        string        `json:"paymentId"`
	Status           PaymentStatus `json:"status"`
	Attempts         int           `json:"attempts"`
	TxHash           string        `json:"txHash,omitempty"`
	LastError        ErrorKind     `json:"lastError,omitempty"`
	LastErrorMessage string        `json:"lastErrorMessage,omitempty"`
	Amount           float64       `json:"amount"`
	Recipient        string        `json:"recipient"`
	Metadata         string        `json:"metadata,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
