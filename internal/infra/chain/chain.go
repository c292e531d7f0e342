package chain

import "context"

// Status is the authoritative on-chain view of a payment.
type Status struct {
	Exists   bool `json:"exists"`
	Claimed  bool `json:"claimed"`
	Refunded bool `json:"refunded"`
}

// SubmitRequest carries one escrow submission to the settlement network.
type SubmitRequest struct {
	PaymentID   string `json:"paymentId"`
	Recipient   string `json:"recipient"`
	AmountMicro int64  `json:"amountMicro"` // micro settlement units
	Metadata    string `json:"metadata,omitempty"`
	SenderKey   string `json:"-"` // never serialized into request logs
}

// Settler is the settlement backend boundary. Submit may fail with any
// transport or business error; those errors feed the retry classifier.
type Settler interface {
	// Submit sends the payment and returns its transaction reference.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// Status queries the authoritative payment status. A payment still
	// propagating reports Exists=false.
	Status(ctx context.Context, paymentID string) (Status, error)
}
