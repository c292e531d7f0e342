package domain

// PaymentRequest is an inbound request to process one payment.
type PaymentRequest struct {
	Amount         float64 `json:"amount"`
	Recipient      string  `json:"recipient"`
	Metadata       string  `json:"metadata,omitempty"`
	IdempotencyKey string  `json:"idempotencyKey,omitempty"`
}

// ErrorInfo is the classified failure attached to an unsuccessful result.
type ErrorInfo struct {
	Type    ErrorKind `json:"type"`
	Message string    `json:"message"`
}

// PaymentResult is the public outcome of a processing call or a status
// query. Success is true only for SUBMITTED responses from the processing
// path and CONFIRMED records from the status path.
type PaymentResult struct {
	Success        bool          `json:"success"`
	PaymentID      string        `json:"paymentId"`
	TxHash         string        `json:"txHash,omitempty"`
	Status         PaymentStatus `json:"status"`
	Attempts       int           `json:"attempts"`
	Error          *ErrorInfo    `json:"error,omitempty"`
	ProcessingTime int64         `json:"processingTimeMs,omitempty"`
}
