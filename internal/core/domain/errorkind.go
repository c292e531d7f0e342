package domain

// ErrorKind categorizes a submission failure for retry decisions. The
// string values are stable: they appear in stored records and API
// responses.
type ErrorKind string

const (
	// Transient kinds, worth another attempt.
	ErrRPCTimeout    ErrorKind = "RPC_TIMEOUT"
	ErrNetwork       ErrorKind = "NETWORK_ERROR"
	ErrMempoolFull   ErrorKind = "MEMPOOL_FULL"
	ErrNonceConflict ErrorKind = "NONCE_CONFLICT"
	ErrTxTimeout     ErrorKind = "TX_TIMEOUT"

	// Permanent kinds, failing fast.
	ErrInsufficientBalance ErrorKind = "INSUFFICIENT_BALANCE"
	ErrInvalidAddress      ErrorKind = "INVALID_ADDRESS"
	ErrContract            ErrorKind = "CONTRACT_ERROR"
	ErrInvalidRequest      ErrorKind = "INVALID_REQUEST"

	// ErrUnknown is diagnostics-only; the submission path never acts on it.
	ErrUnknown ErrorKind = "UNKNOWN"
)
