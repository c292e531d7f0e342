package retry

import (
	"strings"

	"github.com/x402nexus/relay/internal/core/domain"
)

// Classify maps a raw submission failure onto the error taxonomy. Matching
// is substring-based over the lowercased message and runs in a fixed
// priority order: the first matching category wins. Narrow phrases are
// checked before the broad buckets that would otherwise swallow them
// ("transaction timeout" before "timeout", "nonce" before the network
// fallback).
//
// Unrecognized failures classify as ErrNetwork so they remain retryable
// rather than being abandoned on first sight. Use ClassifyStrict when an
// honest UNKNOWN is wanted for diagnostics.
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return domain.ErrNetwork
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "transaction timeout"):
		return domain.ErrTxTimeout

	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "econnrefused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "enotfound"):
		return domain.ErrRPCTimeout

	case strings.Contains(msg, "network"),
		strings.Contains(msg, "fetch failed"),
		strings.Contains(msg, "unreachable"):
		return domain.ErrNetwork

	case strings.Contains(msg, "mempool full"),
		strings.Contains(msg, "too many pending"):
		return domain.ErrMempoolFull

	case strings.Contains(msg, "nonce"):
		return domain.ErrNonceConflict

	case strings.Contains(msg, "insufficient"),
		strings.Contains(msg, "not enough balance"):
		return domain.ErrInsufficientBalance

	case strings.Contains(msg, "invalid address"),
		strings.Contains(msg, "invalid recipient"),
		strings.Contains(msg, "malformed address"):
		return domain.ErrInvalidAddress

	case strings.Contains(msg, "contract error"),
		strings.Contains(msg, "runtime error"):
		return domain.ErrContract

	default:
		return domain.ErrNetwork
	}
}

// ClassifyStrict is Classify without the retry-unknown-by-default posture:
// unrecognized failures return ErrUnknown. Diagnostics only; the submission
// path always uses Classify.
func ClassifyStrict(err error) domain.ErrorKind {
	if err == nil {
		return domain.ErrUnknown
	}
	kind := Classify(err)
	if kind == domain.ErrNetwork {
		msg := strings.ToLower(err.Error())
		if !strings.Contains(msg, "network") &&
			!strings.Contains(msg, "fetch failed") &&
			!strings.Contains(msg, "unreachable") {
			return domain.ErrUnknown
		}
	}
	return kind
}

// IsRetryable reports whether the kind is worth another attempt. Only the
// permanent kinds fail fast; everything else, including the unrecognized
// default, retries.
func IsRetryable(kind domain.ErrorKind) bool {
	switch kind {
	case domain.ErrInsufficientBalance,
		domain.ErrInvalidAddress,
		domain.ErrContract,
		domain.ErrInvalidRequest:
		return false
	}
	return true
}

var descriptions = map[domain.ErrorKind]string{
	domain.ErrRPCTimeout:          "RPC endpoint timeout - retrying with backoff",
	domain.ErrNetwork:             "Network connectivity issue - retrying",
	domain.ErrMempoolFull:         "Blockchain mempool congestion - retrying with delay",
	domain.ErrNonceConflict:       "Transaction nonce conflict - retrying",
	domain.ErrTxTimeout:           "Transaction confirmation timeout - retrying",
	domain.ErrInsufficientBalance: "Insufficient balance - payment failed permanently",
	domain.ErrInvalidAddress:      "Invalid recipient address - payment failed permanently",
	domain.ErrContract:            "Smart contract error - payment failed permanently",
	domain.ErrInvalidRequest:      "Invalid payment request - payment failed permanently",
}

// Describe returns the stable human-readable message for a kind.
func Describe(kind domain.ErrorKind) string {
	if msg, ok := descriptions[kind]; ok {
		return msg
	}
	return "Unknown error"
}
