package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// SimulatorConfig tunes the failure-injecting demo backend.
type SimulatorConfig struct {
	// FailureRate is the probability [0,1] that a submission fails.
	FailureRate float64

	// ClaimAfter is the number of status polls before a submitted payment
	// reports claimed.
	ClaimAfter int

	// Latency is the upper bound of the uniform artificial submit delay.
	Latency time.Duration

	// Seed makes the failure sequence reproducible when non-zero.
	Seed uint64
}

// chaosErrors is the mix of backend failures the simulator injects,
// weighted toward transient kinds the way a congested chain behaves.
var chaosErrors = []string{
	"rpc timeout while broadcasting transaction",
	"network connection reset",
	"mempool full, transaction rejected",
	"too many pending transactions",
	"nonce too low",
	"insufficient funds for transfer",
}

type simPayment struct {
	txRef    string
	polls    int
	refunded bool
}

// Simulator implements Settler in-process for demo mode and tests. It
// injects failures at the configured rate and claims submitted payments
// after a few status polls, so the verifier loop has real work to do.
type Simulator struct {
	mu       sync.Mutex
	cfg      SimulatorConfig
	rng      *rand.Rand
	payments map[string]*simPayment
}

// NewSimulator creates a simulated settlement backend.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.ClaimAfter <= 0 {
		cfg.ClaimAfter = 2
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulator{
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(seed, seed)),
		payments: make(map[string]*simPayment),
	}
}

func (s *Simulator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.AmountMicro <= 0 {
		return "", errors.New("invalid payment request: amount must be positive")
	}

	if s.cfg.Latency > 0 {
		delay := time.Duration(s.rng.Int64N(int64(s.cfg.Latency)))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < s.cfg.FailureRate {
		return "", errors.New(chaosErrors[s.rng.IntN(len(chaosErrors))])
	}

	txRef := fmt.Sprintf("0x%016x%016x", s.rng.Uint64(), s.rng.Uint64())
	s.payments[req.PaymentID] = &simPayment{txRef: txRef}
	return txRef, nil
}

func (s *Simulator) Status(ctx context.Context, paymentID string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return Status{}, nil
	}
	if p.refunded {
		return Status{Exists: true, Refunded: true}, nil
	}

	p.polls++
	if p.polls >= s.cfg.ClaimAfter {
		return Status{Exists: true, Claimed: true}, nil
	}
	return Status{Exists: true}, nil
}

// ForceRefund marks a submitted payment as refunded on-chain. Demo control
// surface.
func (s *Simulator) ForceRefund(paymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return false
	}
	p.refunded = true
	return true
}

// SetFailureRate adjusts chaos injection at runtime.
func (s *Simulator) SetFailureRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FailureRate = rate
}
