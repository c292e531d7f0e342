package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from   PaymentStatus
		to     PaymentStatus
		expect bool
	}{
		{StatusPending, StatusRetrying, true},
		{StatusRetrying, StatusRetrying, true},
		{StatusRetrying, StatusSubmitted, true},
		{StatusRetrying, StatusFailed, true},
		{StatusSubmitted, StatusConfirmed, true},
		{StatusSubmitted, StatusRefunded, true},
		{StatusPending, StatusConfirmed, false},
		{StatusPending, StatusSubmitted, false},
		{StatusSubmitted, StatusFailed, false},
		{StatusConfirmed, StatusRefunded, false},
		{StatusFailed, StatusRetrying, false},
		{StatusRefunded, StatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.expect {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.expect)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []PaymentStatus{StatusConfirmed, StatusFailed, StatusRefunded}
	all := []PaymentStatus{
		StatusPending, StatusRetrying, StatusSubmitted,
		StatusConfirmed, StatusFailed, StatusRefunded,
	}

	for _, from := range terminals {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range all {
			if from.CanTransition(to) {
				t.Errorf("terminal state %s must not transition to %s", from, to)
			}
		}
	}
}
