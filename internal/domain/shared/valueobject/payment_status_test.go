package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusIsValid(t *testing.T) {
	valid := []PaymentStatus{
		PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}
	assert.False(t, PaymentStatus("SETTLED").IsValid())
	assert.False(t, PaymentStatus("").IsValid())
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusPending, PaymentStatusProcessing, true},
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},

		{PaymentStatusProcessing, PaymentStatusCompleted, true},
		{PaymentStatusProcessing, PaymentStatusFailed, true},
		{PaymentStatusProcessing, PaymentStatusCancelled, true},
		{PaymentStatusProcessing, PaymentStatusPending, false},

		{PaymentStatusCompleted, PaymentStatusRefunded, true},
		{PaymentStatusCompleted, PaymentStatusPartiallyRefunded, true},
		{PaymentStatusCompleted, PaymentStatusFailed, false},
		{PaymentStatusCompleted, PaymentStatusPending, false},

		{PaymentStatusPartiallyRefunded, PaymentStatusRefunded, true},
		{PaymentStatusPartiallyRefunded, PaymentStatusPartiallyRefunded, true},
		{PaymentStatusPartiallyRefunded, PaymentStatusCompleted, false},

		{PaymentStatusFailed, PaymentStatusPending, false},
		{PaymentStatusCancelled, PaymentStatusCompleted, false},
		{PaymentStatusRefunded, PaymentStatusPartiallyRefunded, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	assert.True(t, PaymentStatusFailed.IsTerminal())
	assert.True(t, PaymentStatusCancelled.IsTerminal())
	assert.True(t, PaymentStatusRefunded.IsTerminal())

	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.False(t, PaymentStatusProcessing.IsTerminal())
	assert.False(t, PaymentStatusCompleted.IsTerminal())
	assert.False(t, PaymentStatusPartiallyRefunded.IsTerminal())
}
