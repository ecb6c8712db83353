package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// StripeNormalizer maps Stripe payment_intent webhook events onto the
// canonical gateway result. It only parses; signature verification
// happens before the payload reaches a normalizer.
type StripeNormalizer struct{}

// NewStripeNormalizer creates a Stripe normalizer
func NewStripeNormalizer() *StripeNormalizer {
	return &StripeNormalizer{}
}

// Gateway returns the processor this normalizer handles
func (n *StripeNormalizer) Gateway() payment.Gateway {
	return payment.GatewayStripe
}

// Normalize parses a Stripe event envelope. Event types outside the
// payment_intent lifecycle return ErrIgnoredEvent.
func (n *StripeNormalizer) Normalize(payload []byte) (*payment.GatewayResult, error) {
	var evt stripe.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("stripe: failed to parse event: %w", err)
	}

	var status valueobject.PaymentStatus
	switch evt.Type {
	case "payment_intent.succeeded":
		status = valueobject.PaymentStatusCompleted
	case "payment_intent.processing":
		status = valueobject.PaymentStatusProcessing
	case "payment_intent.payment_failed":
		status = valueobject.PaymentStatusFailed
	case "payment_intent.canceled":
		status = valueobject.PaymentStatusCancelled
	default:
		return nil, payment.ErrIgnoredEvent
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe: failed to parse payment intent: %w", err)
	}
	if pi.ID == "" {
		return nil, fmt.Errorf("stripe: event %s carries no payment intent id", evt.ID)
	}

	currency := parseCurrency(string(pi.Currency))
	amount, err := valueobject.NewMoneyFromMinorUnits(pi.Amount, currency)
	if err != nil {
		return nil, fmt.Errorf("stripe: invalid amount %d: %w", pi.Amount, err)
	}

	result := &payment.GatewayResult{
		GatewayTransactionID: pi.ID,
		Status:               status,
		Amount:               amount,
		RawStatus:            string(pi.Status),
		Metadata:             map[string]string{"event_id": evt.ID},
	}
	for k, v := range pi.Metadata {
		result.Metadata[k] = v
	}

	// Stripe reports its fee in minor units on the intent
	if pi.ApplicationFeeAmount > 0 {
		fee, err := valueobject.NewMoneyFromMinorUnits(pi.ApplicationFeeAmount, currency)
		if err != nil {
			return nil, fmt.Errorf("stripe: invalid fee %d: %w", pi.ApplicationFeeAmount, err)
		}
		result.Fee = &fee
		result.FeeReported = true
	}

	if status == valueobject.PaymentStatusCompleted && evt.Created > 0 {
		at := time.Unix(evt.Created, 0).UTC()
		result.ProcessedAt = &at
	}

	return result, nil
}

// parseCurrency upper-cases a gateway currency code, defaulting when
// the gateway omits it
func parseCurrency(code string) valueobject.Currency {
	if code == "" {
		return valueobject.DefaultCurrency
	}
	return valueobject.Currency(strings.ToUpper(code))
}

var _ payment.GatewayNormalizer = (*StripeNormalizer)(nil)
