package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// braintreeWebhook is the notification shape Braintree posts for
// transaction lifecycle changes
type braintreeWebhook struct {
	Kind        string               `json:"kind"`
	Timestamp   time.Time            `json:"timestamp"`
	Transaction braintreeTransaction `json:"transaction"`
}

// braintreeTransaction is the transaction subject of a notification.
// Amounts are decimal strings, not minor units.
type braintreeTransaction struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Amount           string            `json:"amount"`
	CurrencyISOCode  string            `json:"currency_iso_code"`
	ServiceFeeAmount string            `json:"service_fee_amount,omitempty"`
	CustomFields     map[string]string `json:"custom_fields,omitempty"`
}

// BraintreeNormalizer maps Braintree transaction notifications onto the
// canonical gateway result. A transaction submitted for settlement is
// still PROCESSING; only a settled transaction completes.
type BraintreeNormalizer struct{}

// NewBraintreeNormalizer creates a Braintree normalizer
func NewBraintreeNormalizer() *BraintreeNormalizer {
	return &BraintreeNormalizer{}
}

// Gateway returns the processor this normalizer handles
func (n *BraintreeNormalizer) Gateway() payment.Gateway {
	return payment.GatewayBraintree
}

// Normalize parses a Braintree webhook notification
func (n *BraintreeNormalizer) Normalize(payload []byte) (*payment.GatewayResult, error) {
	var evt braintreeWebhook
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("braintree: failed to parse notification: %w", err)
	}

	if evt.Kind == "check" || evt.Transaction.ID == "" {
		return nil, payment.ErrIgnoredEvent
	}

	var status valueobject.PaymentStatus
	switch evt.Transaction.Status {
	case "authorized", "submitted_for_settlement", "settling":
		status = valueobject.PaymentStatusProcessing
	case "settled":
		status = valueobject.PaymentStatusCompleted
	case "processor_declined", "gateway_rejected", "failed", "settlement_declined":
		status = valueobject.PaymentStatusFailed
	case "voided":
		status = valueobject.PaymentStatusCancelled
	default:
		return nil, payment.ErrIgnoredEvent
	}

	currency := parseCurrency(evt.Transaction.CurrencyISOCode)
	amount, err := valueobject.NewMoneyFromString(evt.Transaction.Amount, currency)
	if err != nil {
		return nil, fmt.Errorf("braintree: invalid amount %q: %w", evt.Transaction.Amount, err)
	}

	// Braintree has no per-delivery event id; replay detection falls
	// back to transaction id plus raw status.
	result := &payment.GatewayResult{
		GatewayTransactionID: evt.Transaction.ID,
		Status:               status,
		Amount:               amount,
		RawStatus:            evt.Transaction.Status,
		Metadata:             make(map[string]string, len(evt.Transaction.CustomFields)),
	}
	for k, v := range evt.Transaction.CustomFields {
		result.Metadata[k] = v
	}

	if evt.Transaction.ServiceFeeAmount != "" {
		fee, err := valueobject.NewMoneyFromString(evt.Transaction.ServiceFeeAmount, currency)
		if err != nil {
			return nil, fmt.Errorf("braintree: invalid fee %q: %w", evt.Transaction.ServiceFeeAmount, err)
		}
		result.Fee = &fee
		result.FeeReported = true
	}

	if status == valueobject.PaymentStatusCompleted && !evt.Timestamp.IsZero() {
		at := evt.Timestamp.UTC()
		result.ProcessedAt = &at
	}

	return result, nil
}

var _ payment.GatewayNormalizer = (*BraintreeNormalizer)(nil)
