package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// paypalWebhookEvent is the envelope PayPal posts to webhook listeners
type paypalWebhookEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	CreateTime   time.Time       `json:"create_time"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// paypalAmount is PayPal's currency/value pair
type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// paypalCapture is the capture resource inside PAYMENT.CAPTURE.* events
type paypalCapture struct {
	ID                        string                     `json:"id"`
	Status                    string                     `json:"status"`
	Amount                    paypalAmount               `json:"amount"`
	CustomID                  string                     `json:"custom_id,omitempty"`
	SellerReceivableBreakdown *paypalReceivableBreakdown `json:"seller_receivable_breakdown,omitempty"`
	UpdateTime                time.Time                  `json:"update_time"`
}

// paypalReceivableBreakdown carries the authoritative fee when PayPal
// includes it
type paypalReceivableBreakdown struct {
	PayPalFee *paypalAmount `json:"paypal_fee,omitempty"`
}

// paypalFeeRate is one row of the published fee schedule
type paypalFeeRate struct {
	Percent decimal.Decimal
	Fixed   decimal.Decimal
}

// paypalFeeSchedule holds PayPal's published per-currency rates, used
// only when a capture arrives without an explicit fee. The reported fee
// always overrides these estimates.
var paypalFeeSchedule = map[valueobject.Currency]paypalFeeRate{
	valueobject.USD: {Percent: decimal.RequireFromString("0.029"), Fixed: decimal.RequireFromString("0.30")},
	valueobject.CAD: {Percent: decimal.RequireFromString("0.037"), Fixed: decimal.RequireFromString("0.30")},
	valueobject.EUR: {Percent: decimal.RequireFromString("0.034"), Fixed: decimal.RequireFromString("0.35")},
	valueobject.GBP: {Percent: decimal.RequireFromString("0.034"), Fixed: decimal.RequireFromString("0.20")},
	valueobject.AUD: {Percent: decimal.RequireFromString("0.036"), Fixed: decimal.RequireFromString("0.30")},
	valueobject.JPY: {Percent: decimal.RequireFromString("0.041"), Fixed: decimal.RequireFromString("40")},
}

// paypalDefaultFeeRate covers currencies outside the schedule
// (international rate)
var paypalDefaultFeeRate = paypalFeeRate{
	Percent: decimal.RequireFromString("0.044"),
	Fixed:   decimal.RequireFromString("0.30"),
}

// PayPalNormalizer maps PAYMENT.CAPTURE.* webhook events onto the
// canonical gateway result. The capture's custom_id carries
// "<tenant_id>:<transaction_id>" set at checkout time.
type PayPalNormalizer struct{}

// NewPayPalNormalizer creates a PayPal normalizer
func NewPayPalNormalizer() *PayPalNormalizer {
	return &PayPalNormalizer{}
}

// Gateway returns the processor this normalizer handles
func (n *PayPalNormalizer) Gateway() payment.Gateway {
	return payment.GatewayPayPal
}

// Normalize parses a PayPal webhook envelope
func (n *PayPalNormalizer) Normalize(payload []byte) (*payment.GatewayResult, error) {
	var evt paypalWebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("paypal: failed to parse event: %w", err)
	}

	var status valueobject.PaymentStatus
	switch evt.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		status = valueobject.PaymentStatusCompleted
	case "PAYMENT.CAPTURE.PENDING":
		status = valueobject.PaymentStatusProcessing
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		status = valueobject.PaymentStatusFailed
	default:
		return nil, payment.ErrIgnoredEvent
	}

	var capture paypalCapture
	if err := json.Unmarshal(evt.Resource, &capture); err != nil {
		return nil, fmt.Errorf("paypal: failed to parse capture: %w", err)
	}
	if capture.ID == "" {
		return nil, fmt.Errorf("paypal: event %s carries no capture id", evt.ID)
	}

	currency := parseCurrency(capture.Amount.CurrencyCode)
	amount, err := valueobject.NewMoneyFromString(capture.Amount.Value, currency)
	if err != nil {
		return nil, fmt.Errorf("paypal: invalid amount %q: %w", capture.Amount.Value, err)
	}

	result := &payment.GatewayResult{
		GatewayTransactionID: capture.ID,
		Status:               status,
		Amount:               amount,
		RawStatus:            capture.Status,
		Metadata:             map[string]string{"event_id": evt.ID},
	}
	if tenantID, txID, ok := splitCustomID(capture.CustomID); ok {
		result.Metadata["tenant_id"] = tenantID
		result.Metadata["transaction_id"] = txID
	}

	if fee := capture.SellerReceivableBreakdown; fee != nil && fee.PayPalFee != nil {
		reported, err := valueobject.NewMoneyFromString(fee.PayPalFee.Value, parseCurrency(fee.PayPalFee.CurrencyCode))
		if err != nil {
			return nil, fmt.Errorf("paypal: invalid fee %q: %w", fee.PayPalFee.Value, err)
		}
		result.Fee = &reported
		result.FeeReported = true
	} else if status == valueobject.PaymentStatusCompleted {
		estimated := EstimatePayPalFee(amount)
		result.Fee = &estimated
		result.FeeReported = false
	}

	if status == valueobject.PaymentStatusCompleted {
		at := capture.UpdateTime
		if at.IsZero() {
			at = evt.CreateTime
		}
		if !at.IsZero() {
			at = at.UTC()
			result.ProcessedAt = &at
		}
	}

	return result, nil
}

// EstimatePayPalFee computes percentage plus fixed fee from the
// published schedule for the amount's currency
func EstimatePayPalFee(amount valueobject.Money) valueobject.Money {
	rate, ok := paypalFeeSchedule[amount.Currency()]
	if !ok {
		rate = paypalDefaultFeeRate
	}
	percentage := amount.MultiplyByRate(rate.Percent)
	fixed, err := valueobject.NewMoney(rate.Fixed, amount.Currency())
	if err != nil {
		return percentage
	}
	return percentage.MustAdd(fixed)
}

// splitCustomID splits "<tenant_id>:<transaction_id>" into its parts
func splitCustomID(customID string) (tenantID, txID string, ok bool) {
	parts := strings.SplitN(customID, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

var _ payment.GatewayNormalizer = (*PayPalNormalizer)(nil)
