package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// manualSettlement is the payload the back office posts to settle a
// cash, card-present or store-credit payment that left the register in
// PROCESSING (e.g. a card terminal that confirmed out of band)
type manualSettlement struct {
	TransactionID string `json:"transaction_id"`
	TenantID      string `json:"tenant_id"`
	Reference     string `json:"reference,omitempty"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency,omitempty"`
	Status        string `json:"status,omitempty"`
	Note          string `json:"note,omitempty"`
}

// ManualNormalizer handles operator-posted settlements. Manual payments
// carry no processor fee and default to COMPLETED.
type ManualNormalizer struct{}

// NewManualNormalizer creates a manual normalizer
func NewManualNormalizer() *ManualNormalizer {
	return &ManualNormalizer{}
}

// Gateway returns the processor this normalizer handles
func (n *ManualNormalizer) Gateway() payment.Gateway {
	return payment.GatewayManual
}

// Normalize parses a manual settlement payload
func (n *ManualNormalizer) Normalize(payload []byte) (*payment.GatewayResult, error) {
	var s manualSettlement
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("manual: failed to parse settlement: %w", err)
	}
	if s.TransactionID == "" {
		return nil, fmt.Errorf("manual: settlement carries no transaction id")
	}

	status := valueobject.PaymentStatusCompleted
	rawStatus := "completed"
	if s.Status != "" {
		rawStatus = s.Status
		status = valueobject.PaymentStatus(strings.ToUpper(s.Status))
		switch status {
		case valueobject.PaymentStatusCompleted, valueobject.PaymentStatusFailed, valueobject.PaymentStatusCancelled:
		default:
			return nil, fmt.Errorf("manual: unsupported settlement status %q", s.Status)
		}
	}

	currency := parseCurrency(s.Currency)
	amount, err := valueobject.NewMoneyFromString(s.Amount, currency)
	if err != nil {
		return nil, fmt.Errorf("manual: invalid amount %q: %w", s.Amount, err)
	}

	reference := s.Reference
	if reference == "" {
		reference = s.TransactionID
	}

	fee := valueobject.Zero(currency)
	result := &payment.GatewayResult{
		GatewayTransactionID: reference,
		Status:               status,
		Amount:               amount,
		Fee:                  &fee,
		FeeReported:          true,
		RawStatus:            rawStatus,
		Metadata: map[string]string{
			"transaction_id": s.TransactionID,
		},
	}
	if s.TenantID != "" {
		result.Metadata["tenant_id"] = s.TenantID
	}
	if s.Note != "" {
		result.Metadata["note"] = s.Note
	}

	if status == valueobject.PaymentStatusCompleted {
		at := time.Now().UTC()
		result.ProcessedAt = &at
	}

	return result, nil
}

var _ payment.GatewayNormalizer = (*ManualNormalizer)(nil)
