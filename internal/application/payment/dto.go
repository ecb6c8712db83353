package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// FeeResponse is the processor fee on a transaction
type FeeResponse struct {
	Amount valueobject.Money `json:"amount"`
	Type   string            `json:"type"`
}

// StatusChangeResponse is one audit entry on the transaction
type StatusChangeResponse struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
}

// TransactionResponse is the API shape of a payment transaction
type TransactionResponse struct {
	ID                   uuid.UUID              `json:"id"`
	SaleID               uuid.UUID              `json:"sale_id"`
	CustomerID           *uuid.UUID             `json:"customer_id,omitempty"`
	OriginalTransaction  *uuid.UUID             `json:"original_transaction_id,omitempty"`
	Type                 string                 `json:"type"`
	Method               string                 `json:"method"`
	Gateway              string                 `json:"gateway"`
	GatewayTransactionID string                 `json:"gateway_transaction_id,omitempty"`
	Amount               valueobject.Money      `json:"amount"`
	Fee                  FeeResponse            `json:"fee"`
	NetAmount            valueobject.Money      `json:"net_amount"`
	Status               string                 `json:"status"`
	StatusHistory        []StatusChangeResponse `json:"status_history"`
	ProcessedAt          *time.Time             `json:"processed_at,omitempty"`
	FailureReason        string                 `json:"failure_reason,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// WebhookResponse tells the gateway what the delivery did. Ignored
// events and replays are acknowledged so the gateway stops retrying.
type WebhookResponse struct {
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	StatusChanged bool       `json:"status_changed"`
	Settled       bool       `json:"settled"`
	Ignored       bool       `json:"ignored,omitempty"`
}

// ToTransactionResponse maps the aggregate to its API shape
func ToTransactionResponse(t *payment.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                   t.ID,
		SaleID:               t.SaleID,
		CustomerID:           t.CustomerID,
		OriginalTransaction:  t.OriginalTransaction,
		Type:                 string(t.Type),
		Method:               string(t.Method),
		Gateway:              string(t.Gateway),
		GatewayTransactionID: t.GatewayTransactionID,
		Amount:               t.Amount,
		Fee:                  FeeResponse{Amount: t.Fee.Amount, Type: string(t.Fee.Type)},
		NetAmount:            t.NetAmount,
		Status:               t.Status.String(),
		StatusHistory:        toStatusChanges(t.StatusHistory),
		ProcessedAt:          t.ProcessedAt,
		FailureReason:        t.FailureReason,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func toStatusChanges(history []shared.StatusChange) []StatusChangeResponse {
	out := make([]StatusChangeResponse, 0, len(history))
	for _, h := range history {
		out = append(out, StatusChangeResponse{
			Timestamp: h.Timestamp,
			From:      h.From,
			To:        h.To,
			Actor:     h.Actor,
			Reason:    h.Reason,
		})
	}
	return out
}
