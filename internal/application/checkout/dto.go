package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/sale"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// LineItemRequest is one product line as submitted by the register
type LineItemRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
	Name      string     `json:"name" binding:"required,max=200"`
	UnitPrice string     `json:"unit_price" binding:"required"`
	Quantity  int64      `json:"quantity" binding:"required,min=1"`
	Discount  string     `json:"discount"`
	Total     string     `json:"total" binding:"required"`
}

// CreateSaleRequest is the checkout payload. Total is what the client
// computed; the server rederives everything and rejects disagreement.
type CreateSaleRequest struct {
	CustomerID *uuid.UUID        `json:"customer_id"`
	Items      []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount   string            `json:"discount"`
	Tax        string            `json:"tax"`
	Total      string            `json:"total" binding:"required"`
	Currency   string            `json:"currency" binding:"omitempty,len=3"`
	PaidAmount string            `json:"paid_amount" binding:"required"`
	Method     string            `json:"method" binding:"required"`
	Gateway    string            `json:"gateway"`
	Note       string            `json:"note" binding:"omitempty,max=500"`
}

// RefundSaleRequest refunds part or all of a completed sale
type RefundSaleRequest struct {
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Reason   string `json:"reason" binding:"required,max=500"`
}

// CancelSaleRequest voids an open sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// LineItemResponse is the API shape of one sale line
type LineItemResponse struct {
	ID        uuid.UUID         `json:"id"`
	ProductID *uuid.UUID        `json:"product_id,omitempty"`
	Name      string            `json:"name"`
	UnitPrice valueobject.Money `json:"unit_price"`
	Quantity  int64             `json:"quantity"`
	Discount  valueobject.Money `json:"discount"`
	Total     valueobject.Money `json:"total"`
}

// StatusChangeResponse is one audit entry on the sale
type StatusChangeResponse struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
}

// SaleResponse is the API shape of a sale
type SaleResponse struct {
	ID             uuid.UUID              `json:"id"`
	ReceiptNumber  string                 `json:"receipt_number"`
	CustomerID     *uuid.UUID             `json:"customer_id,omitempty"`
	Items          []LineItemResponse     `json:"items"`
	Subtotal       valueobject.Money      `json:"subtotal"`
	Discount       valueobject.Money      `json:"discount"`
	Tax            valueobject.Money      `json:"tax"`
	Total          valueobject.Money      `json:"total"`
	PaidAmount     valueobject.Money      `json:"paid_amount"`
	DueAmount      valueobject.Money      `json:"due_amount"`
	RefundedAmount valueobject.Money      `json:"refunded_amount"`
	Status         string                 `json:"status"`
	StatusHistory  []StatusChangeResponse `json:"status_history"`
	TransactionID  *uuid.UUID             `json:"transaction_id,omitempty"`
	NetAmount      *valueobject.Money     `json:"net_amount,omitempty"`
	ProcessedAt    *time.Time             `json:"processed_at,omitempty"`
	Note           string                 `json:"note,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ReceiptResponse is the printable receipt payload for a sale
type ReceiptResponse struct {
	ReceiptNumber string             `json:"receipt_number"`
	IssuedAt      time.Time          `json:"issued_at"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      valueobject.Money  `json:"subtotal"`
	Discount      valueobject.Money  `json:"discount"`
	Tax           valueobject.Money  `json:"tax"`
	Total         valueobject.Money  `json:"total"`
	PaidAmount    valueobject.Money  `json:"paid_amount"`
	DueAmount     valueobject.Money  `json:"due_amount"`
	Status        string             `json:"status"`
}

// ToSaleResponse maps the aggregate to its API shape
func ToSaleResponse(s *sale.Sale) *SaleResponse {
	return &SaleResponse{
		ID:             s.ID,
		ReceiptNumber:  s.ReceiptNumber,
		CustomerID:     s.CustomerID,
		Items:          toLineItemResponses(s.Items),
		Subtotal:       s.Subtotal,
		Discount:       s.DiscountAmount,
		Tax:            s.TaxAmount,
		Total:          s.Total,
		PaidAmount:     s.PaidAmount,
		DueAmount:      s.DueAmount,
		RefundedAmount: s.RefundedAmount,
		Status:         s.Status.String(),
		StatusHistory:  toStatusChanges(s.StatusHistory),
		TransactionID:  s.TransactionID,
		NetAmount:      s.NetAmount,
		ProcessedAt:    s.PaymentProcessedAt,
		Note:           s.Note,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// ToReceiptResponse maps a sale to its printable receipt shape
func ToReceiptResponse(s *sale.Sale) *ReceiptResponse {
	return &ReceiptResponse{
		ReceiptNumber: s.ReceiptNumber,
		IssuedAt:      s.CreatedAt,
		Items:         toLineItemResponses(s.Items),
		Subtotal:      s.Subtotal,
		Discount:      s.DiscountAmount,
		Tax:           s.TaxAmount,
		Total:         s.Total,
		PaidAmount:    s.PaidAmount,
		DueAmount:     s.DueAmount,
		Status:        s.Status.String(),
	}
}

func toLineItemResponses(items []sale.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
			Total:     item.TotalPrice,
		})
	}
	return out
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
