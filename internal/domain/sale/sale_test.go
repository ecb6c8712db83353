package sale

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(amount float64) valueobject.Money {
	return valueobject.NewMoneyUSDFromFloat(amount)
}

func mustItem(t *testing.T, name string, unitPrice float64, qty int64, discount float64) *LineItem {
	t.Helper()
	item, err := NewLineItem(name, usd(unitPrice), qty, usd(discount), nil)
	require.NoError(t, err)
	return item
}

// newTestSale builds a two-line sale: 2x19.99 + 1x5.00 = 44.98,
// order discount 4.98, tax 3.20, total 43.20
func newTestSale(t *testing.T, customerID *uuid.UUID, paid float64) *Sale {
	t.Helper()
	items := []*LineItem{
		mustItem(t, "House Blend 1lb", 19.99, 2, 0),
		mustItem(t, "Filter Pack", 5.00, 1, 0),
	}
	s, err := NewSale(uuid.New(), "R-2026-000123", customerID, items, usd(4.98), usd(3.20), usd(43.20), usd(paid))
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func TestNewLineItem(t *testing.T) {
	t.Run("derives total from unit price, quantity and discount", func(t *testing.T) {
		item, err := NewLineItem("Widget", usd(10), 3, usd(2.50), nil)
		require.NoError(t, err)
		assert.True(t, item.TotalPrice.Equals(usd(27.50)))
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewLineItem("Widget", usd(10), 0, usd(0), nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative unit price", func(t *testing.T) {
		_, err := NewLineItem("Widget", usd(-1), 1, usd(0), nil)
		assert.Error(t, err)
	})

	t.Run("rejects discount above line total", func(t *testing.T) {
		_, err := NewLineItem("Widget", usd(10), 1, usd(10.01), nil)
		assert.Error(t, err)
	})

	t.Run("verify total within tolerance", func(t *testing.T) {
		item := mustItem(t, "Widget", 10, 3, 0)
		assert.NoError(t, item.VerifyTotal(usd(30.01)))
		assert.NoError(t, item.VerifyTotal(usd(29.99)))

		err := item.VerifyTotal(usd(30.02))
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "AMOUNT_MISMATCH", derr.Code)
	})
}

func TestNewSale(t *testing.T) {
	t.Run("derives subtotal and total from lines", func(t *testing.T) {
		customerID := uuid.New()
		s := newTestSale(t, &customerID, 20)

		assert.True(t, s.Subtotal.Equals(usd(44.98)))
		assert.True(t, s.Total.Equals(usd(43.20)))
		assert.True(t, s.PaidAmount.Equals(usd(20)))
		assert.True(t, s.DueAmount.Equals(usd(23.20)))
		assert.Equal(t, valueobject.PaymentStatusPending, s.Status)
		assert.Len(t, s.Items, 2)
		assert.Equal(t, s.ID, s.Items[0].SaleID)
	})

	t.Run("accepts submitted total within one cent", func(t *testing.T) {
		items := []*LineItem{mustItem(t, "Widget", 10, 1, 0)}
		_, err := NewSale(uuid.New(), "R-1", nil, items, usd(0), usd(0), usd(10.01), usd(10.01))
		require.NoError(t, err)
	})

	t.Run("rejects submitted total beyond tolerance", func(t *testing.T) {
		items := []*LineItem{mustItem(t, "Widget", 10, 1, 0)}
		_, err := NewSale(uuid.New(), "R-1", nil, items, usd(0), usd(0), usd(10.02), usd(10))
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "AMOUNT_MISMATCH", derr.Code)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := NewSale(uuid.New(), "R-1", nil, nil, usd(0), usd(0), usd(0), usd(0))
		assert.Error(t, err)
	})

	t.Run("due portion requires a customer", func(t *testing.T) {
		items := []*LineItem{mustItem(t, "Widget", 10, 1, 0)}
		_, err := NewSale(uuid.New(), "R-1", nil, items, usd(0), usd(0), usd(10), usd(4))
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_INPUT", derr.Code)
	})

	t.Run("rejects paid above total", func(t *testing.T) {
		items := []*LineItem{mustItem(t, "Widget", 10, 1, 0)}
		_, err := NewSale(uuid.New(), "R-1", nil, items, usd(0), usd(0), usd(10), usd(10.50))
		assert.Error(t, err)
	})

	t.Run("rejects discount above subtotal", func(t *testing.T) {
		items := []*LineItem{mustItem(t, "Widget", 10, 1, 0)}
		_, err := NewSale(uuid.New(), "R-1", nil, items, usd(11), usd(0), usd(0), usd(0))
		assert.Error(t, err)
	})
}

func TestSaleTransitions(t *testing.T) {
	customerID := uuid.New()

	t.Run("pending to processing to completed", func(t *testing.T) {
		s := newTestSale(t, &customerID, 43.20)

		require.NoError(t, s.MarkProcessing("gateway"))
		assert.Equal(t, valueobject.PaymentStatusProcessing, s.Status)

		require.NoError(t, s.Complete("gateway"))
		assert.True(t, s.IsCompleted())

		require.Len(t, s.StatusHistory, 2)
		assert.Equal(t, "PENDING", s.StatusHistory[0].From)
		assert.Equal(t, "PROCESSING", s.StatusHistory[0].To)
		assert.Equal(t, "PROCESSING", s.StatusHistory[1].From)
		assert.Equal(t, "COMPLETED", s.StatusHistory[1].To)
	})

	t.Run("pending straight to completed", func(t *testing.T) {
		s := newTestSale(t, &customerID, 43.20)
		require.NoError(t, s.Complete("register"))
	})

	t.Run("fail records reason in audit trail", func(t *testing.T) {
		s := newTestSale(t, &customerID, 0)
		require.NoError(t, s.MarkProcessing("gateway"))
		require.NoError(t, s.Fail("gateway", "card declined"))

		assert.Equal(t, valueobject.PaymentStatusFailed, s.Status)
		last := s.StatusHistory[len(s.StatusHistory)-1]
		assert.Equal(t, "card declined", last.Reason)
		assert.Equal(t, "gateway", last.Actor)
	})

	t.Run("cancel only while open", func(t *testing.T) {
		s := newTestSale(t, &customerID, 43.20)
		require.NoError(t, s.Complete("register"))

		err := s.Cancel("manager", "changed mind")
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})

	t.Run("terminal states refuse all transitions", func(t *testing.T) {
		s := newTestSale(t, &customerID, 0)
		require.NoError(t, s.Cancel("manager", "void"))

		assert.Error(t, s.Complete("register"))
		assert.Error(t, s.MarkProcessing("gateway"))
		assert.Error(t, s.Fail("gateway", "x"))
	})
}

func TestSaleRefunds(t *testing.T) {
	customerID := uuid.New()

	completedSale := func(t *testing.T) *Sale {
		s := newTestSale(t, &customerID, 43.20)
		require.NoError(t, s.Complete("register"))
		s.ClearDomainEvents()
		return s
	}

	t.Run("partial refund moves to partially refunded", func(t *testing.T) {
		s := completedSale(t)

		require.NoError(t, s.ApplyRefund(usd(10), "manager", "damaged item"))
		assert.Equal(t, valueobject.PaymentStatusPartiallyRefunded, s.Status)
		assert.True(t, s.RefundedAmount.Equals(usd(10)))
	})

	t.Run("cumulative refunds reach fully refunded", func(t *testing.T) {
		s := completedSale(t)

		require.NoError(t, s.ApplyRefund(usd(20), "manager", "damaged item"))
		require.NoError(t, s.ApplyRefund(usd(23.20), "manager", "remainder"))

		assert.Equal(t, valueobject.PaymentStatusRefunded, s.Status)
		assert.True(t, s.RefundedAmount.Equals(s.Total))
	})

	t.Run("full refund in one step", func(t *testing.T) {
		s := completedSale(t)

		require.NoError(t, s.ApplyRefund(usd(43.20), "manager", "return"))
		assert.Equal(t, valueobject.PaymentStatusRefunded, s.Status)
	})

	t.Run("refund cannot exceed total", func(t *testing.T) {
		s := completedSale(t)

		err := s.ApplyRefund(usd(43.21), "manager", "oops")
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_AMOUNT", derr.Code)
		assert.Equal(t, valueobject.PaymentStatusCompleted, s.Status)
	})

	t.Run("no further refunds after fully refunded", func(t *testing.T) {
		s := completedSale(t)
		require.NoError(t, s.ApplyRefund(usd(43.20), "manager", "return"))

		err := s.ApplyRefund(usd(1), "manager", "again")
		assert.Error(t, err)
	})

	t.Run("refund requires completed sale", func(t *testing.T) {
		s := newTestSale(t, &customerID, 0)

		err := s.ApplyRefund(usd(5), "manager", "early")
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})
}

func TestSaleSettle(t *testing.T) {
	t.Run("freezes linkage and derives net from the fee", func(t *testing.T) {
		s := newTestSale(t, nil, 43.20)
		txID := uuid.New()
		at := time.Now()

		require.NoError(t, s.MarkProcessing("register"))
		require.NoError(t, s.Settle(txID, usd(1.55), at, "gateway:stripe"))

		assert.Equal(t, valueobject.PaymentStatusCompleted, s.Status)
		require.NotNil(t, s.TransactionID)
		assert.Equal(t, txID, *s.TransactionID)
		require.NotNil(t, s.NetAmount)
		assert.Equal(t, "41.65 USD", s.NetAmount.String())
		require.NotNil(t, s.PaymentProcessedAt)
		assert.True(t, s.PaymentProcessedAt.Equal(at))
	})

	t.Run("cannot settle a sale twice", func(t *testing.T) {
		s := newTestSale(t, nil, 43.20)
		require.NoError(t, s.Settle(uuid.New(), usd(0), time.Now(), "register"))

		err := s.Settle(uuid.New(), usd(0), time.Now(), "register")
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})
}
