package payment

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

func newTestTransaction(t *testing.T, gateway Gateway, amount float64) *Transaction {
	t.Helper()
	tx, err := NewPaymentTransaction(uuid.New(), uuid.New(), nil, MethodOnline, gateway, usd(amount))
	require.NoError(t, err)
	tx.ClearDomainEvents()
	return tx
}

func TestNewPaymentTransaction(t *testing.T) {
	t.Run("starts pending with net equal to amount", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 50)

		assert.Equal(t, TypePayment, tx.Type)
		assert.Equal(t, valueobject.PaymentStatusPending, tx.Status)
		assert.True(t, tx.NetAmount.Equals(usd(50)))
		assert.True(t, tx.Fee.Amount.IsZero())
		assert.Nil(t, tx.ProcessedAt)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPaymentTransaction(uuid.New(), uuid.New(), nil, MethodCash, GatewayManual, usd(0))
		assert.Error(t, err)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := NewPaymentTransaction(uuid.New(), uuid.New(), nil, Method("WIRE"), GatewayManual, usd(10))
		assert.Error(t, err)
	})
}

func TestNewRefundTransaction(t *testing.T) {
	original := uuid.New()
	tx, err := NewRefundTransaction(uuid.New(), uuid.New(), nil, original, MethodOnline, GatewayStripe, usd(25))
	require.NoError(t, err)

	assert.Equal(t, TypeRefund, tx.Type)
	require.NotNil(t, tx.OriginalTransaction)
	assert.Equal(t, original, *tx.OriginalTransaction)
}

func TestTransactionSetFee(t *testing.T) {
	t.Run("fee rederives net amount", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 100)

		require.NoError(t, tx.SetFee(Fee{Amount: usd(3.20), Type: FeeReported}))
		assert.True(t, tx.NetAmount.Equals(usd(96.80)))
		assert.Equal(t, FeeReported, tx.Fee.Type)
	})

	t.Run("replacing the fee recomputes net again", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayPayPal, 100)

		require.NoError(t, tx.SetFee(Fee{Amount: usd(3.20), Type: FeeEstimated}))
		require.NoError(t, tx.SetFee(Fee{Amount: usd(3.01), Type: FeeReported}))
		assert.True(t, tx.NetAmount.Equals(usd(96.99)))
	})

	t.Run("rejects fee above amount", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 10)
		err := tx.SetFee(Fee{Amount: usd(10.01), Type: FeeReported})
		assert.Error(t, err)
		assert.True(t, tx.NetAmount.Equals(usd(10)))
	})

	t.Run("rejects negative fee", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 10)
		assert.Error(t, tx.SetFee(Fee{Amount: usd(-1), Type: FeeReported}))
	})
}

func TestTransactionGatewayReference(t *testing.T) {
	tx := newTestTransaction(t, GatewayStripe, 10)

	require.NoError(t, tx.SetGatewayTransactionID("pi_123"))
	assert.Equal(t, "pi_123", tx.GatewayTransactionID)

	t.Run("same reference is idempotent", func(t *testing.T) {
		assert.NoError(t, tx.SetGatewayTransactionID("pi_123"))
	})

	t.Run("different reference is rejected", func(t *testing.T) {
		err := tx.SetGatewayTransactionID("pi_456")
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_STATE", derr.Code)
	})
}

func TestTransactionLifecycle(t *testing.T) {
	t.Run("pending to processing to completed", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayBraintree, 30)

		require.NoError(t, tx.MarkProcessing("gateway:braintree"))
		require.NoError(t, tx.Complete("gateway:braintree", nil))

		assert.Equal(t, valueobject.PaymentStatusCompleted, tx.Status)
		require.NotNil(t, tx.ProcessedAt)
		assert.Len(t, tx.StatusHistory, 2)
	})

	t.Run("processed at is written exactly once", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 30)
		settled := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, tx.Complete("gateway:stripe", &settled))
		first := *tx.ProcessedAt
		assert.Equal(t, settled, first)

		// a refund transition must not move the settlement time
		require.NoError(t, tx.MarkRefunded("manager", "return", false))
		assert.Equal(t, first, *tx.ProcessedAt)
	})

	t.Run("fail records reason", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 30)

		require.NoError(t, tx.Fail("gateway:stripe", "card_declined"))
		assert.Equal(t, "card_declined", tx.FailureReason)
		assert.Equal(t, valueobject.PaymentStatusFailed, tx.Status)
	})

	t.Run("terminal states refuse further transitions", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 30)
		require.NoError(t, tx.Fail("gateway:stripe", "card_declined"))

		err := tx.Complete("gateway:stripe", nil)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)

		assert.Error(t, tx.MarkProcessing("gateway:stripe"))
		assert.Error(t, tx.Cancel("manager", "void"))
	})

	t.Run("partial refund keeps transaction open for more refunds", func(t *testing.T) {
		tx := newTestTransaction(t, GatewayStripe, 30)
		require.NoError(t, tx.Complete("gateway:stripe", nil))

		require.NoError(t, tx.MarkRefunded("manager", "one item", true))
		assert.Equal(t, valueobject.PaymentStatusPartiallyRefunded, tx.Status)

		require.NoError(t, tx.MarkRefunded("manager", "rest", false))
		assert.Equal(t, valueobject.PaymentStatusRefunded, tx.Status)
	})
}

func TestNormalizerRegistry(t *testing.T) {
	registry := NewNormalizerRegistry()

	t.Run("unknown gateway", func(t *testing.T) {
		_, err := registry.Get(GatewayStripe)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "UNSUPPORTED_GATEWAY", derr.Code)
	})

	t.Run("registered normalizer is returned", func(t *testing.T) {
		registry.Register(stubNormalizer{gateway: GatewayStripe})

		n, err := registry.Get(GatewayStripe)
		require.NoError(t, err)
		assert.Equal(t, GatewayStripe, n.Gateway())
		assert.Len(t, registry.Gateways(), 1)
	})
}

type stubNormalizer struct {
	gateway Gateway
	result  *GatewayResult
	err     error
}

func (s stubNormalizer) Gateway() Gateway { return s.gateway }

func (s stubNormalizer) Normalize(payload []byte) (*GatewayResult, error) {
	return s.result, s.err
}
