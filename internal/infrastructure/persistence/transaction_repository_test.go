package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

func newMockTransactionRepository(t *testing.T) (*GormTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormTransactionRepository(gormDB), mock, mockDB
}

func transactionRows(txID, tenantID, saleID uuid.UUID, gateway payment.Gateway, gatewayTxID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "version", "sale_id", "type", "method", "gateway", "gateway_transaction_id", "currency", "amount", "fee_amount", "fee_type", "net_amount", "status", "status_history"}).
		AddRow(txID, tenantID, 1, saleID, "PAYMENT", "ONLINE", gateway, gatewayTxID, "USD",
			decimal.RequireFromString("100"), decimal.RequireFromString("3.2"), "ESTIMATED",
			decimal.RequireFromString("96.8"), "PROCESSING", []byte("[]"))
}

func TestGormTransactionRepository_FindByGatewayTransactionID(t *testing.T) {
	t.Run("finds transaction by processor reference", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txID := uuid.New()
		tenantID := uuid.New()
		saleID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE tenant_id = \$1 AND gateway = \$2 AND gateway_transaction_id = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, payment.GatewayStripe, "pi_123", 1).
			WillReturnRows(transactionRows(txID, tenantID, saleID, payment.GatewayStripe, "pi_123"))

		tx, err := repo.FindByGatewayTransactionID(context.Background(), tenantID, payment.GatewayStripe, "pi_123")

		assert.NoError(t, err)
		assert.NotNil(t, tx)
		assert.Equal(t, txID, tx.ID)
		assert.Equal(t, "pi_123", tx.GatewayTransactionID)
		assert.Equal(t, valueobject.PaymentStatusProcessing, tx.Status)
		assert.Equal(t, payment.FeeEstimated, tx.Fee.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short-circuits on empty reference without a query", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		tx, err := repo.FindByGatewayTransactionID(context.Background(), uuid.New(), payment.GatewayStripe, "")

		assert.Nil(t, tx)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown reference", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE tenant_id = \$1 AND gateway = \$2 AND gateway_transaction_id = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, payment.GatewayStripe, "pi_missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		tx, err := repo.FindByGatewayTransactionID(context.Background(), tenantID, payment.GatewayStripe, "pi_missing")

		assert.Nil(t, tx)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_SaveWithLock(t *testing.T) {
	newProcessingTransaction := func(t *testing.T) *payment.Transaction {
		tx, err := payment.NewPaymentTransaction(
			uuid.New(), uuid.New(), nil,
			payment.MethodOnline, payment.GatewayStripe,
			valueobject.NewMoneyUSD(decimal.RequireFromString("100")),
		)
		require.NoError(t, err)
		require.NoError(t, tx.MarkProcessing("webhook"))
		return tx
	}

	t.Run("updates when stored version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		tx := newProcessingTransaction(t)

		mock.ExpectExec(`UPDATE "transactions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), tx)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrOptimisticLock on stale version", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		tx := newProcessingTransaction(t)

		mock.ExpectExec(`UPDATE "transactions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), tx)

		assert.Equal(t, shared.ErrOptimisticLock, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements payment.Repository", func(t *testing.T) {
		repo, _, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		var _ payment.Repository = repo
	})
}
