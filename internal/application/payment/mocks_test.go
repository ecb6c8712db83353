package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/customer"
	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/sale"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) FindAll(ctx context.Context, filter shared.Filter) ([]payment.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) Save(ctx context.Context, t *payment.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTransactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTransactionRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTransactionRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]payment.Transaction, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) FindByGatewayTransactionID(ctx context.Context, tenantID uuid.UUID, gateway payment.Gateway, gatewayTxID string) (*payment.Transaction, error) {
	args := m.Called(ctx, tenantID, gateway, gatewayTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]payment.Transaction, error) {
	args := m.Called(ctx, tenantID, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) FindOpenOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]payment.Transaction, error) {
	args := m.Called(ctx, tenantID, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) SaveWithLock(ctx context.Context, t *payment.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

type mockSaleRepo struct {
	mock.Mock
}

func (m *mockSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*sale.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sale.Sale), args.Error(1)
}

func (m *mockSaleRepo) FindAll(ctx context.Context, filter shared.Filter) ([]sale.Sale, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.Sale), args.Error(1)
}

func (m *mockSaleRepo) Save(ctx context.Context, s *sale.Sale) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSaleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSaleRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSaleRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sale.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sale.Sale), args.Error(1)
}

func (m *mockSaleRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sale.Sale, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.Sale), args.Error(1)
}

func (m *mockSaleRepo) FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*sale.Sale, error) {
	args := m.Called(ctx, tenantID, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sale.Sale), args.Error(1)
}

func (m *mockSaleRepo) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (shared.Paginated[sale.Sale], error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).(shared.Paginated[sale.Sale]), args.Error(1)
}

func (m *mockSaleRepo) FindOpenOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]sale.Sale, error) {
	args := m.Called(ctx, tenantID, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.Sale), args.Error(1)
}

func (m *mockSaleRepo) SaveWithLock(ctx context.Context, s *sale.Sale) error {
	return m.Called(ctx, s).Error(0)
}

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *mockCustomerRepo) Save(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCustomerRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCustomerRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]customer.Customer, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *mockCustomerRepo) SaveWithLock(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) FindByContact(ctx context.Context, tenantID uuid.UUID, contact string) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *mockCustomerRepo) Stats(ctx context.Context, tenantID uuid.UUID) (*customer.Stats, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Stats), args.Error(1)
}

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) Append(ctx context.Context, entry *customer.LedgerEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockLedgerRepo) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (shared.Paginated[customer.LedgerEntry], error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).(shared.Paginated[customer.LedgerEntry]), args.Error(1)
}

// stubNormalizer hands back a canned result, keyed by nothing; tests
// swap the result between calls as needed.
type stubNormalizer struct {
	gateway payment.Gateway
	result  *payment.GatewayResult
	err     error
}

func (s stubNormalizer) Gateway() payment.Gateway { return s.gateway }

func (s stubNormalizer) Normalize([]byte) (*payment.GatewayResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// memoryIdempotency is a map-backed IdempotencyStore for tests
type memoryIdempotency struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{seen: make(map[string]bool)}
}

func (m *memoryIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *memoryIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[key], nil
}

func (m *memoryIdempotency) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}

func (m *memoryIdempotency) Close() error { return nil }

// passthroughUOW runs the closure without a real database transaction
type passthroughUOW struct{}

func (passthroughUOW) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
