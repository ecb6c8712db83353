package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpos/backend/internal/domain/customer"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
)

// TestCustomerRepository_Integration tests the customer repository
// against a real PostgreSQL database
func TestCustomerRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormCustomerRepository(testDB.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(testDB.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Save and FindByID", func(t *testing.T) {
		c, err := customer.NewCustomer(tenantID, "CUST-001", "Walk-in Regular")
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
		assert.Equal(t, "CUST-001", found.Code)
		assert.Equal(t, "Walk-in Regular", found.Name)
		assert.Equal(t, tenantID, found.TenantID)
		assert.True(t, found.DueAmount.IsZero())
	})

	t.Run("FindByIDForTenant enforces tenant scope", func(t *testing.T) {
		c, err := customer.NewCustomer(tenantID, "CUST-002", "Scoped Customer")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByIDForTenant(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)

		_, err = repo.FindByIDForTenant(ctx, uuid.New(), c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindByCode is case-insensitive on the stored uppercase code", func(t *testing.T) {
		c, err := customer.NewCustomer(tenantID, "cust-003", "Code Customer")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByCode(ctx, tenantID, "cust-003")
		require.NoError(t, err)
		assert.Equal(t, "CUST-003", found.Code)
	})

	t.Run("duplicate code within a tenant is rejected by the database", func(t *testing.T) {
		first, err := customer.NewCustomer(tenantID, "CUST-DUP", "First")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, first))

		second, err := customer.NewCustomer(tenantID, "CUST-DUP", "Second")
		require.NoError(t, err)
		assert.Error(t, repo.Save(ctx, second))

		// The same code under another tenant is fine.
		other, err := customer.NewCustomer(uuid.New(), "CUST-DUP", "Other Tenant")
		require.NoError(t, err)
		assert.NoError(t, repo.Save(ctx, other))
	})

	t.Run("SaveWithLock rejects a stale version", func(t *testing.T) {
		c, err := customer.NewCustomer(tenantID, "CUST-LOCK", "Locked Customer")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		fresh, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		stale, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)

		_, err = fresh.AdjustDue(valueobject.NewMoneyUSDFromFloat(50), "tester", "credit extension")
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, fresh))

		_, err = stale.AdjustDue(valueobject.NewMoneyUSDFromFloat(25), "tester", "concurrent write")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), shared.ErrOptimisticLock)
	})

	t.Run("FindAllForTenant with pagination", func(t *testing.T) {
		pageTenant := uuid.New()
		for i := 0; i < 7; i++ {
			c, err := customer.NewCustomer(pageTenant, fmt.Sprintf("PAGE-%02d", i), fmt.Sprintf("Page Customer %d", i))
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, c))
		}

		filter := shared.DefaultFilter()
		filter.PageSize = 5
		page1, err := repo.FindAllForTenant(ctx, pageTenant, filter)
		require.NoError(t, err)
		assert.Len(t, page1, 5)

		filter.Page = 2
		page2, err := repo.FindAllForTenant(ctx, pageTenant, filter)
		require.NoError(t, err)
		assert.Len(t, page2, 2)
	})

	t.Run("ledger entries round-trip with balance snapshots", func(t *testing.T) {
		c, err := customer.NewCustomer(tenantID, "CUST-LEDGER", "Ledger Customer")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		saleID := uuid.New()
		charge, err := c.RecordPurchase(
			valueobject.NewMoneyUSDFromFloat(120),
			valueobject.NewMoneyUSDFromFloat(120),
			saleID,
		)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
		require.NoError(t, ledgerRepo.Append(ctx, charge))

		paymentEntry, err := c.RecordPayment(valueobject.NewMoneyUSDFromFloat(40), nil, "partial payment")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
		require.NoError(t, ledgerRepo.Append(ctx, paymentEntry))

		page, err := ledgerRepo.FindByCustomer(ctx, tenantID, c.ID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Equal(t, int64(2), page.Total)

		byType := map[customer.EntryType]customer.LedgerEntry{}
		for _, e := range page.Items {
			byType[e.EntryType] = e
		}
		chargeEntry, ok := byType[customer.EntryTypePurchase]
		require.True(t, ok)
		assert.Equal(t, saleID, *chargeEntry.SaleID)
		assert.True(t, chargeEntry.BalanceAfter.Amount().Equal(valueobject.NewMoneyUSDFromFloat(120).Amount()))

		payEntry, ok := byType[customer.EntryTypePayment]
		require.True(t, ok)
		assert.True(t, payEntry.BalanceAfter.Amount().Equal(valueobject.NewMoneyUSDFromFloat(80).Amount()))

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, found.DueAmount.Amount().Equal(valueobject.NewMoneyUSDFromFloat(80).Amount()))
	})
}

// TestCustomerRepository_TenantIsolation tests tenant data isolation
func TestCustomerRepository_TenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormCustomerRepository(testDB.DB)
	ctx := context.Background()

	tenant1 := uuid.New()
	tenant2 := uuid.New()

	for i := 0; i < 3; i++ {
		c, err := customer.NewCustomer(tenant1, fmt.Sprintf("T1-%02d", i), "Tenant 1 Customer")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}
	for i := 0; i < 2; i++ {
		c, err := customer.NewCustomer(tenant2, fmt.Sprintf("T2-%02d", i), "Tenant 2 Customer")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}

	t1Customers, err := repo.FindAllForTenant(ctx, tenant1, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, t1Customers, 3)
	for _, c := range t1Customers {
		assert.Equal(t, tenant1, c.TenantID)
	}

	t2Customers, err := repo.FindAllForTenant(ctx, tenant2, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, t2Customers, 2)
	for _, c := range t2Customers {
		assert.Equal(t, tenant2, c.TenantID)
	}
}

// TestCustomerRepository_ContactLookup covers the phone-then-email
// lookup used by the till before creating a new account
func TestCustomerRepository_ContactLookup(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormCustomerRepository(testDB.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	c, err := customer.NewCustomer(tenantID, "CUST-100", "Contact Customer")
	require.NoError(t, err)
	require.NoError(t, c.UpdateProfile("Contact Customer", "+15551230001", "Contact@Example.com", ""))
	require.NoError(t, repo.Save(ctx, c))

	t.Run("finds by phone", func(t *testing.T) {
		found, err := repo.FindByContact(ctx, tenantID, "+15551230001")
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
	})

	t.Run("falls back to email for email-shaped contacts", func(t *testing.T) {
		found, err := repo.FindByContact(ctx, tenantID, "contact@example.com")
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
	})

	t.Run("miss returns not found", func(t *testing.T) {
		_, err := repo.FindByContact(ctx, tenantID, "+15559999999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("other tenants cannot see the contact", func(t *testing.T) {
		_, err := repo.FindByContact(ctx, uuid.New(), "+15551230001")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate phone within a tenant is rejected by the database", func(t *testing.T) {
		dup, err := customer.NewCustomer(tenantID, "CUST-101", "Duplicate Phone")
		require.NoError(t, err)
		require.NoError(t, dup.UpdateProfile("Duplicate Phone", "+15551230001", "", ""))
		assert.Error(t, repo.Save(ctx, dup))

		other, err := customer.NewCustomer(uuid.New(), "CUST-101", "Other Tenant")
		require.NoError(t, err)
		require.NoError(t, other.UpdateProfile("Other Tenant", "+15551230001", "", ""))
		assert.NoError(t, repo.Save(ctx, other))
	})
}

// TestCustomerRepository_Stats checks the aggregate receivable figures
func TestCustomerRepository_Stats(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormCustomerRepository(testDB.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	seed := func(code string, purchase, due float64) {
		c, err := customer.NewCustomer(tenantID, code, "Stats "+code)
		require.NoError(t, err)
		if purchase > 0 {
			_, err = c.RecordPurchase(
				valueobject.NewMoneyUSDFromFloat(purchase),
				valueobject.NewMoneyUSDFromFloat(due),
				uuid.New(),
			)
			require.NoError(t, err)
		}
		require.NoError(t, repo.Save(ctx, c))
	}

	seed("STAT-001", 100.00, 40.00)
	seed("STAT-002", 50.00, 0)
	seed("STAT-003", 0, 0)

	inactive, err := customer.NewCustomer(tenantID, "STAT-004", "Inactive")
	require.NoError(t, err)
	require.NoError(t, inactive.Deactivate())
	require.NoError(t, repo.Save(ctx, inactive))

	stats, err := repo.Stats(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalCustomers)
	assert.Equal(t, int64(1), stats.CustomersWithDue)
	assert.True(t, stats.TotalDue.Equal(decimal.NewFromFloat(40.00)), "total due was %s", stats.TotalDue)
	assert.True(t, stats.TotalPurchases.Equal(decimal.NewFromFloat(150.00)), "total purchases was %s", stats.TotalPurchases)
	assert.True(t, stats.AvgPurchase.Equal(decimal.NewFromFloat(75.00)), "avg purchase was %s", stats.AvgPurchase)
}
