package integration

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpos/backend/internal/infrastructure/persistence"
)

// TestSequenceRepository_Integration exercises the receipt counter
// upsert against a real PostgreSQL database
func TestSequenceRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormSequenceRepository(testDB.DB)
	ctx := context.Background()

	t.Run("Next starts at 1 and increments", func(t *testing.T) {
		tenantID := uuid.New()
		for want := int64(1); want <= 3; want++ {
			got, err := repo.Next(ctx, tenantID, "receipt")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("counters are independent per tenant and name", func(t *testing.T) {
		tenant1 := uuid.New()
		tenant2 := uuid.New()

		v, err := repo.Next(ctx, tenant1, "receipt")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		v, err = repo.Next(ctx, tenant2, "receipt")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		v, err = repo.Next(ctx, tenant1, "invoice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("concurrent Next never hands out duplicates", func(t *testing.T) {
		tenantID := uuid.New()
		const workers = 20

		var (
			mu     sync.Mutex
			values []int64
			wg     sync.WaitGroup
		)
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				v, err := repo.Next(ctx, tenantID, "receipt")
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				values = append(values, v)
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Len(t, values, workers)
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		for i, v := range values {
			assert.Equal(t, int64(i+1), v)
		}
	})
}
