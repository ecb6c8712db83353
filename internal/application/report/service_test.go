package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) GetOverallStats(ctx context.Context, filter report.StatsFilter) (*report.OverallStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.OverallStats), args.Error(1)
}

func (m *mockStatsRepo) GetStatusBreakdown(ctx context.Context, filter report.StatsFilter) ([]report.StatusBucket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.StatusBucket), args.Error(1)
}

func (m *mockStatsRepo) GetMethodBreakdown(ctx context.Context, filter report.StatsFilter) ([]report.MethodBucket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.MethodBucket), args.Error(1)
}

func (m *mockStatsRepo) GetTimeSeries(ctx context.Context, filter report.StatsFilter) ([]report.TimeBucket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.TimeBucket), args.Error(1)
}

func (m *mockStatsRepo) GetTopCustomers(ctx context.Context, filter report.StatsFilter) ([]report.TopCustomer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.TopCustomer), args.Error(1)
}

func TestGetPaymentStats(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("zero fills the time series across the window", func(t *testing.T) {
		repo := new(mockStatsRepo)
		svc := NewService(repo, nil)

		day2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
		sparse := []report.TimeBucket{
			{PeriodStart: day2, Count: 3, Amount: decimal.NewFromInt(90), Fees: decimal.NewFromInt(3), Net: decimal.NewFromInt(87)},
		}

		repo.On("GetOverallStats", mock.Anything, mock.Anything).Return(&report.OverallStats{TransactionCount: 3}, nil)
		repo.On("GetStatusBreakdown", mock.Anything, mock.Anything).Return([]report.StatusBucket{}, nil)
		repo.On("GetMethodBreakdown", mock.Anything, mock.Anything).Return([]report.MethodBucket{}, nil)
		repo.On("GetTimeSeries", mock.Anything, mock.Anything).Return(sparse, nil)

		resp, err := svc.GetPaymentStats(ctx, tenantID, StatsRequest{
			StartDate: "2026-08-01",
			EndDate:   "2026-08-04",
		})
		require.NoError(t, err)

		require.Len(t, resp.TimeSeries, 4)
		assert.Zero(t, resp.TimeSeries[0].Count)
		assert.Equal(t, int64(3), resp.TimeSeries[1].Count)
		assert.Zero(t, resp.TimeSeries[2].Count)
		assert.Equal(t, "day", resp.Granularity)
	})

	t.Run("the window is inclusive of the end day", func(t *testing.T) {
		repo := new(mockStatsRepo)
		svc := NewService(repo, nil)

		repo.On("GetOverallStats", mock.Anything, mock.MatchedBy(func(f report.StatsFilter) bool {
			return f.EndDate.After(time.Date(2026, 8, 4, 23, 59, 59, 0, time.UTC)) &&
				f.EndDate.Before(time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
		})).Return(&report.OverallStats{}, nil)
		repo.On("GetStatusBreakdown", mock.Anything, mock.Anything).Return([]report.StatusBucket{}, nil)
		repo.On("GetMethodBreakdown", mock.Anything, mock.Anything).Return([]report.MethodBucket{}, nil)
		repo.On("GetTimeSeries", mock.Anything, mock.Anything).Return([]report.TimeBucket{}, nil)

		_, err := svc.GetPaymentStats(ctx, tenantID, StatsRequest{
			StartDate: "2026-08-01",
			EndDate:   "2026-08-04",
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects inverted ranges", func(t *testing.T) {
		svc := NewService(new(mockStatsRepo), nil)

		_, err := svc.GetPaymentStats(ctx, tenantID, StatsRequest{
			StartDate: "2026-08-04",
			EndDate:   "2026-08-01",
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_INPUT", derr.Code)
	})

	t.Run("rejects unknown granularity", func(t *testing.T) {
		svc := NewService(new(mockStatsRepo), nil)

		_, err := svc.GetPaymentStats(ctx, tenantID, StatsRequest{
			StartDate:   "2026-08-01",
			EndDate:     "2026-08-04",
			Granularity: "hour",
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_INPUT", derr.Code)
	})

	t.Run("rejects ranges past the cap", func(t *testing.T) {
		svc := NewService(new(mockStatsRepo), nil)

		_, err := svc.GetPaymentStats(ctx, tenantID, StatsRequest{
			StartDate: "2024-01-01",
			EndDate:   "2026-08-01",
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_INPUT", derr.Code)
	})
}

func TestGetTopCustomers(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("defaults and caps top_n", func(t *testing.T) {
		repo := new(mockStatsRepo)
		svc := NewService(repo, nil)

		repo.On("GetTopCustomers", mock.Anything, mock.MatchedBy(func(f report.StatsFilter) bool {
			return f.TopN == defaultTopN
		})).Return([]report.TopCustomer{}, nil).Once()

		_, err := svc.GetTopCustomers(ctx, tenantID, StatsRequest{
			StartDate: "2026-08-01",
			EndDate:   "2026-08-04",
		})
		require.NoError(t, err)

		repo.On("GetTopCustomers", mock.Anything, mock.MatchedBy(func(f report.StatsFilter) bool {
			return f.TopN == maxTopN
		})).Return([]report.TopCustomer{}, nil).Once()

		_, err = svc.GetTopCustomers(ctx, tenantID, StatsRequest{
			StartDate: "2026-08-01",
			EndDate:   "2026-08-04",
			TopN:      5000,
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
