package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	// defaultTopN is how many customers the ranking returns when the
	// caller does not say
	defaultTopN = 10

	// maxTopN caps the ranking size
	maxTopN = 100

	// maxRangeDays caps the statistics window so one request cannot
	// scan years of transactions
	maxRangeDays = 366
)

// Service runs payment and customer statistics queries
type Service struct {
	stats  report.StatsRepository
	logger *zap.Logger
}

// NewService creates a report application service
func NewService(stats report.StatsRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{stats: stats, logger: logger}
}

// GetPaymentStats returns the full statistics bundle for a period: the
// headline summary, the status and method breakdowns and a zero-filled
// time series.
func (s *Service) GetPaymentStats(ctx context.Context, tenantID uuid.UUID, req StatsRequest) (*PaymentStatsResponse, error) {
	filter, err := buildFilter(tenantID, req)
	if err != nil {
		return nil, err
	}

	overall, err := s.stats.GetOverallStats(ctx, filter)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.stats.GetStatusBreakdown(ctx, filter)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.stats.GetMethodBreakdown(ctx, filter)
	if err != nil {
		return nil, err
	}
	sparse, err := s.stats.GetTimeSeries(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &PaymentStatsResponse{
		Overall:     overall,
		ByStatus:    byStatus,
		ByMethod:    byMethod,
		TimeSeries:  report.FillTimeSeries(sparse, filter.StartDate, filter.EndDate, filter.Granularity),
		Granularity: string(filter.Granularity),
	}, nil
}

// GetTopCustomers returns the ranking of customers by lifetime
// purchases
func (s *Service) GetTopCustomers(ctx context.Context, tenantID uuid.UUID, req StatsRequest) (*TopCustomersResponse, error) {
	filter, err := buildFilter(tenantID, req)
	if err != nil {
		return nil, err
	}

	customers, err := s.stats.GetTopCustomers(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TopCustomersResponse{Customers: customers}, nil
}

// buildFilter validates the request and interprets the dates as
// inclusive UTC calendar days
func buildFilter(tenantID uuid.UUID, req StatsRequest) (report.StatsFilter, error) {
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		return report.StatsFilter{}, shared.NewDomainErrorf("INVALID_INPUT", "Malformed start_date %q, want YYYY-MM-DD", req.StartDate)
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		return report.StatsFilter{}, shared.NewDomainErrorf("INVALID_INPUT", "Malformed end_date %q, want YYYY-MM-DD", req.EndDate)
	}
	if end.Before(start) {
		return report.StatsFilter{}, shared.NewDomainError("INVALID_INPUT", "end_date cannot be before start_date")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return report.StatsFilter{}, shared.NewDomainErrorf("INVALID_INPUT", "Date range cannot exceed %d days", maxRangeDays)
	}

	granularity := report.Granularity(req.Granularity)
	if granularity == "" {
		granularity = report.GranularityDay
	}
	if !granularity.IsValid() {
		return report.StatsFilter{}, shared.NewDomainErrorf("INVALID_INPUT", "Unknown granularity %q", req.Granularity)
	}

	topN := req.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	if topN > maxTopN {
		topN = maxTopN
	}

	// the end day is inclusive, so the window runs to its last instant
	return report.StatsFilter{
		TenantID:    tenantID,
		StartDate:   start,
		EndDate:     end.AddDate(0, 0, 1).Add(-time.Nanosecond),
		Granularity: granularity,
		TopN:        topN,
	}, nil
}
