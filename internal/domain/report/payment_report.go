package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Granularity is the bucket size for time-series statistics
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// IsValid reports whether the granularity is supported
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// OverallStats is the headline payment summary for a period
type OverallStats struct {
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	TransactionCount  int64           `json:"transaction_count"`
	CompletedCount    int64           `json:"completed_count"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalFees         decimal.Decimal `json:"total_fees"`
	TotalNet          decimal.Decimal `json:"total_net"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount"`
	AvgTransaction    decimal.Decimal `json:"avg_transaction"`
	EstimatedFeeCount int64           `json:"estimated_fee_count"`
}

// StatusBucket is one row of the status breakdown
type StatusBucket struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// MethodBucket is one row of the payment-method breakdown
type MethodBucket struct {
	Method string          `json:"method"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	Fees   decimal.Decimal `json:"fees"`
	Net    decimal.Decimal `json:"net"`
}

// TimeBucket is one point in the payment time series. Buckets with no
// activity are still present, zero-valued, so charts never have holes.
type TimeBucket struct {
	PeriodStart time.Time       `json:"period_start"`
	Count       int64           `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
	Fees        decimal.Decimal `json:"fees"`
	Net         decimal.Decimal `json:"net"`
}

// TopCustomer is one row of the top-customer ranking, ordered by
// lifetime purchases with purchase count as the tie breaker
type TopCustomer struct {
	Rank           int             `json:"rank"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerCode   string          `json:"customer_code"`
	CustomerName   string          `json:"customer_name"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	PurchaseCount  int64           `json:"purchase_count"`
	DueAmount      decimal.Decimal `json:"due_amount"`
}

// StatsFilter scopes a statistics query
type StatsFilter struct {
	TenantID    uuid.UUID   `json:"-"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Granularity Granularity `json:"granularity,omitempty"`
	TopN        int         `json:"top_n,omitempty"`
}

// StatsRepository runs the aggregate queries behind payment statistics.
// Implementations return sparse time series; zero filling is done by
// FillTimeSeries.
type StatsRepository interface {
	GetOverallStats(ctx context.Context, filter StatsFilter) (*OverallStats, error)
	GetStatusBreakdown(ctx context.Context, filter StatsFilter) ([]StatusBucket, error)
	GetMethodBreakdown(ctx context.Context, filter StatsFilter) ([]MethodBucket, error)
	GetTimeSeries(ctx context.Context, filter StatsFilter) ([]TimeBucket, error)
	GetTopCustomers(ctx context.Context, filter StatsFilter) ([]TopCustomer, error)
}

// BucketStart truncates t down to the start of its bucket. Weeks start
// on Monday; months on the first. All bucketing is done in UTC.
func BucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case GranularityWeek:
		day := t.Truncate(24 * time.Hour)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(24 * time.Hour)
	}
}

// NextBucket returns the start of the bucket after start
func NextBucket(start time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// FillTimeSeries expands a sparse series into a dense one covering
// [start, end], inserting zero-valued buckets where the query returned
// nothing. The sparse input must already be bucket-aligned and sorted.
func FillTimeSeries(sparse []TimeBucket, start, end time.Time, g Granularity) []TimeBucket {
	if end.Before(start) {
		return []TimeBucket{}
	}

	byStart := make(map[time.Time]TimeBucket, len(sparse))
	for _, b := range sparse {
		byStart[b.PeriodStart.UTC()] = b
	}

	var out []TimeBucket
	last := BucketStart(end, g)
	for cursor := BucketStart(start, g); !cursor.After(last); cursor = NextBucket(cursor, g) {
		if b, ok := byStart[cursor]; ok {
			out = append(out, b)
			continue
		}
		out = append(out, TimeBucket{
			PeriodStart: cursor,
			Amount:      decimal.Zero,
			Fees:        decimal.Zero,
			Net:         decimal.Zero,
		})
	}
	return out
}
