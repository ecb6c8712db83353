package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// GormStatsRepository implements report.StatsRepository with SQL
// aggregates over the transactions and customers tables. Sums run in
// the database on the decimal columns; nothing is accumulated in
// floats.
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository creates a new GormStatsRepository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

func (r *GormStatsRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// completedPayments scopes a query to settled payment transactions in
// the filter window
func (r *GormStatsRepository) completedPayments(ctx context.Context, filter report.StatsFilter) *gorm.DB {
	return r.conn(ctx).Table("transactions t").
		Where("t.tenant_id = ?", filter.TenantID).
		Where("t.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("t.type = ?", payment.TypePayment).
		Where("t.status = ?", valueobject.PaymentStatusCompleted)
}

// GetOverallStats returns the headline summary for the period
func (r *GormStatsRepository) GetOverallStats(ctx context.Context, filter report.StatsFilter) (*report.OverallStats, error) {
	type overallResult struct {
		CompletedCount    int64
		TotalAmount       decimal.Decimal
		TotalFees         decimal.Decimal
		TotalNet          decimal.Decimal
		EstimatedFeeCount int64
	}

	var result overallResult
	err := r.completedPayments(ctx, filter).
		Select(`
			COUNT(*) as completed_count,
			COALESCE(SUM(t.amount), 0) as total_amount,
			COALESCE(SUM(t.fee_amount), 0) as total_fees,
			COALESCE(SUM(t.net_amount), 0) as total_net,
			COUNT(*) FILTER (WHERE t.fee_type = ?) as estimated_fee_count
		`, payment.FeeEstimated).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	var transactionCount int64
	err = r.conn(ctx).Table("transactions t").
		Where("t.tenant_id = ?", filter.TenantID).
		Where("t.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Count(&transactionCount).Error
	if err != nil {
		return nil, err
	}

	var refunded decimal.Decimal
	type refundResult struct {
		RefundedAmount decimal.Decimal
	}
	var rr refundResult
	err = r.conn(ctx).Table("transactions t").
		Select("COALESCE(SUM(t.amount), 0) as refunded_amount").
		Where("t.tenant_id = ?", filter.TenantID).
		Where("t.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("t.type = ?", payment.TypeRefund).
		Where("t.status = ?", valueobject.PaymentStatusCompleted).
		Scan(&rr).Error
	if err != nil {
		return nil, err
	}
	refunded = rr.RefundedAmount

	var avg decimal.Decimal
	if result.CompletedCount > 0 {
		avg = result.TotalAmount.Div(decimal.NewFromInt(result.CompletedCount)).Round(2)
	}

	return &report.OverallStats{
		PeriodStart:       filter.StartDate,
		PeriodEnd:         filter.EndDate,
		TransactionCount:  transactionCount,
		CompletedCount:    result.CompletedCount,
		TotalAmount:       result.TotalAmount,
		TotalFees:         result.TotalFees,
		TotalNet:          result.TotalNet,
		RefundedAmount:    refunded,
		AvgTransaction:    avg,
		EstimatedFeeCount: result.EstimatedFeeCount,
	}, nil
}

// GetStatusBreakdown groups payment transactions in the window by
// status. Refunds stay out so the COMPLETED bucket reconciles with the
// overall totals.
func (r *GormStatsRepository) GetStatusBreakdown(ctx context.Context, filter report.StatsFilter) ([]report.StatusBucket, error) {
	var buckets []report.StatusBucket
	err := r.conn(ctx).Table("transactions t").
		Select(`
			t.status as status,
			COUNT(*) as count,
			COALESCE(SUM(t.amount), 0) as amount
		`).
		Where("t.tenant_id = ?", filter.TenantID).
		Where("t.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("t.type = ?", payment.TypePayment).
		Group("t.status").
		Order("count DESC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// GetMethodBreakdown groups settled payments by payment method
func (r *GormStatsRepository) GetMethodBreakdown(ctx context.Context, filter report.StatsFilter) ([]report.MethodBucket, error) {
	var buckets []report.MethodBucket
	err := r.completedPayments(ctx, filter).
		Select(`
			t.method as method,
			COUNT(*) as count,
			COALESCE(SUM(t.amount), 0) as amount,
			COALESCE(SUM(t.fee_amount), 0) as fees,
			COALESCE(SUM(t.net_amount), 0) as net
		`).
		Group("t.method").
		Order("amount DESC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// GetTimeSeries groups settled payments into granularity-sized buckets.
// The result is sparse; report.FillTimeSeries inserts the zero buckets.
func (r *GormStatsRepository) GetTimeSeries(ctx context.Context, filter report.StatsFilter) ([]report.TimeBucket, error) {
	granularity := filter.Granularity
	if !granularity.IsValid() {
		granularity = report.GranularityDay
	}

	type seriesResult struct {
		PeriodStart time.Time
		Count       int64
		Amount      decimal.Decimal
		Fees        decimal.Decimal
		Net         decimal.Decimal
	}

	var results []seriesResult
	err := r.completedPayments(ctx, filter).
		Select(`
			DATE_TRUNC(?, t.created_at AT TIME ZONE 'UTC') as period_start,
			COUNT(*) as count,
			COALESCE(SUM(t.amount), 0) as amount,
			COALESCE(SUM(t.fee_amount), 0) as fees,
			COALESCE(SUM(t.net_amount), 0) as net
		`, string(granularity)).
		Group("period_start").
		Order("period_start ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	buckets := make([]report.TimeBucket, len(results))
	for i, row := range results {
		buckets[i] = report.TimeBucket{
			PeriodStart: row.PeriodStart.UTC(),
			Count:       row.Count,
			Amount:      row.Amount,
			Fees:        row.Fees,
			Net:         row.Net,
		}
	}
	return buckets, nil
}

// GetTopCustomers ranks customers by settled payment volume in the
// window, count as tie breaker
func (r *GormStatsRepository) GetTopCustomers(ctx context.Context, filter report.StatsFilter) ([]report.TopCustomer, error) {
	limit := filter.TopN
	if limit <= 0 {
		limit = 10
	}

	type topResult struct {
		CustomerID     uuid.UUID
		CustomerCode   string
		CustomerName   string
		TotalPurchases decimal.Decimal
		PurchaseCount  int64
		DueAmount      decimal.Decimal
	}

	var results []topResult
	err := r.completedPayments(ctx, filter).
		Select(`
			t.customer_id as customer_id,
			c.code as customer_code,
			c.name as customer_name,
			COALESCE(SUM(t.amount), 0) as total_purchases,
			COUNT(*) as purchase_count,
			c.due_amount as due_amount
		`).
		Joins("JOIN customers c ON c.id = t.customer_id").
		Where("t.customer_id IS NOT NULL").
		Group("t.customer_id, c.code, c.name, c.due_amount").
		Order("total_purchases DESC, purchase_count DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	top := make([]report.TopCustomer, len(results))
	for i, row := range results {
		top[i] = report.TopCustomer{
			Rank:           i + 1,
			CustomerID:     row.CustomerID,
			CustomerCode:   row.CustomerCode,
			CustomerName:   row.CustomerName,
			TotalPurchases: row.TotalPurchases,
			PurchaseCount:  row.PurchaseCount,
			DueAmount:      row.DueAmount,
		}
	}
	return top, nil
}

var _ report.StatsRepository = (*GormStatsRepository)(nil)
