package report

import (
	"github.com/retailpos/backend/internal/domain/report"
)

// StatsRequest is the query-string shape of a statistics request.
// Dates are inclusive calendar days.
type StatsRequest struct {
	StartDate   string `form:"start_date" binding:"required"`
	EndDate     string `form:"end_date" binding:"required"`
	Granularity string `form:"granularity"`
	TopN        int    `form:"top_n"`
}

// PaymentStatsResponse bundles every statistics view for one period
type PaymentStatsResponse struct {
	Overall     *report.OverallStats  `json:"overall"`
	ByStatus    []report.StatusBucket `json:"by_status"`
	ByMethod    []report.MethodBucket `json:"by_method"`
	TimeSeries  []report.TimeBucket   `json:"time_series"`
	Granularity string                `json:"granularity"`
}

// TopCustomersResponse is the ranked top-customer list
type TopCustomersResponse struct {
	Customers []report.TopCustomer `json:"customers"`
}
