package dto

import "github.com/shopspring/decimal"

type CreatePayoutRunRequest struct {
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end"   validate:"required,datetime=2006-01-02"`
}

type PayoutRunResponse struct {
	ID          string          `json:"id"`
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
	Status      string          `json:"status"`
	CompletedAt *string         `json:"completed_at,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// DashboardSummary aggregates calculation totals per status for the
// dashboard landing page. Served from a short-lived Redis cache.
type DashboardSummary struct {
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	PendingCount   int64           `json:"pending_count"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	ApprovedCount  int64           `json:"approved_count"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaidCount      int64           `json:"paid_count"`
	// UncalculatedTransactions counts SALE transactions with no
	// calculation row — candidates for backfill.
	UncalculatedTransactions int64 `json:"uncalculated_transactions"`
}
