package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ───────────────────────────────────────────────────────────

// CalculationFilter is bound from the query string of GET /v1/calculations.
type CalculationFilter struct {
	Status string `form:"status"` // pending | approved | rejected | paid | all
	PlanID string `form:"plan_id"`
	From   string `form:"from"` // transaction date YYYY-MM-DD
	To     string `form:"to"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CalculationListResponse struct {
	Data  []CalculationResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type CalculationResponse struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	PlanID        string          `json:"plan_id"`
	PlanName      string          `json:"plan_name,omitempty"`
	RuleID        string          `json:"rule_id"`
	Amount        decimal.Decimal `json:"amount"`
	NetAmount     decimal.Decimal `json:"net_amount"` // amount + adjustments
	Status        string          `json:"status"`
	Version       int             `json:"version"`
	CalculatedAt  string          `json:"calculated_at"`

	Adjustments []AdjustmentResponse `json:"adjustments,omitempty"`
}

// TraceResponse returns the stored engine trace verbatim; the trace is
// already versioned and strongly typed at write time.
type TraceResponse struct {
	CalculationID string          `json:"calculation_id"`
	Trace         json.RawMessage `json:"trace"`
}

// ─── Approval / adjustment requests ──────────────────────────────────────────

// ApproveRequest carries the caller's last-seen version for the
// optimistic-concurrency check.
type ApproveRequest struct {
	Version int `json:"version" validate:"required,min=1"`
}

type RejectRequest struct {
	Version int    `json:"version" validate:"required,min=1"`
	Reason  string `json:"reason"  validate:"required,min=5"`
}

type AdjustmentRequest struct {
	Delta  decimal.Decimal `json:"delta"  validate:"required"`
	Reason string          `json:"reason" validate:"required,min=5"`
}

type AdjustmentResponse struct {
	ID        string          `json:"id"`
	Delta     decimal.Decimal `json:"delta"`
	Reason    string          `json:"reason"`
	AppliedBy string          `json:"applied_by"`
	CreatedAt string          `json:"created_at"`
}

// BackfillResponse summarizes a missing-commissions backfill pass.
type BackfillResponse struct {
	Scanned    int `json:"scanned"`
	Calculated int `json:"calculated"`
	Unmatched  int `json:"unmatched"`
}
