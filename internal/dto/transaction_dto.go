package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ───────────────────────────────────────────────────────────

// TransactionFilter is bound from the query string of GET /v1/transactions.
type TransactionFilter struct {
	From      string `form:"from"`  // YYYY-MM-DD
	To        string `form:"to"`    // YYYY-MM-DD
	Type      string `form:"type"`  // SALE | RETURN | ADJUSTMENT | all
	ClientID  string `form:"client_id"`
	ProjectID string `form:"project_id"`
	// Uncalculated limits the list to transactions without any calculation,
	// surfaced for manual review and backfill.
	Uncalculated bool `form:"uncalculated"`
	Page         int  `form:"page,default=1"   validate:"min=1"`
	Limit        int  `form:"limit,default=50" validate:"min=1,max=200"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateTransactionRequest struct {
	Type              string          `json:"type"                validate:"required,oneof=SALE RETURN ADJUSTMENT"`
	GrossAmount       decimal.Decimal `json:"gross_amount"        validate:"required"`
	DiscountTotal     decimal.Decimal `json:"discount_total"`
	Date              string          `json:"date"                validate:"required,datetime=2006-01-02"`
	ClientID          *string         `json:"client_id"           validate:"omitempty,uuid"`
	ProjectID         *string         `json:"project_id"          validate:"omitempty,uuid"`
	ProductCategoryID *string         `json:"product_category_id" validate:"omitempty,uuid"`
	InvoiceNumber     *string         `json:"invoice_number"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionResponse struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	GrossAmount       decimal.Decimal `json:"gross_amount"`
	DiscountTotal     decimal.Decimal `json:"discount_total"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	Date              string          `json:"date"`
	ClientID          *string         `json:"client_id,omitempty"`
	ClientName        string          `json:"client_name,omitempty"`
	ProjectID         *string         `json:"project_id,omitempty"`
	ProjectName       string          `json:"project_name,omitempty"`
	ProductCategoryID *string         `json:"product_category_id,omitempty"`
	InvoiceNumber     *string         `json:"invoice_number,omitempty"`
	CalculationCount  int             `json:"calculation_count"`
	CreatedAt         string          `json:"created_at"`
}
