package infra

// pdf.go — payout statement generation using go-pdf/fpdf.
// One A4 page per run (overflowing to more as needed) with:
//   - Period header
//   - Per-calculation table (calculation, plan, amount, adjustments, net)
//   - Bold grand total

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"commissionflow/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// StatementPDF renders payout run statements. When storagePath is
// non-empty a copy of every rendered statement is written there.
type StatementPDF struct {
	storagePath string
}

func NewStatementPDF(storagePath string) *StatementPDF {
	return &StatementPDF{storagePath: storagePath}
}

// RenderStatement produces the PDF bytes for a completed payout run.
// The run must be loaded with its calculations and their adjustments.
func (s *StatementPDF) RenderStatement(run *model.PayoutRun) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Commission Payout Statement", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	period := fmt.Sprintf("Period: %s to %s",
		run.PeriodStart.Format("2006-01-02"), run.PeriodEnd.Format("2006-01-02"))
	pdf.CellFormat(contentW, 6, period, "", 1, "C", false, 0, "")
	if run.CompletedAt != nil {
		pdf.CellFormat(contentW, 6, "Completed: "+run.CompletedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// ── Table header ─────────────────────────────────────────────────────────
	col1 := contentW * 0.28 // calculation
	col2 := contentW * 0.27 // plan
	col3 := contentW * 0.15 // amount
	col4 := contentW * 0.15 // adjustments
	col5 := contentW * 0.15 // net

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 7, "Calculation", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "Plan", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 7, "Amount", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 7, "Adjustments", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col5, 7, "Net", "B", 1, "R", false, 0, "")

	// ── Rows ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 8)
	total := decimal.Zero
	for i := range run.Calculations {
		c := &run.Calculations[i]
		adjTotal := decimal.Zero
		for _, a := range c.Adjustments {
			adjTotal = adjTotal.Add(a.Delta)
		}
		net := c.Amount.Add(adjTotal)
		total = total.Add(net)

		planName := c.PlanID.String()[:8]
		if c.Plan != nil {
			planName = c.Plan.Name
		}
		planName = truncateName(planName, 28)

		pdf.CellFormat(col1, 6, c.ID.String()[:8], "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, planName, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+c.Amount.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+adjTotal.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col5, 6, "$"+net.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3+col4, 8, fmt.Sprintf("TOTAL (%d calculations):", len(run.Calculations)), "", 0, "L", false, 0, "")
	pdf.CellFormat(col5, 8, "$"+total.StringFixed(2), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render statement: %w", err)
	}

	if s.storagePath != "" {
		if err := os.MkdirAll(s.storagePath, 0755); err == nil {
			name := fmt.Sprintf("payout_%s.pdf", run.ID)
			_ = os.WriteFile(filepath.Join(s.storagePath, name), buf.Bytes(), 0644)
		}
	}

	return buf.Bytes(), nil
}

// truncateName shortens a plan name to max characters for the statement
// table, cutting on runes so a multibyte name does not render garbled.
func truncateName(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
