package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"commissionflow/internal/dto"
	"commissionflow/internal/model"
	"commissionflow/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	out []byte
	err error
}

func (f *fakeRenderer) RenderStatement(_ *model.PayoutRun) ([]byte, error) {
	return f.out, f.err
}

var _ service.StatementRenderer = (*fakeRenderer)(nil)

func seedApprovedCalc(repo *stubCalcRepo, orgID uuid.UUID, amount int64, txDate time.Time, deltas ...int64) *model.CommissionCalculation {
	c := seedCalc(repo, orgID, model.CalcStatusApproved, amount)
	c.Transaction = &model.SalesTransaction{ID: c.TransactionID, OrganizationID: orgID, Date: txDate}
	for _, d := range deltas {
		c.Adjustments = append(c.Adjustments, model.CommissionAdjustment{
			ID:            uuid.New(),
			CalculationID: c.ID,
			Delta:         decimal.NewFromInt(d),
			Reason:        "test adjustment",
		})
	}
	return c
}

func TestCreatePayoutRunTotalsNetAmounts(t *testing.T) {
	calcs := newStubCalcRepo()
	payouts := newStubPayoutRepo()
	svc := service.NewPayoutService(payouts, calcs, &fakeRenderer{})
	orgID := uuid.New()
	actor := uuid.New()

	mid := seedApprovedCalc(calcs, orgID, 100, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	// The period end date is inclusive.
	last := seedApprovedCalc(calcs, orgID, 200, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), -50)
	outside := seedApprovedCalc(calcs, orgID, 999, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	resp, err := svc.CreateRun(context.Background(), orgID, actor, dto.CreatePayoutRunRequest{
		PeriodStart: "2026-03-01",
		PeriodEnd:   "2026-03-31",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(250)), "100 + (200 - 50), got %s", resp.TotalAmount)
	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.CompletedAt)

	runID := uuid.MustParse(resp.ID)
	assert.Equal(t, model.CalcStatusPaid, calcs.calcs[mid.ID].Status)
	require.NotNil(t, calcs.calcs[last.ID].PayoutRunID)
	assert.Equal(t, runID, *calcs.calcs[last.ID].PayoutRunID)
	assert.Nil(t, calcs.calcs[outside.ID].PayoutRunID, "calculations outside the period stay approved")
	assert.Equal(t, model.CalcStatusApproved, calcs.calcs[outside.ID].Status)
}

func TestCreatePayoutRunSkipsAlreadyPaid(t *testing.T) {
	calcs := newStubCalcRepo()
	payouts := newStubPayoutRepo()
	svc := service.NewPayoutService(payouts, calcs, &fakeRenderer{})
	orgID := uuid.New()

	seedApprovedCalc(calcs, orgID, 100, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	paid := seedApprovedCalc(calcs, orgID, 400, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	prior := uuid.New()
	paid.PayoutRunID = &prior
	paid.Status = model.CalcStatusPaid

	resp, err := svc.CreateRun(context.Background(), orgID, uuid.New(), dto.CreatePayoutRunRequest{
		PeriodStart: "2026-03-01",
		PeriodEnd:   "2026-03-31",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(100)))
}

func TestCreatePayoutRunEmptyPeriodFails(t *testing.T) {
	calcs := newStubCalcRepo()
	payouts := newStubPayoutRepo()
	svc := service.NewPayoutService(payouts, calcs, &fakeRenderer{})

	_, err := svc.CreateRun(context.Background(), uuid.New(), uuid.New(), dto.CreatePayoutRunRequest{
		PeriodStart: "2026-03-01",
		PeriodEnd:   "2026-03-31",
	})
	require.Error(t, err)
	assert.Empty(t, payouts.runs, "no empty run is recorded")
}

func TestCreatePayoutRunRejectsInvertedPeriod(t *testing.T) {
	svc := service.NewPayoutService(newStubPayoutRepo(), newStubCalcRepo(), &fakeRenderer{})

	_, err := svc.CreateRun(context.Background(), uuid.New(), uuid.New(), dto.CreatePayoutRunRequest{
		PeriodStart: "2026-03-31",
		PeriodEnd:   "2026-03-01",
	})
	assert.Error(t, err)
}

func TestStatementOnlyForCompletedRuns(t *testing.T) {
	calcs := newStubCalcRepo()
	payouts := newStubPayoutRepo()
	renderer := &fakeRenderer{out: []byte("%PDF-1.4")}
	svc := service.NewPayoutService(payouts, calcs, renderer)
	orgID := uuid.New()

	draft := &model.PayoutRun{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PeriodStart:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:         "draft",
	}
	payouts.runs[draft.ID] = draft

	_, _, err := svc.Statement(context.Background(), orgID, draft.ID)
	require.Error(t, err)

	payouts.runs[draft.ID].Status = "completed"
	pdf, name, err := svc.Statement(context.Background(), orgID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, "payout-20260301-20260331.pdf", name)
}

func TestStatementSurfacesRendererFailure(t *testing.T) {
	payouts := newStubPayoutRepo()
	renderer := &fakeRenderer{err: errors.New("font missing")}
	svc := service.NewPayoutService(payouts, newStubCalcRepo(), renderer)
	orgID := uuid.New()

	run := &model.PayoutRun{ID: uuid.New(), OrganizationID: orgID, Status: "completed"}
	payouts.runs[run.ID] = run

	_, _, err := svc.Statement(context.Background(), orgID, run.ID)
	assert.Error(t, err)
}
