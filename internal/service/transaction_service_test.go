package service_test

import (
	"context"
	"testing"

	"commissionflow/internal/dto"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"
	"commissionflow/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

var _ repository.ClientRepository = (*stubClientRepo)(nil)

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (s *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	clone := *c
	s.clients[c.ID] = &clone
	return nil
}

func (s *stubClientRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Client, error) {
	c, ok := s.clients[id]
	if !ok || c.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *stubClientRepo) List(_ context.Context, orgID uuid.UUID) ([]model.Client, error) {
	var out []model.Client
	for _, c := range s.clients {
		if c.OrganizationID == orgID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubClientRepo) Update(_ context.Context, c *model.Client) error {
	clone := *c
	s.clients[c.ID] = &clone
	return nil
}

func (s *stubClientRepo) SetActive(_ context.Context, orgID, id uuid.UUID, active bool) error {
	c, ok := s.clients[id]
	if !ok || c.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	c.Active = active
	return nil
}

type txFixture struct {
	*calcFixture
	clients *stubClientRepo
	txSvc   service.TransactionService
}

func buildTxSvc() *txFixture {
	base := buildCalcSvc()
	clients := newStubClientRepo()
	return &txFixture{
		calcFixture: base,
		clients:     clients,
		txSvc:       service.NewTransactionService(base.txs, clients, base.svc),
	}
}

func TestCreateTransactionCalculatesImmediately(t *testing.T) {
	f := buildTxSvc()
	plan := f.seedPlan("GROSS")
	f.seedPercentageRule(plan.ID, 10)

	resp, err := f.txSvc.Create(context.Background(), f.orgID, dto.CreateTransactionRequest{
		Type:        "SALE",
		GrossAmount: decimal.NewFromInt(1000),
		Date:        "2026-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CalculationCount)
	assert.True(t, resp.NetAmount.Equal(decimal.NewFromInt(1000)))

	n, err := f.calcs.CountByTransaction(context.Background(), f.orgID, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCreateTransactionWithoutMatchStillStores(t *testing.T) {
	f := buildTxSvc()

	resp, err := f.txSvc.Create(context.Background(), f.orgID, dto.CreateTransactionRequest{
		Type:        "SALE",
		GrossAmount: decimal.NewFromInt(500),
		Date:        "2026-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.CalculationCount)

	_, err = f.txSvc.Get(context.Background(), f.orgID, uuid.MustParse(resp.ID))
	assert.NoError(t, err, "the transaction is stored for later backfill")
}

func TestCreateTransactionRejectsNegativeSale(t *testing.T) {
	f := buildTxSvc()

	_, err := f.txSvc.Create(context.Background(), f.orgID, dto.CreateTransactionRequest{
		Type:        "SALE",
		GrossAmount: decimal.NewFromInt(-100),
		Date:        "2026-03-15",
	})
	assert.Error(t, err)
}

func TestCreateReturnReducesCommission(t *testing.T) {
	f := buildTxSvc()
	plan := f.seedPlan("GROSS")
	f.seedPercentageRule(plan.ID, 10)

	resp, err := f.txSvc.Create(context.Background(), f.orgID, dto.CreateTransactionRequest{
		Type:        "RETURN",
		GrossAmount: decimal.NewFromInt(-300),
		Date:        "2026-03-16",
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.CalculationCount)

	calcs, err := f.svc.ListByTransaction(context.Background(), f.orgID, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.Len(t, calcs, 1)
	assert.True(t, calcs[0].Amount.Equal(decimal.NewFromInt(-30)), "negative sale yields negative commission, got %s", calcs[0].Amount)
}

func TestCreateTransactionRejectsForeignClient(t *testing.T) {
	f := buildTxSvc()
	other := &model.Client{ID: uuid.New(), OrganizationID: uuid.New(), Name: "Elsewhere", Tier: "STANDARD", Active: true}
	f.clients.clients[other.ID] = other
	id := other.ID.String()

	_, err := f.txSvc.Create(context.Background(), f.orgID, dto.CreateTransactionRequest{
		Type:        "SALE",
		GrossAmount: decimal.NewFromInt(100),
		Date:        "2026-03-15",
		ClientID:    &id,
	})
	assert.EqualError(t, err, "client not found")
}
