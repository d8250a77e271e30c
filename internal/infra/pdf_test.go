package infra

import (
	"testing"
	"time"
	"unicode/utf8"

	"commissionflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateNameCutsOnRunes(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 28))

	long := "A plan name that runs well past the column width"
	got := truncateName(long, 28)
	assert.Equal(t, 28, len([]rune(got)))

	// A multibyte name cut mid-character must stay valid UTF-8.
	accented := "Comisión de ventas región São Paulo águila"
	got = truncateName(accented, 28)
	assert.Equal(t, 28, len([]rune(got)))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "…", string([]rune(got)[27:]))
}

func TestRenderStatementProducesPDF(t *testing.T) {
	planName := "Plan región São Paulo with a very long descriptive name"
	now := time.Now().UTC()
	run := &model.PayoutRun{
		ID:          uuid.New(),
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:      "completed",
		CompletedAt: &now,
		Calculations: []model.CommissionCalculation{
			{
				ID:     uuid.New(),
				Amount: decimal.NewFromInt(150),
				Plan:   &model.CommissionPlan{Name: planName},
				Adjustments: []model.CommissionAdjustment{
					{Delta: decimal.NewFromInt(-25)},
				},
			},
		},
	}

	out, err := (&StatementPDF{}).RenderStatement(run)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
