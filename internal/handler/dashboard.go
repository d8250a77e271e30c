package handler

// dashboard.go — per-status commission totals for the landing page.
// The aggregate query scans the whole calculations table, so the result
// is cached in Redis for a short TTL keyed by organization.

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"commissionflow/internal/apierror"
	"commissionflow/internal/dto"
	"commissionflow/internal/middleware"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type DashboardHandler struct {
	calcs repository.CalculationRepository
	txs   repository.TransactionRepository
	rdb   *redis.Client
	ttl   time.Duration
}

func NewDashboardHandler(calcs repository.CalculationRepository, txs repository.TransactionRepository, rdb *redis.Client, ttlSeconds int) *DashboardHandler {
	return &DashboardHandler{
		calcs: calcs,
		txs:   txs,
		rdb:   rdb,
		ttl:   time.Duration(ttlSeconds) * time.Second,
	}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	ctx := c.Request.Context()
	cacheKey := "dashboard:summary:" + claims.OrganizationID

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var summary dto.DashboardSummary
			if json.Unmarshal(cached, &summary) == nil {
				c.JSON(http.StatusOK, summary)
				return
			}
		}
	}

	summary, err := h.buildSummary(ctx, claims)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not build dashboard summary"))
		return
	}

	if h.rdb != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := h.rdb.Set(ctx, cacheKey, data, h.ttl).Err(); err != nil {
				log.Warn().Err(err).Msg("dashboard cache write failed")
			}
		}
	}

	c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) buildSummary(ctx context.Context, claims *middleware.JWTClaims) (*dto.DashboardSummary, error) {
	rows, err := h.calcs.SummarizeByStatus(ctx, claims.OrgUUID())
	if err != nil {
		return nil, err
	}
	uncalculated, err := h.txs.CountUncalculated(ctx, claims.OrgUUID())
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummary{UncalculatedTransactions: uncalculated}
	for _, row := range rows {
		switch row.Status {
		case model.CalcStatusPending:
			summary.PendingAmount = row.Amount
			summary.PendingCount = row.Count
		case model.CalcStatusApproved:
			summary.ApprovedAmount = row.Amount
			summary.ApprovedCount = row.Count
		case model.CalcStatusPaid:
			summary.PaidAmount = row.Amount
			summary.PaidCount = row.Count
		}
	}
	return summary, nil
}
