package handler

import (
	"errors"
	"net/http"

	"commissionflow/internal/apierror"
	"commissionflow/internal/dto"
	"commissionflow/internal/middleware"
	"commissionflow/internal/repository"
	"commissionflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CalculationsHandler struct {
	svc      service.CalculationService
	approval service.ApprovalService
}

func NewCalculationsHandler(svc service.CalculationService, approval service.ApprovalService) *CalculationsHandler {
	return &CalculationsHandler{svc: svc, approval: approval}
}

// List godoc
// @Summary      List commission calculations
// @Tags         calculations
// @Produce      json
// @Security     BearerAuth
// @Param        status  query string false "pending | approved | rejected | paid | all"
// @Param        plan_id query string false "Plan UUID"
// @Param        from    query string false "Transaction date YYYY-MM-DD"
// @Param        to      query string false "Transaction date YYYY-MM-DD"
// @Success      200 {object} dto.CalculationListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/calculations [get]
func (h *CalculationsHandler) List(c *gin.Context) {
	var filter dto.CalculationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.List(c.Request.Context(), claims.OrgUUID(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not list calculations"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Explain godoc
// @Summary      Explain a calculation
// @Description  Returns the full audit trace stored at calculation time: every rule considered, why it matched or was rejected, the tier math, and the caps applied.
// @Tags         calculations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Calculation UUID"
// @Success      200 {object} dto.TraceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/calculations/{id}/trace [get]
func (h *CalculationsHandler) Explain(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Explain(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Approve godoc
// @Summary      Approve a pending calculation
// @Description  Optimistic concurrency: the request carries the version the caller last read; a concurrent recalculation rejects the approval.
// @Tags         calculations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string             true "Calculation UUID"
// @Param        body body dto.ApproveRequest true "Last-seen version"
// @Success      200  {object} dto.CalculationResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/calculations/{id}/approve [post]
func (h *CalculationsHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.ApproveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.approval.Approve(c.Request.Context(), claims.OrgUUID(), id, req, claims.Email)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, repository.ErrVersionConflict) {
			status = http.StatusConflict
		}
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CalculationsHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.RejectRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.approval.Reject(c.Request.Context(), claims.OrgUUID(), id, req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, repository.ErrVersionConflict) {
			status = http.StatusConflict
		}
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CalculationsHandler) Adjust(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.AdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.approval.CreateAdjustment(c.Request.Context(), claims.OrgUUID(), id, claims.UserUUID(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Backfill godoc
// @Summary      Backfill missing calculations
// @Description  Evaluates every SALE transaction that has no calculation row yet and reports how many still matched nothing.
// @Tags         calculations
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.BackfillResponse
// @Router       /v1/calculations/backfill [post]
func (h *CalculationsHandler) Backfill(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.BackfillMissing(c.Request.Context(), claims.OrgUUID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
