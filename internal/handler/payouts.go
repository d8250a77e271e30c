package handler

import (
	"net/http"

	"commissionflow/internal/apierror"
	"commissionflow/internal/dto"
	"commissionflow/internal/middleware"
	"commissionflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PayoutsHandler struct{ svc service.PayoutService }

func NewPayoutsHandler(svc service.PayoutService) *PayoutsHandler {
	return &PayoutsHandler{svc: svc}
}

// Create godoc
// @Summary      Create a payout run
// @Description  Collects every approved calculation in the period, marks them paid and completes the run in one transaction.
// @Tags         payouts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePayoutRunRequest true "Period (inclusive dates)"
// @Success      201  {object} dto.PayoutRunResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/payouts [post]
func (h *PayoutsHandler) Create(c *gin.Context) {
	var req dto.CreatePayoutRunRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.CreateRun(c.Request.Context(), claims.OrgUUID(), claims.UserUUID(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PayoutsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GetRun(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PayoutsHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ListRuns(c.Request.Context(), claims.OrgUUID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not list payout runs"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Statement streams the PDF statement of a completed payout run.
func (h *PayoutsHandler) Statement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	pdf, name, err := h.svc.Statement(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
