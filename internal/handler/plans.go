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

type PlansHandler struct{ svc service.PlanService }

func NewPlansHandler(svc service.PlanService) *PlansHandler { return &PlansHandler{svc: svc} }

// Create godoc
// @Summary      Create a commission plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePlanRequest true "Plan detail"
// @Success      201  {object} dto.PlanResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/plans [post]
func (h *PlansHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.CreatePlan(c.Request.Context(), claims.OrgUUID(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PlansHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GetPlan(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlansHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ListPlans(c.Request.Context(), claims.OrgUUID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not list plans"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlansHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.UpdatePlanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.UpdatePlan(c.Request.Context(), claims.OrgUUID(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlansHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.svc.DeactivatePlan(c.Request.Context(), claims.OrgUUID(), id); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// AddRule godoc
// @Summary      Add a rule to a plan
// @Description  Validates the rule configuration (tier ordering, gate and cap consistency, scope operands, ambiguity against existing rules) before persisting. Triggers an async recalculation of the plan.
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Plan UUID"
// @Param        body body dto.CreateRuleRequest true "Rule detail"
// @Success      201  {object} dto.RuleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/plans/{id}/rules [post]
func (h *PlansHandler) AddRule(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.CreateRuleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.AddRule(c.Request.Context(), claims.OrgUUID(), planID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PlansHandler) DeactivateRule(c *gin.Context) {
	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.svc.DeactivateRule(c.Request.Context(), claims.OrgUUID(), ruleID); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
