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

type TransactionsHandler struct {
	svc  service.TransactionService
	calc service.CalculationService
}

func NewTransactionsHandler(svc service.TransactionService, calc service.CalculationService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, calc: calc}
}

// Create godoc
// @Summary      Record a sales transaction
// @Description  Stores the transaction and immediately evaluates commission for every active plan. A transaction no rule matches is stored anyway and flagged as uncalculated.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateTransactionRequest true "Transaction detail"
// @Success      201  {object} dto.TransactionResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/transactions [post]
func (h *TransactionsHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.Create(c.Request.Context(), claims.OrgUUID(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TransactionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Get(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List transactions
// @Description  Paginated list filtered by date range, type, client, project, and the uncalculated flag.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        from         query string false "Date YYYY-MM-DD"
// @Param        to           query string false "Date YYYY-MM-DD"
// @Param        type         query string false "SALE | RETURN | ADJUSTMENT | all"
// @Param        uncalculated query bool   false "Only transactions without calculations"
// @Success      200 {object} dto.TransactionListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	var filter dto.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.List(c.Request.Context(), claims.OrgUUID(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not list transactions"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Calculations returns every calculation row derived from one transaction.
func (h *TransactionsHandler) Calculations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.calc.ListByTransaction(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not list calculations"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Recalculate re-runs the engine for one transaction on demand.
func (h *TransactionsHandler) Recalculate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.calc.CalculateForTransaction(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
