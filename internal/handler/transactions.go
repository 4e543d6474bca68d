package handler

import (
	"net/http"

	"lanepos/internal/apierror"
	"lanepos/internal/dto"
	"lanepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TransactionsHandler struct {
	ledger  service.LedgerService
	refunds service.RefundService
}

func NewTransactionsHandler(ledger service.LedgerService, refunds service.RefundService) *TransactionsHandler {
	return &TransactionsHandler{ledger: ledger, refunds: refunds}
}

// Open godoc
// @Summary      Open a transaction
// @Description  Creates an empty open transaction with zero totals.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      201 {object} dto.TransactionResponse
// @Router       /v1/transactions [post]
func (h *TransactionsHandler) Open(c *gin.Context) {
	resp, err := h.ledger.Open(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AddLine godoc
// @Summary      Add a line to an open transaction
// @Description  Resolves the barcode, snapshots price and tax rate into a new line, and recomputes totals.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string             true "Transaction UUID"
// @Param        body body dto.AddLineRequest true "Line to add"
// @Success      200 {object} dto.TransactionResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/transactions/{id}/lines [post]
func (h *TransactionsHandler) AddLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.AddLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.AddLine(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize godoc
// @Summary      Finalize a transaction
// @Description  Commits the sale: records the cash payment, decrements stock, returns change due. Irreversible.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string              true "Transaction UUID"
// @Param        body body dto.FinalizeRequest true "Cash tendered"
// @Success      200 {object} dto.FinalizeResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/transactions/{id}/finalize [post]
func (h *TransactionsHandler) Finalize(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.FinalizeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Finalize(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Cancel an open transaction
// @Description  Permanently deletes an open transaction and its lines. Only open transactions can be cancelled.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/transactions/{id} [delete]
func (h *TransactionsHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.ledger.Cancel(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get godoc
// @Summary      Get a transaction
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction UUID"
// @Success      200 {object} dto.TransactionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/transactions/{id} [get]
func (h *TransactionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List transactions
// @Description  Returns finalized and refunded sales newest-first with derived refund status. Reversal transactions are excluded.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "finalized | refunded | all"
// @Param        limit  query int    false "Max rows (default 50)"
// @Success      200 {object} dto.TransactionListResponse
// @Router       /v1/transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	var filter dto.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refund godoc
// @Summary      Refund lines of a finalized transaction
// @Description  Marks the selected lines refunded, records a negative cash payment on the reversal transaction, and restocks the items. Each line can be refunded once.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string            true "Original transaction UUID"
// @Param        body body dto.RefundRequest true "Line ids to refund"
// @Success      200 {object} dto.RefundResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/transactions/{id}/refund [post]
func (h *TransactionsHandler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.RefundRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.refunds.Refund(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
