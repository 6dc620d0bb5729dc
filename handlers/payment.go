package handlers

import (
	"net/http"

	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/KunArthit/petterrain-api-sub000/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments *services.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments *services.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

func (h *PaymentHandler) LogTransaction(c *gin.Context) {
	var req models.LogPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	txn, err := h.payments.Log(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *PaymentHandler) UpdateTransactionStatus(c *gin.Context) {
	var req models.UpdateTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	txn, err := h.payments.UpdateStatusByReference(c.Request.Context(), c.Param("reference"), req.Status, req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	txn, err := h.payments.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *PaymentHandler) ListOrderTransactions(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	txns, err := h.payments.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *PaymentHandler) OrderPaymentSummary(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.payments.Summary(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
