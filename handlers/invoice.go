package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/KunArthit/petterrain-api-sub000/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
	logger   *zap.Logger
}

func NewInvoiceHandler(invoices *services.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, logger: logger}
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.invoices.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreateInvoiceForOrder snapshots an order into an invoice. The body is
// optional and may only name the address to bill.
func (h *InvoiceHandler) CreateInvoiceForOrder(c *gin.Context) {
	orderID, ok := parseID(c, "orderId")
	if !ok {
		return
	}

	var req models.CreateInvoiceForOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	resp, err := h.invoices.CreateForOrder(c.Request.Context(), orderID, req.AddressID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InvoiceHandler) ListOrderInvoices(c *gin.Context) {
	orderID, ok := parseID(c, "orderId")
	if !ok {
		return
	}

	invoices, err := h.invoices.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoices.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) UpdateInvoicePayment(c *gin.Context) {
	var req models.UpdateInvoicePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	invoice, err := h.invoices.UpdatePaymentStatus(c.Request.Context(), c.Param("number"), req.PaymentStatus, req.Tracking)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}
