package handlers

import (
	"net/http"

	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/KunArthit/petterrain-api-sub000/services"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "commerce-api/handlers"

type OrderHandler struct {
	orders     *services.OrderService
	reconciler *services.ReconcileService
	logger     *zap.Logger
}

func NewOrderHandler(orders *services.OrderService, reconciler *services.ReconcileService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:     orders,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "CreateOrder")
	defer span.End()

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
		attribute.Int("items", len(req.Items)),
	)

	resp, err := h.orders.Create(ctx, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	span.SetAttributes(attribute.Int64("order.id", resp.OrderID))
	c.JSON(http.StatusCreated, resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrderByInvoice(c *gin.Context) {
	order, err := h.orders.GetByInvoiceNo(c.Request.Context(), c.Param("invoiceNo"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "UpdateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", id), attribute.Bool("items_replaced", req.Items != nil))

	order, err := h.orders.UpdateWithItems(ctx, id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req.OrderStatus)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderStatusResponse{InvoiceNo: order.InvoiceNo, OrderStatus: order.Status})
}

func (h *OrderHandler) UpdateStatusByInvoice(c *gin.Context) {
	var req models.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.orders.UpdateStatusByInvoiceNo(c.Request.Context(), c.Param("invoiceNo"), req.OrderStatus, req.PaymentDetails)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdatePaymentStatus is the gateway callback: the gateway status is mapped
// onto the order status machine.
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "UpdatePaymentStatus")
	defer span.End()

	var req models.PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	invoiceNo := c.Param("invoiceNo")
	span.SetAttributes(
		attribute.String("invoice.no", invoiceNo),
		attribute.String("payment.status", req.PaymentStatus),
	)

	resp, err := h.reconciler.UpdatePaymentStatus(ctx, invoiceNo, req.PaymentStatus, req.PaymentDetails)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) AssignTracking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.TrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orders.AssignTracking(c.Request.Context(), id, req.TrackingNumber)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) BulkDelete(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	deleted, err := h.orders.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
