package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"go.uber.org/zap"
)

// ReconcileService applies gateway payment outcomes to orders.
type ReconcileService struct {
	orders *OrderService
	logger *zap.Logger
}

func NewReconcileService(orders *OrderService, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{orders: orders, logger: logger}
}

// UpdatePaymentStatus maps the gateway status onto an order status
// (pending, paid or failed), writes it through the transition table and
// stores the gateway payload next to the order.
func (s *ReconcileService) UpdatePaymentStatus(ctx context.Context, invoiceNo, gatewayStatus string, details json.RawMessage) (models.PaymentStatusResponse, error) {
	const op = "reconcile.payment_status"

	gs := models.GatewayStatus(strings.ToLower(strings.TrimSpace(gatewayStatus)))
	target, ok := gs.OrderStatusFor()
	if !ok {
		return models.PaymentStatusResponse{}, apperr.Validation(op, "unknown payment status %q", gatewayStatus)
	}

	order, err := s.orders.transitionByInvoice(ctx, op, invoiceNo, target, &paymentPayload{
		gatewayStatus: string(gs),
		details:       details,
	})
	if err != nil {
		s.logger.Warn("Payment status not applied",
			zap.String("invoice_no", invoiceNo),
			zap.String("payment_status", string(gs)),
			zap.Error(err),
		)
		return models.PaymentStatusResponse{}, err
	}

	s.logger.Info("Payment status reconciled",
		zap.String("invoice_no", invoiceNo),
		zap.String("payment_status", string(gs)),
		zap.String("order_status", string(order.Status)),
	)
	return models.PaymentStatusResponse{
		InvoiceNo:     order.InvoiceNo,
		PaymentStatus: string(gs),
		OrderStatus:   order.Status,
	}, nil
}
