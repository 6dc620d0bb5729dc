package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderPaid          = "order_paid"
	EventOrderFailed        = "order_failed"
	EventOrderCancelled     = "order_cancelled"
	EventOrderShipped       = "order_shipped"
	EventTrackingAssigned   = "order_tracking_assigned"
)

// OrderEvent is published after an order write commits.
type OrderEvent struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	InvoiceNo   string          `json:"invoice_no"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Tracking    string          `json:"tracking_number,omitempty"`
	EventType   string          `json:"event_type"`
}

// PaymentEvent is what gateways (or the payment worker) publish to report
// the outcome of a charge against an order invoice.
type PaymentEvent struct {
	InvoiceNo        string          `json:"invoice_no"`
	PaymentStatus    string          `json:"payment_status"`
	GatewayReference string          `json:"gateway_reference"`
	Details          json.RawMessage `json:"details,omitempty"`
}

// EventTypeFor picks the order event type for a status write.
func EventTypeFor(status OrderStatus) string {
	switch status {
	case OrderStatusPaid:
		return EventOrderPaid
	case OrderStatusFailed:
		return EventOrderFailed
	case OrderStatusCancelled:
		return EventOrderCancelled
	case OrderStatusShipped:
		return EventOrderShipped
	}
	return EventOrderStatusChanged
}
