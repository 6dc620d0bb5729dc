package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// GatewayStatus is the vocabulary payment gateways report back with.
type GatewayStatus string

const (
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusCompleted GatewayStatus = "completed"
	GatewayStatusFailed    GatewayStatus = "failed"
)

var gatewayToOrderStatus = map[GatewayStatus]OrderStatus{
	GatewayStatusPending:   OrderStatusPending,
	GatewayStatusCompleted: OrderStatusPaid,
	GatewayStatusFailed:    OrderStatusFailed,
}

// OrderStatusFor maps a gateway status onto the internal order status.
func (s GatewayStatus) OrderStatusFor() (OrderStatus, bool) {
	st, ok := gatewayToOrderStatus[s]
	return st, ok
}

type PaymentTransaction struct {
	ID               int64             `json:"id"`
	OrderID          int64             `json:"order_id"`
	Amount           decimal.Decimal   `json:"amount"`
	PaymentMethod    PaymentMethod     `json:"payment_method"`
	Status           TransactionStatus `json:"status"`
	GatewayReference string            `json:"gateway_reference"`
	PaymentDate      *time.Time        `json:"payment_date,omitempty"`
	Notes            string            `json:"notes"`
	CreatedAt        time.Time         `json:"created_at"`
}

type LogPaymentRequest struct {
	OrderID          int64           `json:"order_id" binding:"required,gt=0"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    PaymentMethod   `json:"payment_method" binding:"required,payment_method"`
	Status           string          `json:"status" binding:"omitempty,txn_status"`
	GatewayReference string          `json:"gateway_reference" binding:"omitempty,max=128"`
	PaymentDate      string          `json:"payment_date"`
	Notes            string          `json:"notes"`
}

type UpdateTransactionStatusRequest struct {
	Status string `json:"status" binding:"required,txn_status"`
	Notes  string `json:"notes"`
}

type PaymentSummary struct {
	OrderID          int64           `json:"order_id"`
	TransactionCount int             `json:"transaction_count"`
	CompletedAmount  decimal.Decimal `json:"completed_amount"`
	FailedCount      int             `json:"failed_count"`
	LastPaymentDate  *time.Time      `json:"last_payment_date,omitempty"`
}
