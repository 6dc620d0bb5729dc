package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusFailed          OrderStatus = "failed"

	// OrderStatusCompleted is a legacy alias stored by older clients; it is
	// normalized to OrderStatusDelivered on input and migrated at startup.
	OrderStatusCompleted OrderStatus = "completed"
)

var orderStatuses = map[OrderStatus]bool{
	OrderStatusPending:         true,
	OrderStatusAwaitingPayment: true,
	OrderStatusPaid:            true,
	OrderStatusProcessing:      true,
	OrderStatusShipped:         true,
	OrderStatusDelivered:       true,
	OrderStatusCancelled:       true,
	OrderStatusFailed:          true,
}

// NormalizeOrderStatus lower-cases s and maps the legacy alias. The second
// result is false when s is not a known status.
func NormalizeOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == OrderStatusCompleted {
		st = OrderStatusDelivered
	}
	return st, orderStatuses[st]
}

// PaymentMethod is empty on orders created before checkout picks one.
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodPromptPay      PaymentMethod = "promptpay"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodPayPal         PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodBankTransfer, PaymentMethodPromptPay,
		PaymentMethodCashOnDelivery, PaymentMethodPayPal:
		return true
	}
	return false
}

type Order struct {
	ID                int64           `json:"id"`
	InvoiceNo         string          `json:"invoice_no"`
	UserID            int64           `json:"user_id"`
	Status            OrderStatus     `json:"order_status"`
	IsBulkOrder       bool            `json:"is_bulk_order"`
	BulkOrderType     *string         `json:"bulk_order_type,omitempty"`
	PaymentMethod     PaymentMethod   `json:"payment_method,omitempty"`
	ShippingAddressID *int64          `json:"shipping_address_id,omitempty"`
	BillingAddressID  *int64          `json:"billing_address_id,omitempty"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TrackingNumber    *string         `json:"tracking_number,omitempty"`
	Notes             string          `json:"notes"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Items             []OrderItem     `json:"items,omitempty"`
	PaymentDetails    *PaymentDetails `json:"payment_details,omitempty"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PaymentDetails is the structured gateway payload kept per order.
type PaymentDetails struct {
	OrderID       int64           `json:"order_id"`
	GatewayStatus string          `json:"gateway_status"`
	Details       json.RawMessage `json:"details"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderItemInput struct {
	ProductID int64           `json:"product_id" binding:"required,gt=0"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CreateOrderRequest struct {
	UserID            int64            `json:"user_id" binding:"required,gt=0"`
	InvoiceNo         string           `json:"invoice_no" binding:"omitempty,max=64"`
	OrderStatus       string           `json:"order_status" binding:"omitempty,order_status"`
	IsBulkOrder       bool             `json:"is_bulk_order"`
	BulkOrderType     *string          `json:"bulk_order_type" binding:"omitempty,oneof=solution equipment"`
	PaymentMethod     PaymentMethod    `json:"payment_method" binding:"omitempty,payment_method"`
	ShippingAddressID *int64           `json:"shipping_address_id"`
	BillingAddressID  *int64           `json:"billing_address_id"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	ShippingCost      decimal.Decimal  `json:"shipping_cost"`
	TaxAmount         decimal.Decimal  `json:"tax_amount"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	TrackingNumber    *string          `json:"tracking_number"`
	Notes             string           `json:"notes"`
	Items             []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type CreateOrderResponse struct {
	OrderID   int64  `json:"order_id"`
	InvoiceNo string `json:"invoice_no"`
}

// UpdateOrderRequest lists every column an update may touch. A nil field is
// left unchanged; a non-nil Items replaces the full item set.
type UpdateOrderRequest struct {
	OrderStatus       *string           `json:"order_status" binding:"omitempty,order_status"`
	PaymentMethod     *PaymentMethod    `json:"payment_method" binding:"omitempty,payment_method"`
	IsBulkOrder       *bool             `json:"is_bulk_order"`
	BulkOrderType     *string           `json:"bulk_order_type" binding:"omitempty,oneof=solution equipment"`
	ShippingAddressID *int64            `json:"shipping_address_id"`
	BillingAddressID  *int64            `json:"billing_address_id"`
	Subtotal          *decimal.Decimal  `json:"subtotal"`
	ShippingCost      *decimal.Decimal  `json:"shipping_cost"`
	TaxAmount         *decimal.Decimal  `json:"tax_amount"`
	TotalAmount       *decimal.Decimal  `json:"total_amount"`
	TrackingNumber    *string           `json:"tracking_number"`
	Notes             *string           `json:"notes"`
	Items             *[]OrderItemInput `json:"items" binding:"omitempty,dive"`
}

type PaymentStatusRequest struct {
	PaymentStatus  string          `json:"payment_status" binding:"required,gateway_status"`
	PaymentDetails json.RawMessage `json:"payment_details"`
}

type PaymentStatusResponse struct {
	InvoiceNo     string      `json:"invoice_no"`
	PaymentStatus string      `json:"payment_status"`
	OrderStatus   OrderStatus `json:"order_status"`
}

type OrderStatusRequest struct {
	OrderStatus    string          `json:"order_status" binding:"required,order_status"`
	PaymentDetails json.RawMessage `json:"payment_details"`
}

type OrderStatusResponse struct {
	InvoiceNo   string      `json:"invoice_no"`
	OrderStatus OrderStatus `json:"order_status"`
}

type TrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=128"`
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,dive,gt=0"`
}
