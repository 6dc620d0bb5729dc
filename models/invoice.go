package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a point-in-time billing snapshot. Amounts and address fields are
// copied at creation and never rewritten afterwards.
type Invoice struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentStatus string          `json:"payment_status"`
	AddressLine   string          `json:"address_line"`
	SubDistrict   string          `json:"sub_district"`
	District      string          `json:"district"`
	Province      string          `json:"province"`
	Zipcode       string          `json:"zipcode"`
	Country       string          `json:"country"`
	Phone         string          `json:"phone"`
	CustomerName  string          `json:"customer_name"`
	Tracking      *string         `json:"tracking,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CreateInvoiceRequest struct {
	OrderID       int64           `json:"order_id" binding:"required,gt=0"`
	InvoiceNumber string          `json:"invoice_number" binding:"omitempty,max=64"`
	IssueDate     *time.Time      `json:"issue_date"`
	DueDate       *time.Time      `json:"due_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentStatus string          `json:"payment_status" binding:"omitempty,max=32"`
	AddressLine   string          `json:"address_line" binding:"required"`
	SubDistrict   string          `json:"sub_district"`
	District      string          `json:"district"`
	Province      string          `json:"province"`
	Zipcode       string          `json:"zipcode"`
	Country       string          `json:"country"`
	Phone         string          `json:"phone"`
	CustomerName  string          `json:"customer_name" binding:"required"`
	Tracking      *string         `json:"tracking"`
}

type CreateInvoiceForOrderRequest struct {
	AddressID *int64 `json:"address_id"`
}

type CreateInvoiceResponse struct {
	InvoiceID     int64  `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
}

type UpdateInvoicePaymentRequest struct {
	PaymentStatus string  `json:"payment_status" binding:"required,max=32"`
	Tracking      *string `json:"tracking" binding:"omitempty,max=128"`
}
