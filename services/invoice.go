package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const invoiceColumns = `id, order_id, invoice_number, issue_date, due_date, subtotal, tax_amount, shipping_cost,
	total_amount, payment_status, address_line, sub_district, district, province, zipcode, country, phone,
	customer_name, tracking, created_at`

// InvoiceService writes billing snapshots. Once inserted only payment_status
// and tracking ever change.
type InvoiceService struct {
	db        *sql.DB
	addresses *AddressService
	dueDays   int
	logger    *zap.Logger
}

func NewInvoiceService(db *sql.DB, addresses *AddressService, dueDays int, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{db: db, addresses: addresses, dueDays: dueDays, logger: logger}
}

func scanInvoice(row rowScanner) (models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(&inv.ID, &inv.OrderID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate, &inv.Subtotal,
		&inv.TaxAmount, &inv.ShippingCost, &inv.TotalAmount, &inv.PaymentStatus, &inv.AddressLine,
		&inv.SubDistrict, &inv.District, &inv.Province, &inv.Zipcode, &inv.Country, &inv.Phone,
		&inv.CustomerName, &inv.Tracking, &inv.CreatedAt)
	return inv, err
}

func (s *InvoiceService) Create(ctx context.Context, req models.CreateInvoiceRequest) (models.CreateInvoiceResponse, error) {
	const op = "invoice.create"

	if err := validateAmounts(op, req.Subtotal, req.ShippingCost, req.TaxAmount, req.TotalAmount); err != nil {
		return models.CreateInvoiceResponse{}, err
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		number = NewInvoiceNumber()
	}
	issue := time.Now().UTC()
	if req.IssueDate != nil {
		issue = req.IssueDate.UTC()
	}
	due := issue.AddDate(0, 0, s.dueDays)
	if req.DueDate != nil {
		due = req.DueDate.UTC()
	}
	if due.Before(issue) {
		return models.CreateInvoiceResponse{}, apperr.Validation(op, "due_date must not be before issue_date")
	}
	status := req.PaymentStatus
	if status == "" {
		status = "pending"
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO invoices (order_id, invoice_number, issue_date, due_date, subtotal, tax_amount, shipping_cost,
			total_amount, payment_status, address_line, sub_district, district, province, zipcode, country, phone,
			customer_name, tracking)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`,
		req.OrderID, number, issue, due, req.Subtotal, req.TaxAmount, req.ShippingCost,
		req.TotalAmount, status, req.AddressLine, req.SubDistrict, req.District, req.Province, req.Zipcode,
		req.Country, req.Phone, req.CustomerName, req.Tracking,
	).Scan(&id)
	switch {
	case database.IsUniqueViolation(err):
		return models.CreateInvoiceResponse{}, apperr.Duplicate(op, "invoice_number", number, err)
	case database.IsForeignKeyViolation(err):
		return models.CreateInvoiceResponse{}, apperr.NotFound(op, "order %d not found", req.OrderID)
	case err != nil:
		s.logger.Error("Failed to create invoice", zap.Int64("order_id", req.OrderID), zap.Error(err))
		return models.CreateInvoiceResponse{}, apperr.Internal(op, err)
	}

	s.logger.Info("Invoice created",
		zap.Int64("invoice_id", id),
		zap.Int64("order_id", req.OrderID),
		zap.String("invoice_number", number),
	)
	return models.CreateInvoiceResponse{InvoiceID: id, InvoiceNumber: number}, nil
}

// CreateForOrder snapshots the order's totals and a resolved address into a
// new invoice numbered after the order. Without an explicit address the
// order's billing address is used, then its shipping address, then the
// user's default.
func (s *InvoiceService) CreateForOrder(ctx context.Context, orderID int64, addressID *int64) (models.CreateInvoiceResponse, error) {
	const op = "invoice.create_for_order"

	var (
		userID                       int64
		invoiceNo                    string
		status                       models.OrderStatus
		subtotal, tax, ship, total   decimal.Decimal
		tracking                     *string
		billingAddress, shippingAddr *int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, invoice_no, order_status, subtotal, tax_amount, shipping_cost, total_amount,
			tracking_number, billing_address_id, shipping_address_id
		FROM orders WHERE id = $1`, orderID,
	).Scan(&userID, &invoiceNo, &status, &subtotal, &tax, &ship, &total, &tracking, &billingAddress, &shippingAddr)
	if database.IsNoRows(err) {
		return models.CreateInvoiceResponse{}, apperr.NotFound(op, "order %d not found", orderID)
	}
	if err != nil {
		return models.CreateInvoiceResponse{}, apperr.Internal(op, err)
	}

	// Explicit id, else the order's billing then shipping address. The
	// user's default is the last resort.
	var candidates []*int64
	for _, id := range []*int64{addressID, billingAddress, shippingAddr} {
		if id != nil {
			candidates = append(candidates, id)
		}
		if addressID != nil {
			break
		}
	}
	candidates = append(candidates, nil)

	var (
		addr  models.UserAddress
		found bool
	)
	for _, id := range candidates {
		addr, found, err = s.addresses.Resolve(ctx, userID, id)
		if err != nil {
			return models.CreateInvoiceResponse{}, err
		}
		if found {
			break
		}
	}
	if !found {
		return models.CreateInvoiceResponse{}, apperr.Validation(op, "no address on file for user %d", userID)
	}

	return s.Create(ctx, models.CreateInvoiceRequest{
		OrderID:       orderID,
		InvoiceNumber: invoiceNo,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		ShippingCost:  ship,
		TotalAmount:   total,
		PaymentStatus: invoicePaymentStatus(status),
		AddressLine:   addr.AddressLine,
		SubDistrict:   addr.SubDistrict,
		District:      addr.District,
		Province:      addr.Province,
		Zipcode:       addr.Zipcode,
		Country:       addr.Country,
		Phone:         addr.Phone,
		CustomerName:  addr.RecipientName,
		Tracking:      tracking,
	})
}

func invoicePaymentStatus(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusPaid, models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered:
		return "paid"
	case models.OrderStatusFailed:
		return "failed"
	case models.OrderStatusCancelled:
		return "cancelled"
	}
	return "pending"
}

func (s *InvoiceService) GetByOrderID(ctx context.Context, orderID int64) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE order_id = $1 ORDER BY created_at, id", orderID)
	if err != nil {
		return nil, apperr.Internal("invoice.list", err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, apperr.Internal("invoice.list", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("invoice.list", err)
	}
	return invoices, nil
}

func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE invoice_number = $1", number))
	if database.IsNoRows(err) {
		return models.Invoice{}, apperr.NotFound("invoice.get", "invoice %s not found", number)
	}
	if err != nil {
		return models.Invoice{}, apperr.Internal("invoice.get", err)
	}
	return inv, nil
}

// UpdatePaymentStatus touches only the mutable columns. A nil tracking keeps
// the stored value.
func (s *InvoiceService) UpdatePaymentStatus(ctx context.Context, number, status string, tracking *string) (models.Invoice, error) {
	const op = "invoice.update_payment"

	status = strings.TrimSpace(status)
	if status == "" {
		return models.Invoice{}, apperr.Validation(op, "payment_status is required")
	}

	inv, err := scanInvoice(s.db.QueryRowContext(ctx,
		`UPDATE invoices SET payment_status = $1, tracking = COALESCE($2, tracking)
		WHERE invoice_number = $3
		RETURNING `+invoiceColumns, status, tracking, number))
	if database.IsNoRows(err) {
		return models.Invoice{}, apperr.NotFound(op, "invoice %s not found", number)
	}
	if err != nil {
		return models.Invoice{}, apperr.Internal(op, err)
	}

	s.logger.Info("Invoice payment updated", zap.String("invoice_number", number), zap.String("payment_status", status))
	return inv, nil
}
