package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var invoiceCols = []string{
	"id", "order_id", "invoice_number", "issue_date", "due_date", "subtotal", "tax_amount", "shipping_cost",
	"total_amount", "payment_status", "address_line", "sub_district", "district", "province", "zipcode", "country",
	"phone", "customer_name", "tracking", "created_at",
}

func invoiceRow(id int64, number, status string) []driver.Value {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, int64(42), number, now, now.AddDate(0, 0, 30), "100.00", "10.00", "7.00",
		"117.00", status, "99 Sukhumvit Rd", "Khlong Toei", "Khlong Toei", "Bangkok", "10110", "TH",
		"0812345678", "Somchai", nil, now,
	}
}

func newInvoiceService(t *testing.T) (*InvoiceService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)
	return NewInvoiceService(db, NewAddressService(db, logger), 30, logger), mock
}

func sampleInvoiceRequest() models.CreateInvoiceRequest {
	return models.CreateInvoiceRequest{
		OrderID:       42,
		InvoiceNumber: "INV-TEST",
		Subtotal:      decimal.NewFromInt(100),
		TaxAmount:     decimal.NewFromInt(10),
		ShippingCost:  decimal.NewFromInt(7),
		TotalAmount:   decimal.NewFromInt(117),
		AddressLine:   "99 Sukhumvit Rd",
		Province:      "Bangkok",
		CustomerName:  "Somchai",
	}
}

func TestCreateInvoice(t *testing.T) {
	svc, mock := newInvoiceService(t)

	mock.ExpectQuery("INSERT INTO invoices").
		WithArgs(int64(42), "INV-TEST", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"pending", "99 Sukhumvit Rd", "", "", "Bangkok", "", "", "", "Somchai", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	resp, err := svc.Create(context.Background(), sampleInvoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(9), resp.InvoiceID)
	assert.Equal(t, "INV-TEST", resp.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceDuplicateNumber(t *testing.T) {
	svc, mock := newInvoiceService(t)

	mock.ExpectQuery("INSERT INTO invoices").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "invoices_invoice_number_key"})

	_, err := svc.Create(context.Background(), sampleInvoiceRequest())

	require.True(t, errors.Is(err, apperr.ErrDuplicateReference))
	e, _ := apperr.As(err)
	assert.Equal(t, "invoice_number", e.Details["field"])
	assert.Equal(t, "INV-TEST", e.Details["value"])
}

func TestCreateInvoiceRejectsDueBeforeIssue(t *testing.T) {
	svc, mock := newInvoiceService(t)

	req := sampleInvoiceRequest()
	issue := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 0, -1)
	req.IssueDate, req.DueDate = &issue, &due

	_, err := svc.Create(context.Background(), req)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceForOrderSnapshotsAddress(t *testing.T) {
	svc, mock := newInvoiceService(t)

	mock.ExpectQuery("SELECT user_id, invoice_no, order_status").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "invoice_no", "order_status", "subtotal", "tax_amount", "shipping_cost", "total_amount",
			"tracking_number", "billing_address_id", "shipping_address_id",
		}).AddRow(int64(7), "INV-TEST", "paid", "100.00", "10.00", "7.00", "117.00", nil, int64(3), nil))
	mock.ExpectQuery("FROM user_addresses WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(int64(3), int64(7)).
		WillReturnRows(addressRow(3, "billing", false))
	mock.ExpectQuery("INSERT INTO invoices").
		WithArgs(int64(42), "INV-TEST", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"paid", "99 Sukhumvit Rd", "Khlong Toei", "Khlong Toei", "Bangkok", "10110", "TH", "0812345678", "Somchai", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	resp, err := svc.CreateForOrder(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, "INV-TEST", resp.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceForOrderFallsBackToDefaultAddress(t *testing.T) {
	svc, mock := newInvoiceService(t)

	mock.ExpectQuery("SELECT user_id, invoice_no, order_status").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "invoice_no", "order_status", "subtotal", "tax_amount", "shipping_cost", "total_amount",
			"tracking_number", "billing_address_id", "shipping_address_id",
		}).AddRow(int64(7), "INV-TEST", "pending", "100.00", "10.00", "7.00", "117.00", nil, int64(3), nil))
	mock.ExpectQuery("FROM user_addresses WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows(addressCols))
	mock.ExpectQuery("FROM user_addresses WHERE user_id = \\$1 AND is_default").
		WithArgs(int64(7)).
		WillReturnRows(addressRow(5, "shipping", true))
	mock.ExpectQuery("INSERT INTO invoices").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	resp, err := svc.CreateForOrder(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.InvoiceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceForOrderWithoutAddress(t *testing.T) {
	svc, mock := newInvoiceService(t)

	mock.ExpectQuery("SELECT user_id, invoice_no, order_status").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "invoice_no", "order_status", "subtotal", "tax_amount", "shipping_cost", "total_amount",
			"tracking_number", "billing_address_id", "shipping_address_id",
		}).AddRow(int64(7), "INV-TEST", "pending", "100.00", "10.00", "7.00", "117.00", nil, nil, nil))
	mock.ExpectQuery("FROM user_addresses WHERE user_id = \\$1 AND is_default").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(addressCols))

	_, err := svc.CreateForOrder(context.Background(), 42, nil)

	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Contains(t, err.Error(), "no address on file")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInvoicesByOrderID(t *testing.T) {
	svc, mock := newInvoiceService(t)

	mock.ExpectQuery("FROM invoices WHERE order_id = \\$1 ORDER BY created_at, id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow(invoiceRow(1, "INV-A", "pending")...).
			AddRow(invoiceRow(2, "INV-B", "paid")...))

	invoices, err := svc.GetByOrderID(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-A", invoices[0].InvoiceNumber)
	assert.True(t, decimal.NewFromInt(117).Equal(invoices[1].TotalAmount))
}

func TestUpdateInvoicePaymentStatus(t *testing.T) {
	svc, mock := newInvoiceService(t)
	tracking := "TH123"

	mock.ExpectQuery("UPDATE invoices SET payment_status = \\$1, tracking = COALESCE\\(\\$2, tracking\\)").
		WithArgs("paid", "TH123", "INV-A").
		WillReturnRows(sqlmock.NewRows(invoiceCols).AddRow(invoiceRow(1, "INV-A", "paid")...))

	inv, err := svc.UpdatePaymentStatus(context.Background(), "INV-A", "paid", &tracking)
	require.NoError(t, err)
	assert.Equal(t, "paid", inv.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInvoiceByNumberNotFound(t *testing.T) {
	svc, mock := newInvoiceService(t)

	mock.ExpectQuery("FROM invoices WHERE invoice_number = \\$1").
		WithArgs("INV-NONE").
		WillReturnRows(sqlmock.NewRows(invoiceCols))

	_, err := svc.GetByNumber(context.Background(), "INV-NONE")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
