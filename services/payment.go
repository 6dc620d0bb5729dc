package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const paymentColumns = "id, order_id, amount, payment_method, status, gateway_reference, payment_date, notes, created_at"

// Accepted payment_date layouts, tried in order.
var paymentDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PaymentService is the append-only log of payment attempts against orders.
type PaymentService struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewPaymentService(db *sql.DB, logger *zap.Logger) *PaymentService {
	return &PaymentService{db: db, logger: logger, now: time.Now}
}

func scanPayment(row rowScanner) (models.PaymentTransaction, error) {
	var p models.PaymentTransaction
	err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.Status, &p.GatewayReference,
		&p.PaymentDate, &p.Notes, &p.CreatedAt)
	return p, err
}

// ParsePaymentDate accepts RFC3339, "2006-01-02 15:04:05" or "2006-01-02".
// Empty or unparseable input yields fallback in UTC.
func ParsePaymentDate(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range paymentDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	return fallback.UTC()
}

// NewGatewayReference is used when a caller logs a payment without one.
func NewGatewayReference() string {
	return "TXN-" + uuid.NewString()
}

func (s *PaymentService) Log(ctx context.Context, req models.LogPaymentRequest) (models.PaymentTransaction, error) {
	const op = "payment.log"

	if !req.Amount.IsPositive() {
		return models.PaymentTransaction{}, apperr.Validation(op, "amount must be positive")
	}
	if !req.PaymentMethod.Valid() {
		return models.PaymentTransaction{}, apperr.Validation(op, "unknown payment method %q", req.PaymentMethod)
	}
	status := models.TransactionStatusPending
	if req.Status != "" {
		status = models.TransactionStatus(strings.ToLower(req.Status))
		if !status.Valid() {
			return models.PaymentTransaction{}, apperr.Validation(op, "unknown transaction status %q", req.Status)
		}
	}

	ref := strings.TrimSpace(req.GatewayReference)
	if ref == "" {
		ref = NewGatewayReference()
	}
	paidAt := ParsePaymentDate(req.PaymentDate, s.now())

	txn, err := scanPayment(s.db.QueryRowContext(ctx,
		`INSERT INTO payment_transactions (order_id, amount, payment_method, status, gateway_reference, payment_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+paymentColumns,
		req.OrderID, req.Amount, req.PaymentMethod, status, ref, paidAt, req.Notes))
	switch {
	case database.IsUniqueViolation(err):
		return models.PaymentTransaction{}, apperr.Duplicate(op, "gateway_reference", ref, err)
	case database.IsForeignKeyViolation(err):
		return models.PaymentTransaction{}, apperr.NotFound(op, "order %d not found", req.OrderID)
	case err != nil:
		s.logger.Error("Failed to log payment", zap.Int64("order_id", req.OrderID), zap.Error(err))
		return models.PaymentTransaction{}, apperr.Internal(op, err)
	}

	middleware.RecordPaymentTransaction(string(status))
	s.logger.Info("Payment logged",
		zap.Int64("order_id", txn.OrderID),
		zap.String("gateway_reference", ref),
		zap.String("status", string(status)),
	)
	return txn, nil
}

// UpdateStatusByReference rewrites the status of one logged attempt. Empty
// notes keep the stored notes.
func (s *PaymentService) UpdateStatusByReference(ctx context.Context, ref, rawStatus, notes string) (models.PaymentTransaction, error) {
	const op = "payment.update_status"

	status := models.TransactionStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if !status.Valid() {
		return models.PaymentTransaction{}, apperr.Validation(op, "unknown transaction status %q", rawStatus)
	}

	txn, err := scanPayment(s.db.QueryRowContext(ctx,
		`UPDATE payment_transactions SET status = $1, notes = COALESCE(NULLIF($2, ''), notes)
		WHERE gateway_reference = $3
		RETURNING `+paymentColumns,
		status, notes, ref))
	if database.IsNoRows(err) {
		return models.PaymentTransaction{}, apperr.NotFound(op, "payment %s not found", ref)
	}
	if err != nil {
		return models.PaymentTransaction{}, apperr.Internal(op, err)
	}

	middleware.RecordPaymentTransaction(string(status))
	return txn, nil
}

// GetByOrderID lists attempts newest first.
func (s *PaymentService) GetByOrderID(ctx context.Context, orderID int64) ([]models.PaymentTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payment_transactions WHERE order_id = $1 ORDER BY created_at DESC, id DESC",
		orderID)
	if err != nil {
		return nil, apperr.Internal("payment.list", err)
	}
	defer rows.Close()

	txns := []models.PaymentTransaction{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, apperr.Internal("payment.list", err)
		}
		txns = append(txns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("payment.list", err)
	}
	return txns, nil
}

func (s *PaymentService) GetByReference(ctx context.Context, ref string) (models.PaymentTransaction, error) {
	txn, err := scanPayment(s.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payment_transactions WHERE gateway_reference = $1", ref))
	if database.IsNoRows(err) {
		return models.PaymentTransaction{}, apperr.NotFound("payment.get", "payment %s not found", ref)
	}
	if err != nil {
		return models.PaymentTransaction{}, apperr.Internal("payment.get", err)
	}
	return txn, nil
}

func (s *PaymentService) Summary(ctx context.Context, orderID int64) (models.PaymentSummary, error) {
	summary := models.PaymentSummary{OrderID: orderID}
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'failed'),
			MAX(payment_date) FILTER (WHERE status = 'completed')
		FROM payment_transactions WHERE order_id = $1`, orderID,
	).Scan(&summary.TransactionCount, &summary.CompletedAmount, &summary.FailedCount, &last)
	if err != nil {
		return models.PaymentSummary{}, apperr.Internal("payment.summary", err)
	}
	if last.Valid {
		t := last.Time.UTC()
		summary.LastPaymentDate = &t
	}
	return summary, nil
}
