package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGatewayStatusMapping(t *testing.T) {
	tests := map[models.GatewayStatus]models.OrderStatus{
		models.GatewayStatusPending:   models.OrderStatusPending,
		models.GatewayStatusCompleted: models.OrderStatusPaid,
		models.GatewayStatusFailed:    models.OrderStatusFailed,
	}
	for gs, want := range tests {
		got, ok := gs.OrderStatusFor()
		assert.True(t, ok)
		assert.Equal(t, want, got, "gateway status %s", gs)
	}

	_, ok := models.GatewayStatus("refunded").OrderStatusFor()
	assert.False(t, ok)
}

func TestReconcileCompletedMarksOrderPaid(t *testing.T) {
	orders, mock, pub := newOrderService(t)
	svc := NewReconcileService(orders, zaptest.NewLogger(t))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE invoice_no = \\$1 FOR UPDATE").
		WithArgs("INV-TEST").
		WillReturnRows(orderRows(42, "awaiting_payment"))
	mock.ExpectExec("UPDATE orders SET order_status = \\$1").
		WithArgs("paid", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_payment_details").
		WithArgs(int64(42), "completed", `{"charge_id":"ch_1"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.UpdatePaymentStatus(context.Background(), "INV-TEST", "Completed", json.RawMessage(`{"charge_id":"ch_1"}`))
	require.NoError(t, err)

	assert.Equal(t, "completed", resp.PaymentStatus)
	assert.Equal(t, models.OrderStatusPaid, resp.OrderStatus)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventOrderPaid, pub.events[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileFailedKeepsStock(t *testing.T) {
	orders, mock, _ := newOrderService(t)
	svc := NewReconcileService(orders, zaptest.NewLogger(t))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE invoice_no = \\$1 FOR UPDATE").
		WillReturnRows(orderRows(42, "pending"))
	mock.ExpectExec("UPDATE orders SET order_status = \\$1").
		WithArgs("failed", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_payment_details").
		WithArgs(int64(42), "failed", "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.UpdatePaymentStatus(context.Background(), "INV-TEST", "failed", nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, resp.OrderStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileRejectsUnknownGatewayStatus(t *testing.T) {
	orders, mock, _ := newOrderService(t)
	svc := NewReconcileService(orders, zaptest.NewLogger(t))

	_, err := svc.UpdatePaymentStatus(context.Background(), "INV-TEST", "chargeback", nil)

	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileStaleEventIsInvalidTransition(t *testing.T) {
	orders, mock, _ := newOrderService(t)
	svc := NewReconcileService(orders, zaptest.NewLogger(t))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE invoice_no = \\$1 FOR UPDATE").
		WillReturnRows(orderRows(42, "shipped"))
	mock.ExpectRollback()

	_, err := svc.UpdatePaymentStatus(context.Background(), "INV-TEST", "pending", nil)

	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}
