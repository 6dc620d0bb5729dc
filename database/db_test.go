package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestMigrateCreatesSchemaAndRewritesCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE orders SET order_status = 'delivered' WHERE order_status = 'completed'").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, Migrate(context.Background(), db, logger))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateSchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnError(fmt.Errorf("permission denied"))

	err = Migrate(context.Background(), db, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "failed to create tables")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "invoices_invoice_number_key"})
	fk := &pq.Error{Code: "23503"}

	assert.True(t, IsUniqueViolation(unique))
	assert.Equal(t, "invoices_invoice_number_key", Constraint(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsCheckViolation(fmt.Errorf("plain")))
}
