package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// InitDB opens the shared pool, checks connectivity and applies the schema.
func InitDB(cfg config.DBConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, nil
}

// Migrate creates missing tables and rewrites legacy values. Every statement
// is idempotent so it runs on each start.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	res, err := db.ExecContext(ctx, "UPDATE orders SET order_status = 'delivered' WHERE order_status = 'completed'")
	if err != nil {
		return fmt.Errorf("failed to migrate order statuses: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Info("Migrated legacy order statuses", zap.Int64("rows", n))
	}
	return nil
}
