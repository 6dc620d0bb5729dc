package services

import (
	"context"
	"database/sql"
	"sort"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"go.uber.org/zap"
)

// StockService adjusts products.stock_quantity. All decrements go through a
// conditional UPDATE so stock can never drop below zero, even under
// concurrent orders.
type StockService struct {
	db     *sql.DB
	cache  ProductCache
	logger *zap.Logger
}

func NewStockService(db *sql.DB, cache ProductCache, logger *zap.Logger) *StockService {
	return &StockService{db: db, cache: cache, logger: logger}
}

func (s *StockService) CheckAvailability(ctx context.Context, productID int64, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, apperr.Validation("stock.check", "quantity must be positive, got %d", quantity)
	}

	var stock int
	err := s.db.QueryRowContext(ctx, "SELECT stock_quantity FROM products WHERE id = $1", productID).Scan(&stock)
	if database.IsNoRows(err) {
		return false, apperr.NotFound("stock.check", "product %d not found", productID)
	}
	if err != nil {
		return false, apperr.Internal("stock.check", err)
	}
	return quantity <= stock, nil
}

func (s *StockService) Reduce(ctx context.Context, productID int64, quantity int) (models.StockChange, error) {
	change, err := reduceStock(ctx, s.db, productID, quantity)
	if err != nil {
		return change, internalErr("stock.reduce", err)
	}
	s.invalidate(ctx, productID)
	return change, nil
}

func (s *StockService) Restore(ctx context.Context, productID int64, quantity int) (models.StockChange, error) {
	change, err := restoreStock(ctx, s.db, productID, quantity)
	if err != nil {
		return change, internalErr("stock.restore", err)
	}
	s.invalidate(ctx, productID)
	return change, nil
}

// ReduceMany decrements several products atomically. Rows are locked in
// ascending id order and every item is checked before any is written.
func (s *StockService) ReduceMany(ctx context.Context, items []models.StockItem) ([]models.StockChange, error) {
	merged, err := mergeStockItems("stock.reduce_many", items)
	if err != nil {
		return nil, err
	}

	changes := make([]models.StockChange, 0, len(merged))
	err = database.WithTx(ctx, s.db, "stock.reduce_many", func(tx *sql.Tx) error {
		for _, it := range merged {
			var stock int
			err := tx.QueryRowContext(ctx,
				"SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE", it.ProductID).Scan(&stock)
			if database.IsNoRows(err) {
				return apperr.NotFound("stock.reduce_many", "product %d not found", it.ProductID)
			}
			if err != nil {
				return err
			}
			if stock < it.Quantity {
				middleware.RecordStockRejection()
				return apperr.InsufficientStock("stock.reduce_many", it.ProductID, stock, it.Quantity)
			}
			changes = append(changes, models.StockChange{ProductID: it.ProductID, Before: stock, After: stock - it.Quantity})
		}

		for _, it := range merged {
			if _, err := tx.ExecContext(ctx,
				"UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW() WHERE id = $2",
				it.Quantity, it.ProductID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		s.invalidate(ctx, c.ProductID)
	}
	return changes, nil
}

func (s *StockService) invalidate(ctx context.Context, productIDs ...int64) {
	if s.cache == nil {
		return
	}
	for _, id := range productIDs {
		if err := s.cache.InvalidateProduct(ctx, id); err != nil {
			s.logger.Warn("Failed to invalidate product cache", zap.Int64("product_id", id), zap.Error(err))
		}
	}
}

// reduceStock is the single decrement path. Zero affected rows means either
// the product is missing or it has too little stock; a follow-up read tells
// which.
func reduceStock(ctx context.Context, q database.Querier, productID int64, quantity int) (models.StockChange, error) {
	if quantity <= 0 {
		return models.StockChange{}, apperr.Validation("stock.reduce", "quantity must be positive, got %d", quantity)
	}

	var after int
	err := q.QueryRowContext(ctx,
		`UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1
		RETURNING stock_quantity`,
		quantity, productID).Scan(&after)
	if err == nil {
		return models.StockChange{ProductID: productID, Before: after + quantity, After: after}, nil
	}
	if !database.IsNoRows(err) {
		return models.StockChange{}, err
	}

	var available int
	err = q.QueryRowContext(ctx, "SELECT stock_quantity FROM products WHERE id = $1", productID).Scan(&available)
	if database.IsNoRows(err) {
		return models.StockChange{}, apperr.NotFound("stock.reduce", "product %d not found", productID)
	}
	if err != nil {
		return models.StockChange{}, err
	}

	middleware.RecordStockRejection()
	return models.StockChange{}, apperr.InsufficientStock("stock.reduce", productID, available, quantity)
}

func restoreStock(ctx context.Context, q database.Querier, productID int64, quantity int) (models.StockChange, error) {
	if quantity <= 0 {
		return models.StockChange{}, apperr.Validation("stock.restore", "quantity must be positive, got %d", quantity)
	}

	var after int
	err := q.QueryRowContext(ctx,
		`UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING stock_quantity`,
		quantity, productID).Scan(&after)
	if database.IsNoRows(err) {
		return models.StockChange{}, apperr.NotFound("stock.restore", "product %d not found", productID)
	}
	if err != nil {
		return models.StockChange{}, err
	}
	return models.StockChange{ProductID: productID, Before: after - quantity, After: after}, nil
}

// mergeStockItems sums quantities per product and sorts by product id so
// concurrent writers lock rows in the same order.
func mergeStockItems(op string, items []models.StockItem) ([]models.StockItem, error) {
	if len(items) == 0 {
		return nil, apperr.Validation(op, "at least one item is required")
	}

	totals := make(map[int64]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, apperr.Validation(op, "quantity for product %d must be positive, got %d", it.ProductID, it.Quantity)
		}
		totals[it.ProductID] += it.Quantity
	}

	merged := make([]models.StockItem, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, models.StockItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}
