package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const orderColumns = `id, invoice_no, user_id, order_status, is_bulk_order, bulk_order_type, payment_method,
	shipping_address_id, billing_address_id, subtotal, shipping_cost, tax_amount, total_amount,
	tracking_number, notes, created_at, updated_at`

const itemColumns = "id, order_id, product_id, quantity, unit_price, subtotal"

type OrderService struct {
	db     *sql.DB
	stock  *StockService
	events EventPublisher
	logger *zap.Logger
}

func NewOrderService(db *sql.DB, stock *StockService, events EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{db: db, stock: stock, events: events, logger: logger}
}

// NewInvoiceNumber returns a sortable, unique invoice reference.
func NewInvoiceNumber() string {
	return "INV-" + ulid.Make().String()
}

func scanOrder(row rowScanner) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.InvoiceNo, &o.UserID, &o.Status, &o.IsBulkOrder, &o.BulkOrderType, &o.PaymentMethod,
		&o.ShippingAddressID, &o.BillingAddressID, &o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.TotalAmount,
		&o.TrackingNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanItem(row rowScanner) (models.OrderItem, error) {
	var it models.OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal)
	return it, err
}

// Create writes the order, its items and the stock reduction for every item
// in one transaction. Any failure leaves no trace of the order.
func (s *OrderService) Create(ctx context.Context, req models.CreateOrderRequest) (models.CreateOrderResponse, error) {
	const op = "order.create"

	status := models.OrderStatusPending
	if req.OrderStatus != "" {
		st, err := parseStatus(op, req.OrderStatus)
		if err != nil {
			return models.CreateOrderResponse{}, err
		}
		if !initialStatuses[st] {
			return models.CreateOrderResponse{}, apperr.Validation(op, "order cannot be created with status %q", st)
		}
		status = st
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return models.CreateOrderResponse{}, apperr.Validation(op, "unknown payment method %q", req.PaymentMethod)
	}
	if err := validateBulk(op, req.IsBulkOrder, req.BulkOrderType); err != nil {
		return models.CreateOrderResponse{}, err
	}
	if err := validateAmounts(op, req.Subtotal, req.ShippingCost, req.TaxAmount, req.TotalAmount); err != nil {
		return models.CreateOrderResponse{}, err
	}
	items, err := normalizeItems(op, req.Items)
	if err != nil {
		return models.CreateOrderResponse{}, err
	}

	invoiceNo := strings.TrimSpace(req.InvoiceNo)
	if invoiceNo == "" {
		invoiceNo = NewInvoiceNumber()
	}

	var order models.Order
	err = database.WithTx(ctx, s.db, op, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (invoice_no, user_id, order_status, is_bulk_order, bulk_order_type, payment_method,
				shipping_address_id, billing_address_id, subtotal, shipping_cost, tax_amount, total_amount,
				tracking_number, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, created_at, updated_at`,
			invoiceNo, req.UserID, status, req.IsBulkOrder, req.BulkOrderType, req.PaymentMethod,
			req.ShippingAddressID, req.BillingAddressID, req.Subtotal, req.ShippingCost, req.TaxAmount, req.TotalAmount,
			req.TrackingNumber, req.Notes,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		switch {
		case database.IsUniqueViolation(err):
			return apperr.Duplicate(op, "invoice_no", invoiceNo, err)
		case database.IsForeignKeyViolation(err):
			return apperr.Validation(op, "referenced user or address does not exist (%s)", database.Constraint(err))
		case err != nil:
			return err
		}

		if err := insertItems(ctx, tx, op, order.ID, items); err != nil {
			return err
		}

		for _, it := range stockDeltas(nil, items) {
			if _, err := reduceStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Order creation rolled back",
			zap.Int64("user_id", req.UserID),
			zap.String("invoice_no", invoiceNo),
			zap.Error(err),
		)
		return models.CreateOrderResponse{}, err
	}

	middleware.RecordOrderCreated()
	s.stock.invalidate(ctx, productIDs(items)...)
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("invoice_no", invoiceNo),
		zap.Int("items", len(items)),
	)

	s.publish(ctx, models.OrderEvent{
		OrderID:     order.ID,
		UserID:      req.UserID,
		InvoiceNo:   invoiceNo,
		Status:      status,
		TotalAmount: req.TotalAmount,
		EventType:   models.EventOrderCreated,
	})

	return models.CreateOrderResponse{OrderID: order.ID, InvoiceNo: invoiceNo}, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (models.Order, error) {
	order, err := loadOrder(ctx, s.db, "id = $1", id)
	if err != nil {
		return models.Order{}, internalErr("order.get", err)
	}
	return order, nil
}

func (s *OrderService) GetByInvoiceNo(ctx context.Context, invoiceNo string) (models.Order, error) {
	order, err := loadOrder(ctx, s.db, "invoice_no = $1", invoiceNo)
	if err != nil {
		return models.Order{}, internalErr("order.get_by_invoice", err)
	}
	return order, nil
}

// ListByUser returns the user's orders newest first, without items.
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, apperr.Internal("order.list", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperr.Internal("order.list", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("order.list", err)
	}
	return orders, nil
}

// UpdateWithItems applies the non-nil fields of req. A supplied item list
// replaces every existing item and the stock difference is applied in the
// same transaction.
func (s *OrderService) UpdateWithItems(ctx context.Context, id int64, req models.UpdateOrderRequest) (models.Order, error) {
	const op = "order.update"

	var (
		before  models.Order
		updated models.Order
		touched []int64
	)
	err := database.WithTx(ctx, s.db, op, func(tx *sql.Tx) error {
		current, err := scanOrder(tx.QueryRowContext(ctx,
			"SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id))
		if database.IsNoRows(err) {
			return apperr.NotFound(op, "order %d not found", id)
		}
		if err != nil {
			return err
		}
		before = current

		set := newSetBuilder()
		next := current.Status

		if req.OrderStatus != nil {
			st, err := parseStatus(op, *req.OrderStatus)
			if err != nil {
				return err
			}
			if err := checkTransition(op, current.Status, st); err != nil {
				return err
			}
			if st != current.Status {
				next = st
				set.add("order_status", st)
			}
		}
		if req.PaymentMethod != nil {
			if !req.PaymentMethod.Valid() {
				return apperr.Validation(op, "unknown payment method %q", *req.PaymentMethod)
			}
			set.add("payment_method", *req.PaymentMethod)
		}

		isBulk, bulkType := current.IsBulkOrder, current.BulkOrderType
		if req.IsBulkOrder != nil {
			isBulk = *req.IsBulkOrder
			set.add("is_bulk_order", isBulk)
		}
		if req.BulkOrderType != nil {
			bulkType = req.BulkOrderType
			set.add("bulk_order_type", *req.BulkOrderType)
		} else if req.IsBulkOrder != nil && !isBulk && bulkType != nil {
			bulkType = nil
			set.add("bulk_order_type", nil)
		}
		if err := validateBulk(op, isBulk, bulkType); err != nil {
			return err
		}

		if req.ShippingAddressID != nil {
			set.add("shipping_address_id", *req.ShippingAddressID)
		}
		if req.BillingAddressID != nil {
			set.add("billing_address_id", *req.BillingAddressID)
		}

		sub, ship, tax, total := current.Subtotal, current.ShippingCost, current.TaxAmount, current.TotalAmount
		amountsChanged := false
		for _, f := range []struct {
			col string
			in  *decimal.Decimal
			dst *decimal.Decimal
		}{
			{"subtotal", req.Subtotal, &sub},
			{"shipping_cost", req.ShippingCost, &ship},
			{"tax_amount", req.TaxAmount, &tax},
			{"total_amount", req.TotalAmount, &total},
		} {
			if f.in != nil {
				*f.dst = *f.in
				set.add(f.col, *f.in)
				amountsChanged = true
			}
		}
		if amountsChanged {
			if err := validateAmounts(op, sub, ship, tax, total); err != nil {
				return err
			}
		}

		if req.TrackingNumber != nil {
			set.add("tracking_number", *req.TrackingNumber)
		}
		if req.Notes != nil {
			set.add("notes", *req.Notes)
		}

		if req.Items != nil {
			if next == models.OrderStatusCancelled || !itemsEditable(current.Status) {
				return apperr.Validation(op, "items of a %s order cannot be changed", next)
			}
			items, err := normalizeItems(op, *req.Items)
			if err != nil {
				return err
			}
			oldItems, err := loadItems(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", id); err != nil {
				return err
			}
			if err := insertItems(ctx, tx, op, id, items); err != nil {
				return err
			}
			if touched, err = applyStockDeltas(ctx, tx, oldItems, items); err != nil {
				return err
			}
		} else if next == models.OrderStatusCancelled && current.Status != models.OrderStatusCancelled {
			if touched, err = releaseOrderStock(ctx, tx, id); err != nil {
				return err
			}
		}

		if !set.empty() || req.Items != nil {
			query, args := set.build("orders", id)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				if database.IsForeignKeyViolation(err) {
					return apperr.Validation(op, "referenced address does not exist (%s)", database.Constraint(err))
				}
				return err
			}
		}

		updated, err = loadOrder(ctx, tx, "id = $1", id)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	s.stock.invalidate(ctx, touched...)
	if updated.Status != before.Status {
		s.statusChanged(ctx, before.Status, updated)
	}
	s.logger.Info("Order updated", zap.Int64("order_id", id), zap.Bool("items_replaced", req.Items != nil))
	return updated, nil
}

// UpdateStatus moves the order to raw, validated against the transition
// table. Cancelling releases the order's stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, raw string) (models.Order, error) {
	status := raw
	return s.UpdateWithItems(ctx, id, models.UpdateOrderRequest{OrderStatus: &status})
}

// UpdateStatusByInvoiceNo writes a status found by invoice number, storing
// details as the order's payment payload when present.
func (s *OrderService) UpdateStatusByInvoiceNo(ctx context.Context, invoiceNo, raw string, details json.RawMessage) (models.OrderStatusResponse, error) {
	const op = "order.update_status"

	status, err := parseStatus(op, raw)
	if err != nil {
		return models.OrderStatusResponse{}, err
	}

	var payload *paymentPayload
	if len(details) > 0 {
		payload = &paymentPayload{gatewayStatus: string(status), details: details}
	}
	order, err := s.transitionByInvoice(ctx, op, invoiceNo, status, payload)
	if err != nil {
		return models.OrderStatusResponse{}, err
	}
	return models.OrderStatusResponse{InvoiceNo: order.InvoiceNo, OrderStatus: order.Status}, nil
}

type paymentPayload struct {
	gatewayStatus string
	details       json.RawMessage
}

// transitionByInvoice locks the order, checks the transition, writes the new
// status and the optional payment payload in one transaction.
func (s *OrderService) transitionByInvoice(ctx context.Context, op, invoiceNo string, target models.OrderStatus, payload *paymentPayload) (models.Order, error) {
	if payload != nil && len(payload.details) > 0 && !json.Valid(payload.details) {
		return models.Order{}, apperr.Validation(op, "payment_details must be valid JSON")
	}

	var (
		order   models.Order
		from    models.OrderStatus
		touched []int64
	)
	err := database.WithTx(ctx, s.db, op, func(tx *sql.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRowContext(ctx,
			"SELECT "+orderColumns+" FROM orders WHERE invoice_no = $1 FOR UPDATE", invoiceNo))
		if database.IsNoRows(err) {
			return apperr.NotFound(op, "order with invoice %s not found", invoiceNo)
		}
		if err != nil {
			return err
		}
		from = order.Status

		if err := checkTransition(op, from, target); err != nil {
			return err
		}

		if target != from {
			if target == models.OrderStatusCancelled {
				if touched, err = releaseOrderStock(ctx, tx, order.ID); err != nil {
					return err
				}
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE orders SET order_status = $1, updated_at = NOW() WHERE id = $2", target, order.ID); err != nil {
				return err
			}
			order.Status = target
		}

		if payload != nil {
			return upsertPaymentDetails(ctx, tx, order.ID, payload.gatewayStatus, payload.details)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	s.stock.invalidate(ctx, touched...)
	if order.Status != from {
		s.statusChanged(ctx, from, order)
	}
	return order, nil
}

func (s *OrderService) AssignTracking(ctx context.Context, id int64, tracking string) (models.Order, error) {
	const op = "order.assign_tracking"

	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return models.Order{}, apperr.Validation(op, "tracking_number is required")
	}

	order, err := scanOrder(s.db.QueryRowContext(ctx,
		`UPDATE orders SET tracking_number = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+orderColumns, tracking, id))
	if database.IsNoRows(err) {
		return models.Order{}, apperr.NotFound(op, "order %d not found", id)
	}
	if err != nil {
		return models.Order{}, apperr.Internal(op, err)
	}

	s.publish(ctx, models.OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		InvoiceNo:   order.InvoiceNo,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Tracking:    tracking,
		EventType:   models.EventTrackingAssigned,
	})
	return order, nil
}

// BulkDelete removes the orders and, through cascading keys, their items,
// invoices, payment transactions and payment details.
func (s *OrderService) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	const op = "order.bulk_delete"

	if len(ids) == 0 {
		return 0, apperr.Validation(op, "ids must not be empty")
	}

	var deleted int64
	err := database.WithTx(ctx, s.db, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = ANY($1)", pq.Array(ids))
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if deleted == 0 {
			return apperr.NotFound(op, "none of the %d orders exist", len(ids))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Orders deleted", zap.Int64s("ids", ids), zap.Int64("deleted", deleted))
	return deleted, nil
}

func (s *OrderService) statusChanged(ctx context.Context, from models.OrderStatus, order models.Order) {
	middleware.RecordOrderTransition(string(from), string(order.Status))
	s.logger.Info("Order status changed",
		zap.Int64("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)),
	)

	event := models.OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		InvoiceNo:   order.InvoiceNo,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		EventType:   models.EventTypeFor(order.Status),
	}
	if order.TrackingNumber != nil {
		event.Tracking = *order.TrackingNumber
	}
	s.publish(ctx, event)
}

// publish never fails the caller; the write has already committed.
func (s *OrderService) publish(ctx context.Context, event models.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.Int64("order_id", event.OrderID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

func loadOrder(ctx context.Context, q database.Querier, where string, arg any) (models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+where, arg))
	if database.IsNoRows(err) {
		return models.Order{}, apperr.NotFound("order.load", "order %v not found", arg)
	}
	if err != nil {
		return models.Order{}, err
	}

	if order.Items, err = loadItems(ctx, q, order.ID); err != nil {
		return models.Order{}, err
	}

	var pd models.PaymentDetails
	var raw []byte
	err = q.QueryRowContext(ctx,
		"SELECT order_id, gateway_status, details, updated_at FROM order_payment_details WHERE order_id = $1",
		order.ID).Scan(&pd.OrderID, &pd.GatewayStatus, &raw, &pd.UpdatedAt)
	switch {
	case err == nil:
		pd.Details = json.RawMessage(raw)
		order.PaymentDetails = &pd
	case !database.IsNoRows(err):
		return models.Order{}, err
	}
	return order, nil
}

func loadItems(ctx context.Context, q database.Querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// insertItems writes every item in a single multi-row INSERT bound to the
// new order id.
func insertItems(ctx context.Context, tx *sql.Tx, op string, orderID int64, items []models.OrderItemInput) error {
	var b strings.Builder
	b.WriteString("INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal) VALUES ")

	args := make([]any, 0, 1+len(items)*4)
	args = append(args, orderID)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "($1, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal)
	}

	_, err := tx.ExecContext(ctx, b.String(), args...)
	if database.IsForeignKeyViolation(err) {
		return apperr.NotFound(op, "order references a product that does not exist")
	}
	return err
}

// releaseOrderStock returns the stock of every item of a cancelled order.
func releaseOrderStock(ctx context.Context, tx *sql.Tx, orderID int64) ([]int64, error) {
	items, err := loadItems(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	inputs := make([]models.OrderItemInput, 0, len(items))
	for _, it := range items {
		inputs = append(inputs, models.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	var touched []int64
	for _, d := range stockDeltas(nil, inputs) {
		if _, err := restoreStock(ctx, tx, d.ProductID, d.Quantity); err != nil {
			return nil, err
		}
		touched = append(touched, d.ProductID)
	}
	return touched, nil
}

// applyStockDeltas moves stock from the old item set to the new one using
// the net difference per product.
func applyStockDeltas(ctx context.Context, tx *sql.Tx, old []models.OrderItem, next []models.OrderItemInput) ([]int64, error) {
	var touched []int64
	for _, d := range stockDeltas(old, next) {
		var err error
		switch {
		case d.Quantity > 0:
			_, err = reduceStock(ctx, tx, d.ProductID, d.Quantity)
		case d.Quantity < 0:
			_, err = restoreStock(ctx, tx, d.ProductID, -d.Quantity)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		touched = append(touched, d.ProductID)
	}
	return touched, nil
}

// stockDeltas returns, per product in ascending id order, how much more stock
// next needs than old. Negative values are stock to give back.
func stockDeltas(old []models.OrderItem, next []models.OrderItemInput) []models.StockItem {
	totals := make(map[int64]int)
	for _, it := range old {
		totals[it.ProductID] -= it.Quantity
	}
	for _, it := range next {
		totals[it.ProductID] += it.Quantity
	}

	out := make([]models.StockItem, 0, len(totals))
	for id, qty := range totals {
		out = append(out, models.StockItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func productIDs(items []models.OrderItemInput) []int64 {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}

func itemsEditable(status models.OrderStatus) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusAwaitingPayment, models.OrderStatusFailed:
		return true
	}
	return false
}

func validateBulk(op string, isBulk bool, bulkType *string) error {
	if bulkType == nil {
		return nil
	}
	if !isBulk {
		return apperr.Validation(op, "bulk_order_type requires is_bulk_order")
	}
	if *bulkType != "solution" && *bulkType != "equipment" {
		return apperr.Validation(op, "unknown bulk_order_type %q", *bulkType)
	}
	return nil
}

// validateAmounts enforces non-negative amounts and
// total = subtotal + shipping + tax.
func validateAmounts(op string, subtotal, shipping, tax, total decimal.Decimal) error {
	for name, v := range map[string]decimal.Decimal{
		"subtotal": subtotal, "shipping_cost": shipping, "tax_amount": tax, "total_amount": total,
	} {
		if v.IsNegative() {
			return apperr.Validation(op, "%s must not be negative", name)
		}
	}

	want := subtotal.Add(shipping).Add(tax)
	if !total.Equal(want) {
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Op:      op,
			Message: fmt.Sprintf("total_amount %s does not equal subtotal + shipping_cost + tax_amount (%s)", total, want),
			Details: map[string]any{"expected_total": want.StringFixed(2)},
		}
	}
	return nil
}

// normalizeItems fills a missing item subtotal from quantity x unit price and
// rejects one that disagrees.
func normalizeItems(op string, in []models.OrderItemInput) ([]models.OrderItemInput, error) {
	if len(in) == 0 {
		return nil, apperr.Validation(op, "an order needs at least one item")
	}

	out := make([]models.OrderItemInput, len(in))
	for i, it := range in {
		if it.ProductID <= 0 {
			return nil, apperr.Validation(op, "item %d: product_id is required", i)
		}
		if it.Quantity <= 0 {
			return nil, apperr.Validation(op, "item %d: quantity must be positive", i)
		}
		if it.UnitPrice.IsNegative() {
			return nil, apperr.Validation(op, "item %d: unit_price must not be negative", i)
		}

		want := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if it.Subtotal.IsZero() {
			it.Subtotal = want
		} else if !it.Subtotal.Equal(want) {
			return nil, apperr.Validation(op, "item %d: subtotal %s does not equal quantity x unit_price (%s)", i, it.Subtotal, want)
		}
		out[i] = it
	}
	return out, nil
}

func upsertPaymentDetails(ctx context.Context, q database.Querier, orderID int64, gatewayStatus string, details json.RawMessage) error {
	payload := "{}"
	if len(details) > 0 {
		payload = string(details)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO order_payment_details (order_id, gateway_status, details, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (order_id) DO UPDATE
		SET gateway_status = EXCLUDED.gateway_status, details = EXCLUDED.details, updated_at = NOW()`,
		orderID, gatewayStatus, payload)
	return err
}

// setBuilder assembles an UPDATE from an allow-listed set of columns.
type setBuilder struct {
	cols []string
	args []any
}

func newSetBuilder() *setBuilder {
	return &setBuilder{}
}

func (b *setBuilder) add(col string, v any) {
	b.args = append(b.args, v)
	b.cols = append(b.cols, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

func (b *setBuilder) empty() bool {
	return len(b.cols) == 0
}

// build always bumps updated_at, so an empty builder still touches the row.
func (b *setBuilder) build(table string, id int64) (string, []any) {
	args := append(append([]any{}, b.args...), id)
	cols := append(append([]string{}, b.cols...), "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(cols, ", "), len(args))
	return query, args
}
