package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookheaven-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository is the order store: orders, their line items, and the
// append-only status history.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) error
	UpdatePayment(ctx context.Context, id uuid.UUID, payment PaymentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, shipping_address, shipping_fee, payment_method,
	total_amount, status, payment, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*Order, error) {
	var o Order
	err := s.Scan(&o.ID, &o.UserID, &o.ShippingAddress, &o.ShippingFee, &o.PaymentMethod,
		&o.TotalAmount, &o.Status, &o.Payment, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create writes the order, its items, and its first history entry in one
// transaction.
func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("order_id", o.ID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin tx", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, shipping_address, shipping_fee, payment_method,
			total_amount, status, payment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`,
		o.ID,
		o.UserID,
		o.ShippingAddress,
		o.ShippingFee,
		o.PaymentMethod,
		o.TotalAmount,
		o.Status,
		o.Payment,
		o.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, book_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, o.ID, i, item.BookID, item.Quantity, item.Price)
		if err != nil {
			log.Error("failed to insert order item", zap.Int("position", i), zap.Error(err))
			return err
		}
	}

	for _, h := range o.History {
		if err := insertHistory(ctx, tx, o.ID, h); err != nil {
			log.Error("failed to insert status history", zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return err
	}

	o.UpdatedAt = o.CreatedAt
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, h StatusChange) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`, orderID, h.Status, h.ChangedBy, h.ChangedAt)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get order",
			zap.String("order_id", id.String()), zap.Error(err))
		return nil, err
	}

	if err := r.attach(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list orders", zap.Error(err))
		return nil, err
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByIDs loads the existing orders among ids; unknown ids are absent from the map.
func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Order, error) {
	out := make(map[uuid.UUID]*Order, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ANY($1::uuid[])`, pq.Array(uuidStrings(ids)))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list orders by id", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, orders); err != nil {
		return nil, err
	}

	for _, o := range orders {
		out[o.ID] = o
	}
	return out, nil
}

func collectOrders(rows *sql.Rows) ([]*Order, error) {
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// attach loads line items and history for every order with one query each.
func (r *repository) attach(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		o.Items = []LineItem{}
		o.History = []StatusChange{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	keys := pq.Array(uuidStrings(ids))

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, book_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, keys)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID uuid.UUID
			item    LineItem
		)
		if err := itemRows.Scan(&orderID, &item.BookID, &item.Quantity, &item.Price); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	histRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, status, changed_by, changed_at
		FROM order_status_history
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, id
	`, keys)
	if err != nil {
		return fmt.Errorf("load status history: %w", err)
	}
	defer histRows.Close()

	for histRows.Next() {
		var (
			orderID uuid.UUID
			h       StatusChange
		)
		if err := histRows.Scan(&orderID, &h.Status, &h.ChangedBy, &h.ChangedAt); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.History = append(o.History, h)
		}
	}
	return histRows.Err()
}

// UpdateStatus sets the status and appends the history entry atomically.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, change.Status, change.ChangedAt)
	if err != nil {
		log.Error("failed to update status", zap.Error(err))
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrOrderNotFound
	}

	if err := insertHistory(ctx, tx, id, change); err != nil {
		log.Error("failed to insert status history", zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *repository) UpdatePayment(ctx context.Context, id uuid.UUID, payment PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment = $2, updated_at = NOW()
		WHERE id = $1
	`, id, payment)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update payment",
			zap.String("order_id", id.String()), zap.Error(err))
		return err
	}
	return requireRow(res)
}

// Delete removes the order; items and history go with it via ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to delete order",
			zap.String("order_id", id.String()), zap.Error(err))
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
