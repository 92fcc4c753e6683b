package user

import (
	"context"
	"database/sql"
	"errors"

	"bookheaven-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository is the account store, including the denormalized order
// summaries and the purchased library.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)

	AppendOrderSummary(ctx context.Context, userID uuid.UUID, s OrderSummary) error
	UpdateOrderSummaryStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (bool, error)
	RemoveOrderSummary(ctx context.Context, userID, orderID uuid.UUID) error
	ListOrderSummaries(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error)

	ListLibrary(ctx context.Context, userID uuid.UUID) ([]LibraryEntry, error)
	AddLibraryEntries(ctx context.Context, userID uuid.UUID, entries []LibraryEntry) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const accountColumns = `id, user_name, email, password, role, address, phone, profile_picture, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*Account, error) {
	var a Account
	err := s.Scan(&a.ID, &a.UserName, &a.Email, &a.Password, &a.Role,
		&a.Address, &a.Phone, &a.ProfilePicture, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get user",
			zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Account, error) {
	out := make(map[uuid.UUID]*Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return a, err
}

func (r *repository) AppendOrderSummary(ctx context.Context, userID uuid.UUID, s OrderSummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_orders (user_id, order_id, status, placed_at)
		VALUES ($1, $2, $3, $4)
	`, userID, s.OrderID, s.Status, s.PlacedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to append order summary",
			zap.String("user_id", userID.String()),
			zap.String("order_id", s.OrderID.String()),
			zap.Error(err),
		)
	}
	return err
}

// UpdateOrderSummaryStatus reports whether the account referenced the order.
func (r *repository) UpdateOrderSummaryStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_orders
		SET status = $3
		WHERE user_id = $1 AND order_id = $2
	`, userID, orderID, status)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) RemoveOrderSummary(ctx context.Context, userID, orderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_orders WHERE user_id = $1 AND order_id = $2`, userID, orderID)
	return err
}

func (r *repository) ListOrderSummaries(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, status, placed_at
		FROM user_orders
		WHERE user_id = $1
		ORDER BY placed_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderSummary
	for rows.Next() {
		var s OrderSummary
		if err := rows.Scan(&s.OrderID, &s.Status, &s.PlacedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) ListLibrary(ctx context.Context, userID uuid.UUID) ([]LibraryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT book_id, book_file, purchased_at
		FROM user_library
		WHERE user_id = $1
		ORDER BY purchased_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LibraryEntry
	for rows.Next() {
		var e LibraryEntry
		if err := rows.Scan(&e.BookID, &e.BookFile, &e.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddLibraryEntries inserts the entries in one transaction. Books already in
// the library are left untouched; the count of new grants is returned.
func (r *repository) AddLibraryEntries(ctx context.Context, userID uuid.UUID, entries []LibraryEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	added := 0
	for _, e := range entries {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO user_library (user_id, book_id, book_file, purchased_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, book_id) DO NOTHING
		`, userID, e.BookID, e.BookFile, e.PurchasedAt)
		if err != nil {
			logger.FromCtx(ctx).Error("db: failed to grant library entry",
				zap.String("user_id", userID.String()),
				zap.String("book_id", e.BookID.String()),
				zap.Error(err),
			)
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}
