package book

import (
	"context"
	"database/sql"
	"errors"

	"bookheaven-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository is the read-only catalog store.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Book, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	var b Book
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author, price, book_file
		FROM books
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.BookFile)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get book",
			zap.String("book_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return &b, nil
}

// GetByIDs loads every existing book among ids; missing ids are simply absent.
func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Book, error) {
	out := make(map[uuid.UUID]*Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, author, price, book_file
		FROM books
		WHERE id = ANY($1::uuid[])
	`, pq.Array(keys))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list books", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.BookFile); err != nil {
			return nil, err
		}
		out[b.ID] = &b
	}

	return out, rows.Err()
}
