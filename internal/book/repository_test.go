package book

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookColumns = []string{"id", "title", "author", "price", "book_file"}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, title, author, price, book_file FROM books WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(bookColumns).
				AddRow(id.String(), "Dune", "Frank Herbert", "10.00", "https://cdn.example.com/dune.pdf"))

		b, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, b.ID)
		assert.True(t, b.Price.Equal(decimal.RequireFromString("10")))
		assert.True(t, b.HasContent())
	})

	t.Run("NoContent", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM books WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(bookColumns).AddRow(id.String(), "Paperback", "", "4.50", nil))

		b, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, b.BookFile)
		assert.False(t, b.HasContent())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM books WHERE id = \$1`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM books WHERE id = \$1`).
			WithArgs(id).
			WillReturnError(errors.New("db error"))

		_, err := repo.GetByID(ctx, id)
		assert.EqualError(t, err, "db error")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		books, err := repo.GetByIDs(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("Success", func(t *testing.T) {
		a, b, missing := uuid.New(), uuid.New(), uuid.New()

		mock.ExpectQuery(`SELECT .* FROM books WHERE id = ANY\(\$1::uuid\[\]\)`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(bookColumns).
				AddRow(a.String(), "A", "", "1.00", nil).
				AddRow(b.String(), "B", "", "2.00", "file-b"))

		books, err := repo.GetByIDs(ctx, []uuid.UUID{a, b, missing})
		require.NoError(t, err)
		assert.Len(t, books, 2)
		assert.Equal(t, "B", books[b].Title)
		assert.NotContains(t, books, missing)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
