package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/repositories"
	"go.uber.org/zap"
)

var bookRowColumns = []string{"id", "isbn", "title", "author", "year_published", "date_read"}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

func strPtr(s string) *string { return &s }

func TestBookRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db, zap.NewNop())

	rows := sqlmock.NewRows(bookRowColumns).
		AddRow(int64(2), nil, "Dune", "Frank Herbert", "1965", time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC)).
		AddRow(int64(1), "978-0", "Emma", "Jane Austen", nil, time.Date(2022, 3, 9, 0, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, isbn, title, author, year_published, date_read FROM books ORDER BY date_read, id`)).
		WillReturnRows(rows)

	books, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, int64(2), books[0].ID)
	assert.Nil(t, books[0].ISBN)
	assert.Equal(t, "1965", *books[0].YearPublished)
	assert.Equal(t, "2021-01-05", books[0].DateRead.String())
	assert.Equal(t, "978-0", *books[1].ISBN)
	assert.Nil(t, books[1].YearPublished)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_ListEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT (.+) FROM books").WillReturnRows(sqlmock.NewRows(bookRowColumns))

	books, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestBookRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = $1`)).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(bookRowColumns).
				AddRow(int64(3), nil, "Dune", "Frank Herbert", nil, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)))

		book, err := repo.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Dune", book.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = $1`)).
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 99)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("store outage", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = $1`)).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetByID(context.Background(), 1)
		require.Error(t, err)
		assert.False(t, errors.Is(err, repositories.ErrNotFound))
		assert.False(t, errors.Is(err, repositories.ErrConstraintViolation))
	})
}

func TestBookRepository_Create(t *testing.T) {
	req := &models.CreateBookRequest{
		Title:    "Dune",
		Author:   "Frank Herbert",
		DateRead: "2023-04-01",
	}

	t.Run("success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books (isbn, title, author, year_published, date_read)`)).
			WithArgs(nil, "Dune", "Frank Herbert", nil, "2023-04-01").
			WillReturnRows(sqlmock.NewRows(bookRowColumns).
				AddRow(int64(1), nil, "Dune", "Frank Herbert", nil, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)))

		book, err := repo.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int64(1), book.ID)
		assert.Equal(t, "2023-04-01", book.DateRead.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate title", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books`)).
			WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "books_title_key"`})

		_, err := repo.Create(context.Background(), req)
		assert.ErrorIs(t, err, repositories.ErrConstraintViolation)
	})

	t.Run("invalid date", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books`)).
			WillReturnError(&pq.Error{Code: "22007", Message: `invalid input syntax for type date: "soon"`})

		_, err := repo.Create(context.Background(), &models.CreateBookRequest{Title: "X", Author: "Y", DateRead: "soon"})
		assert.ErrorIs(t, err, repositories.ErrConstraintViolation)
	})
}

func TestBookRepository_Update(t *testing.T) {
	t.Run("sorted columns", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(
			`UPDATE books SET "author" = $1, "isbn" = $2 WHERE id = $3 RETURNING id, isbn, title, author, year_published, date_read`)).
			WithArgs("F. Herbert", "111", int64(4)).
			WillReturnRows(sqlmock.NewRows(bookRowColumns).
				AddRow(int64(4), "111", "Dune", "F. Herbert", nil, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)))

		book, err := repo.Update(context.Background(), 4, map[string]interface{}{
			"isbn":   "111",
			"author": "F. Herbert",
		})
		require.NoError(t, err)
		assert.Equal(t, strPtr("111"), book.ISBN)
		assert.Equal(t, "F. Herbert", book.Author)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no changes reads the row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = $1`)).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(bookRowColumns).
				AddRow(int64(4), nil, "Dune", "Frank Herbert", nil, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)))

		book, err := repo.Update(context.Background(), 4, map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "Dune", book.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("value too long", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE books SET "year_published" = $1`)).
			WillReturnError(&pq.Error{Code: "22001", Message: "value too long for type character varying(4)"})

		_, err := repo.Update(context.Background(), 4, map[string]interface{}{"year_published": "19655"})
		assert.ErrorIs(t, err, repositories.ErrConstraintViolation)
	})
}

func TestBookRepository_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), 5), repositories.ErrNotFound)
	})
}

func TestTransactionManager_InTransaction(t *testing.T) {
	t.Run("commits and routes queries through the transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		txm := NewTransactionManager(db, zap.NewNop())
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := txm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
			_, ok := GetTransactionFromContext(ctx)
			assert.True(t, ok)
			return repo.Delete(ctx, 1)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		txm := NewTransactionManager(db, zap.NewNop())
		repo := NewBookRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := txm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
			return repo.Delete(ctx, 1)
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		txm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := txm.InTransaction(context.Background(), func(ctx context.Context, outer repositories.Transaction) error {
			return txm.InTransaction(ctx, func(ctx context.Context, inner repositories.Transaction) error {
				assert.Same(t, outer, inner)
				return nil
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS books").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
