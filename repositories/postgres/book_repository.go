package postgres

import (
	"context"
	"fmt"

	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/repositories"
	"go.uber.org/zap"
)

const bookColumns = "id, isbn, title, author, year_published, date_read"

// BookRepository implements repositories.BookRepository
type BookRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *DB, logger *zap.Logger) repositories.BookRepository {
	return &BookRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	book := &models.Book{}
	err := row.Scan(
		&book.ID,
		&book.ISBN,
		&book.Title,
		&book.Author,
		&book.YearPublished,
		&book.DateRead.Time,
	)
	if err != nil {
		return nil, err
	}
	book.DateRead = models.NewDate(book.DateRead.Time)
	return book, nil
}

// List retrieves all books ordered by the date they were read
func (r *BookRepository) List(ctx context.Context) ([]*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY date_read, id`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError("failed to list books", err)
	}
	defer rows.Close()

	books := make([]*models.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}

	return books, nil
}

// GetByID retrieves a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	book, err := scanBook(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to get book %d", id), err)
	}

	return book, nil
}

// Create inserts a new book
func (r *BookRepository) Create(ctx context.Context, req *models.CreateBookRequest) (*models.Book, error) {
	query := `
		INSERT INTO books (isbn, title, author, year_published, date_read)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bookColumns

	executor := GetExecutor(ctx, r.db)
	book, err := scanBook(executor.QueryRowContext(ctx, query,
		req.ISBN,
		req.Title,
		req.Author,
		req.YearPublished,
		req.DateRead,
	))
	if err != nil {
		return nil, classifyError("failed to create book", err)
	}

	r.logger.Debug("book created", zap.Int64("id", book.ID), zap.String("title", book.Title))
	return book, nil
}

// Update applies column changes to a book
func (r *BookRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) (*models.Book, error) {
	if len(changes) == 0 {
		return r.GetByID(ctx, id)
	}

	query, args := buildUpdate("books", id, changes, bookColumns)

	executor := GetExecutor(ctx, r.db)
	book, err := scanBook(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to update book %d", id), err)
	}

	r.logger.Debug("book updated", zap.Int64("id", id), zap.Int("fields", len(changes)))
	return book, nil
}

// Delete deletes a book
func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM books WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return classifyError(fmt.Sprintf("failed to delete book %d", id), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("book %d: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("book deleted", zap.Int64("id", id))
	return nil
}
