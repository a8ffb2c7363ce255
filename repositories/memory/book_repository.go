package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/repositories"
	"go.uber.org/zap"
)

var (
	bookISBN          = column{name: "isbn", maxLen: 50}
	bookTitle         = column{name: "title", maxLen: 500, notNull: true}
	bookAuthor        = column{name: "author", maxLen: 200, notNull: true}
	bookYearPublished = column{name: "year_published", maxLen: 4}
	bookDateRead      = column{name: "date_read", notNull: true}
)

type bookRow models.Book

// BookRepository implements repositories.BookRepository in memory
type BookRepository struct {
	store *Store
}

func (row bookRow) toModel() *models.Book {
	book := models.Book(row)
	return &book
}

func parseDateColumn(value interface{}) (models.Date, error) {
	text, err := requiredText(bookDateRead, value)
	if err != nil {
		return models.Date{}, err
	}
	date, err := models.ParseDate(text)
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: %v", repositories.ErrConstraintViolation, err)
	}
	return date, nil
}

// bookTitleTaken reports whether another book already uses title. Caller holds the lock.
func (s *Store) bookTitleTaken(title string, exceptID int64) bool {
	for id, row := range s.books {
		if id != exceptID && row.Title == title {
			return true
		}
	}
	return false
}

// List returns books ordered by date read, then id
func (r *BookRepository) List(ctx context.Context) ([]*models.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	books := make([]*models.Book, 0, len(r.store.books))
	for _, row := range r.store.books {
		books = append(books, row.toModel())
	}
	sort.Slice(books, func(i, j int) bool {
		if !books[i].DateRead.Equal(books[j].DateRead.Time) {
			return books[i].DateRead.Before(books[j].DateRead.Time)
		}
		return books[i].ID < books[j].ID
	})
	return books, nil
}

// GetByID retrieves a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.books[id]
	if !ok {
		return nil, fmt.Errorf("book %d: %w", id, repositories.ErrNotFound)
	}
	return row.toModel(), nil
}

// Create inserts a new book
func (r *BookRepository) Create(ctx context.Context, req *models.CreateBookRequest) (*models.Book, error) {
	isbn, err := toText(bookISBN, req.ISBN)
	if err != nil {
		return nil, err
	}
	title, err := requiredText(bookTitle, req.Title)
	if err != nil {
		return nil, err
	}
	author, err := requiredText(bookAuthor, req.Author)
	if err != nil {
		return nil, err
	}
	yearPublished, err := toText(bookYearPublished, req.YearPublished)
	if err != nil {
		return nil, err
	}
	dateRead, err := parseDateColumn(req.DateRead)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.bookTitleTaken(title, 0) {
		return nil, fmt.Errorf("%w: duplicate book title %q", repositories.ErrConstraintViolation, title)
	}

	row := bookRow{
		ID:            r.store.nextBookID,
		ISBN:          isbn,
		Title:         title,
		Author:        author,
		YearPublished: yearPublished,
		DateRead:      dateRead,
	}
	r.store.books[row.ID] = row
	r.store.nextBookID++

	r.store.logger.Debug("book created", zap.Int64("id", row.ID), zap.String("title", row.Title))
	return row.toModel(), nil
}

// Update applies column changes to a book; either all apply or none do
func (r *BookRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) (*models.Book, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.books[id]
	if !ok {
		return nil, fmt.Errorf("book %d: %w", id, repositories.ErrNotFound)
	}

	for key, value := range changes {
		var err error
		switch key {
		case bookISBN.name:
			row.ISBN, err = toText(bookISBN, value)
		case bookTitle.name:
			row.Title, err = requiredText(bookTitle, value)
		case bookAuthor.name:
			row.Author, err = requiredText(bookAuthor, value)
		case bookYearPublished.name:
			row.YearPublished, err = toText(bookYearPublished, value)
		case bookDateRead.name:
			row.DateRead, err = parseDateColumn(value)
		default:
			err = fmt.Errorf("%w: column %q does not exist", repositories.ErrConstraintViolation, key)
		}
		if err != nil {
			return nil, err
		}
	}

	if r.store.bookTitleTaken(row.Title, id) {
		return nil, fmt.Errorf("%w: duplicate book title %q", repositories.ErrConstraintViolation, row.Title)
	}

	r.store.books[id] = row
	r.store.logger.Debug("book updated", zap.Int64("id", id), zap.Int("fields", len(changes)))
	return row.toModel(), nil
}

// Delete deletes a book
func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.books[id]; !ok {
		return fmt.Errorf("book %d: %w", id, repositories.ErrNotFound)
	}
	delete(r.store.books, id)

	r.store.logger.Debug("book deleted", zap.Int64("id", id))
	return nil
}
