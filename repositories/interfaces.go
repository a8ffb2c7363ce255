package repositories

import (
	"context"
	"errors"

	"github.com/upb/lifelog-api/models"
)

var (
	// ErrNotFound is returned when no row matches the requested id
	ErrNotFound = errors.New("record not found")

	// ErrConstraintViolation is returned when the store rejects a value:
	// uniqueness, not-null, length or type/format violations
	ErrConstraintViolation = errors.New("constraint violation")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// RecordRepository is the store contract shared by every resource collection.
// T is the stored record, C the create request.
type RecordRepository[T any, C any] interface {
	// List returns every record in the collection's natural order
	List(ctx context.Context) ([]*T, error)

	// GetByID retrieves a record by ID, ErrNotFound if absent
	GetByID(ctx context.Context, id int64) (*T, error)

	// Create inserts a record and returns it with its assigned ID
	Create(ctx context.Context, req *C) (*T, error)

	// Update applies column changes and returns the updated record.
	// Keys must already be restricted to the collection's patchable fields.
	Update(ctx context.Context, id int64, changes map[string]interface{}) (*T, error)

	// Delete removes a record, ErrNotFound if absent
	Delete(ctx context.Context, id int64) error
}

// BookRepository handles reading log data operations
type BookRepository = RecordRepository[models.Book, models.CreateBookRequest]

// DegreeRepository handles education log data operations
type DegreeRepository = RecordRepository[models.Degree, models.CreateDegreeRequest]

// Repositories holds all repository instances
type Repositories struct {
	Books   BookRepository
	Degrees DegreeRepository
}
