// Package memory provides a process-local record store with the same
// constraints as the PostgreSQL schema. It backs development runs and tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/upb/lifelog-api/repositories"
	"go.uber.org/zap"
)

// Store holds every collection behind a single lock
type Store struct {
	mu sync.RWMutex

	books      map[int64]bookRow
	nextBookID int64

	degrees      map[int64]degreeRow
	nextDegreeID int64

	// txMu serializes transactions against each other
	txMu sync.Mutex

	logger *zap.Logger
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		books:        make(map[int64]bookRow),
		nextBookID:   1,
		degrees:      make(map[int64]degreeRow),
		nextDegreeID: 1,
		logger:       logger,
	}
}

// NewRepositories returns repositories backed by the store
func (s *Store) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Books:   &BookRepository{store: s},
		Degrees: &DegreeRepository{store: s},
	}
}

// TransactionManager returns a transaction manager for the store
func (s *Store) TransactionManager() repositories.TransactionManager {
	return &TransactionManager{store: s}
}

// Ping always succeeds; the store lives in process memory
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// column describes the storage rules of a text column
type column struct {
	name    string
	maxLen  int
	notNull bool
}

// toText converts a decoded JSON value into column text the way the
// PostgreSQL driver would send it. Nil means SQL NULL.
func toText(col column, value interface{}) (*string, error) {
	var text string
	switch v := value.(type) {
	case nil:
		if col.notNull {
			return nil, fmt.Errorf("%w: null value in column %q", repositories.ErrConstraintViolation, col.name)
		}
		return nil, nil
	case string:
		text = v
	case *string:
		if v == nil {
			return toText(col, nil)
		}
		text = *v
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		text = strconv.Itoa(v)
	case int64:
		text = strconv.FormatInt(v, 10)
	case bool:
		text = strconv.FormatBool(v)
	default:
		return nil, fmt.Errorf("%w: unsupported value %T for column %q", repositories.ErrConstraintViolation, value, col.name)
	}

	if col.maxLen > 0 && utf8.RuneCountInString(text) > col.maxLen {
		return nil, fmt.Errorf("%w: value too long for column %q (max %d)", repositories.ErrConstraintViolation, col.name, col.maxLen)
	}
	return &text, nil
}

// requiredText is toText for NOT NULL columns
func requiredText(col column, value interface{}) (string, error) {
	text, err := toText(col, value)
	if err != nil {
		return "", err
	}
	if text == nil {
		return "", fmt.Errorf("%w: null value in column %q", repositories.ErrConstraintViolation, col.name)
	}
	return *text, nil
}

// TransactionManager runs functions one at a time against the store.
// Writes are applied immediately, so a failed function does not undo earlier writes.
type TransactionManager struct {
	store *Store
}

type txContextKey struct{}

// Begin starts a transaction
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	tm.store.txMu.Lock()
	return &Transaction{store: tm.store, ctx: ctx}, nil
}

// InTransaction executes fn while holding the store's transaction lock
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	if tx, ok := ctx.Value(txContextKey{}).(repositories.Transaction); ok {
		return fn(ctx, tx)
	}

	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	txCtx := context.WithValue(ctx, txContextKey{}, tx)
	if err := fn(txCtx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Transaction releases the store's transaction lock exactly once
type Transaction struct {
	store *Store
	ctx   context.Context
	once  sync.Once
}

func (t *Transaction) release() {
	t.once.Do(t.store.txMu.Unlock)
}

// Commit ends the transaction
func (t *Transaction) Commit() error {
	t.release()
	return nil
}

// Rollback ends the transaction
func (t *Transaction) Rollback() error {
	t.release()
	return nil
}

// Context returns the transaction context
func (t *Transaction) Context() context.Context {
	return t.ctx
}
