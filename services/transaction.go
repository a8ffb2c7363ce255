package services

import (
	"context"

	"github.com/upb/lifelog-api/repositories"
)

// WithTransactionResult runs fn inside txMgr.InTransaction and returns its value.
// Repositories called with the ctx handed to fn share the transaction.
// The zero value is returned when the transaction fails.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := txMgr.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
