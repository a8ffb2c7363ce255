package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/repositories"
	"github.com/upb/lifelog-api/utils"
	"go.uber.org/zap"
)

// RecordService implements the operations shared by every resource collection
// and decides which domain error each store failure becomes.
type RecordService[T any, C any] struct {
	resource  string
	repo      repositories.RecordRepository[T, C]
	txManager repositories.TransactionManager
	patchable []string
	notFound  *DomainError
	logger    *zap.Logger
}

// BookService manages the reading log
type BookService = RecordService[models.Book, models.CreateBookRequest]

// DegreeService manages the education log
type DegreeService = RecordService[models.Degree, models.CreateDegreeRequest]

// NewBookService creates the reading log service
func NewBookService(repo repositories.BookRepository, txManager repositories.TransactionManager, logger *zap.Logger) *BookService {
	return &BookService{
		resource:  "book",
		repo:      repo,
		txManager: txManager,
		patchable: models.BookPatchableFields,
		notFound:  ErrBookNotFound,
		logger:    logger,
	}
}

// NewDegreeService creates the education log service
func NewDegreeService(repo repositories.DegreeRepository, txManager repositories.TransactionManager, logger *zap.Logger) *DegreeService {
	return &DegreeService{
		resource:  "degree",
		repo:      repo,
		txManager: txManager,
		patchable: models.DegreePatchableFields,
		notFound:  ErrDegreeNotFound,
		logger:    logger,
	}
}

// List returns every record in collection order
func (s *RecordService[T, C]) List(ctx context.Context) ([]*T, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list records", zap.String("resource", s.resource), zap.Error(err))
		return nil, NewDomainError(ErrorTypeInternal, ErrStoreUnavailable.Message, err).WithDetail("resource", s.resource)
	}
	return records, nil
}

// Get returns a single record
func (s *RecordService[T, C]) Get(ctx context.Context, id int64) (*T, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewDomainError(ErrorTypeNotFound, s.notFound.Message, err).WithDetail("id", id)
		}
		s.logger.Error("failed to get record", zap.String("resource", s.resource), zap.Int64("id", id), zap.Error(err))
		return nil, WrapInternal(fmt.Sprintf("failed to get %s", s.resource), err)
	}
	return record, nil
}

// Create validates req and stores it. Every failure is unprocessable.
func (s *RecordService[T, C]) Create(ctx context.Context, req *C) (*T, error) {
	if err := utils.ValidateStruct(req); err != nil {
		if !utils.IsValidationError(err) {
			return nil, NewDomainError(ErrorTypeInternal, "failed to validate request", err).WithDetail("resource", s.resource)
		}
		domainErr := NewDomainError(ErrorTypeUnprocessable, ErrMissingField.Message, err)
		for field, msg := range utils.GetValidationFields(err) {
			domainErr.WithDetail(field, msg)
		}
		return nil, domainErr
	}

	record, err := s.repo.Create(ctx, req)
	if err != nil {
		s.logStoreFailure("create", 0, err)
		return nil, s.unprocessable("create", err)
	}
	return record, nil
}

// Patch applies the truthy whitelisted fields of payload to record id.
// The read and the write share one transaction. Every failure is unprocessable,
// including a missing id.
func (s *RecordService[T, C]) Patch(ctx context.Context, id int64, payload map[string]interface{}) (*T, error) {
	if payload == nil {
		return nil, NewDomainError(ErrorTypeUnprocessable, "update body must be a JSON object", nil).WithDetail("id", id)
	}
	if err := utils.ValidatePatchFields(payload, s.patchable); err != nil {
		return nil, NewDomainError(ErrorTypeUnprocessable, ErrFieldNotPatchable.Message, err)
	}

	changes := utils.TruthyFields(payload)

	record, err := WithTransactionResult(ctx, s.txManager, func(ctx context.Context) (*T, error) {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return s.repo.Update(ctx, id, changes)
	})
	if err != nil {
		s.logStoreFailure("patch", id, err)
		return nil, s.unprocessable("update", err).WithDetail("id", id)
	}
	return record, nil
}

// Delete removes record id. Every failure is reported as not found.
func (s *RecordService[T, C]) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logStoreFailure("delete", id, err)
		return NewDomainError(ErrorTypeNotFound, s.notFound.Message, err).WithDetail("id", id)
	}
	return nil
}

func (s *RecordService[T, C]) unprocessable(op string, err error) *DomainError {
	msg := fmt.Sprintf("failed to %s %s", op, s.resource)
	if errors.Is(err, repositories.ErrConstraintViolation) {
		msg = ErrConstraintViolated.Message
	}
	return NewDomainError(ErrorTypeUnprocessable, msg, err)
}

// logStoreFailure logs expected rejections quietly and anything else as an error
func (s *RecordService[T, C]) logStoreFailure(op string, id int64, err error) {
	fields := []zap.Field{
		zap.String("resource", s.resource),
		zap.String("operation", op),
		zap.Error(err),
	}
	if id != 0 {
		fields = append(fields, zap.Int64("id", id))
	}

	if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrConstraintViolation) {
		s.logger.Info("store rejected request", fields...)
		return
	}
	s.logger.Error("store operation failed", fields...)
}
