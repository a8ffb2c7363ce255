package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/lifelog-api/internal/observability"
	"github.com/upb/lifelog-api/services"
	"github.com/upb/lifelog-api/utils"
	"go.uber.org/zap"
)

// errorStatus maps each domain error type to the status clients see
var errorStatus = map[services.ErrorType]int{
	services.ErrorTypeNotFound:      http.StatusNotFound,
	services.ErrorTypeUnprocessable: http.StatusUnprocessableEntity,
	services.ErrorTypeBadRequest:    http.StatusBadRequest,
	services.ErrorTypeInternal:      http.StatusInternalServerError,
}

// StatusForError returns the HTTP status for err.
// Anything that is not a domain error is a 500.
func StatusForError(err error) int {
	if status, ok := errorStatus[services.GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleServiceError maps domain errors to the uniform error body.
// It is the only place a service failure becomes an HTTP response.
func HandleServiceError(ctx context.Context, w http.ResponseWriter, err error, log observability.Logger) {
	if err == nil {
		return
	}

	status := StatusForError(err)
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("error_type", string(services.GetErrorType(err))),
		zap.Error(err),
	}
	if details := services.GetErrorDetails(err); details != nil {
		fields = append(fields, zap.Any("details", details))
	}

	var domainErr *services.DomainError
	switch {
	case !errors.As(err, &domainErr):
		log.Error(ctx, "unhandled error type", fields...)
	case status >= http.StatusInternalServerError:
		log.Error(ctx, "internal server error", fields...)
	default:
		log.Debug(ctx, "handled service error", fields...)
	}

	if err := utils.WriteError(w, status); err != nil {
		log.Error(ctx, "failed to write error response", zap.Error(err))
	}
}
