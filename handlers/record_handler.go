package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/lifelog-api/internal/observability"
	"github.com/upb/lifelog-api/middleware"
	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/services"
	"github.com/upb/lifelog-api/utils"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies for create and patch
const maxBodyBytes = 1 << 20

// RecordService defines the operations a resource collection exposes
type RecordService[T any, C any] interface {
	// List returns every record in collection order
	List(ctx context.Context) ([]*T, error)

	// Get returns a single record
	Get(ctx context.Context, id int64) (*T, error)

	// Create validates and stores a new record
	Create(ctx context.Context, req *C) (*T, error)

	// Patch applies a partial update
	Patch(ctx context.Context, id int64, payload map[string]interface{}) (*T, error)

	// Delete removes a record
	Delete(ctx context.Context, id int64) error
}

// RecordHandler handles the HTTP surface of one resource collection.
// Every success body wraps records in a list under the collection name.
type RecordHandler[T any, C any] struct {
	collection string
	service    RecordService[T, C]
	log        observability.Logger
}

// BookHandler serves /books
type BookHandler = RecordHandler[models.Book, models.CreateBookRequest]

// DegreeHandler serves /degrees
type DegreeHandler = RecordHandler[models.Degree, models.CreateDegreeRequest]

// NewBookHandler creates a new BookHandler
func NewBookHandler(service RecordService[models.Book, models.CreateBookRequest], logger *zap.Logger) *BookHandler {
	return &BookHandler{
		collection: "books",
		service:    service,
		log:        observability.NewContextLogger(logger),
	}
}

// NewDegreeHandler creates a new DegreeHandler
func NewDegreeHandler(service RecordService[models.Degree, models.CreateDegreeRequest], logger *zap.Logger) *DegreeHandler {
	return &DegreeHandler{
		collection: "degrees",
		service:    service,
		log:        observability.NewContextLogger(logger),
	}
}

// Collection returns the resource name used in paths, permissions and bodies
func (h *RecordHandler[T, C]) Collection() string {
	return h.collection
}

// HandleList handles GET /{collection}
func (h *RecordHandler[T, C]) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.List(ctx)
	if err != nil {
		HandleServiceError(ctx, w, err, h.log)
		return
	}

	h.log.Debug(ctx, "listed records",
		zap.String("collection", h.collection),
		zap.Int("count", len(records)))

	h.writeSuccess(ctx, w, map[string]interface{}{
		"total_" + h.collection: len(records),
		h.collection:            nonNil(records),
	})
}

// HandleGet handles GET /{collection}/{id}
func (h *RecordHandler[T, C]) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(ctx, w, services.NewDomainError(services.ErrorTypeNotFound, "invalid id", err), h.log)
		return
	}

	record, err := h.service.Get(ctx, id)
	if err != nil {
		HandleServiceError(ctx, w, err, h.log)
		return
	}

	h.writeRecord(ctx, w, record)
}

// HandleCreate handles POST /{collection}
func (h *RecordHandler[T, C]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req C
	if err := decodeBody(w, r, &req); err != nil {
		h.log.Warn(ctx, "failed to parse request body",
			zap.String("collection", h.collection),
			zap.Error(err))
		HandleServiceError(ctx, w, err, h.log)
		return
	}

	record, err := h.service.Create(ctx, &req)
	if err != nil {
		HandleServiceError(ctx, w, err, h.log)
		return
	}

	h.log.Info(ctx, "record created",
		zap.String("collection", h.collection),
		zap.String("sub", subject(ctx)))
	h.writeRecord(ctx, w, record)
}

// HandlePatch handles PATCH /{collection}/{id}
func (h *RecordHandler[T, C]) HandlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(ctx, w, services.WrapUnprocessable("invalid id", err), h.log)
		return
	}

	var payload map[string]interface{}
	if err := decodeBody(w, r, &payload); err != nil {
		h.log.Warn(ctx, "failed to parse request body",
			zap.String("collection", h.collection),
			zap.Int64("id", id),
			zap.Error(err))
		HandleServiceError(ctx, w, err, h.log)
		return
	}

	record, err := h.service.Patch(ctx, id, payload)
	if err != nil {
		HandleServiceError(ctx, w, err, h.log)
		return
	}

	h.log.Info(ctx, "record updated",
		zap.String("collection", h.collection),
		zap.Int64("id", id),
		zap.String("sub", subject(ctx)))
	h.writeRecord(ctx, w, record)
}

// HandleDelete handles DELETE /{collection}/{id}
func (h *RecordHandler[T, C]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(ctx, w, services.NewDomainError(services.ErrorTypeNotFound, "invalid id", err), h.log)
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		HandleServiceError(ctx, w, err, h.log)
		return
	}

	h.log.Info(ctx, "record deleted",
		zap.String("collection", h.collection),
		zap.Int64("id", id),
		zap.String("sub", subject(ctx)))
	h.writeSuccess(ctx, w, map[string]interface{}{"id_deleted": id})
}

// subject returns the token subject set by the permission guard, if any
func subject(ctx context.Context) string {
	if claims := middleware.GetClaimsFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

func (h *RecordHandler[T, C]) writeRecord(ctx context.Context, w http.ResponseWriter, record *T) {
	h.writeSuccess(ctx, w, map[string]interface{}{h.collection: []*T{record}})
}

func (h *RecordHandler[T, C]) writeSuccess(ctx context.Context, w http.ResponseWriter, fields map[string]interface{}) {
	if err := utils.WriteSuccess(w, fields); err != nil {
		h.log.Error(ctx, "failed to write response", zap.Error(err))
	}
}

// decodeBody decodes a JSON body into dst.
// Unparseable JSON is a bad request; well-formed JSON of the wrong shape is unprocessable.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &syntaxErr), errors.As(err, &maxBytesErr):
		return services.NewDomainError(services.ErrorTypeBadRequest, services.ErrInvalidBody.Message, err)
	default:
		return services.WrapUnprocessable("request body has the wrong shape", err)
	}
}

func nonNil[T any](records []*T) []*T {
	if records == nil {
		return []*T{}
	}
	return records
}
