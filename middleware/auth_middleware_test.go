package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifelog-api/auth0"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*auth0.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth0.Claims), args.Error(1)
}

func decodeAuthBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func mustNotRun(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
}

func TestRequirePermission(t *testing.T) {
	logger := zap.NewNop()

	t.Run("granted permission reaches the handler with claims", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		middleware := NewAuthMiddleware(mockValidator, logger)

		claims := &auth0.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "auth0|user-123"},
			Permissions:      []string{"get:books", "post:books"},
		}
		mockValidator.On("ValidateToken", mock.Anything, "valid-token").Return(claims, nil)

		handler := middleware.RequirePermission("post:books")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			extracted := GetClaimsFromContext(r.Context())
			require.NotNil(t, extracted)
			assert.Equal(t, "auth0|user-123", extracted.Subject)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockValidator.AssertExpectations(t)
	})

	t.Run("missing header", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		middleware := NewAuthMiddleware(mockValidator, logger)

		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		w := httptest.NewRecorder()

		middleware.RequirePermission("post:books")(mustNotRun(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeAuthBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, auth0.CodeHeaderMissing, body["error"])
		assert.Equal(t, "Authorization header is expected.", body["message"])
		mockValidator.AssertNotCalled(t, "ValidateToken")
	})

	t.Run("malformed header", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		middleware := NewAuthMiddleware(mockValidator, logger)

		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		middleware.RequirePermission("post:books")(mustNotRun(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, auth0.CodeInvalidHeader, decodeAuthBody(t, w)["error"])
		mockValidator.AssertNotCalled(t, "ValidateToken")
	})

	t.Run("token rejected by validator", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		middleware := NewAuthMiddleware(mockValidator, logger)

		mockValidator.On("ValidateToken", mock.Anything, "expired").Return(nil, &auth0.AuthError{
			Kind:        auth0.KindInvalidToken,
			Code:        auth0.CodeTokenExpired,
			Description: "Token expired.",
		})

		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req.Header.Set("Authorization", "Bearer expired")
		w := httptest.NewRecorder()

		middleware.RequirePermission("post:books")(mustNotRun(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeAuthBody(t, w)
		assert.Equal(t, auth0.CodeTokenExpired, body["error"])
		assert.Equal(t, "Token expired.", body["message"])
	})

	t.Run("untyped validator error", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		middleware := NewAuthMiddleware(mockValidator, logger)

		mockValidator.On("ValidateToken", mock.Anything, "weird").Return(nil, errors.New("boom"))

		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req.Header.Set("Authorization", "Bearer weird")
		w := httptest.NewRecorder()

		middleware.RequirePermission("post:books")(mustNotRun(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, auth0.CodeInvalidHeader, decodeAuthBody(t, w)["error"])
	})

	t.Run("no permissions claim", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		middleware := NewAuthMiddleware(mockValidator, logger)

		mockValidator.On("ValidateToken", mock.Anything, "t").Return(&auth0.Claims{}, nil)

		req := httptest.NewRequest(http.MethodDelete, "/books/1", nil)
		req.Header.Set("Authorization", "Bearer t")
		w := httptest.NewRecorder()

		middleware.RequirePermission("delete:books")(mustNotRun(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeAuthBody(t, w)
		assert.Equal(t, auth0.CodeInvalidClaims, body["error"])
		assert.Equal(t, "Permissions not included in JWT.", body["message"])
	})

	t.Run("permission for another resource", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		middleware := NewAuthMiddleware(mockValidator, logger)

		mockValidator.On("ValidateToken", mock.Anything, "t").
			Return(&auth0.Claims{Permissions: []string{"post:degrees"}}, nil)

		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req.Header.Set("Authorization", "Bearer t")
		w := httptest.NewRecorder()

		middleware.RequirePermission("post:books")(mustNotRun(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeAuthBody(t, w)
		assert.Equal(t, auth0.CodeUnauthorized, body["error"])
		assert.Equal(t, "Permission not found.", body["message"])
	})
}

func TestRejectionLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mockValidator := new(MockTokenValidator)
	middleware := NewAuthMiddleware(mockValidator, zap.New(core))

	mockValidator.On("ValidateToken", mock.Anything, "t").
		Return(&auth0.Claims{Permissions: []string{"post:degrees"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/books", nil)
	req.Header.Set("Authorization", "Bearer t")
	middleware.RequirePermission("post:books")(mustNotRun(t)).ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/books", nil)
	middleware.RequirePermission("post:books")(mustNotRun(t)).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.FilterMessage("permission denied").Len())
	assert.Equal(t, string(auth0.KindPermissionNotGranted),
		logs.FilterMessage("permission denied").All()[0].ContextMap()["kind"])
	assert.Equal(t, 1, logs.FilterMessage("request rejected").Len())
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetClaimsFromContext(ctx))

	claims := &auth0.Claims{Permissions: []string{"patch:books"}}
	ctx = WithClaims(ctx, claims)
	assert.Same(t, claims, GetClaimsFromContext(ctx))
}
