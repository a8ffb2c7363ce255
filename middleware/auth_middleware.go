package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/lifelog-api/auth0"
	"github.com/upb/lifelog-api/utils"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating bearer tokens
type TokenValidator interface {
	// ValidateToken verifies a token and returns its claims.
	// Failures should be *auth0.AuthError.
	ValidateToken(ctx context.Context, token string) (*auth0.Claims, error)
}

// AuthMiddleware guards mutating routes with token verification and permission checks
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequirePermission verifies the bearer token and requires permission in its claims.
// The wrapped handler only runs when both checks pass.
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			token, err := auth0.ExtractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				m.reject(w, requestID, permission, err)
				return
			}

			claims, err := m.validator.ValidateToken(ctx, token)
			if err != nil {
				m.reject(w, requestID, permission, err)
				return
			}

			if err := auth0.CheckPermission(claims, permission); err != nil {
				m.reject(w, requestID, permission, err)
				return
			}

			m.logger.Debug("permission granted",
				zap.String("request_id", requestID),
				zap.String("sub", claims.Subject),
				zap.String("permission", permission))

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// reject writes the auth failure body. Errors that are not *auth0.AuthError
// are reported as an unparseable token.
func (m *AuthMiddleware) reject(w http.ResponseWriter, requestID, permission string, err error) {
	authErr, ok := auth0.AsAuthError(err)
	if !ok {
		authErr = &auth0.AuthError{
			Kind:        auth0.KindInvalidToken,
			Code:        auth0.CodeInvalidHeader,
			Description: "Unable to parse authentication token.",
			Err:         err,
		}
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("permission", permission),
		zap.String("kind", string(authErr.Kind)),
		zap.String("code", authErr.Code),
	}
	if authErr.Err != nil {
		fields = append(fields, zap.Error(authErr.Err))
	}

	switch {
	case errors.Is(err, auth0.ErrJWKSFetchFailed):
		m.logger.Error("signing keys unavailable", fields...)
	case auth0.IsKind(err, auth0.KindNoPermissionsInClaims), auth0.IsKind(err, auth0.KindPermissionNotGranted):
		m.logger.Warn("permission denied", fields...)
	default:
		m.logger.Warn("request rejected", fields...)
	}

	_ = utils.WriteAuthError(w, authErr.StatusCode(), authErr.Code, authErr.Description)
}
