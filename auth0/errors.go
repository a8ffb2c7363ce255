package auth0

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a request failed authentication or authorization
type Kind string

const (
	KindMissingOrMalformedHeader Kind = "missing_or_malformed_header"
	KindUnknownSigningKey        Kind = "unknown_signing_key"
	KindInvalidToken             Kind = "invalid_token"
	KindNoPermissionsInClaims    Kind = "no_permissions_in_claims"
	KindPermissionNotGranted     Kind = "permission_not_granted"
)

// Provider error codes sent back to clients in the "error" field
const (
	CodeHeaderMissing = "authorization_header_missing"
	CodeInvalidHeader = "invalid_header"
	CodeTokenExpired  = "token_expired"
	CodeInvalidClaims = "invalid_claims"
	CodeUnauthorized  = "unauthorized"
)

var (
	// ErrUnknownSigningKey is returned when no key in the JWKS matches the token's kid
	ErrUnknownSigningKey = errors.New("unknown signing key")

	// ErrJWKSFetchFailed is returned when the key set cannot be retrieved
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

	// ErrMissingKID is returned when the token header carries no kid
	ErrMissingKID = errors.New("kid header not found")
)

// AuthError is the typed failure produced by the verifier and the permission check.
// Every kind maps to 401: authentication and authorization failures are not distinguished.
type AuthError struct {
	Kind        Kind
	Code        string
	Description string
	Err         error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the failure
func (e *AuthError) StatusCode() int {
	return http.StatusUnauthorized
}

func newAuthError(kind Kind, code, description string, err error) *AuthError {
	return &AuthError{Kind: kind, Code: code, Description: description, Err: err}
}

// AsAuthError extracts an *AuthError from err
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *AuthError of the given kind
func IsKind(err error, kind Kind) bool {
	authErr, ok := AsAuthError(err)
	return ok && authErr.Kind == kind
}
