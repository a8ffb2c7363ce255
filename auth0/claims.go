package auth0

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claims carried by an access token issued for the API
type Claims struct {
	jwt.RegisteredClaims

	// Permissions is nil when the token has no "permissions" claim at all;
	// an empty JSON array decodes to a non-nil empty slice.
	Permissions []string `json:"permissions"`
}

// HasPermissionsClaim reports whether the token carried a permission list
func (c *Claims) HasPermissionsClaim() bool {
	return c.Permissions != nil
}

// CheckPermission verifies that claims grant the required permission
func CheckPermission(claims *Claims, permission string) error {
	if claims == nil || !claims.HasPermissionsClaim() {
		return newAuthError(KindNoPermissionsInClaims, CodeInvalidClaims,
			"Permissions not included in JWT.", nil)
	}

	if !slices.Contains(claims.Permissions, permission) {
		return newAuthError(KindPermissionNotGranted, CodeUnauthorized,
			"Permission not found.", nil)
	}

	return nil
}
