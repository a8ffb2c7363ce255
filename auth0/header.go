package auth0

import "strings"

// ExtractBearerToken returns the token from an Authorization header value.
// The header must be exactly "Bearer <token>" with a single space separator
// (scheme is case-insensitive).
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", newAuthError(KindMissingOrMalformedHeader, CodeHeaderMissing,
			"Authorization header is expected.", nil)
	}

	parts := strings.Split(header, " ")
	switch {
	case strings.ToLower(parts[0]) != "bearer":
		return "", newAuthError(KindMissingOrMalformedHeader, CodeInvalidHeader,
			`Authorization header must start with "Bearer".`, nil)
	case len(parts) > 2:
		return "", newAuthError(KindMissingOrMalformedHeader, CodeInvalidHeader,
			"Authorization header must be bearer token.", nil)
	case len(parts) == 1 || parts[1] == "":
		return "", newAuthError(KindMissingOrMalformedHeader, CodeInvalidHeader,
			"Token not found.", nil)
	}

	return parts[1], nil
}
