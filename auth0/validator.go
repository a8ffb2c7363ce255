package auth0

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWKS represents the JSON Web Key Set published by the identity provider
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Config holds configuration for Validator
type Config struct {
	Domain   string
	Audience string

	// Issuer and JWKSURL default to values derived from Domain
	Issuer  string
	JWKSURL string

	// CacheTTL of zero keeps the key set until InvalidateCache is called
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

// Validator verifies RS256 access tokens against the provider's published keys.
// Keys are fetched lazily on first use and shared by all requests.
type Validator struct {
	issuer     string
	audience   string
	jwksURL    string
	httpClient *http.Client
	parser     *jwt.Parser

	cacheTTL time.Duration

	// fetchMu serializes key set downloads so concurrent first requests fetch once
	fetchMu sync.Mutex

	cacheMu   sync.RWMutex
	keyCache  map[string]*rsa.PublicKey // nil until the first successful fetch
	fetchedAt time.Time
}

// NewValidator creates a new token validator
func NewValidator(config Config) *Validator {
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 10 * time.Second
	}
	if config.Issuer == "" {
		config.Issuer = fmt.Sprintf("https://%s/", config.Domain)
	}
	if config.JWKSURL == "" {
		config.JWKSURL = fmt.Sprintf("https://%s/.well-known/jwks.json", config.Domain)
	}

	return &Validator{
		issuer:   config.Issuer,
		audience: config.Audience,
		jwksURL:  config.JWKSURL,
		cacheTTL: config.CacheTTL,
		httpClient: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(config.Audience),
			jwt.WithIssuer(config.Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// ValidateToken verifies signature, audience, issuer and expiry, returning the decoded claims.
// Failures are always *AuthError.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, ErrMissingKID
		}
		return v.getPublicKey(ctx, kid)
	})
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, newAuthError(KindInvalidToken, CodeInvalidHeader,
			"Unable to parse authentication token.", nil)
	}

	return claims, nil
}

func classifyParseError(err error) *AuthError {
	switch {
	case errors.Is(err, ErrMissingKID):
		return newAuthError(KindInvalidToken, CodeInvalidHeader, "Authorization malformed.", err)
	case errors.Is(err, ErrUnknownSigningKey), errors.Is(err, ErrJWKSFetchFailed):
		return newAuthError(KindUnknownSigningKey, CodeInvalidHeader, "Unable to find the appropriate key.", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newAuthError(KindInvalidToken, CodeTokenExpired, "Token expired.", err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience), errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return newAuthError(KindInvalidToken, CodeInvalidClaims,
			"Incorrect claims. Please, check the audience and issuer.", err)
	default:
		return newAuthError(KindInvalidToken, CodeInvalidHeader, "Unable to parse authentication token.", err)
	}
}

// FetchJWKS downloads the key set from the provider without touching the cache
func (v *Validator) FetchJWKS(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrJWKSFetchFailed, err)
	}

	return &jwks, nil
}

// getPublicKey retrieves the public key for a given kid, loading the key set on first need
func (v *Validator) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if keys, ok := v.cachedKeys(); ok {
		return lookupKey(keys, kid)
	}

	keys, err := v.loadKeys(ctx)
	if err != nil {
		return nil, err
	}
	return lookupKey(keys, kid)
}

func lookupKey(keys map[string]*rsa.PublicKey, kid string) (*rsa.PublicKey, error) {
	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid %s", ErrUnknownSigningKey, kid)
	}
	return key, nil
}

// cachedKeys returns the cached key map when it is populated and not stale
func (v *Validator) cachedKeys() (map[string]*rsa.PublicKey, bool) {
	v.cacheMu.RLock()
	defer v.cacheMu.RUnlock()

	if v.keyCache == nil {
		return nil, false
	}
	if v.cacheTTL > 0 && time.Since(v.fetchedAt) >= v.cacheTTL {
		return nil, false
	}
	return v.keyCache, true
}

func (v *Validator) loadKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()

	// Another request may have completed the fetch while we waited
	if keys, ok := v.cachedKeys(); ok {
		return keys, nil
	}

	jwks, err := v.FetchJWKS(ctx)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for i := range jwks.Keys {
		jwk := &jwks.Keys[i]
		if jwk.Kid == "" || jwk.Kty != "RSA" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		publicKey, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = publicKey
	}

	v.cacheMu.Lock()
	v.keyCache = keys
	v.fetchedAt = time.Now()
	v.cacheMu.Unlock()

	return keys, nil
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, errors.New("empty key material")
	}

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

// InvalidateCache drops the cached key set; the next token triggers a refetch
func (v *Validator) InvalidateCache() {
	v.cacheMu.Lock()
	defer v.cacheMu.Unlock()
	v.keyCache = nil
	v.fetchedAt = time.Time{}
}

// CacheStats returns cache statistics
func (v *Validator) CacheStats() map[string]interface{} {
	v.cacheMu.RLock()
	defer v.cacheMu.RUnlock()

	stats := map[string]interface{}{
		"jwks_cached":       v.keyCache != nil,
		"cached_keys_count": len(v.keyCache),
	}
	if v.keyCache != nil {
		stats["jwks_fetched_at"] = v.fetchedAt
	}
	return stats
}
