package identity

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Profile holds the user identity extracted from a verified ID token.
// Cognito puts the sign-in name under "cognito:username" and group
// membership under "cognito:groups".
type Profile struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Groups    []string  `json:"groups,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var (
	jwksMu    sync.RWMutex
	jwksCache = map[string]*cachedJWKS{}
	// jwksTTL bounds how long signing keys are reused before re-fetching.
	jwksTTL = time.Hour
)

type cachedJWKS struct {
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

// ParseProfile extracts identity claims without verifying the signature.
// Use it for display only (status output, workspace greeting); the backend
// re-validates every token it receives.
func ParseProfile(rawToken string) (*Profile, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(rawToken, claims); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}

	return profileFromClaims(claims), nil
}

// VerifyIDToken checks the token signature against the authority's JWKS and
// validates issuer, audience, expiry, and (when expected) the nonce minted
// at the start of the sign-in flow.
func VerifyIDToken(ctx context.Context, disc *Discovery, spec *ProviderSpec, rawToken, expectedNonce string) (*Profile, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing kid header")
	}

	publicKey, err := fetchSigningKey(ctx, disc.JwksURI, kid)
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key: %w", err)
	}

	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	}, jwt.WithIssuer(disc.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if err := checkAudience(claims, spec.ClientID); err != nil {
		return nil, err
	}

	if expectedNonce != "" && getStringClaim(claims, "nonce") != expectedNonce {
		return nil, fmt.Errorf("nonce mismatch")
	}

	return profileFromClaims(claims), nil
}

func checkAudience(claims jwt.MapClaims, clientID string) error {
	if clientID == "" {
		return nil
	}

	switch aud := claims["aud"].(type) {
	case string:
		if aud != clientID {
			return fmt.Errorf("invalid audience")
		}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok && s == clientID {
				return nil
			}
		}
		return fmt.Errorf("invalid audience")
	default:
		return fmt.Errorf("invalid audience")
	}

	return nil
}

func profileFromClaims(claims jwt.MapClaims) *Profile {
	profile := &Profile{
		Subject:  getStringClaim(claims, "sub"),
		Email:    getStringClaim(claims, "email"),
		Username: getStringClaim(claims, "cognito:username"),
		Groups:   getStringSliceClaim(claims, "cognito:groups"),
	}

	if exp := getInt64Claim(claims, "exp"); exp > 0 {
		profile.ExpiresAt = time.Unix(exp, 0).UTC()
	}

	// Fall back to generic claims for non-Cognito authorities.
	if profile.Username == "" {
		profile.Username = getStringClaim(claims, "preferred_username")
	}
	if profile.Username == "" {
		profile.Username = profile.Email
	}

	return profile
}

// fetchSigningKey looks up the RSA public key for a key ID, fetching and
// caching the JWKS document when needed.
func fetchSigningKey(ctx context.Context, jwksURI, kid string) (*rsa.PublicKey, error) {
	jwksMu.RLock()
	if item, ok := jwksCache[jwksURI]; ok && time.Now().Before(item.expiresAt) {
		if key, ok := item.keys[kid]; ok {
			jwksMu.RUnlock()
			return key, nil
		}
	}
	jwksMu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := discoveryHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch JWKS: status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []map[string]interface{} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, key := range jwks.Keys {
		keyID, ok := key["kid"].(string)
		if !ok {
			continue
		}
		pubKey, convErr := jwkToPublicKey(key)
		if convErr != nil {
			continue
		}
		keys[keyID] = pubKey
	}

	jwksMu.Lock()
	jwksCache[jwksURI] = &cachedJWKS{keys: keys, expiresAt: time.Now().Add(jwksTTL)}
	jwksMu.Unlock()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}

	return key, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func getInt64Claim(claims jwt.MapClaims, key string) int64 {
	if val, ok := claims[key].(float64); ok {
		return int64(val)
	}
	return 0
}

func getStringSliceClaim(claims jwt.MapClaims, key string) []string {
	raw, ok := claims[key].([]interface{})
	if !ok {
		return nil
	}

	vals := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			vals = append(vals, s)
		}
	}

	if len(vals) == 0 {
		return nil
	}

	return vals
}
