package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Discovery holds the OIDC discovery document fields the sign-in flow needs.
type Discovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

var (
	discoveryMu    sync.RWMutex
	discoveryCache = map[string]*cachedDiscovery{}
	// discoveryTTL bounds how long metadata is reused before re-fetching.
	discoveryTTL = time.Hour
)

type cachedDiscovery struct {
	value     *Discovery
	expiresAt time.Time
}

var discoveryHTTPClient = &http.Client{Timeout: 10 * time.Second}

// Discover fetches the authority's discovery document, hitting the network
// only when the cached copy is missing or stale.
func Discover(ctx context.Context, authority string) (*Discovery, error) {
	authority = strings.TrimSuffix(authority, "/")

	discoveryMu.RLock()
	item, found := discoveryCache[authority]
	if found && time.Now().Before(item.expiresAt) {
		val := item.value
		discoveryMu.RUnlock()
		return val, nil
	}
	discoveryMu.RUnlock()

	discoveryURL := authority + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}

	resp, err := discoveryHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var doc Discovery
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}

	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return nil, fmt.Errorf("discovery document missing authorization or token endpoint")
	}

	discoveryMu.Lock()
	discoveryCache[authority] = &cachedDiscovery{value: &doc, expiresAt: time.Now().Add(discoveryTTL)}
	discoveryMu.Unlock()

	return &doc, nil
}

// resetDiscoveryCache clears cached metadata. Used by tests.
func resetDiscoveryCache() {
	discoveryMu.Lock()
	discoveryCache = map[string]*cachedDiscovery{}
	discoveryMu.Unlock()
}
