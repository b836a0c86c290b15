package oidc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

type cachedKeySet struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager fetches key sets and caches them per URL
type JWKSManager struct {
	mu         sync.RWMutex
	cache      map[string]cachedKeySet
	ttl        time.Duration
	httpClient *http.Client
}

// NewJWKSManager creates a new JWKS manager
func NewJWKSManager(ttl time.Duration) *JWKSManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWKSManager{
		cache:      make(map[string]cachedKeySet),
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetJWKS retrieves the key set at jwksURL, with caching
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	entry, ok := m.cache[jwksURL]
	m.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.keys, nil
	}

	keys, err := jwk.Fetch(ctx, jwksURL, jwk.WithHTTPClient(m.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.cache[jwksURL] = cachedKeySet{keys: keys, expires: time.Now().Add(m.ttl)}
	m.mu.Unlock()

	return keys, nil
}
