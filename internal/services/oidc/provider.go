package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benvon/smart-planner/internal/models"
)

// DefaultScope is requested on every login
const DefaultScope = "openid email profile"

// Endpoints are the provider URLs advertised by discovery
type Endpoints struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// LoginConfig contains OIDC login configuration for frontend
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}

// Provider resolves the endpoints of the configured identity provider.
// Discovery results are cached for ttl; when discovery fails the endpoints
// are derived from the issuer.
type Provider struct {
	config     models.OIDCConfig
	httpClient *http.Client
	ttl        time.Duration

	mu        sync.Mutex
	endpoints *Endpoints
	fetchedAt time.Time
}

// NewProvider creates a provider for cfg. A nil client gets a 5s timeout client.
func NewProvider(cfg models.OIDCConfig, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Provider{
		config:     cfg,
		httpClient: httpClient,
		ttl:        time.Hour,
	}
}

// Config returns the provider settings
func (p *Provider) Config() models.OIDCConfig {
	return p.config
}

// Endpoints returns the discovered endpoints, falling back to issuer-derived ones
func (p *Provider) Endpoints(ctx context.Context) Endpoints {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.endpoints != nil && time.Since(p.fetchedAt) < p.ttl {
		return p.withOverrides(*p.endpoints)
	}

	discovered, err := p.discover(ctx)
	if err != nil {
		return p.withOverrides(p.fallback())
	}
	p.endpoints = discovered
	p.fetchedAt = time.Now()
	return p.withOverrides(*discovered)
}

// JWKSURL returns the key set location used to verify tokens
func (p *Provider) JWKSURL(ctx context.Context) string {
	return p.Endpoints(ctx).JWKSURI
}

// GetLoginConfig returns the configuration needed for frontend OIDC login
func (p *Provider) GetLoginConfig(ctx context.Context) (*LoginConfig, error) {
	if !p.config.Enabled() {
		return nil, ErrNotConfigured
	}
	endpoints := p.Endpoints(ctx)
	return &LoginConfig{
		AuthorizationEndpoint: endpoints.AuthorizationEndpoint,
		TokenEndpoint:         endpoints.TokenEndpoint,
		ClientID:              p.config.ClientID,
		RedirectURI:           p.config.RedirectURI,
		Scope:                 DefaultScope,
	}, nil
}

func (p *Provider) discover(ctx context.Context) (*Endpoints, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.IssuerURL()+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var endpoints Endpoints
	if err := json.NewDecoder(resp.Body).Decode(&endpoints); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if endpoints.AuthorizationEndpoint == "" || endpoints.TokenEndpoint == "" {
		return nil, fmt.Errorf("discovery document is missing endpoints")
	}
	return &endpoints, nil
}

func (p *Provider) fallback() Endpoints {
	issuer := p.config.IssuerURL()
	return Endpoints{
		AuthorizationEndpoint: issuer + "/oauth2/authorize",
		TokenEndpoint:         issuer + "/oauth2/token",
		JWKSURI:               issuer + "/.well-known/jwks.json",
	}
}

func (p *Provider) withOverrides(e Endpoints) Endpoints {
	if p.config.JWKSURL != "" {
		e.JWKSURI = p.config.JWKSURL
	}
	if e.JWKSURI == "" {
		e.JWKSURI = p.fallback().JWKSURI
	}
	return e
}
