package models

import "strings"

// OIDCConfig describes the identity provider the API trusts
type OIDCConfig struct {
	Issuer       string `json:"issuer"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"`
	RedirectURI  string `json:"redirect_uri"`
	// JWKSURL overrides the key set location advertised by discovery
	JWKSURL string `json:"jwks_url,omitempty"`
}

// Enabled reports whether enough is configured to verify tokens
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != ""
}

// IssuerURL returns the issuer with any trailing slash removed
func (c OIDCConfig) IssuerURL() string {
	return strings.TrimRight(c.Issuer, "/")
}
