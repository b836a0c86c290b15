package oidc

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Client wraps the OAuth2 authorization code flow
type Client struct {
	config *oauth2.Config
}

// NewClient creates an OAuth2 client from the provider's endpoints
func NewClient(ctx context.Context, provider *Provider) *Client {
	cfg := provider.Config()
	endpoints := provider.Endpoints(ctx)

	return &Client{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  endpoints.AuthorizationEndpoint,
			TokenURL: endpoints.TokenEndpoint,
		},
	}}
}

// ExchangeCode exchanges an authorization code and returns the ID token
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, string, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange code: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	return token, idToken, nil
}

// AuthCodeURL returns the authorization URL
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}
