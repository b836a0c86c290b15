package oidc

import "errors"

var (
	// ErrNotConfigured is returned when no issuer or client id is set
	ErrNotConfigured = errors.New("oidc provider not configured")
	// ErrInvalidToken wraps every verification failure
	ErrInvalidToken = errors.New("invalid token")
)
