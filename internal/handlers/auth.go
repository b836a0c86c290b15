package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/smart-planner/internal/middleware"
	"github.com/benvon/smart-planner/internal/services/oidc"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// LoginConfigProvider supplies the frontend login settings
type LoginConfigProvider interface {
	GetLoginConfig(ctx context.Context) (*oidc.LoginConfig, error)
}

// CodeExchanger runs the authorization code flow
type CodeExchanger interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, string, error)
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	provider LoginConfigProvider
	client   CodeExchanger
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider LoginConfigProvider, client CodeExchanger, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, client: client, logger: logger}
}

// RegisterPublicRoutes registers the login routes. The router should already have the /auth prefix.
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	r.HandleFunc("/oidc/callback", h.Callback).Methods("POST")
}

// LoginResponse carries the provider settings and a ready-made authorization URL
type LoginResponse struct {
	*oidc.LoginConfig
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// CallbackRequest carries the code returned by the provider
type CallbackRequest struct {
	Code string `json:"code" validate:"required,max=2048"`
}

// CallbackResponse carries the issued tokens
type CallbackResponse struct {
	IDToken      string `json:"id_token,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// GetOIDCLogin returns OIDC configuration for frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	loginConfig, err := h.provider.GetLoginConfig(r.Context())
	if err != nil {
		if errors.Is(err, oidc.ErrNotConfigured) {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Login is not configured")
			return
		}
		h.logger.Error("failed_to_get_login_config", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get OIDC configuration")
		return
	}

	state := uuid.NewString()
	respondJSON(w, http.StatusOK, LoginResponse{
		LoginConfig:      loginConfig,
		AuthorizationURL: h.client.AuthCodeURL(state),
		State:            state,
	})
}

// Callback exchanges an authorization code for tokens
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, idToken, err := h.client.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Warn("oidc_code_exchange_failed", zap.Error(err))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authorization code was rejected")
		return
	}

	resp := CallbackResponse{
		IDToken:      idToken,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
	}
	if !token.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
