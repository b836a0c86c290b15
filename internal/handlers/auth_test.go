package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/smart-planner/internal/middleware"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/oidc"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type mockLoginProvider struct {
	config *oidc.LoginConfig
	err    error
}

func (m *mockLoginProvider) GetLoginConfig(ctx context.Context) (*oidc.LoginConfig, error) {
	return m.config, m.err
}

type mockExchanger struct {
	exchangeFunc func(ctx context.Context, code string) (*oauth2.Token, string, error)
}

func (m *mockExchanger) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (m *mockExchanger) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, string, error) {
	return m.exchangeFunc(ctx, code)
}

func TestGetOIDCLogin(t *testing.T) {
	t.Parallel()

	t.Run("configured", func(t *testing.T) {
		t.Parallel()
		h := NewAuthHandler(&mockLoginProvider{config: &oidc.LoginConfig{ClientID: "client-1", Scope: oidc.DefaultScope}}, &mockExchanger{}, zap.NewNop())
		w := httptest.NewRecorder()
		h.GetOIDCLogin(w, httptest.NewRequest("GET", "/api/v1/auth/oidc/login", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp struct {
			ClientID         string `json:"client_id"`
			AuthorizationURL string `json:"authorization_url"`
			State            string `json:"state"`
		}
		decodeData(t, w, &resp)
		if resp.ClientID != "client-1" {
			t.Errorf("Expected client_id 'client-1', got '%s'", resp.ClientID)
		}
		if resp.State == "" || !strings.HasSuffix(resp.AuthorizationURL, resp.State) {
			t.Errorf("Expected authorization URL to carry state, got %q / %q", resp.AuthorizationURL, resp.State)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		h := NewAuthHandler(&mockLoginProvider{err: oidc.ErrNotConfigured}, &mockExchanger{}, zap.NewNop())
		w := httptest.NewRecorder()
		h.GetOIDCLogin(w, httptest.NewRequest("GET", "/api/v1/auth/oidc/login", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		exchange   func(ctx context.Context, code string) (*oauth2.Token, string, error)
		wantStatus int
	}{
		{
			name: "success",
			body: `{"code":"abc"}`,
			exchange: func(ctx context.Context, code string) (*oauth2.Token, string, error) {
				return &oauth2.Token{AccessToken: "access", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, "id-token", nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "rejected code",
			body: `{"code":"abc"}`,
			exchange: func(ctx context.Context, code string) (*oauth2.Token, string, error) {
				return nil, "", errors.New("invalid_grant")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing code",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewAuthHandler(&mockLoginProvider{}, &mockExchanger{exchangeFunc: tt.exchange}, zap.NewNop())
			w := httptest.NewRecorder()
			h.Callback(w, httptest.NewRequest("POST", "/api/v1/auth/oidc/callback", strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK {
				var resp CallbackResponse
				decodeData(t, w, &resp)
				if resp.IDToken != "id-token" || resp.AccessToken != "access" {
					t.Errorf("Unexpected tokens %+v", resp)
				}
				if resp.ExpiresIn <= 0 {
					t.Errorf("Expected positive expires_in, got %d", resp.ExpiresIn)
				}
			}
		})
	}
}

func TestGetMe(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(&mockLoginProvider{}, &mockExchanger{}, zap.NewNop())

	w := httptest.NewRecorder()
	h.GetMe(w, httptest.NewRequest("GET", "/api/v1/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	user := &models.User{ID: uuid.New(), Email: "jane@example.com"}
	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	w = httptest.NewRecorder()
	h.GetMe(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got models.User
	decodeData(t, w, &got)
	if got.Email != "jane@example.com" {
		t.Errorf("Expected email 'jane@example.com', got '%s'", got.Email)
	}
}
