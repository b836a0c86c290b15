package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/smart-planner/internal/models"
)

func TestParseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    Classification
		wantErr error
	}{
		{
			name:    "plain json",
			content: `{"category":"deep","duration":60}`,
			want:    Classification{Category: models.CategoryDeep, Duration: models.Duration60},
		},
		{
			name:    "string duration and mixed case",
			content: `{"category":"Admin","duration":"15"}`,
			want:    Classification{Category: models.CategoryAdmin, Duration: models.Duration15},
		},
		{
			name:    "wrapped in prose",
			content: "Sure! {\"category\":\"light\",\"duration\":30} Hope that helps.",
			want:    Classification{Category: models.CategoryLight, Duration: models.Duration30},
		},
		{
			name:    "unknown category",
			content: `{"category":"urgent","duration":30}`,
			wantErr: ErrInvalidClassification,
		},
		{
			name:    "off-bucket duration",
			content: `{"category":"deep","duration":45}`,
			wantErr: ErrInvalidClassification,
		},
		{
			name:    "missing duration",
			content: `{"category":"deep"}`,
			wantErr: ErrInvalidClassification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseClassification(tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}

	if _, err := parseClassification("no json here"); err == nil {
		t.Error("Expected error for non-json content")
	}
}

func TestBuildClassifyPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildClassifyPrompt("Write quarterly report")
	for _, want := range []string{`"Write quarterly report"`, `"deep" | "light" | "admin"`, "15 | 30 | 60"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func chatCompletionBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return body
}

func newTestClassifier(t *testing.T, handler http.HandlerFunc) *OpenAIClassifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	noRetries := 0
	return NewOpenAIClassifier(OpenAIOptions{
		APIKey:     "sk-test-key",
		BaseURL:    server.URL,
		MaxRetries: &noRetries,
	})
}

func TestOpenAIClassifier_Classify(t *testing.T) {
	t.Parallel()

	var gotPath string
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatCompletionBody(`{"category":"admin","duration":15}`))
	})

	got, err := c.Classify(context.Background(), "Reply to John")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Category != models.CategoryAdmin || got.Duration != models.Duration15 {
		t.Errorf("Expected admin/15, got %+v", got)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("Expected request to /chat/completions, got %s", gotPath)
	}
}

func TestOpenAIClassifier_QuotaError(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`))
	})

	_, err := c.Classify(context.Background(), "Reply to John")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !IsQuotaError(err) {
		t.Errorf("Expected quota error, got %v", err)
	}
}

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", RedactedValue},
		{"sk-1234567890abcd", "sk-1" + RedactedValue + "abcd"},
	}
	for _, tt := range tests {
		if got := SanitizeAPIKey(tt.in); got != tt.want {
			t.Errorf("SanitizeAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
