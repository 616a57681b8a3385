package generation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildURL(t *testing.T) {
	c := NewClient("https://gen.example.com/image", "")

	url := c.BuildURL("a fox in the snow", "flux", 4242)

	if !strings.HasPrefix(url, "https://gen.example.com/image/a%20fox%20in%20the%20snow?") {
		t.Errorf("url prefix wrong: %q", url)
	}
	for _, param := range []string{"model=flux", "seed=4242", "width=1024", "height=1024", "nologo=true"} {
		if !strings.Contains(url, param) {
			t.Errorf("url missing %q: %q", param, url)
		}
	}
}

func TestBuildURL_ZeroSeedOmitted(t *testing.T) {
	c := NewClient("https://gen.example.com/image", "")

	url := c.BuildURL("prompt", "flux", 0)
	if strings.Contains(url, "seed=") {
		t.Errorf("zero seed should be omitted: %q", url)
	}
}

func TestGenerate_NoKeyReturnsPublicURL(t *testing.T) {
	// Without a key there must be no network call at all; an unroutable base
	// URL proves it.
	c := NewClient("https://gen.invalid/image", "")

	result, err := c.Generate(context.Background(), Options{Prompt: "p", Model: "flux", Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ImageURL != result.ProviderURL {
		t.Error("public tier should return the provider URL as the image URL")
	}
}

func TestGenerate_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"ok", http.StatusOK, nil},
		{"unauthorized", http.StatusUnauthorized, ErrInvalidAPIKey},
		{"payment required", http.StatusPaymentRequired, ErrInsufficientQuota},
		{"too many requests", http.StatusTooManyRequests, ErrInsufficientQuota},
		{"forbidden", http.StatusForbidden, ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewClient(server.URL, "test-key")

			result, err := c.Generate(context.Background(), Options{Prompt: "p", Model: "flux", Seed: 1})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result == nil || result.ImageURL == "" {
				t.Fatal("expected a result with an image URL")
			}
			if gotAuth != "Bearer test-key" {
				t.Errorf("authorization header = %q, want %q", gotAuth, "Bearer test-key")
			}
		})
	}
}

func TestGenerate_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key")

	_, err := c.Generate(context.Background(), Options{Prompt: "p", Model: "flux"})
	if err == nil {
		t.Fatal("expected error for provider 500")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the status code: %v", err)
	}
}
