package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/estora/storefront/errors"
	"github.com/estora/storefront/session"
	"github.com/estora/storefront/transport"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewMemStore()
	tp, err := transport.New(transport.Config{BaseURL: srv.URL}, store)
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	return NewClient(tp, store, ""), store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestLoginStoresToken(t *testing.T) {
	var body map[string]string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/jwt-auth/v1/token" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"token":             "jwt-abc",
			"user_email":        "ada@example.com",
			"user_nicename":     "ada",
			"user_display_name": "Ada Lovelace",
		})
	}))

	user, err := c.Login(context.Background(), "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if body["username"] != "ada@example.com" || body["password"] != "secret" {
		t.Errorf("body = %v", body)
	}
	if store.AuthToken() != "jwt-abc" {
		t.Errorf("stored token = %q", store.AuthToken())
	}
	if user.Email != "ada@example.com" || user.DisplayName != "Ada Lovelace" {
		t.Errorf("user = %+v", user)
	}
}

func TestLoginTokenEnvelopes(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]any
	}{
		{"authToken", map[string]any{"authToken": "jwt-abc"}},
		{"nested data", map[string]any{"data": map[string]any{"token": "jwt-abc"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(tt.response)
			}))
			if _, err := c.Login(context.Background(), "ada", "secret"); err != nil {
				t.Fatalf("Login: %v", err)
			}
			if store.AuthToken() != "jwt-abc" {
				t.Errorf("stored token = %q", store.AuthToken())
			}
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"message": "Invalid credentials"})
	}))

	_, err := c.Login(context.Background(), "ada", "wrong")
	ae, ok := apperrors.AsAppError(err)
	if !ok || ae.Code != apperrors.ErrCodeUnauthorized {
		t.Errorf("err = %v, want %s", err, apperrors.ErrCodeUnauthorized)
	}
	if store.AuthToken() != "" {
		t.Error("no token should be stored on failure")
	}
}

func TestLoginMissingToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"user_email": "ada@example.com"})
	}))

	_, err := c.Login(context.Background(), "ada", "secret")
	ae, ok := apperrors.AsAppError(err)
	if !ok || ae.Code != apperrors.ErrCodeBackend {
		t.Errorf("err = %v, want %s", err, apperrors.ErrCodeBackend)
	}
}

func TestLoginValidation(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued")
	}))

	for _, creds := range [][2]string{{"", "secret"}, {"ada", ""}, {"  ", "secret"}} {
		_, err := c.Login(context.Background(), creds[0], creds[1])
		ae, ok := apperrors.AsAppError(err)
		if !ok || ae.Code != apperrors.ErrCodeInvalidInput {
			t.Errorf("Login(%q, %q) err = %v, want %s", creds[0], creds[1], err, apperrors.ErrCodeInvalidInput)
		}
	}
}

func TestLogout(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	store.SetAuthToken("jwt-abc")

	c.Logout()
	if store.AuthToken() != "" {
		t.Error("token should be cleared")
	}
}

func TestAuthenticated(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	if c.Authenticated() {
		t.Error("empty store should not be authenticated")
	}

	store.SetAuthToken(signedToken(t, time.Now().Add(time.Hour)))
	if !c.Authenticated() {
		t.Error("valid token should be authenticated")
	}

	store.SetAuthToken(signedToken(t, time.Now().Add(-time.Hour)))
	if c.Authenticated() {
		t.Error("expired token should not be authenticated")
	}
	if store.AuthToken() != "" {
		t.Error("expired token should be discarded")
	}
}
