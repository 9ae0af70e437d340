// Package account manages customer authentication. The bearer token it
// obtains is stored in the session store, where the transport picks it up
// for non-cart requests.
package account

import (
	"context"
	"net/http"
	"strings"

	"github.com/estora/storefront/errors"
	"github.com/estora/storefront/logger"
	"github.com/estora/storefront/session"
	"github.com/estora/storefront/transport"
	"github.com/estora/storefront/validation"
)

// DefaultTokenPath is the JWT Authentication plugin's token endpoint.
const DefaultTokenPath = "/wp-json/jwt-auth/v1/token"

// User is the profile information returned alongside a token.
type User struct {
	Email       string `json:"email,omitempty"`
	Nicename    string `json:"nicename,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Client performs login and logout against the backend's token endpoint.
type Client struct {
	transport *transport.Client
	store     session.Store
	tokenPath string
	log       *logger.Logger
}

// NewClient creates an account client. tokenPath may be empty to use the
// JWT plugin default. The store must be the same one the transport uses.
func NewClient(t *transport.Client, store session.Store, tokenPath string) *Client {
	if tokenPath == "" {
		tokenPath = DefaultTokenPath
	}
	return &Client{
		transport: t,
		store:     store,
		tokenPath: tokenPath,
		log:       logger.WithComponent("account"),
	}
}

// Login exchanges credentials for a bearer token and stores it. The backend
// accepts an email address in the username field.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	creds := credentials{
		Username: strings.TrimSpace(username),
		Password: password,
	}
	if err := validation.Validate(creds); err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.tokenPath,
		Body:   creds,
	})
	if err != nil {
		if te, ok := transport.AsError(err); ok && (te.Status == http.StatusForbidden || te.Status == http.StatusUnauthorized) {
			return nil, errors.Unauthorized("Invalid username or password.")
		}
		return nil, err
	}

	obj, _ := resp.Value().(map[string]any)
	token := extractToken(obj)
	if token == "" {
		return nil, errors.Backend("login response carried no token", nil)
	}
	if err := c.store.SetAuthToken(token); err != nil {
		c.log.Warn("Failed to persist auth token", logger.Fields(logger.FieldError, err.Error()))
	}

	user := &User{}
	if obj != nil {
		user.Email, _ = obj["user_email"].(string)
		user.Nicename, _ = obj["user_nicename"].(string)
		user.DisplayName, _ = obj["user_display_name"].(string)
	}
	c.log.Info("Customer logged in", logger.Fields("user", user.Nicename))
	return user, nil
}

// Logout discards the stored token. The JWT scheme is stateless, so there
// is nothing to revoke server-side.
func (c *Client) Logout() {
	if err := c.store.ClearAuthToken(); err != nil {
		c.log.Warn("Failed to clear auth token", logger.Fields(logger.FieldError, err.Error()))
	}
	c.log.Info("Customer logged out")
}

// Authenticated reports whether a usable token is stored. An expired token
// counts as unauthenticated and is discarded.
func (c *Client) Authenticated() bool {
	token := c.store.AuthToken()
	if token == "" {
		return false
	}
	if session.TokenExpired(token) {
		_ = c.store.ClearAuthToken()
		return false
	}
	return true
}

// extractToken accepts the token field names used across JWT plugin
// versions, including the nested data envelope.
func extractToken(obj map[string]any) string {
	if obj == nil {
		return ""
	}
	for _, field := range []string{"token", "authToken", "auth_token", "jwt_token"} {
		if s, ok := obj[field].(string); ok && s != "" {
			return s
		}
	}
	if data, ok := obj["data"].(map[string]any); ok {
		return extractToken(data)
	}
	return ""
}
