// Package session persists the two client-side credentials the storefront
// needs between runs: the CoCart cart-session key and the user's bearer
// token. The two are independent and independently clearable.
package session

import "strings"

// Store holds the storefront credentials. Implementations must normalize the
// cart key on read so a corrupt persisted value is never handed out.
type Store interface {
	// CartKey returns the stored cart-session key, or "" if none is stored.
	CartKey() string
	// SetCartKey stores a cart-session key. Values that normalize to empty
	// clear the stored key instead.
	SetCartKey(key string) error
	// ClearCartKey removes the stored cart-session key.
	ClearCartKey() error

	// AuthToken returns the stored bearer token, or "" if none is stored.
	AuthToken() string
	// SetAuthToken stores a bearer token.
	SetAuthToken(token string) error
	// ClearAuthToken removes the stored bearer token.
	ClearAuthToken() error
}

// placeholderKeys are values observed coming back from misconfigured backends
// or stale storage. Persisting or sending any of these causes repeated
// authorization failures, so they are treated as "no key at all".
var placeholderKeys = map[string]bool{
	"0":         true,
	"1":         true,
	"null":      true,
	"undefined": true,
}

// NormalizeCartKey trims a candidate cart-session key and rejects known
// placeholder values. Returns "" for anything that must not be persisted or
// sent.
func NormalizeCartKey(v string) string {
	s := strings.TrimSpace(v)
	if s == "" || placeholderKeys[s] {
		return ""
	}
	return s
}
