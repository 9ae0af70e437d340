// Package transport performs HTTP requests against the configured commerce
// backend. It owns credential attachment: bearer tokens for regular API
// calls, the CoCart cart-session key for cart calls, never both on the same
// request. Cart-session keys returned by the backend are persisted (or
// cleared) through a session.Store.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/estora/storefront/errors"
	"github.com/estora/storefront/logger"
	"github.com/estora/storefront/session"
)

// CartKeyHeader is the canonical CoCart session header, on requests and
// responses alike.
const CartKeyHeader = "CoCart-API-Cart-Key"

// bannedHeaders are legacy cart-token headers known to trigger backend
// rejection. They are stripped from every outgoing request.
var bannedHeaders = []string{"Cart-Token", "CartToken"}

// Client is the storefront's outbound HTTP client.
type Client struct {
	httpClient *http.Client
	config     Config
	store      session.Store
	log        *logger.Logger
	tracer     trace.Tracer
}

// New creates a transport client. The session store supplies (and receives)
// credentials; pass a session.MemStore when persistence is not wanted.
func New(cfg Config, store session.Store) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		store:      store,
		log:        logger.WithComponent("transport"),
		tracer:     otel.Tracer("github.com/estora/storefront/transport"),
	}, nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// Do executes one backend request. Non-success statuses return both the
// response and a *transport.Error carrying the parsed body, so callers can
// inspect backend messages. Configuration problems fail before any network
// call with an *errors.AppError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	url, err := c.resolveURL(req.Path)
	if err != nil {
		return nil, err
	}
	cart := isCartURL(url)

	httpReq, err := c.buildRequest(ctx, req, url, cart)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "backend.request", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", url),
		attribute.Bool("storefront.cart", cart),
	))
	defer span.End()
	httpReq = httpReq.WithContext(ctx)

	requestID := uuid.New().String()
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("Backend request failed", logger.Fields(
			logger.FieldRequestID, requestID,
			logger.FieldMethod, req.Method,
			logger.FieldURL, url,
			logger.FieldError, err.Error(),
		))
		return nil, newConnError(req.Method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if cart {
		c.persistCartKey(resp.Header)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, newConnError(req.Method, url, fmt.Errorf("read response body: %w", err))
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}

	fields := logger.Fields(
		logger.FieldRequestID, requestID,
		logger.FieldMethod, req.Method,
		logger.FieldURL, url,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)

	if !result.IsSuccess() {
		statusErr := newStatusError(req.Method, url, resp.StatusCode, body)
		span.SetStatus(codes.Error, statusErr.Message)
		c.log.Warn("Backend returned error status", fields)
		return result, statusErr
	}

	c.log.Debug("Backend request completed", fields)
	return result, nil
}

// resolveURL resolves a request path against the configured base URL. It
// fails fast when the base URL is unset and the path targets the backend API
// namespace, so requests are never silently issued against a default host.
func (c *Client) resolveURL(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if c.config.BaseURL == "" {
		if isAPIPath(path) {
			return "", errors.Config("backend base URL is not configured; set backend.base_url (or STOREFRONT_BACKEND_BASE_URL) before calling " + path)
		}
		return path, nil
	}
	return c.config.BaseURL + "/" + strings.TrimLeft(path, "/"), nil
}

// buildRequest constructs the *http.Request with headers, body, and exactly
// one credential.
func (c *Client) buildRequest(ctx context.Context, req Request, url string, cart bool) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, errors.InvalidInput("body", fmt.Sprintf("cannot encode request body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, errors.InvalidInput("path", fmt.Sprintf("cannot build request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	c.applyCredentials(httpReq, cart)
	return httpReq, nil
}

// applyCredentials enforces the credential policy: the banned legacy cart
// headers never go out; cart requests carry only the normalized cart-session
// key; everything else carries only the bearer token (when one is stored).
func (c *Client) applyCredentials(httpReq *http.Request, cart bool) {
	for _, h := range bannedHeaders {
		deleteHeader(httpReq.Header, h)
	}

	if !cart {
		deleteHeader(httpReq.Header, CartKeyHeader)
		if httpReq.Header.Get("Authorization") == "" {
			if token := c.store.AuthToken(); token != "" {
				httpReq.Header.Set("Authorization", "Bearer "+token)
			}
		}
		return
	}

	// Cart subsystem: no JWT, one canonical session header.
	httpReq.Header.Del("Authorization")

	key := session.NormalizeCartKey(httpReq.Header.Get(CartKeyHeader))
	deleteHeader(httpReq.Header, CartKeyHeader)
	if key == "" {
		key = c.store.CartKey()
	}
	if key != "" {
		// Direct map write keeps the header's documented casing on the wire.
		httpReq.Header[CartKeyHeader] = []string{key}
	}
}

// persistCartKey stores a fresh cart-session key from a response, or clears
// the stored one when the backend did not return a usable key. Keeping a
// stale key around causes repeated authorization failures.
func (c *Client) persistCartKey(h http.Header) {
	key := session.NormalizeCartKey(h.Get(CartKeyHeader))
	if key != "" {
		if err := c.store.SetCartKey(key); err != nil {
			c.log.Warn("Failed to persist cart key", logger.Fields(logger.FieldError, err.Error()))
		}
		return
	}
	if err := c.store.ClearCartKey(); err != nil {
		c.log.Warn("Failed to clear cart key", logger.Fields(logger.FieldError, err.Error()))
	}
}

// deleteHeader removes a header under both its canonical and verbatim forms.
func deleteHeader(h http.Header, name string) {
	h.Del(name)
	delete(h, name)
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
