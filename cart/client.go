package cart

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/estora/storefront/errors"
	"github.com/estora/storefront/logger"
	"github.com/estora/storefront/transport"
)

// DefaultBasePath is the CoCart v2 API base path.
const DefaultBasePath = "/wp-json/cocart/v2"

// Client translates cart intents into backend calls, absorbing the
// backend's parameter-naming inconsistencies. Responses are returned as raw
// carts; higher-level normalization happens in the Syncer.
type Client struct {
	transport *transport.Client
	base      string
	log       *logger.Logger
}

// NewClient creates a cart client. basePath may be empty to use the CoCart
// v2 default.
func NewClient(t *transport.Client, basePath string) *Client {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &Client{
		transport: t,
		base:      strings.TrimRight(basePath, "/"),
		log:       logger.WithComponent("cart"),
	}
}

// Get fetches the current cart.
func (c *Client) Get(ctx context.Context) (*Cart, error) {
	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   c.base + "/cart",
	})
	if err != nil {
		return nil, err
	}
	return NewCart(resp.Value()), nil
}

// addFallbackMarkers are backend messages indicating the add-item endpoint
// wants the alternate parameter name for "which product". The exact text
// varies less than the parameter name does across CoCart versions.
var addFallbackMarkers = []string{
	"Invalid parameter(s): id",
	"Missing parameter(s): product_id",
}

// Add puts quantity units of a product into the cart. The product parameter
// is sent as "id" first; when the backend rejects that name the call is
// retried exactly once with "product_id". A second failure propagates
// unchanged.
func (c *Client) Add(ctx context.Context, productID, quantity int) (*Cart, error) {
	if productID <= 0 {
		return nil, errors.InvalidInput("product_id", "must be a positive number")
	}
	qty := clampQuantity(quantity)

	// String-encoded values: several backends reject numeric JSON here.
	pid := strconv.Itoa(productID)
	q := strconv.Itoa(qty)

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.base + "/cart/add-item",
		Body:   map[string]string{"id": pid, "quantity": q},
	})
	if err == nil {
		return NewCart(resp.Value()), nil
	}

	if !wantsProductIDParam(err) {
		return nil, err
	}

	c.log.Debug("Retrying add-item with product_id parameter", logger.Fields(
		logger.FieldProductID, productID,
	))
	resp, err = c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.base + "/cart/add-item",
		Body:   map[string]string{"product_id": pid, "quantity": q},
	})
	if err != nil {
		return nil, err
	}
	return NewCart(resp.Value()), nil
}

// SetQuantity sets an item's absolute quantity (not a delta). Quantities
// below 1 are clamped to 1; removal is a separate operation.
func (c *Client) SetQuantity(ctx context.Context, itemKey string, quantity int) (*Cart, error) {
	key, err := cleanItemKey(itemKey)
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.base + "/cart/item/" + key,
		Body:   map[string]string{"quantity": strconv.Itoa(clampQuantity(quantity))},
	})
	if err != nil {
		return nil, err
	}
	return NewCart(resp.Value()), nil
}

// Remove deletes an item from the cart. The dedicated DELETE endpoint is
// tried first; backends without it accept quantity zero as the removal
// signal.
func (c *Client) Remove(ctx context.Context, itemKey string) (*Cart, error) {
	key, err := cleanItemKey(itemKey)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   c.base + "/cart/item/" + key,
	})
	if err == nil {
		return NewCart(resp.Value()), nil
	}

	c.log.Debug("DELETE unavailable, removing via zero quantity", logger.Fields(
		logger.FieldItemKey, itemKey,
		logger.FieldError, err.Error(),
	))
	resp, err = c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.base + "/cart/item/" + key,
		Body:   map[string]string{"quantity": "0"},
	})
	if err != nil {
		return nil, err
	}
	return NewCart(resp.Value()), nil
}

// Clear removes all items in one call.
func (c *Client) Clear(ctx context.Context) (*Cart, error) {
	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.base + "/cart/clear",
	})
	if err != nil {
		return nil, err
	}
	return NewCart(resp.Value()), nil
}

// wantsProductIDParam recognizes the backend messages that call for the
// alternate add-item parameter name.
func wantsProductIDParam(err error) bool {
	te, ok := transport.AsError(err)
	if !ok {
		return false
	}
	for _, marker := range addFallbackMarkers {
		if strings.Contains(te.Message, marker) {
			return true
		}
	}
	return false
}

// cleanItemKey validates and URL-escapes an item key.
func cleanItemKey(itemKey string) (string, error) {
	key := strings.TrimSpace(itemKey)
	if key == "" {
		return "", errors.MissingField("item_key")
	}
	return url.PathEscape(key), nil
}

// clampQuantity coerces a quantity to the 1..n range.
func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
