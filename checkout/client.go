// Package checkout places orders through the WooCommerce Store API.
package checkout

import (
	"context"
	"net/http"
	"strings"

	"github.com/estora/storefront/logger"
	"github.com/estora/storefront/transport"
	"github.com/estora/storefront/validation"
)

// DefaultBasePath is the WooCommerce Store API v1 base path.
const DefaultBasePath = "/wp-json/wc/store/v1"

// PaymentMethod is one gateway offered by the backend.
type PaymentMethod struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Address is a billing or shipping address in the Store API's shape.
type Address struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Address1  string `json:"address_1" validate:"required"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode" validate:"required"`
	Country   string `json:"country" validate:"required,iso3166_1_alpha2"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
}

// Order is a checkout submission. When Shipping is nil the billing address
// doubles as the shipping address, minus contact fields.
type Order struct {
	Billing       Address  `json:"billing_address" validate:"required"`
	Shipping      *Address `json:"-" validate:"omitempty"`
	PaymentMethod string   `json:"payment_method"`
}

// Result is the backend's answer to a placed order. A non-empty RedirectURL
// means the payment gateway wants the customer sent there to pay; an empty
// one means the order completed in place (cash on delivery and the like).
type Result struct {
	OrderID     int    `json:"order_id,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Raw         any    `json:"-"`
}

// Client places orders against the backend.
type Client struct {
	transport *transport.Client
	base      string
	log       *logger.Logger
}

// NewClient creates a checkout client. basePath may be empty to use the
// Store API v1 default.
func NewClient(t *transport.Client, basePath string) *Client {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &Client{
		transport: t,
		base:      strings.TrimRight(basePath, "/"),
		log:       logger.WithComponent("checkout"),
	}
}

// PaymentMethods fetches the gateways the backend offers, keeping only the
// enabled ones. Backends disagree on both the collection shape and the
// enabled flag, so several spellings are accepted.
func (c *Client) PaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   c.base + "/payment-methods",
	})
	if err != nil {
		return nil, err
	}

	var raw []any
	switch v := resp.Value().(type) {
	case []any:
		raw = v
	case map[string]any:
		for _, k := range []string{"payment_methods", "methods"} {
			if inner, ok := v[k].([]any); ok {
				raw = inner
				break
			}
		}
	}

	methods := make([]PaymentMethod, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok || !methodEnabled(m) {
			continue
		}
		id, _ := m["id"].(string)
		if id == "" {
			continue
		}
		title, _ := m["title"].(string)
		desc, _ := m["description"].(string)
		methods = append(methods, PaymentMethod{ID: id, Title: title, Description: desc})
	}
	return methods, nil
}

// PlaceOrder validates and submits an order. On success the cart on the
// backend is consumed; callers should refresh their local cart state.
func (c *Client) PlaceOrder(ctx context.Context, order Order) (*Result, error) {
	if err := validation.Validate(order.Billing); err != nil {
		return nil, err
	}
	if order.Shipping != nil {
		if err := validation.Validate(*order.Shipping); err != nil {
			return nil, err
		}
	}

	shipping := order.Shipping
	if shipping == nil {
		s := order.Billing
		s.Email, s.Phone = "", ""
		shipping = &s
	}

	body := map[string]any{
		"billing_address":  order.Billing,
		"shipping_address": shipping,
		"payment_method":   order.PaymentMethod,
		// Gateways that need payment_data reject its absence but ignore it
		// empty.
		"payment_data": []any{},
	}

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.base + "/checkout",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	result := parseResult(resp.Value())
	c.log.Info("Order placed", logger.Fields(
		"order_id", result.OrderID,
		"redirect", result.RedirectURL != "",
	))
	return result, nil
}

// methodEnabled accepts the enabled-flag spellings seen across gateways.
func methodEnabled(m map[string]any) bool {
	switch v := m["enabled"].(type) {
	case bool:
		if v {
			return true
		}
	case string:
		if v == "yes" {
			return true
		}
	}
	status, _ := m["status"].(string)
	return status == "enabled"
}

// parseResult pulls the order ID and payment redirect out of the checkout
// response, trying the field names different backend versions use.
func parseResult(v any) *Result {
	result := &Result{Raw: v}
	obj, ok := v.(map[string]any)
	if !ok {
		return result
	}

	for _, field := range []string{"order_id", "id"} {
		if n, ok := obj[field].(float64); ok && n > 0 {
			result.OrderID = int(n)
			break
		}
	}

	var paymentResult map[string]any
	if pr, ok := obj["payment_result"].(map[string]any); ok {
		paymentResult = pr
	}
	for _, pick := range []func() string{
		func() string { return stringField(paymentResult, "redirect_url") },
		func() string { return stringField(obj, "redirect_url") },
		func() string { return stringField(paymentResult, "payment_url") },
		func() string { return stringField(obj, "payment_url") },
	} {
		if u := pick(); u != "" {
			result.RedirectURL = u
			break
		}
	}
	return result
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
