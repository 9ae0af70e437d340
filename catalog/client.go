// Package catalog reads the product catalog through the WooCommerce Store
// API. It is read-only; purchasing goes through the cart and checkout
// packages.
package catalog

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/estora/storefront/errors"
	"github.com/estora/storefront/logger"
	"github.com/estora/storefront/transport"
)

// DefaultBasePath is the WooCommerce Store API v1 base path.
const DefaultBasePath = "/wp-json/wc/store/v1"

// Product is one catalog entry, kept as the backend's raw shape plus typed
// accessors for the fields the storefront needs.
type Product map[string]any

// ID returns the product's numeric ID, or 0.
func (p Product) ID() int {
	switch v := p["id"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

// Slug returns the product's URL slug.
func (p Product) Slug() string {
	s, _ := p["slug"].(string)
	return s
}

// Name returns the product's display name.
func (p Product) Name() string {
	s, _ := p["name"].(string)
	return s
}

// ListParams are the supported catalog query filters. Zero values are
// omitted from the query.
type ListParams struct {
	Page        int
	PerPage     int
	OrderBy     string
	Order       string
	Search      string
	Category    string
	Tag         string
	Featured    bool
	OnSale      bool
	MinPrice    string
	MaxPrice    string
	StockStatus string
}

// Client reads products from the backend catalog.
type Client struct {
	transport *transport.Client
	base      string
	log       *logger.Logger
}

// NewClient creates a catalog client. basePath may be empty to use the
// Store API v1 default.
func NewClient(t *transport.Client, basePath string) *Client {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &Client{
		transport: t,
		base:      strings.TrimRight(basePath, "/"),
		log:       logger.WithComponent("catalog"),
	}
}

// List fetches a page of products. Paging and ordering default to page 1,
// 20 per page, menu order ascending.
func (c *Client) List(ctx context.Context, params ListParams) ([]Product, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PerPage <= 0 {
		params.PerPage = 20
	}
	if params.OrderBy == "" {
		params.OrderBy = "menu_order"
	}
	if params.Order == "" {
		params.Order = "asc"
	}

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   c.base + "/products",
		Query:  params.query(),
	})
	if err != nil {
		return nil, err
	}
	return productList(resp.Value()), nil
}

// GetByID fetches one product by its numeric ID.
func (c *Client) GetByID(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return nil, errors.InvalidInput("id", "must be a positive number")
	}
	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   c.base + "/products/" + strconv.Itoa(id),
	})
	if err != nil {
		return nil, err
	}
	if p, ok := resp.Value().(map[string]any); ok {
		return Product(p), nil
	}
	return nil, errors.NotFound("product")
}

// GetBySlug fetches one product by slug. The Store API does not guarantee a
// slug filter, so the lookup searches for the slug text and matches the slug
// exactly in the results; when that misses, the search is widened by turning
// dashes into spaces before giving up.
func (c *Client) GetBySlug(ctx context.Context, slug string) (Product, error) {
	s := strings.TrimSpace(slug)
	if s == "" {
		return nil, errors.MissingField("slug")
	}

	products, err := c.List(ctx, ListParams{
		Search: s, PerPage: 30, OrderBy: "relevance", Order: "desc",
	})
	if err != nil {
		return nil, err
	}
	if p := matchSlug(products, s); p != nil {
		return p, nil
	}

	widened := strings.ReplaceAll(s, "-", " ")
	if widened != s {
		c.log.Debug("Slug search missed, widening", logger.Fields("slug", s))
	}
	products, err = c.List(ctx, ListParams{
		Search: widened, PerPage: 50, OrderBy: "relevance", Order: "desc",
	})
	if err != nil {
		return nil, err
	}
	if p := matchSlug(products, s); p != nil {
		return p, nil
	}
	return nil, errors.NotFound("product")
}

var numericID = regexp.MustCompile(`^\d+$`)

// Get fetches one product by either numeric ID or slug. Purely numeric
// input is treated as an ID.
func (c *Client) Get(ctx context.Context, idOrSlug string) (Product, error) {
	v := strings.TrimSpace(idOrSlug)
	if v == "" {
		return nil, errors.MissingField("product")
	}
	if numericID.MatchString(v) {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.InvalidInput("product", "invalid numeric id")
		}
		return c.GetByID(ctx, id)
	}
	return c.GetBySlug(ctx, v)
}

func (p ListParams) query() map[string]string {
	q := make(map[string]string)
	set := func(k, v string) {
		if v != "" {
			q[k] = v
		}
	}
	set("page", strconv.Itoa(p.Page))
	set("per_page", strconv.Itoa(p.PerPage))
	set("orderby", p.OrderBy)
	set("order", p.Order)
	set("search", p.Search)
	set("category", p.Category)
	set("tag", p.Tag)
	if p.Featured {
		q["featured"] = "true"
	}
	if p.OnSale {
		q["on_sale"] = "true"
	}
	set("min_price", p.MinPrice)
	set("max_price", p.MaxPrice)
	set("stock_status", p.StockStatus)
	return q
}

// productList tolerates both response shapes the backend has been seen
// using: a bare array, or an object wrapping it under products/items.
func productList(v any) []Product {
	var arr []any
	switch data := v.(type) {
	case []any:
		arr = data
	case map[string]any:
		for _, k := range []string{"products", "items"} {
			if inner, ok := data[k].([]any); ok {
				arr = inner
				break
			}
		}
	}
	products := make([]Product, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			products = append(products, Product(m))
		}
	}
	return products
}

func matchSlug(products []Product, slug string) Product {
	for _, p := range products {
		if strings.EqualFold(p.Slug(), slug) {
			return p
		}
	}
	return nil
}
