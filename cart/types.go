// Package cart talks to the backend cart subsystem and keeps a locally
// consistent view of it: a client for the five cart operations, response
// normalization for the backend's varying shapes, and a Syncer reconciling
// optimistic local edits against authoritative server responses.
package cart

import (
	"sort"
	"strconv"
	"strings"
)

// Cart wraps a raw backend cart response. The backend owns the cart; this is
// a cached, possibly stale copy, kept verbatim so no field is lost between
// responses.
type Cart struct {
	raw any
}

// NewCart wraps a decoded backend response. A nil raw value yields an empty
// cart.
func NewCart(raw any) *Cart {
	return &Cart{raw: raw}
}

// Raw returns the backend response as decoded.
func (c *Cart) Raw() any {
	if c == nil {
		return nil
	}
	return c.raw
}

// itemContainerKeys are the field names backends have been seen using for
// the line-item collection.
var itemContainerKeys = []string{"items", "line_items", "cart_items", "cart_contents", "contents"}

// Items normalizes the cart's line items into an ordered slice. Backends
// return them either as an array or as a mapping keyed by item key; keyed
// mappings are ordered by key so the result is deterministic.
func (c *Cart) Items() []Item {
	if c == nil || c.raw == nil {
		return nil
	}

	if arr, ok := c.raw.([]any); ok {
		return toItems(arr)
	}

	obj, ok := c.raw.(map[string]any)
	if !ok {
		return nil
	}

	var container any
	for _, k := range itemContainerKeys {
		if v, ok := obj[k]; ok && v != nil {
			container = v
			break
		}
	}

	switch v := container.(type) {
	case []any:
		return toItems(v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]Item, 0, len(keys))
		for _, k := range keys {
			if m, ok := v[k].(map[string]any); ok {
				items = append(items, Item(m))
			}
		}
		return items
	default:
		return nil
	}
}

// Find returns the item with the given key, or nil.
func (c *Cart) Find(itemKey string) Item {
	for _, it := range c.Items() {
		if it.Key() == itemKey {
			return it
		}
	}
	return nil
}

func toItems(arr []any) []Item {
	items := make([]Item, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			items = append(items, Item(m))
		}
	}
	return items
}

// Item is one line item as returned by the backend.
type Item map[string]any

// Key returns the server-assigned item key used for all mutations.
func (it Item) Key() string {
	for _, field := range []string{"item_key", "key", "cart_item_key", "id"} {
		if v, ok := it[field]; ok && v != nil {
			return asString(v)
		}
	}
	return ""
}

// ProductID returns the product this line refers to, or 0 when absent.
func (it Item) ProductID() int {
	for _, field := range []string{"product_id", "id"} {
		if v, ok := it[field]; ok && v != nil {
			if n := asNumber(v); n > 0 {
				return int(n)
			}
		}
	}
	return 0
}

// Name returns the display name of the item.
func (it Item) Name() string {
	for _, field := range []string{"name", "product_name", "title"} {
		if v, ok := it[field].(string); ok && v != "" {
			return v
		}
	}
	return "Item"
}

// Image returns the item's image URL, if one is present.
func (it Item) Image() string {
	if s, ok := it["image"].(string); ok {
		return s
	}
	if imgs, ok := it["images"].([]any); ok && len(imgs) > 0 {
		if img, ok := imgs[0].(map[string]any); ok {
			if s, ok := img["src"].(string); ok {
				return s
			}
			if s, ok := img["source_url"].(string); ok {
				return s
			}
		}
	}
	if s, ok := it["featured_image"].(string); ok {
		return s
	}
	return ""
}

// Quantity returns the item's quantity, defaulting to 1 when the backend's
// value is missing or unusable.
func (it Item) Quantity() int {
	var q any
	for _, field := range []string{"quantity", "qty"} {
		if v, ok := it[field]; ok && v != nil {
			q = v
			break
		}
	}
	// CoCart sometimes nests the count as {"value": n}.
	if m, ok := q.(map[string]any); ok {
		q = m["value"]
	}
	n := int(asNumber(q))
	if n <= 0 {
		return 1
	}
	return n
}

// UnitPrice returns the item's unit price in major currency units. Price
// fields are tried first; when only line totals are present the unit price
// is derived backward from total divided by quantity.
func (it Item) UnitPrice() float64 {
	for _, field := range []string{"price_raw", "price"} {
		if v, ok := it[field]; ok && v != nil {
			return NormalizeAmount(PriceNumber(v))
		}
	}
	if prices, ok := it["prices"].(map[string]any); ok {
		if v, ok := prices["price"]; ok && v != nil {
			return NormalizeAmount(PriceNumber(v))
		}
	}

	line := it.lineTotal()
	if line > 0 {
		if qty := it.Quantity(); qty > 0 {
			return NormalizeAmount(line) / float64(qty)
		}
	}
	return 0
}

// lineTotal returns the raw server line total, trying the known field names.
func (it Item) lineTotal() float64 {
	if totals, ok := it["totals"].(map[string]any); ok {
		for _, field := range []string{"line_total", "line_subtotal"} {
			if v, ok := totals[field]; ok && v != nil {
				return PriceNumber(v)
			}
		}
	}
	for _, field := range []string{"line_total", "line_subtotal"} {
		if v, ok := it[field]; ok && v != nil {
			return PriceNumber(v)
		}
	}
	return 0
}

// priceFieldNames are the keys tried, in order, when a price arrives as an
// object instead of a scalar.
var priceFieldNames = []string{"value", "min_purchase", "max_purchase"}

// PriceNumber converts the backend's assorted price shapes to a float:
// plain numbers pass through, numeric strings are stripped of currency
// symbols, objects yield their first known value field. Unusable input
// yields 0.
func PriceNumber(v any) float64 {
	switch p := v.(type) {
	case nil:
		return 0
	case float64:
		return p
	case int:
		return float64(p)
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' {
				return r
			}
			return -1
		}, p)
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return n
	case map[string]any:
		for _, field := range priceFieldNames {
			if inner, ok := p[field]; ok && inner != nil {
				return asNumber(inner)
			}
		}
		return 0
	default:
		return 0
	}
}

// NormalizeAmount converts an amount suspected to be in minor currency units
// to major units: an integer-valued amount at or above 1000 is assumed to be
// cents and divided by 100 (e.g. 2999 becomes 29.99). This is a heuristic
// carried over from observed backend behavior, not a guarantee; a genuine
// whole-dollar price of 1000 or more is misclassified. The backend does not
// expose a per-field unit convention to disambiguate against.
func NormalizeAmount(n float64) float64 {
	if n == float64(int64(n)) && n >= 1000 {
		return n / 100
	}
	return n
}

// asNumber coerces a scalar to float64, returning 0 when it cannot.
func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asString renders a scalar identifier as a string. Numeric IDs lose no
// precision for the integer ranges backends use.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}
