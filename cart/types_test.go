package cart

import (
	"encoding/json"
	"testing"
)

func TestPriceNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"int", 42, 42},
		{"plain string", "12.50", 12.5},
		{"currency string", "$1,299.00", 1299},
		{"garbage string", "free", 0},
		{"object value", map[string]any{"value": 9.99}, 9.99},
		{"object min purchase", map[string]any{"min_purchase": "5"}, 5},
		{"object unknown fields", map[string]any{"amount": 3}, 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceNumber(tt.in); got != tt.want {
				t.Errorf("PriceNumber(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"small integer left alone", 999, 999},
		{"cents threshold", 1000, 10},
		{"typical cents value", 2999, 29.99},
		{"fractional above threshold left alone", 1000.5, 1000.5},
		{"fractional below threshold left alone", 12.34, 12.34},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAmount(tt.in); got != tt.want {
				t.Errorf("NormalizeAmount(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCartItemsFromArray(t *testing.T) {
	raw := decodeJSON(t, `{"items": [
		{"item_key": "abc", "name": "Mug", "quantity": 2},
		{"item_key": "def", "name": "Shirt", "quantity": 1}
	]}`)

	items := NewCart(raw).Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Key() != "abc" || items[1].Key() != "def" {
		t.Errorf("keys = %q, %q", items[0].Key(), items[1].Key())
	}
}

func TestCartItemsFromKeyedMap(t *testing.T) {
	raw := decodeJSON(t, `{"cart_contents": {
		"zzz": {"item_key": "zzz", "name": "Last"},
		"aaa": {"item_key": "aaa", "name": "First"}
	}}`)

	items := NewCart(raw).Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// Keyed mappings come back ordered by key.
	if items[0].Key() != "aaa" || items[1].Key() != "zzz" {
		t.Errorf("keys = %q, %q, want aaa, zzz", items[0].Key(), items[1].Key())
	}
}

func TestCartItemsAlternateContainers(t *testing.T) {
	for _, container := range []string{"items", "line_items", "cart_items", "cart_contents", "contents"} {
		t.Run(container, func(t *testing.T) {
			cart := NewCart(map[string]any{
				container: []any{map[string]any{"item_key": "k1"}},
			})
			if got := len(cart.Items()); got != 1 {
				t.Errorf("got %d items, want 1", got)
			}
		})
	}
}

func TestCartItemsTopLevelArray(t *testing.T) {
	raw := decodeJSON(t, `[{"item_key": "k1"}, {"item_key": "k2"}]`)
	if got := len(NewCart(raw).Items()); got != 2 {
		t.Errorf("got %d items, want 2", got)
	}
}

func TestCartItemsNil(t *testing.T) {
	var c *Cart
	if c.Items() != nil {
		t.Error("nil cart should have nil items")
	}
	if NewCart(nil).Items() != nil {
		t.Error("nil payload should have nil items")
	}
	if NewCart("unexpected").Items() != nil {
		t.Error("scalar payload should have nil items")
	}
}

func TestCartFind(t *testing.T) {
	cart := NewCart(map[string]any{"items": []any{
		map[string]any{"item_key": "abc", "name": "Mug"},
	}})
	if it := cart.Find("abc"); it == nil || it.Name() != "Mug" {
		t.Errorf("Find(abc) = %v", it)
	}
	if it := cart.Find("missing"); it != nil {
		t.Errorf("Find(missing) = %v, want nil", it)
	}
}

func TestItemKey(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"item_key", Item{"item_key": "abc"}, "abc"},
		{"key", Item{"key": "def"}, "def"},
		{"cart_item_key", Item{"cart_item_key": "ghi"}, "ghi"},
		{"numeric id", Item{"id": float64(42)}, "42"},
		{"precedence", Item{"item_key": "first", "key": "second"}, "first"},
		{"none", Item{"name": "Mug"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItemQuantity(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want int
	}{
		{"number", Item{"quantity": float64(3)}, 3},
		{"string", Item{"quantity": "4"}, 4},
		{"qty alias", Item{"qty": float64(2)}, 2},
		{"nested value", Item{"quantity": map[string]any{"value": float64(5)}}, 5},
		{"missing defaults to one", Item{}, 1},
		{"zero defaults to one", Item{"quantity": float64(0)}, 1},
		{"garbage defaults to one", Item{"quantity": "lots"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Quantity(); got != tt.want {
				t.Errorf("Quantity() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestItemUnitPrice(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want float64
	}{
		{"price_raw", Item{"price_raw": float64(12.5)}, 12.5},
		{"price string cents", Item{"price": "2999"}, 29.99},
		{"store api prices object", Item{"prices": map[string]any{"price": "1500"}}, 15},
		{"derived from line total", Item{
			"totals":   map[string]any{"line_total": float64(2000)},
			"quantity": float64(2),
		}, 10},
		{"no price data", Item{"name": "Mug"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.UnitPrice(); got != tt.want {
				t.Errorf("UnitPrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemNameAndImage(t *testing.T) {
	it := Item{
		"product_name": "Shirt",
		"images":       []any{map[string]any{"src": "https://cdn/img.jpg"}},
	}
	if got := it.Name(); got != "Shirt" {
		t.Errorf("Name() = %q", got)
	}
	if got := it.Image(); got != "https://cdn/img.jpg" {
		t.Errorf("Image() = %q", got)
	}
	if got := (Item{}).Name(); got != "Item" {
		t.Errorf("fallback Name() = %q", got)
	}
}

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}
