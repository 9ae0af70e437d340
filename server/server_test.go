package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/estora/storefront/account"
	"github.com/estora/storefront/cart"
	"github.com/estora/storefront/catalog"
	"github.com/estora/storefront/checkout"
	"github.com/estora/storefront/config"
	"github.com/estora/storefront/logger"
	"github.com/estora/storefront/session"
	"github.com/estora/storefront/transport"
)

// fakeBackend is a minimal CoCart / Store API stand-in.
func fakeBackend(t *testing.T) http.Handler {
	t.Helper()
	items := []any{}

	mux := http.NewServeMux()
	respond := func(w http.ResponseWriter, payload any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
	cartPayload := func() any { return map[string]any{"items": items} }

	mux.HandleFunc("/wp-json/cocart/v2/cart", func(w http.ResponseWriter, r *http.Request) {
		respond(w, cartPayload())
	})
	mux.HandleFunc("/wp-json/cocart/v2/cart/add-item", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		items = append(items, map[string]any{
			"item_key": "k" + body["id"],
			"quantity": body["quantity"],
			"price":    "1500",
		})
		respond(w, cartPayload())
	})
	mux.HandleFunc("/wp-json/cocart/v2/cart/item/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/wp-json/cocart/v2/cart/item/")
		if r.Method == http.MethodDelete {
			kept := []any{}
			for _, it := range items {
				if it.(map[string]any)["item_key"] != key {
					kept = append(kept, it)
				}
			}
			items = kept
			respond(w, cartPayload())
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		for _, it := range items {
			if m := it.(map[string]any); m["item_key"] == key {
				m["quantity"] = body["quantity"]
			}
		}
		respond(w, cartPayload())
	})
	mux.HandleFunc("/wp-json/cocart/v2/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		items = []any{}
		respond(w, cartPayload())
	})

	mux.HandleFunc("/wp-json/wc/store/v1/products", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []any{map[string]any{
			"id": float64(7), "slug": "mug", "name": "Mug",
		}})
	})
	mux.HandleFunc("/wp-json/wc/store/v1/products/7", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]any{"id": float64(7), "name": "Mug"})
	})
	mux.HandleFunc("/wp-json/wc/store/v1/payment-methods", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []any{map[string]any{"id": "cod", "enabled": true}})
	})
	mux.HandleFunc("/wp-json/wc/store/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
		items = []any{}
		respond(w, map[string]any{"order_id": float64(55)})
	})
	mux.HandleFunc("/wp-json/jwt-auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusForbidden)
			respond(w, map[string]any{"message": "Invalid credentials"})
			return
		}
		respond(w, map[string]any{"token": "jwt-abc", "user_nicename": "ada"})
	})
	return mux
}

func newTestServer(t *testing.T) (*gin.Engine, session.Store) {
	t.Helper()
	backend := httptest.NewServer(fakeBackend(t))
	t.Cleanup(backend.Close)

	store := session.NewMemStore()
	tp, err := transport.New(transport.Config{BaseURL: backend.URL}, store)
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}

	srv := New(config.ServerConfig{Port: 0}, logger.NewDefault())
	h := &Handlers{
		Cart:     cart.NewSyncer(cart.NewClient(tp, "")),
		Catalog:  catalog.NewClient(tp, ""),
		Checkout: checkout.NewClient(tp, ""),
		Account:  account.NewClient(tp, store, ""),
	}
	h.Register(srv.Engine())
	return srv.Engine(), store
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestHealth(t *testing.T) {
	engine, _ := newTestServer(t)
	w, body := doJSON(t, engine, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", w.Code, body)
	}
}

func TestCartLifecycle(t *testing.T) {
	engine, _ := newTestServer(t)

	w, body := doJSON(t, engine, http.MethodGet, "/api/cart", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/cart = %d", w.Code)
	}
	view := body["data"].(map[string]any)
	if len(view["items"].([]any)) != 0 {
		t.Errorf("initial cart not empty: %v", view)
	}

	w, body = doJSON(t, engine, http.MethodPost, "/api/cart/items", `{"product_id": 7, "quantity": 2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/cart/items = %d %v", w.Code, body)
	}
	view = body["data"].(map[string]any)
	items := view["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
	item := items[0].(map[string]any)
	if item["quantity"] != float64(2) || item["unit_price"] != float64(15) {
		t.Errorf("item = %v", item)
	}
	if view["subtotal"] != float64(30) {
		t.Errorf("subtotal = %v", view["subtotal"])
	}

	w, body = doJSON(t, engine, http.MethodPatch, "/api/cart/items/k7", `{"quantity": 5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PATCH = %d %v", w.Code, body)
	}
	item = body["data"].(map[string]any)["items"].([]any)[0].(map[string]any)
	if item["quantity"] != float64(5) {
		t.Errorf("quantity after update = %v", item["quantity"])
	}

	w, body = doJSON(t, engine, http.MethodDelete, "/api/cart/items/k7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE = %d %v", w.Code, body)
	}
	if got := body["data"].(map[string]any)["items"].([]any); len(got) != 0 {
		t.Errorf("items after delete = %v", got)
	}
}

func TestAddItemRejectsBadBody(t *testing.T) {
	engine, _ := newTestServer(t)

	w, _ := doJSON(t, engine, http.MethodPost, "/api/cart/items", `{"product_id": 0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	w, _ = doJSON(t, engine, http.MethodPost, "/api/cart/items", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProducts(t *testing.T) {
	engine, _ := newTestServer(t)

	w, body := doJSON(t, engine, http.MethodGet, "/api/products?search=mug", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/products = %d", w.Code)
	}
	products := body["data"].([]any)
	if len(products) != 1 {
		t.Fatalf("products = %v", products)
	}

	w, body = doJSON(t, engine, http.MethodGet, "/api/products/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/products/7 = %d", w.Code)
	}
	if body["data"].(map[string]any)["name"] != "Mug" {
		t.Errorf("product = %v", body["data"])
	}

	// Slug dispatch goes through search plus exact match.
	w, body = doJSON(t, engine, http.MethodGet, "/api/products/mug", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/products/mug = %d", w.Code)
	}
	if body["data"].(map[string]any)["slug"] != "mug" {
		t.Errorf("product = %v", body["data"])
	}
}

func TestCheckoutFlow(t *testing.T) {
	engine, _ := newTestServer(t)

	w, body := doJSON(t, engine, http.MethodGet, "/api/checkout/payment-methods", "")
	if w.Code != http.StatusOK {
		t.Fatalf("payment methods = %d", w.Code)
	}
	methods := body["data"].([]any)
	if len(methods) != 1 || methods[0].(map[string]any)["id"] != "cod" {
		t.Errorf("methods = %v", methods)
	}

	order := `{
		"billing_address": {
			"first_name": "Ada", "last_name": "Lovelace",
			"address_1": "1 Analytical Way", "city": "Sydney",
			"postcode": "2000", "country": "AU"
		},
		"payment_method": "cod"
	}`
	w, body = doJSON(t, engine, http.MethodPost, "/api/checkout", order)
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout = %d %v", w.Code, body)
	}
	if body["data"].(map[string]any)["order_id"] != float64(55) {
		t.Errorf("result = %v", body["data"])
	}

	// Incomplete address is rejected before reaching the backend.
	w, _ = doJSON(t, engine, http.MethodPost, "/api/checkout", `{"billing_address": {"first_name": "Ada"}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid checkout = %d, want 400", w.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	engine, store := newTestServer(t)

	w, body := doJSON(t, engine, http.MethodPost, "/api/login", `{"username": "ada", "password": "secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %v", w.Code, body)
	}
	if store.AuthToken() != "jwt-abc" {
		t.Errorf("stored token = %q", store.AuthToken())
	}

	w, _ = doJSON(t, engine, http.MethodPost, "/api/login", `{"username": "ada", "password": "wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d, want 401", w.Code)
	}

	w, _ = doJSON(t, engine, http.MethodPost, "/api/logout", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("logout = %d", w.Code)
	}
	if store.AuthToken() != "" {
		t.Error("token should be cleared")
	}
}

func TestRequestIDHeader(t *testing.T) {
	engine, _ := newTestServer(t)

	w, _ := doJSON(t, engine, http.MethodGet, "/health", "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id should be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "fixed-id" {
		t.Errorf("X-Request-Id = %q, want inbound id kept", got)
	}
}

func TestBackendErrorMapping(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "payment-methods") {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"message": "database gone"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"message": "no such product"})
	}))
	t.Cleanup(backend.Close)

	store := session.NewMemStore()
	tp, err := transport.New(transport.Config{BaseURL: backend.URL}, store)
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	srv := New(config.ServerConfig{Port: 0}, logger.NewDefault())
	h := &Handlers{
		Cart:     cart.NewSyncer(cart.NewClient(tp, "")),
		Catalog:  catalog.NewClient(tp, ""),
		Checkout: checkout.NewClient(tp, ""),
		Account:  account.NewClient(tp, store, ""),
	}
	h.Register(srv.Engine())

	// Backend client errors pass through with the backend's message.
	w, body := doJSON(t, srv.Engine(), http.MethodGet, "/api/products/9", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if msg := body["error"].(map[string]any)["message"]; msg != "no such product" {
		t.Errorf("message = %v", msg)
	}

	// Backend server errors become a bad gateway.
	w, _ = doJSON(t, srv.Engine(), http.MethodGet, "/api/checkout/payment-methods", "")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
