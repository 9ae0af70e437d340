package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/estora/storefront/account"
	"github.com/estora/storefront/cart"
	"github.com/estora/storefront/catalog"
	"github.com/estora/storefront/checkout"
	apperrors "github.com/estora/storefront/errors"
	"github.com/estora/storefront/validation"
)

// Handlers binds the storefront clients to HTTP routes.
type Handlers struct {
	Cart     *cart.Syncer
	Catalog  *catalog.Client
	Checkout *checkout.Client
	Account  *account.Client
}

// Register wires every route onto the engine.
func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/health", h.health)

	api := engine.Group("/api")
	{
		api.GET("/cart", h.getCart)
		api.POST("/cart/refresh", h.refreshCart)
		api.POST("/cart/items", h.addItem)
		api.PATCH("/cart/items/:key", h.updateItem)
		api.DELETE("/cart/items/:key", h.removeItem)
		api.POST("/cart/clear", h.clearCart)

		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)

		api.GET("/checkout/payment-methods", h.paymentMethods)
		api.POST("/checkout", h.placeOrder)

		api.POST("/login", h.login)
		api.POST("/logout", h.logout)
	}
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// getCart returns the merged cart view, refreshing from the backend first.
// A failed refresh still answers with the last known view; the error rides
// along inside it.
func (h *Handlers) getCart(c *gin.Context) {
	_ = h.Cart.Refresh(c.Request.Context())
	RespondOK(c, h.Cart.View())
}

func (h *Handlers) refreshCart(c *gin.Context) {
	if err := h.Cart.Refresh(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, h.Cart.View())
}

type addItemRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity"`
}

func (h *Handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if err := h.Cart.AddItem(c.Request.Context(), req.ProductID, req.Quantity); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, h.Cart.View())
}

type updateItemRequest struct {
	// Quantity is absolute, not a delta. Values below 1 are clamped.
	Quantity int `json:"quantity"`
}

func (h *Handlers) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if err := h.Cart.SetQuantity(c.Request.Context(), c.Param("key"), req.Quantity); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, h.Cart.View())
}

func (h *Handlers) removeItem(c *gin.Context) {
	if err := h.Cart.RemoveItem(c.Request.Context(), c.Param("key")); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, h.Cart.View())
}

func (h *Handlers) clearCart(c *gin.Context) {
	if err := h.Cart.Clear(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, h.Cart.View())
}

func (h *Handlers) listProducts(c *gin.Context) {
	params := catalog.ListParams{
		Page:        queryInt(c, "page"),
		PerPage:     queryInt(c, "per_page"),
		OrderBy:     c.Query("orderby"),
		Order:       c.Query("order"),
		Search:      c.Query("search"),
		Category:    c.Query("category"),
		Tag:         c.Query("tag"),
		Featured:    c.Query("featured") == "true",
		OnSale:      c.Query("on_sale") == "true",
		MinPrice:    c.Query("min_price"),
		MaxPrice:    c.Query("max_price"),
		StockStatus: c.Query("stock_status"),
	}
	products, err := h.Catalog.List(c.Request.Context(), params)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, products)
}

func (h *Handlers) getProduct(c *gin.Context) {
	product, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, product)
}

func (h *Handlers) paymentMethods(c *gin.Context) {
	methods, err := h.Checkout.PaymentMethods(c.Request.Context())
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, methods)
}

type placeOrderRequest struct {
	Billing       checkout.Address  `json:"billing_address"`
	Shipping      *checkout.Address `json:"shipping_address"`
	PaymentMethod string            `json:"payment_method"`
}

// placeOrder submits the order and then refreshes the cart: the backend
// consumes it when the order succeeds.
func (h *Handlers) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	result, err := h.Checkout.PlaceOrder(c.Request.Context(), checkout.Order{
		Billing:       req.Billing,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	_ = h.Cart.Refresh(c.Request.Context())
	RespondCreated(c, result)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	user, err := h.Account.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, user)
}

func (h *Handlers) logout(c *gin.Context) {
	h.Account.Logout()
	RespondNoContent(c)
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}
