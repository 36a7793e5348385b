package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart-related API endpoints
type CartHandler struct {
	BaseHandler
	cartService *appcart.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *appcart.Service) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// UpdateItemRequest represents a request to change a cart line's quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// AddBundleRequest represents a request to add a collection as a bundle
type AddBundleRequest struct {
	CollectionID int64 `json:"collection_id" binding:"required"`
}

// RegisterRoutes registers cart routes with the router group
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:productId", h.UpdateItem)
		cart.DELETE("/items/:productId", h.RemoveItem)
		cart.POST("/bundles", h.AddBundle)
		cart.DELETE("/bundles/:bundleId", h.RemoveBundle)
		cart.POST("/sync", h.Sync)
	}
}

// GetCart returns the current cart with recomputed totals
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.cartService.GetCart(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem adds a product to the cart or merges quantity into an existing line
func (h *CartHandler) AddItem(c *gin.Context) {
	var req appcart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	view, err := h.cartService.AddItem(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateItem sets the quantity of a cart line. Zero or negative removes it.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := h.pathID(c, "productId")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	view, err := h.cartService.UpdateQuantity(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c), productID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem removes a cart line entirely
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := h.pathID(c, "productId")
	if !ok {
		return
	}

	view, err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ClearCart empties the cart, including tracked bundles
func (h *CartHandler) ClearCart(c *gin.Context) {
	view, err := h.cartService.Clear(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddBundle adds a catalog collection to the cart as a discounted bundle
func (h *CartHandler) AddBundle(c *gin.Context) {
	var req AddBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	view, err := h.cartService.AddBundle(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c), req.CollectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveBundle removes a tracked bundle and its member lines
func (h *CartHandler) RemoveBundle(c *gin.Context) {
	bundleID, ok := h.pathID(c, "bundleId")
	if !ok {
		return
	}

	view, err := h.cartService.RemoveBundle(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c), bundleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Sync forces a reload of the cart from the commerce platform
func (h *CartHandler) Sync(c *gin.Context) {
	view, err := h.cartService.Sync(c.Request.Context(), middleware.GetSessionID(c), middleware.GetAuthState(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

func (h *CartHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
