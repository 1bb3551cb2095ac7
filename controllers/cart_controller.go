package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-api/middleware"
	"storefront-api/models"
	"storefront-api/services"
)

type CartController struct {
	Carts  services.CartService
	Logger *zap.Logger
}

func NewCartController(carts services.CartService, logger *zap.Logger) *CartController {
	return &CartController{Carts: carts, Logger: logger}
}

// GetCart returns the caller's cart: account-scoped when logged in,
// device-scoped otherwise.
func (cc *CartController) GetCart(c *gin.Context) {
	cart, svcErr := cc.Carts.GetCart(c.Request.Context(), middleware.GetUserID(c), middleware.GetDeviceID(c))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds or increments an item.
func (cc *CartController) AddItem(c *gin.Context) {
	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	cart, svcErr := cc.Carts.AddItem(c.Request.Context(), middleware.GetUserID(c), middleware.GetDeviceID(c), item)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateItem sets an item's quantity; zero or less removes it.
func (cc *CartController) UpdateItem(c *gin.Context) {
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	cart, svcErr := cc.Carts.UpdateQuantity(
		c.Request.Context(),
		middleware.GetUserID(c),
		middleware.GetDeviceID(c),
		c.Param("productId"),
		req.Quantity,
	)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem removes a single product from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	cart, svcErr := cc.Carts.RemoveItem(
		c.Request.Context(),
		middleware.GetUserID(c),
		middleware.GetDeviceID(c),
		c.Param("productId"),
	)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart removes all items.
func (cc *CartController) ClearCart(c *gin.Context) {
	if svcErr := cc.Carts.Clear(c.Request.Context(), middleware.GetUserID(c), middleware.GetDeviceID(c)); svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

// SyncCart merges the device cart into the account cart after login.
func (cc *CartController) SyncCart(c *gin.Context) {
	cart, svcErr := cc.Carts.Sync(c.Request.Context(), middleware.GetUserID(c), middleware.GetDeviceID(c))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}
