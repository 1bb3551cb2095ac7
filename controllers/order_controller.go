package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-api/middleware"
	"storefront-api/services"
)

type OrderController struct {
	Orders services.OrderService
	Logger *zap.Logger
}

func NewOrderController(orders services.OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{Orders: orders, Logger: logger}
}

func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// ListOrders returns the authenticated user's order history.
func (oc *OrderController) ListOrders(c *gin.Context) {
	page, limit := parsePagination(c)
	orders, total, svcErr := oc.Orders.ListUserOrders(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetOrder returns one of the authenticated user's orders.
func (oc *OrderController) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, svcErr := oc.Orders.GetUserOrder(c.Request.Context(), orderID, middleware.GetUserID(c))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminListOrders returns all orders for the admin dashboard.
func (oc *OrderController) AdminListOrders(c *gin.Context) {
	page, limit := parsePagination(c)
	orders, total, svcErr := oc.Orders.ListAllOrders(c.Request.Context(), page, limit)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// UpdateOrderStatus applies an admin-driven status transition.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	order, svcErr := oc.Orders.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, order)
}
