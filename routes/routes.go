package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-api/config"
	"storefront-api/controllers"
	"storefront-api/middleware"
)

type Controllers struct {
	Checkout     *controllers.CheckoutController
	Cart         *controllers.CartController
	Order        *controllers.OrderController
	Product      *controllers.ProductController
	Notification *controllers.NotificationController
}

// RegisterRoutes builds the gin engine with the full middleware stack and
// mounts every endpoint.
func RegisterRoutes(cfg *config.Config, logger *zap.Logger, ctrl Controllers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins()))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Identity())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "storefront-api",
			"status":  "running",
			"services": gin.H{
				"stripe": cfg.StripeConfigured(),
				"twilio": cfg.TwilioConfigured(),
			},
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	{
		api.POST("/create-checkout-session", ctrl.Checkout.CreateCheckoutSession)
		api.GET("/checkout-session/:sessionId", ctrl.Checkout.GetCheckoutSession)
		api.POST("/checkout-session/:sessionId/confirm", ctrl.Checkout.ConfirmCheckout)
		api.POST("/stripe-webhook", ctrl.Checkout.StripeWebhook)

		api.GET("/products", ctrl.Product.ListProducts)
		api.GET("/products/:id", ctrl.Product.GetProduct)

		api.POST("/send-sms", ctrl.Notification.SendSMS)

		cart := api.Group("/cart")
		{
			cart.GET("", ctrl.Cart.GetCart)
			cart.POST("/items", ctrl.Cart.AddItem)
			cart.PUT("/items/:productId", ctrl.Cart.UpdateItem)
			cart.DELETE("/items/:productId", ctrl.Cart.RemoveItem)
			cart.DELETE("", ctrl.Cart.ClearCart)
			cart.POST("/sync", middleware.AuthMiddleware(), ctrl.Cart.SyncCart)
		}

		orders := api.Group("/orders", middleware.AuthMiddleware())
		{
			orders.GET("", ctrl.Order.ListOrders)
			orders.GET("/:id", ctrl.Order.GetOrder)
		}

		admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			admin.GET("/orders", ctrl.Order.AdminListOrders)
			admin.PUT("/orders/:id/status", ctrl.Order.UpdateOrderStatus)

			admin.POST("/products", ctrl.Product.CreateProduct)
			admin.PUT("/products/:id", ctrl.Product.UpdateProduct)
			admin.DELETE("/products/:id", ctrl.Product.DeleteProduct)
		}
	}

	return router
}
