package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"storefront-api/middleware"
	"storefront-api/models"
	"storefront-api/services"
)

type CheckoutController struct {
	Checkout services.CheckoutService
	Orders   services.OrderService
	Stripe   services.StripeGateway
	Logger   *zap.Logger
}

func NewCheckoutController(checkout services.CheckoutService, orders services.OrderService, gateway services.StripeGateway, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{
		Checkout: checkout,
		Orders:   orders,
		Stripe:   gateway,
		Logger:   logger,
	}
}

// CreateCheckoutSession handles POST /api/create-checkout-session.
func (cc *CheckoutController) CreateCheckoutSession(c *gin.Context) {
	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, svcErr := cc.Checkout.CreateSession(c.Request.Context(), &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, created)
}

// GetCheckoutSession handles GET /api/checkout-session/:sessionId.
func (cc *CheckoutController) GetCheckoutSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	session, svcErr := cc.Checkout.GetSession(c.Request.Context(), sessionID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, session)
}

// ConfirmCheckout handles POST /api/checkout-session/:sessionId/confirm: the
// success page calls it after payment to materialize the order. The webhook
// drives the same idempotent path, so double invocation is harmless.
func (cc *CheckoutController) ConfirmCheckout(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	session, svcErr := cc.Checkout.GetSession(c.Request.Context(), sessionID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	result, svcErr := cc.Orders.MaterializeOrder(
		c.Request.Context(),
		session,
		middleware.GetUserID(c),
		middleware.GetDeviceID(c),
	)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":      session,
		"orderCreated": result.OrderCreated,
		"order":        result.Order,
	})
}

// StripeWebhook handles POST /api/stripe-webhook. The webhook is the
// authoritative trigger for order creation: a buyer who closes the browser
// right after paying still gets an order.
func (cc *CheckoutController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	event, err := cc.Stripe.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		cc.Logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook"})
		return
	}

	cc.Logger.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case "checkout.session.completed":
		cc.handleCheckoutCompleted(c, event)
	case "payment_intent.succeeded":
		cc.Logger.Info("Payment intent succeeded")
	default:
		cc.Logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (cc *CheckoutController) handleCheckoutCompleted(c *gin.Context, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		cc.Logger.Error("Failed to unmarshal checkout session", zap.Error(err))
		return
	}

	// The webhook payload does not include expanded line items, so the
	// session is re-retrieved through the reconciler before materializing.
	session, svcErr := cc.Checkout.GetSession(c.Request.Context(), sess.ID)
	if svcErr != nil {
		cc.Logger.Error("Failed to reconcile session from webhook",
			zap.String("session_id", sess.ID),
			zap.String("error", svcErr.Message),
		)
		return
	}
	if !session.Paid() {
		cc.Logger.Warn("Completed session not marked paid, skipping order",
			zap.String("session_id", sess.ID),
			zap.String("payment_status", session.PaymentStatus),
		)
		return
	}

	if _, svcErr := cc.Orders.MaterializeOrder(c.Request.Context(), session, "", ""); svcErr != nil {
		cc.Logger.Error("Failed to materialize order from webhook",
			zap.String("session_id", sess.ID),
			zap.String("error", svcErr.Message),
		)
	}
}
