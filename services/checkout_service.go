package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"storefront-api/models"
)

// Countries the store ships to.
var allowedShippingCountries = []string{"US", "CA", "GB"}

// CheckoutService builds Stripe checkout sessions from carts and reconciles
// retrieved sessions back into cart + address shape.
type CheckoutService interface {
	CreateSession(ctx context.Context, req *models.CreateCheckoutSessionRequest) (*models.CheckoutSessionCreated, *ServiceError)
	GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, *ServiceError)
}

type checkoutServiceImpl struct {
	stripe      StripeGateway
	frontendURL string
	logger      *zap.Logger
}

func NewCheckoutService(gateway StripeGateway, frontendURL string, logger *zap.Logger) CheckoutService {
	return &checkoutServiceImpl{
		stripe:      gateway,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// CreateSession validates the cart, derives Stripe line items and compact
// metadata, and requests a hosted checkout session. Nothing is persisted
// locally: an order only materializes after confirmed payment, so abandoned
// checkouts leave no pending rows behind.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, req *models.CreateCheckoutSessionRequest) (*models.CheckoutSessionCreated, *ServiceError) {
	if !s.stripe.Configured() {
		return nil, newServiceError(http.StatusServiceUnavailable, "Stripe is not configured")
	}
	if len(req.Items) == 0 {
		return nil, newServiceError(http.StatusBadRequest, "Items are required")
	}
	if req.UserID == "" {
		return nil, newServiceError(http.StatusBadRequest, "User ID is required")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Name == "" {
			return nil, newServiceError(http.StatusBadRequest, "Item name is required")
		}
		// Prices arrive already in cents; no unit conversion anywhere.
		if item.Price <= 0 {
			return nil, newServiceError(http.StatusBadRequest, fmt.Sprintf("Invalid price for item: %s", item.Name))
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}

		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if item.Image != "" {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}
		productData.Metadata = map[string]string{"productId": item.ProductID}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String("usd"),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.Price),
			},
			Quantity: stripe.Int64(qty),
		})
	}

	itemsRef, err := EncodeItemsRef(req.Items)
	if err != nil {
		return nil, newServiceError(http.StatusBadRequest, "Too many items in cart. Please reduce the number of items.")
	}
	shippingRef := EncodeShippingRef(req.ShippingAddress)

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(s.frontendURL + "/checkout/cancel"),
		ClientReferenceID:  stripe.String(req.UserID),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(allowedShippingCountries),
		},
	}
	params.AddMetadata(metadataKeyUserID, req.UserID)
	params.AddMetadata(metadataKeyItems, itemsRef)
	params.AddMetadata(metadataKeyShipping, shippingRef)
	if req.ShippingAddress != nil && req.ShippingAddress.Email != "" {
		params.CustomerEmail = stripe.String(req.ShippingAddress.Email)
	}

	sess, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, s.mapStripeError("create", err)
	}

	s.logger.Info("Stripe checkout session created",
		zap.String("session_id", sess.ID),
		zap.Int("items_ref_len", len(itemsRef)),
		zap.Int("shipping_ref_len", len(shippingRef)),
	)

	return &models.CheckoutSessionCreated{SessionID: sess.ID, URL: sess.URL}, nil
}

// GetSession retrieves a session with line items and payment intent expanded
// and reconstructs the cart and shipping address from its metadata. Pure
// read: no persisted state changes.
func (s *checkoutServiceImpl) GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, *ServiceError) {
	if !s.stripe.Configured() {
		return nil, newServiceError(http.StatusServiceUnavailable, "Stripe is not configured")
	}

	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("line_items")
	params.AddExpand("line_items.data.price.product")
	params.AddExpand("payment_intent")

	sess, err := s.stripe.GetCheckoutSession(ctx, sessionID, params)
	if err != nil {
		return nil, s.mapStripeError("retrieve", err)
	}

	items := DecodeItemsRef(sess.Metadata[metadataKeyItems])
	var lineItems []*stripe.LineItem
	if sess.LineItems != nil {
		lineItems = sess.LineItems.Data
	}

	switch {
	case len(items) > 0 && len(lineItems) > 0:
		// Metadata order matches line-item order, so enrichment aligns the
		// two positionally. A price recovered from metadata wins over
		// Stripe's per-unit amount.
		for i := range items {
			if i >= len(lineItems) {
				break
			}
			enrichItemFromLine(&items[i], lineItems[i])
		}
	case len(items) == 0 && len(lineItems) > 0:
		// Metadata was unparsable; line items alone are authoritative.
		items = make([]models.CartItem, 0, len(lineItems))
		for _, li := range lineItems {
			item := models.CartItem{Quantity: li.Quantity}
			if li.Price != nil {
				item.Price = li.Price.UnitAmount
				if li.Price.Product != nil {
					item.ProductID = li.Price.Product.Metadata["productId"]
				}
			}
			enrichItemFromLine(&item, li)
			items = append(items, item)
		}
	}

	customerEmail := sess.CustomerEmail
	if customerEmail == "" && sess.CustomerDetails != nil {
		customerEmail = sess.CustomerDetails.Email
	}

	return &models.CheckoutSession{
		SessionID:       sess.ID,
		PaymentStatus:   string(sess.PaymentStatus),
		CustomerEmail:   customerEmail,
		AmountTotal:     sess.AmountTotal,
		Currency:        string(sess.Currency),
		Metadata:        sess.Metadata,
		Items:           items,
		ShippingAddress: DecodeShippingRef(sess.Metadata[metadataKeyShipping]),
	}, nil
}

// enrichItemFromLine fills name/image/description and, when still unknown,
// the unit price from a Stripe line item. Prices stay in cents throughout.
func enrichItemFromLine(item *models.CartItem, li *stripe.LineItem) {
	if li == nil {
		return
	}
	item.Name = li.Description
	if li.Price != nil {
		if item.Price == 0 {
			item.Price = li.Price.UnitAmount
		}
		if product := li.Price.Product; product != nil {
			if item.Name == "" {
				item.Name = product.Name
			}
			if len(product.Images) > 0 {
				item.Image = product.Images[0]
			}
			item.Description = product.Description
		}
	}
}

func (s *checkoutServiceImpl) mapStripeError(op string, err error) *ServiceError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return newServiceError(http.StatusNotFound, "Checkout session not found")
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
			return newServiceError(http.StatusBadRequest, fmt.Sprintf("Invalid request: %s", stripeErr.Msg))
		case stripeErr.Type == stripe.ErrorType("authentication_error"):
			return newServiceError(http.StatusInternalServerError, "Stripe authentication failed. Check your API keys.")
		}
	}
	s.logger.Error("Stripe call failed", zap.String("op", op), zap.Error(err))
	return newServiceError(http.StatusBadGateway, fmt.Sprintf("Failed to %s checkout session", op))
}
