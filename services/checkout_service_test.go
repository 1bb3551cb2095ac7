package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"storefront-api/models"
)

type fakeStripeGateway struct {
	configured bool

	createParams *stripe.CheckoutSessionParams
	createResult *stripe.CheckoutSession
	createErr    error

	getSessionID string
	getResult    *stripe.CheckoutSession
	getErr       error
}

func (f *fakeStripeGateway) Configured() bool { return f.configured }

func (f *fakeStripeGateway) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.createParams = params
	return f.createResult, f.createErr
}

func (f *fakeStripeGateway) GetCheckoutSession(ctx context.Context, sessionID string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.getSessionID = sessionID
	return f.getResult, f.getErr
}

func (f *fakeStripeGateway) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return stripe.Event{}, nil
}

func newTestCheckoutService(gateway StripeGateway) CheckoutService {
	return NewCheckoutService(gateway, "http://localhost:3000", zap.NewNop())
}

func validCreateRequest() *models.CreateCheckoutSessionRequest {
	return &models.CreateCheckoutSessionRequest{
		UserID: "user-1",
		Items: []models.CartItem{
			{ProductID: "p1", Name: "Mug", Price: 3200, Quantity: 2},
			{ProductID: "p2", Name: "Poster", Price: 1500, Quantity: 1},
		},
		ShippingAddress: &models.ShippingAddress{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "+15551234567",
		},
	}
}

func TestCreateSessionNotConfigured(t *testing.T) {
	svc := newTestCheckoutService(&fakeStripeGateway{configured: false})

	_, err := svc.CreateSession(context.Background(), validCreateRequest())
	require.NotNil(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
}

func TestCreateSessionValidation(t *testing.T) {
	svc := newTestCheckoutService(&fakeStripeGateway{configured: true})

	tests := []struct {
		name    string
		mutate  func(*models.CreateCheckoutSessionRequest)
		message string
	}{
		{"empty items", func(r *models.CreateCheckoutSessionRequest) { r.Items = nil }, "Items are required"},
		{"missing user", func(r *models.CreateCheckoutSessionRequest) { r.UserID = "" }, "User ID is required"},
		{"missing name", func(r *models.CreateCheckoutSessionRequest) { r.Items[0].Name = "" }, "Item name is required"},
		{"zero price", func(r *models.CreateCheckoutSessionRequest) { r.Items[0].Price = 0 }, "Invalid price for item: Mug"},
		{"negative price", func(r *models.CreateCheckoutSessionRequest) { r.Items[0].Price = -100 }, "Invalid price for item: Mug"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(req)

			_, err := svc.CreateSession(context.Background(), req)
			require.NotNil(t, err)
			assert.Equal(t, http.StatusBadRequest, err.StatusCode)
			assert.Equal(t, tc.message, err.Message)
		})
	}
}

func TestCreateSessionBuildsMetadataAndLineItems(t *testing.T) {
	gateway := &fakeStripeGateway{
		configured:   true,
		createResult: &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"},
	}
	svc := newTestCheckoutService(gateway)

	created, svcErr := svc.CreateSession(context.Background(), validCreateRequest())
	require.Nil(t, svcErr)
	assert.Equal(t, "cs_test_123", created.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", created.URL)

	params := gateway.createParams
	require.NotNil(t, params)
	assert.Equal(t, "user-1", params.Metadata["userId"])
	assert.Equal(t, "p1:2,p2:1", params.Metadata["items"])
	assert.Contains(t, params.Metadata["shippingAddress"], `"fn":"Ada"`)
	assert.Equal(t, "user-1", *params.ClientReferenceID)
	assert.Equal(t, "ada@example.com", *params.CustomerEmail)
	assert.Contains(t, *params.SuccessURL, "session_id={CHECKOUT_SESSION_ID}")

	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(3200), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *params.LineItems[0].Quantity)
	assert.Equal(t, "Mug", *params.LineItems[0].PriceData.ProductData.Name)
	assert.Equal(t, "p1", params.LineItems[0].PriceData.ProductData.Metadata["productId"])
}

func TestCreateSessionCartTooLarge(t *testing.T) {
	req := validCreateRequest()
	req.Items = nil
	for i := 0; i < 60; i++ {
		req.Items = append(req.Items, models.CartItem{
			ProductID: strings.Repeat("x", 20),
			Name:      "Bulk item",
			Price:     100,
			Quantity:  1,
		})
	}

	svc := newTestCheckoutService(&fakeStripeGateway{configured: true})
	_, err := svc.CreateSession(context.Background(), req)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Contains(t, err.Message, "reduce the number of items")
}

func TestCreateSessionMapsStripeErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"invalid request",
			&stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "bad line item"},
			http.StatusBadRequest,
		},
		{
			"authentication",
			&stripe.Error{Type: stripe.ErrorType("authentication_error"), Msg: "bad key"},
			http.StatusInternalServerError,
		},
		{
			"unknown failure",
			assert.AnError,
			http.StatusBadGateway,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestCheckoutService(&fakeStripeGateway{configured: true, createErr: tc.err})

			_, svcErr := svc.CreateSession(context.Background(), validCreateRequest())
			require.NotNil(t, svcErr)
			assert.Equal(t, tc.wantStatus, svcErr.StatusCode)
		})
	}
}

func TestGetSessionEnrichesMetadataItems(t *testing.T) {
	gateway := &fakeStripeGateway{
		configured: true,
		getResult: &stripe.CheckoutSession{
			ID:            "cs_test_123",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			AmountTotal:   7900,
			Currency:      stripe.CurrencyUSD,
			CustomerEmail: "ada@example.com",
			Metadata: map[string]string{
				"userId":          "user-1",
				"items":           "p1:2,p2:1",
				"shippingAddress": `{"fn":"Ada","ln":"Lovelace","e":"ada@example.com","p":"+15551234567","co":"US"}`,
			},
			LineItems: &stripe.LineItemList{
				Data: []*stripe.LineItem{
					{
						Description: "Mug",
						Quantity:    2,
						Price: &stripe.Price{
							UnitAmount: 3200,
							Product: &stripe.Product{
								Name:     "Mug",
								Images:   []string{"https://img.example.com/mug.png"},
								Metadata: map[string]string{"productId": "p1"},
							},
						},
					},
					{
						Description: "Poster",
						Quantity:    1,
						Price: &stripe.Price{
							UnitAmount: 1500,
							Product:    &stripe.Product{Name: "Poster", Metadata: map[string]string{"productId": "p2"}},
						},
					},
				},
			},
		},
	}
	svc := newTestCheckoutService(gateway)

	sess, svcErr := svc.GetSession(context.Background(), "cs_test_123")
	require.Nil(t, svcErr)
	assert.Equal(t, "cs_test_123", gateway.getSessionID)
	assert.True(t, sess.Paid())
	assert.Equal(t, int64(7900), sess.AmountTotal)
	assert.Equal(t, "ada@example.com", sess.CustomerEmail)

	require.Len(t, sess.Items, 2)
	assert.Equal(t, "p1", sess.Items[0].ProductID)
	assert.Equal(t, "Mug", sess.Items[0].Name)
	assert.Equal(t, int64(3200), sess.Items[0].Price)
	assert.Equal(t, int64(2), sess.Items[0].Quantity)
	assert.Equal(t, "https://img.example.com/mug.png", sess.Items[0].Image)

	require.NotNil(t, sess.ShippingAddress)
	assert.Equal(t, "Ada", sess.ShippingAddress.FirstName)
	assert.Equal(t, "US", sess.ShippingAddress.Country)
}

func TestGetSessionMetadataPriceWins(t *testing.T) {
	gateway := &fakeStripeGateway{
		configured: true,
		getResult: &stripe.CheckoutSession{
			ID:            "cs_test_456",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			Metadata:      map[string]string{"items": `[{"id":"p1","qty":1,"price":2999}]`},
			LineItems: &stripe.LineItemList{
				Data: []*stripe.LineItem{
					{Description: "Mug", Quantity: 1, Price: &stripe.Price{UnitAmount: 3200}},
				},
			},
		},
	}
	svc := newTestCheckoutService(gateway)

	sess, svcErr := svc.GetSession(context.Background(), "cs_test_456")
	require.Nil(t, svcErr)
	require.Len(t, sess.Items, 1)
	// A price recovered from metadata beats Stripe's line-item amount.
	assert.Equal(t, int64(2999), sess.Items[0].Price)
	assert.Equal(t, "Mug", sess.Items[0].Name)
}

func TestGetSessionFallsBackToLineItems(t *testing.T) {
	gateway := &fakeStripeGateway{
		configured: true,
		getResult: &stripe.CheckoutSession{
			ID:            "cs_test_789",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			Metadata:      map[string]string{"items": "corrupted metadata"},
			LineItems: &stripe.LineItemList{
				Data: []*stripe.LineItem{
					{
						Description: "Mug",
						Quantity:    2,
						Price: &stripe.Price{
							UnitAmount: 3200,
							Product:    &stripe.Product{Metadata: map[string]string{"productId": "p1"}},
						},
					},
				},
			},
		},
	}
	svc := newTestCheckoutService(gateway)

	sess, svcErr := svc.GetSession(context.Background(), "cs_test_789")
	require.Nil(t, svcErr)
	require.Len(t, sess.Items, 1)
	assert.Equal(t, "p1", sess.Items[0].ProductID)
	assert.Equal(t, int64(3200), sess.Items[0].Price)
	assert.Equal(t, int64(2), sess.Items[0].Quantity)
}

func TestGetSessionCustomerDetailsFallback(t *testing.T) {
	gateway := &fakeStripeGateway{
		configured: true,
		getResult: &stripe.CheckoutSession{
			ID:              "cs_test_abc",
			PaymentStatus:   stripe.CheckoutSessionPaymentStatusUnpaid,
			CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "detail@example.com"},
		},
	}
	svc := newTestCheckoutService(gateway)

	sess, svcErr := svc.GetSession(context.Background(), "cs_test_abc")
	require.Nil(t, svcErr)
	assert.Equal(t, "detail@example.com", sess.CustomerEmail)
	assert.False(t, sess.Paid())
}

func TestGetSessionNotFound(t *testing.T) {
	gateway := &fakeStripeGateway{
		configured: true,
		getErr:     &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Code: stripe.ErrorCodeResourceMissing},
	}
	svc := newTestCheckoutService(gateway)

	_, svcErr := svc.GetSession(context.Background(), "cs_missing")
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}
