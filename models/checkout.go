package models

// ShippingAddress is the canonical (full-key) address shape. A compact
// short-key form exists only inside the checkout metadata codec; the two are
// isomorphic except for truncation under the metadata length cap.
type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// CreateCheckoutSessionRequest is the body of POST /api/create-checkout-session.
type CreateCheckoutSessionRequest struct {
	Items           []CartItem       `json:"items"`
	UserID          string           `json:"userId"`
	ShippingAddress *ShippingAddress `json:"shippingAddress"`
}

// CheckoutSessionCreated is returned after a session was created at Stripe.
type CheckoutSessionCreated struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CheckoutSession is the reconciled view of a Stripe checkout session:
// provider state plus the cart and address reconstructed from metadata and
// line items. It is read-only; Stripe owns the session lifecycle.
type CheckoutSession struct {
	SessionID       string            `json:"sessionId"`
	PaymentStatus   string            `json:"paymentStatus"`
	CustomerEmail   string            `json:"customerEmail,omitempty"`
	AmountTotal     int64             `json:"amountTotal"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
	Items           []CartItem        `json:"items"`
	ShippingAddress *ShippingAddress  `json:"shippingAddress"`
}

// Paid reports whether the session completed payment.
func (s *CheckoutSession) Paid() bool { return s.PaymentStatus == "paid" }
