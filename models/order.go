package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// validOrderTransitions holds the admin-driven order state machine. Orders
// are cancellable until they ship.
var validOrderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// ValidOrderTransition reports whether an order may move from -> to.
func ValidOrderTransition(from, to string) bool {
	for _, next := range validOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID string    `gorm:"index;not null" json:"user_id"`
	// Total in minor currency units, taken from the paid session.
	TotalCents int64  `gorm:"not null" json:"total"`
	Currency   string `gorm:"type:varchar(10);not null;default:'usd'" json:"currency"`
	Status     string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	// Stripe checkout session id. The unique index is what makes order
	// materialization idempotent.
	StripeSessionID string          `gorm:"column:stripe_payment_intent_id;uniqueIndex;not null" json:"stripe_payment_intent_id"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID string    `gorm:"not null" json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Price     int64     `gorm:"not null" json:"price"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
}
