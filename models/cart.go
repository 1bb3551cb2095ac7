package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is the wire shape of one line in a cart. Price is always an
// integer amount in minor currency units (cents); it is never converted.
type CartItem struct {
	ProductID   string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Price       int64  `json:"price,omitempty"`
	Quantity    int64  `json:"quantity"`
}

// Cart is the assembled cart returned to clients, regardless of whether it
// was loaded from the account store or the guest store.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartEntry is one persisted account-cart row: (user, product) -> quantity.
type CartEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"user_id"`
	ProductID string    `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CartEntry) TableName() string { return "cart" }
