package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	// Price in minor currency units (3200 = $32.00).
	Price     int64          `gorm:"not null" json:"price"`
	Image     string         `json:"image"`
	Stock     int            `gorm:"not null;default:0" json:"stock"`
	Category  string         `gorm:"index" json:"category"`
	SKU       string         `gorm:"uniqueIndex" json:"sku"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
