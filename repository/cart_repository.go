package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-api/models"
)

// CartRepository is the account-scoped cart store: one row per
// (user, product) pair.
type CartRepository interface {
	GetItems(ctx context.Context, userID string) ([]models.CartEntry, error)
	// AddItem upserts: an existing row has its quantity incremented.
	AddItem(ctx context.Context, userID, productID string, quantity int64) error
	SetQuantity(ctx context.Context, userID, productID string, quantity int64) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) GetItems(ctx context.Context, userID string) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormCartRepository) AddItem(ctx context.Context, userID, productID string, quantity int64) error {
	if quantity < 1 {
		quantity = 1
	}
	entry := models.CartEntry{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart.quantity + EXCLUDED.quantity"),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&entry).Error
}

func (r *GormCartRepository) SetQuantity(ctx context.Context, userID, productID string, quantity int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CartEntry{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity).Error
}

func (r *GormCartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartEntry{}).Error
}

func (r *GormCartRepository) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartEntry{}).Error
}
