package services

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storefront-api/models"
	"storefront-api/repository"
)

// GuestCartStore is the device-scoped cart store (Redis-backed in
// production). It doubles as the fallback when the account store degrades.
type GuestCartStore interface {
	GetCart(ctx context.Context, deviceID string) (*models.Cart, error)
	SaveCart(ctx context.Context, deviceID string, cart *models.Cart) error
	DeleteCart(ctx context.Context, deviceID string) error
}

// CartService keeps the account-scoped cart (Postgres) and the device-scoped
// guest cart (Redis) in sync. If the cart table turns out to be missing, the
// service permanently falls back to the guest store for the remainder of the
// process, instead of hammering the database with doomed round-trips.
type CartService interface {
	GetCart(ctx context.Context, userID, deviceID string) (*models.Cart, *ServiceError)
	AddItem(ctx context.Context, userID, deviceID string, item models.CartItem) (*models.Cart, *ServiceError)
	UpdateQuantity(ctx context.Context, userID, deviceID, productID string, quantity int64) (*models.Cart, *ServiceError)
	RemoveItem(ctx context.Context, userID, deviceID, productID string) (*models.Cart, *ServiceError)
	Clear(ctx context.Context, userID, deviceID string) *ServiceError
	// Sync merges the device cart into the account cart on login, then
	// clears the device cart. The merge only runs when the account cart
	// loaded successfully.
	Sync(ctx context.Context, userID, deviceID string) (*models.Cart, *ServiceError)
	// ClearAfterPayment drops both carts and never fails: payment already
	// succeeded, so the items must not reappear even if bookkeeping breaks.
	ClearAfterPayment(ctx context.Context, userID, deviceID string)
}

type cartServiceImpl struct {
	repo     repository.CartRepository
	guest    GuestCartStore
	products repository.ProductRepository
	logger   *zap.Logger
	degraded atomic.Bool
}

func NewCartService(repo repository.CartRepository, guest GuestCartStore, products repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{
		repo:     repo,
		guest:    guest,
		products: products,
		logger:   logger,
	}
}

func (s *cartServiceImpl) accountAvailable(userID string) bool {
	return userID != "" && !s.degraded.Load()
}

func (s *cartServiceImpl) markDegraded() {
	if s.degraded.CompareAndSwap(false, true) {
		s.logger.Warn("Cart table unavailable, serving carts from guest store for the remainder of the process")
	}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID, deviceID string) (*models.Cart, *ServiceError) {
	if s.accountAvailable(userID) {
		entries, err := s.repo.GetItems(ctx, userID)
		if err == nil {
			return s.buildAccountCart(ctx, userID, entries), nil
		}
		if !repository.IsUndefinedTable(err) {
			s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to load cart")
		}
		s.markDegraded()
	}
	return s.loadGuestCart(ctx, userID, deviceID)
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, deviceID string, item models.CartItem) (*models.Cart, *ServiceError) {
	if item.ProductID == "" {
		return nil, newServiceError(http.StatusBadRequest, "Product ID is required")
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	if s.accountAvailable(userID) {
		err := s.repo.AddItem(ctx, userID, item.ProductID, item.Quantity)
		if err == nil {
			return s.GetCart(ctx, userID, deviceID)
		}
		if !repository.IsUndefinedTable(err) {
			s.logger.Error("Failed to add cart item", zap.String("user_id", userID), zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to update cart")
		}
		s.markDegraded()
	}

	cart, svcErr := s.loadGuestCart(ctx, userID, deviceID)
	if svcErr != nil {
		return nil, svcErr
	}
	mergeCartItem(cart, item)
	if err := s.saveGuestCart(ctx, deviceID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, userID, deviceID, productID string, quantity int64) (*models.Cart, *ServiceError) {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, deviceID, productID)
	}

	if s.accountAvailable(userID) {
		err := s.repo.SetQuantity(ctx, userID, productID, quantity)
		if err == nil {
			return s.GetCart(ctx, userID, deviceID)
		}
		if !repository.IsUndefinedTable(err) {
			s.logger.Error("Failed to update cart item", zap.String("user_id", userID), zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to update cart")
		}
		s.markDegraded()
	}

	cart, svcErr := s.loadGuestCart(ctx, userID, deviceID)
	if svcErr != nil {
		return nil, svcErr
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
		}
	}
	if err := s.saveGuestCart(ctx, deviceID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, deviceID, productID string) (*models.Cart, *ServiceError) {
	if s.accountAvailable(userID) {
		err := s.repo.RemoveItem(ctx, userID, productID)
		if err == nil {
			return s.GetCart(ctx, userID, deviceID)
		}
		if !repository.IsUndefinedTable(err) {
			s.logger.Error("Failed to remove cart item", zap.String("user_id", userID), zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to update cart")
		}
		s.markDegraded()
	}

	cart, svcErr := s.loadGuestCart(ctx, userID, deviceID)
	if svcErr != nil {
		return nil, svcErr
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	if err := s.saveGuestCart(ctx, deviceID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID, deviceID string) *ServiceError {
	if s.accountAvailable(userID) {
		err := s.repo.Clear(ctx, userID)
		if err == nil {
			return nil
		}
		if !repository.IsUndefinedTable(err) {
			s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
			return newServiceError(http.StatusInternalServerError, "Failed to clear cart")
		}
		s.markDegraded()
	}

	if deviceID == "" {
		return nil
	}
	if err := s.guest.DeleteCart(ctx, deviceID); err != nil {
		s.logger.Error("Failed to clear guest cart", zap.String("device_id", deviceID), zap.Error(err))
		return newServiceError(http.StatusInternalServerError, "Failed to clear cart")
	}
	return nil
}

func (s *cartServiceImpl) Sync(ctx context.Context, userID, deviceID string) (*models.Cart, *ServiceError) {
	if userID == "" {
		return nil, newServiceError(http.StatusUnauthorized, "Unauthorized")
	}
	if !s.accountAvailable(userID) {
		return s.loadGuestCart(ctx, userID, deviceID)
	}

	// The merge is gated on the account cart loading successfully; a failed
	// load leaves the device cart untouched.
	if _, err := s.repo.GetItems(ctx, userID); err != nil {
		if repository.IsUndefinedTable(err) {
			s.markDegraded()
			return s.loadGuestCart(ctx, userID, deviceID)
		}
		s.logger.Error("Failed to load cart for sync", zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to load cart")
	}

	if deviceID != "" {
		guestCart, err := s.guest.GetCart(ctx, deviceID)
		if err != nil {
			s.logger.Error("Failed to load guest cart for sync", zap.String("device_id", deviceID), zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to sync cart")
		}
		if guestCart != nil && len(guestCart.Items) > 0 {
			// Item-by-item on purpose: each add is an upsert that sums
			// quantities with whatever the account cart already holds.
			for _, item := range guestCart.Items {
				if err := s.repo.AddItem(ctx, userID, item.ProductID, item.Quantity); err != nil {
					if repository.IsUndefinedTable(err) {
						s.markDegraded()
						return s.loadGuestCart(ctx, userID, deviceID)
					}
					s.logger.Error("Failed to merge guest cart item",
						zap.String("user_id", userID),
						zap.String("product_id", item.ProductID),
						zap.Error(err),
					)
					return nil, newServiceError(http.StatusInternalServerError, "Failed to sync cart")
				}
			}
			if err := s.guest.DeleteCart(ctx, deviceID); err != nil {
				// The merge landed; a stale guest cart is only cosmetic.
				s.logger.Warn("Failed to clear guest cart after merge", zap.String("device_id", deviceID), zap.Error(err))
			}
		}
	}

	return s.GetCart(ctx, userID, deviceID)
}

func (s *cartServiceImpl) ClearAfterPayment(ctx context.Context, userID, deviceID string) {
	if s.accountAvailable(userID) {
		if err := s.repo.Clear(ctx, userID); err != nil {
			if repository.IsUndefinedTable(err) {
				s.markDegraded()
			} else {
				s.logger.Error("Failed to clear cart after payment", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
	if deviceID != "" {
		if err := s.guest.DeleteCart(ctx, deviceID); err != nil {
			s.logger.Error("Failed to clear guest cart after payment", zap.String("device_id", deviceID), zap.Error(err))
		}
	}
}

// buildAccountCart turns cart rows into a client cart, enriched with product
// details when the catalog lookup succeeds.
func (s *cartServiceImpl) buildAccountCart(ctx context.Context, userID string, entries []models.CartEntry) *models.Cart {
	cart := &models.Cart{
		UserID:    userID,
		Items:     make([]models.CartItem, 0, len(entries)),
		UpdatedAt: time.Now(),
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ProductID)
	}
	byID := map[string]models.Product{}
	if products, err := s.products.FindByIDs(ctx, ids); err != nil {
		s.logger.Warn("Product lookup failed, returning bare cart items", zap.Error(err))
	} else {
		for _, p := range products {
			byID[p.ID.String()] = p
		}
	}

	for _, entry := range entries {
		item := models.CartItem{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
		}
		if p, ok := byID[entry.ProductID]; ok {
			item.Name = p.Name
			item.Description = p.Description
			item.Image = p.Image
			item.Price = p.Price
		}
		cart.Items = append(cart.Items, item)
	}
	return cart
}

func (s *cartServiceImpl) loadGuestCart(ctx context.Context, userID, deviceID string) (*models.Cart, *ServiceError) {
	empty := &models.Cart{UserID: userID, Items: []models.CartItem{}}
	if deviceID == "" {
		return empty, nil
	}
	cart, err := s.guest.GetCart(ctx, deviceID)
	if err != nil {
		s.logger.Error("Failed to load guest cart", zap.String("device_id", deviceID), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to load cart")
	}
	if cart == nil {
		return empty, nil
	}
	cart.UserID = userID
	return cart, nil
}

func (s *cartServiceImpl) saveGuestCart(ctx context.Context, deviceID string, cart *models.Cart) *ServiceError {
	if deviceID == "" {
		return newServiceError(http.StatusBadRequest, "Device ID is required for guest carts")
	}
	if err := s.guest.SaveCart(ctx, deviceID, cart); err != nil {
		s.logger.Error("Failed to save guest cart", zap.String("device_id", deviceID), zap.Error(err))
		return newServiceError(http.StatusInternalServerError, "Failed to save cart")
	}
	return nil
}

func mergeCartItem(cart *models.Cart, item models.CartItem) {
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			return
		}
	}
	cart.Items = append(cart.Items, item)
}
