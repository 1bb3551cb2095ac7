package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-api/models"
	"storefront-api/repository"
)

// MaterializeResult reports what happened to the order for a paid session.
type MaterializeResult struct {
	Order        *models.Order `json:"order,omitempty"`
	OrderCreated bool          `json:"orderCreated"`
}

// OrderService persists orders for paid checkout sessions and exposes order
// history plus the admin status workflow.
type OrderService interface {
	// MaterializeOrder persists the order for a paid session exactly once.
	// Duplicate invocations (success-page re-render, webhook plus client)
	// are expected and resolve to the already-persisted order. The cart is
	// cleared regardless of how the insert went: payment already succeeded,
	// so a failed order write is an admin-reconciliation problem, never a
	// checkout failure.
	MaterializeOrder(ctx context.Context, session *models.CheckoutSession, userID, deviceID string) (*MaterializeResult, *ServiceError)
	ListUserOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, *ServiceError)
	GetUserOrder(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, *ServiceError)
	ListAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, *ServiceError)
}

type orderServiceImpl struct {
	repo   repository.OrderRepository
	carts  CartService
	logger *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, carts CartService, logger *zap.Logger) OrderService {
	return &orderServiceImpl{
		repo:   repo,
		carts:  carts,
		logger: logger,
	}
}

func (s *orderServiceImpl) MaterializeOrder(ctx context.Context, session *models.CheckoutSession, userID, deviceID string) (*MaterializeResult, *ServiceError) {
	if session == nil || session.SessionID == "" {
		return nil, newServiceError(http.StatusBadRequest, "Checkout session is required")
	}
	if !session.Paid() {
		return nil, newServiceError(http.StatusBadRequest, "Payment has not been completed")
	}

	if userID == "" {
		userID = session.Metadata[metadataKeyUserID]
	}
	if userID == "" {
		return nil, newServiceError(http.StatusBadRequest, "User ID is required")
	}

	order := &models.Order{
		UserID:          userID,
		TotalCents:      session.AmountTotal,
		Currency:        session.Currency,
		Status:          models.OrderStatusPending,
		StripeSessionID: session.SessionID,
	}
	if session.ShippingAddress != nil {
		order.ShippingAddress = *session.ShippingAddress
	}
	for _, item := range session.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	created, err := s.repo.CreateIfAbsent(ctx, order)
	if err != nil {
		// Payment is the source of truth; the missing row is flagged for
		// manual reconciliation instead of failing the checkout.
		s.logger.Error("Order write failed for paid session, needs manual reconciliation",
			zap.String("session_id", session.SessionID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.carts.ClearAfterPayment(ctx, userID, deviceID)
		return &MaterializeResult{OrderCreated: false}, nil
	}

	if created {
		s.logger.Info("Order materialized",
			zap.String("order_id", order.ID.String()),
			zap.String("session_id", session.SessionID),
			zap.Int64("total_cents", order.TotalCents),
		)
	} else {
		s.logger.Info("Order already exists for session, skipping",
			zap.String("session_id", session.SessionID),
		)
		order = nil
	}

	s.carts.ClearAfterPayment(ctx, userID, deviceID)

	return &MaterializeResult{Order: order, OrderCreated: created}, nil
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, newServiceError(http.StatusInternalServerError, "Failed to list orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) GetUserOrder(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, *ServiceError) {
	order, err := s.repo.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, newServiceError(http.StatusNotFound, "Order not found")
		}
		s.logger.Error("Failed to load order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to load order")
	}
	return order, nil
}

func (s *orderServiceImpl) ListAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list all orders", zap.Error(err))
		return nil, 0, newServiceError(http.StatusInternalServerError, "Failed to list orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, *ServiceError) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, newServiceError(http.StatusNotFound, "Order not found")
		}
		s.logger.Error("Failed to load order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to load order")
	}

	if !models.ValidOrderTransition(order.Status, status) {
		return nil, newServiceError(http.StatusBadRequest, "Invalid status transition from "+order.Status+" to "+status)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to update order")
	}

	order.Status = status
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", status),
	)
	return order, nil
}
