// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

// WarningNotificationFailed is reported when an order was placed but the shop could
// not be told about it.
const WarningNotificationFailed = "notification_failed"

type OrderService struct {
	store         repository.Store
	notifier      Notifier
	currency      string
	notifyTimeout time.Duration
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

type CheckoutResult struct {
	Order    *models.Order
	Warnings []string
}

func NewOrderService(store repository.Store, notifier Notifier, cfg *config.Config) *OrderService {
	return &OrderService{
		store:         store,
		notifier:      notifier,
		currency:      cfg.Shop.Currency,
		notifyTimeout: time.Duration(cfg.Server.NotificationTimeout) * time.Second,
	}
}

// Checkout turns the buyer's cart into a pending order and empties the cart in the
// same transaction. The cart is emptied with a version check, so a concurrent cart
// change makes the whole transaction retry against the new contents.
func (s *OrderService) Checkout(ctx context.Context, buyer *models.User) (*CheckoutResult, error) {
	var order *models.Order

	err := repository.Retry(ctx, func() error {
		return s.store.WithTx(ctx, func(tx repository.Store) error {
			placed, err := placeOrder(ctx, tx, buyer.ID, s.currency)
			if err != nil {
				return err
			}
			order = placed
			return nil
		})
	})
	if err != nil {
		return nil, retryError(err, "failed to place order")
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  buyer.ID,
		"total":    order.Total.String(),
		"items":    len(order.Items),
	}).Info("Order placed")

	result := &CheckoutResult{Order: order}
	err = notify(ctx, s.notifyTimeout, "order_placed", func(ctx context.Context) error {
		return s.notifier.NotifyOrderPlaced(ctx, order, buyer)
	})
	if err != nil {
		result.Warnings = append(result.Warnings, WarningNotificationFailed)
	}

	return result, nil
}

func placeOrder(ctx context.Context, tx repository.Store, userID uuid.UUID, currency string) (*models.Order, error) {
	cart, err := tx.Carts().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.EmptyCart()
		}
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperror.EmptyCart()
	}

	products, err := tx.Products().GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, apperror.NotFound(i18n.KeyProductNotFound)
		}
		items = append(items, models.SnapshotItem(product, line.Quantity))
	}

	total := models.SumItems(items)
	if !total.Storable() {
		return nil, apperror.Validation(i18n.KeyOrderTotalTooLarge)
	}

	cart.Clear()
	if err := tx.Carts().SaveItems(ctx, cart); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:   userID,
		Items:    items,
		Total:    total,
		Currency: currency,
		Status:   models.OrderStatusPending,
	}
	if err := tx.Orders().Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to list orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context, page repository.Page) ([]models.Order, int64, error) {
	orders, total, err := s.store.Orders().List(ctx, page)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list orders", err)
	}
	return orders, total, nil
}

// UpdateStatus sets any known status. There is no ordering between statuses.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *UpdateOrderStatusRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperror.Validation(i18n.KeyOrderInvalidStatus).Wrap(err)
	}

	status, err := models.ToOrderStatus(req.Status)
	if err != nil {
		return nil, apperror.Validation(i18n.KeyOrderInvalidStatus).Wrap(err)
	}

	if err := s.store.Orders().UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(i18n.KeyOrderNotFound)
		}
		return nil, apperror.Internal("failed to update order status", err)
	}

	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load order", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id": id,
		"status":   status,
	}).Info("Order status updated")

	return order, nil
}
