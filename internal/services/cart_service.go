// internal/services/cart_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
)

type CartService struct {
	store repository.Store
}

// AdjustCartRequest changes a line by a relative quantity. A negative quantity
// decrements and a line reaching zero is removed.
type AdjustCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"nonzero_int,min=-10000,max=10000"`
}

// CartLine is a stored line joined with the current product. Product is nil when the
// product has since been deleted.
type CartLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *models.Product `json:"product,omitempty"`
	LineTotal *models.Money   `json:"line_total,omitempty"`
}

type CartView struct {
	ID      uuid.UUID    `json:"id"`
	UserID  uuid.UUID    `json:"user_id"`
	Items   []CartLine   `json:"items"`
	Total   models.Money `json:"total"`
	Version int64        `json:"version"`
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store}
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := getOrCreateCart(ctx, s.store, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load cart", err)
	}
	return s.view(ctx, cart)
}

func (s *CartService) AdjustItem(ctx context.Context, userID uuid.UUID, req *AdjustCartRequest) (*CartView, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.store.Products().GetByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(i18n.KeyProductNotFound)
		}
		return nil, apperror.Internal("failed to load product", err)
	}

	cart, err := s.mutate(ctx, userID, func(cart *models.Cart) error {
		if err := cart.Adjust(req.ProductID, req.Quantity); err != nil {
			return apperror.Validation(i18n.KeyCartQuantity).Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// RemoveItem drops a line without resolving its product, so lines for deleted
// products can still be removed.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	cart, err := s.mutate(ctx, userID, func(cart *models.Cart) error {
		if !cart.Remove(productID) {
			return apperror.NotFound(i18n.KeyCartItemNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// mutate runs a read-modify-write against the latest cart, retrying when another
// writer got there first.
func (s *CartService) mutate(ctx context.Context, userID uuid.UUID, change func(*models.Cart) error) (*models.Cart, error) {
	var saved *models.Cart

	err := repository.Retry(ctx, func() error {
		cart, err := getOrCreateCart(ctx, s.store, userID)
		if err != nil {
			return err
		}
		if err := change(cart); err != nil {
			return err
		}
		if err := s.store.Carts().SaveItems(ctx, cart); err != nil {
			return err
		}
		saved = cart
		return nil
	})
	if err != nil {
		return nil, retryError(err, "failed to update cart")
	}
	return saved, nil
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*CartView, error) {
	products, err := s.store.Products().GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, apperror.Internal("failed to load cart products", err)
	}

	view := &CartView{
		ID:      cart.ID,
		UserID:  cart.UserID,
		Items:   make([]CartLine, 0, len(cart.Items)),
		Version: cart.Version,
	}

	for _, item := range cart.Items {
		line := CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
		if product, ok := products[item.ProductID]; ok {
			lineTotal := product.Price.Times(item.Quantity)
			line.Product = product
			line.LineTotal = &lineTotal
		}
		view.Items = append(view.Items, line)
	}

	view.Total = lo.Reduce(view.Items, func(total models.Money, line CartLine, _ int) models.Money {
		if line.LineTotal == nil {
			return total
		}
		return total.Add(*line.LineTotal)
	}, models.Money{})

	return view, nil
}

// getOrCreateCart returns the user's cart, creating it on first access. Losing the
// creation race to a concurrent request is resolved by reading the winner's cart.
func getOrCreateCart(ctx context.Context, store repository.Store, userID uuid.UUID) (*models.Cart, error) {
	cart, err := store.Carts().GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	cart = models.NewCart(userID)
	if err := store.Carts().Create(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return store.Carts().GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return cart, nil
}

// retryError maps the outcome of a retried cart operation. A conflict that survives
// every retry is reported to the client as one.
func retryError(err error, message string) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperror.Conflict(i18n.KeyCartConflict).Wrap(err)
	}
	return apperror.Internal(message, err)
}
