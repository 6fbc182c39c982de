// internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/pirotecnica-backend/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionConflict = errors.New("version conflict")
)

// Page selects a slice of a listing. The zero value selects everything.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Enabled() bool {
	return p.Number > 0 && p.Limit > 0
}

func (p Page) Offset() int {
	if !p.Enabled() {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

type ProductFilter struct {
	Category string
	SellerID *uuid.UUID
	Page     Page
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, page Page) ([]models.User, int64, error)
	ListByLicenseStatus(ctx context.Context, status models.LicenseStatus) ([]models.User, error)
}

// ProductRepository attaches the seller summary to every product it returns.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
}

type CartRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// Create returns ErrDuplicate when the user already has a cart.
	Create(ctx context.Context, cart *models.Cart) error
	// SaveItems replaces the items if the stored version still equals cart.Version,
	// then bumps cart.Version. A stale version yields ErrVersionConflict.
	SaveItems(ctx context.Context, cart *models.Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	// List attaches the purchaser summary to each order.
	List(ctx context.Context, page Page) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Store is the handle every service receives. Repositories obtained from the Store
// passed to a WithTx callback share that transaction.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	AuditLogs() AuditLogRepository

	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
