// internal/repository/cart_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/pirotecnica-backend/internal/models"
)

type cartRepository struct {
	db *gorm.DB
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, translateError(err)
	}
	return &cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.Items == nil {
		cart.Items = models.CartItems{}
	}
	return translateError(r.db.WithContext(ctx).Create(cart).Error)
}

func (r *cartRepository) SaveItems(ctx context.Context, cart *models.Cart) error {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]interface{}{
			"items":      cart.Items,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	cart.Version++
	return nil
}
