// internal/repository/product_repository.go
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/javajoker/pirotecnica-backend/internal/models"
)

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translateError(err)
	}
	return r.attachSellers(ctx, []*models.Product{product})
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	if err := r.attachSellers(ctx, []*models.Product{&product}); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDs returns the live products among ids. Missing or deleted ids are absent
// from the map.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	found := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", lo.Uniq(ids)).Find(&products).Error; err != nil {
		return nil, translateError(err)
	}

	ptrs := make([]*models.Product, len(products))
	for i := range products {
		ptrs[i] = &products[i]
		found[products[i].ID] = &products[i]
	}
	if err := r.attachSellers(ctx, ptrs); err != nil {
		return nil, err
	}
	return found, nil
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).
		Model(product).
		Select("name", "description", "price", "category", "image", "tags", "updated_at").
		Updates(product)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the product. Placed orders keep their snapshot.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	var (
		products []models.Product
		total    int64
	)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	if err := paginate(query.Order("created_at DESC"), filter.Page).Find(&products).Error; err != nil {
		return nil, 0, translateError(err)
	}

	ptrs := make([]*models.Product, len(products))
	for i := range products {
		ptrs[i] = &products[i]
	}
	if err := r.attachSellers(ctx, ptrs); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) attachSellers(ctx context.Context, products []*models.Product) error {
	ids := lo.Uniq(lo.Map(products, func(p *models.Product, _ int) uuid.UUID {
		return p.SellerID
	}))

	sellers, err := summariesByID(ctx, r.db, ids)
	if err != nil {
		return err
	}

	for _, p := range products {
		p.Seller = sellers[p.SellerID]
	}
	return nil
}
