// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
)

type ProductService struct {
	store  repository.Store
	access *AccessControl
	images ImageStore
}

type CreateProductRequest struct {
	Name        string        `json:"name" form:"name" validate:"required,max=255"`
	Description string        `json:"description" form:"description" validate:"max=5000"`
	Price       *models.Money `json:"price" form:"price" validate:"required,money"`
	Category    string        `json:"category" form:"category" validate:"max=100"`
	Tags        []string      `json:"tags" form:"tags" validate:"max=20,dive,max=50"`
	Image       string        `json:"image" form:"-" validate:"omitempty,max=512"`
}

// UpdateProductRequest changes only the fields that are present.
type UpdateProductRequest struct {
	Name        *string       `json:"name" form:"name" validate:"omitempty,min=1,max=255"`
	Description *string       `json:"description" form:"description" validate:"omitempty,max=5000"`
	Price       *models.Money `json:"price" form:"price" validate:"omitempty,money"`
	Category    *string       `json:"category" form:"category" validate:"omitempty,max=100"`
	Tags        []string      `json:"tags" form:"tags" validate:"omitempty,max=20,dive,max=50"`
	Image       *string       `json:"image" form:"-" validate:"omitempty,max=512"`
}

func NewProductService(store repository.Store, access *AccessControl, images ImageStore) *ProductService {
	return &ProductService{
		store:  store,
		access: access,
		images: images,
	}
}

func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	products, total, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list products", err)
	}
	return products, total, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(i18n.KeyProductNotFound)
		}
		return nil, apperror.Internal("failed to load product", err)
	}
	return product, nil
}

// Create lists a product for the actor. An uploaded image wins over an image reference.
func (s *ProductService) Create(ctx context.Context, actor *models.User, req *CreateProductRequest, image *Upload) (*models.Product, error) {
	if err := s.access.Authorize(actor, ActionProductCreate); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:    actor.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       *req.Price,
		Category:    strings.TrimSpace(req.Category),
		Image:       req.Image,
		Tags:        normalizeTags(req.Tags),
	}

	if image != nil {
		ref, err := s.images.SaveProductImage(ctx, *image)
		if err != nil {
			return nil, storageError(err)
		}
		product.Image = ref
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		s.discardImage(ctx, product.Image, image != nil)
		return nil, apperror.Internal("failed to create product", err)
	}
	product.Seller = models.SummaryOf(actor)

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"seller_id":  actor.ID,
	}).Info("Product created")

	return product, nil
}

func (s *ProductService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req *UpdateProductRequest, image *Upload) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeOwnership(actor, ActionProductUpdate, product.SellerID); err != nil {
		return nil, err
	}

	previousImage := product.Image

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		product.Tags = normalizeTags(req.Tags)
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if image != nil {
		ref, err := s.images.SaveProductImage(ctx, *image)
		if err != nil {
			return nil, storageError(err)
		}
		product.Image = ref
	}

	if err := s.store.Products().Update(ctx, product); err != nil {
		s.discardImage(ctx, product.Image, image != nil)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(i18n.KeyProductNotFound)
		}
		return nil, apperror.Internal("failed to update product", err)
	}

	if product.Image != previousImage {
		s.discardImage(ctx, previousImage, true)
	}

	return s.Get(ctx, id)
}

// Delete soft-deletes the product. Cart lines that point at it are left for the
// buyer to remove.
func (s *ProductService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.AuthorizeOwnership(actor, ActionProductDelete, product.SellerID); err != nil {
		return err
	}

	if err := s.store.Products().Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(i18n.KeyProductNotFound)
		}
		return apperror.Internal("failed to delete product", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"actor_id":   actor.ID,
	}).Info("Product deleted")

	return nil
}

// discardImage removes an image this service stored. Failures only leave an orphan file.
func (s *ProductService) discardImage(ctx context.Context, ref string, owned bool) {
	if !owned || ref == "" {
		return
	}
	if err := s.images.DeleteImage(ctx, ref); err != nil {
		logrus.WithError(err).WithField("image", ref).Warn("Failed to delete product image")
	}
}

func normalizeTags(tags []string) pq.StringArray {
	out := lo.Uniq(lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		return tag, tag != ""
	}))
	return pq.StringArray(out)
}

func storageError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal("failed to store image", err)
}
