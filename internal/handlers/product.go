// internal/handlers/product.go
package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
	"github.com/javajoker/pirotecnica-backend/internal/services"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

const imageField = "image"

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.ProductFilter{
		Category: params.Category,
		Page:     pageOf(params),
	}
	if sellerIDStr := c.Query("seller_id"); sellerIDStr != "" {
		if sellerID, err := uuid.Parse(sellerIDStr); err == nil {
			filter.SellerID = &sellerID
		}
	}

	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.ListResponse(c, products, total, params)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	image, closeImage, ok := bindProductRequest(c, &req)
	if !ok {
		return
	}
	defer closeImage()

	product, err := h.productService.Create(c.Request.Context(), user, &req, image)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	image, closeImage, ok := bindProductRequest(c, &req)
	if !ok {
		return
	}
	defer closeImage()

	product, err := h.productService.Update(c.Request.Context(), user, id, &req, image)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), user, id); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// bindProductRequest accepts JSON or a multipart form with an optional image file.
// The returned close func must be called once the upload has been consumed.
func bindProductRequest(c *gin.Context, req interface{}) (*services.Upload, func(), bool) {
	noop := func() {}

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBindJSON(req); err != nil {
			utils.BadRequestResponse(c, err)
			return nil, noop, false
		}
		return nil, noop, true
	}

	if err := c.ShouldBind(req); err != nil {
		utils.BadRequestResponse(c, err)
		return nil, noop, false
	}

	header, err := c.FormFile(imageField)
	if err == http.ErrMissingFile {
		return nil, noop, true
	}
	if err != nil {
		utils.BadRequestResponse(c, err)
		return nil, noop, false
	}

	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, err)
		return nil, noop, false
	}

	return uploadOf(header, file), func() { file.Close() }, true
}

func uploadOf(header *multipart.FileHeader, file multipart.File) *services.Upload {
	return &services.Upload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
}
