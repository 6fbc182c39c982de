// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/pirotecnica-backend/internal/services"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	cart, err := h.cartService.Get(c.Request.Context(), user.ID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, cart)
}

// POST /cart/add
func (h *CartHandler) AddItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.AdjustCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, err)
		return
	}

	cart, err := h.cartService.AdjustItem(c.Request.Context(), user.ID, &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, cart)
}

// DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), user.ID, productID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, cart)
}
