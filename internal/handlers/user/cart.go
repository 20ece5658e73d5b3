package user

import (
	"net/http"

	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// Les routes invité et authentifiées partagent ces handlers : le propriétaire
// du panier est résolu par middleware.CartOwner.

// POST /add_cart_guest, POST /add_cart_auth
func (h *Handler) AddToCart(c *gin.Context) {
	var input services.AddCartItemInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), middleware.CartOwner(c), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit ajouté au panier", "cart": cart})
}

// GET /cart_guest, GET /cart_user
func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), middleware.CartOwner(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier récupéré", "cart": cart})
}

// PUT /cart/update_guest/:productId, PUT /cart/update_auth/:productId
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var input struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), middleware.CartOwner(c), c.Param("productId"), input.Quantity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quantité mise à jour", "cart": cart})
}

// DELETE /cart/remove_guest/:productId, DELETE /cart/remove_auth/:productId
func (h *Handler) RemoveCartItem(c *gin.Context) {
	cart, err := h.carts.RemoveItem(c.Request.Context(), middleware.CartOwner(c), c.Param("productId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit retiré du panier", "cart": cart})
}

// DELETE /clear_cart
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.CartOwner(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}
