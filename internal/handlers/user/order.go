package user

import (
	"net/http"

	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /create_order
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var input services.CreateOrderInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	o, err := h.orders.Create(c.Request.Context(), userID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Commande créée", "order": o})
}

// GET /order_list
func (h *Handler) ListOrders(c *gin.Context) {
	list, err := h.orders.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commandes récupérées", "orders": list})
}

// GET /my_orders
func (h *Handler) MyOrders(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	list, err := h.orders.ListMine(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commandes récupérées", "orders": list})
}

// GET /order/:orderId
func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande récupérée", "order": o})
}

// PUT /update_order/:orderId
func (h *Handler) UpdateOrder(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var input services.UpdateOrderInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	o, err := h.orders.Update(c.Request.Context(), userID, c.Param("orderId"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande mise à jour", "order": o})
}

// DELETE /delete_order/:orderId
func (h *Handler) DeleteOrder(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orders.Delete(c.Request.Context(), userID, c.Param("orderId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande supprimée"})
}
