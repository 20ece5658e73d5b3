package user

import (
	"net/http"

	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /create_address
func (h *Handler) CreateAddress(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var input services.AddressInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	a, err := h.addresses.Create(c.Request.Context(), userID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Adresse créée", "address": a})
}

// GET /address_list
func (h *Handler) ListAddresses(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	list, err := h.addresses.List(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Adresses récupérées", "addresses": list})
}

// GET /address/:addressId
func (h *Handler) GetAddress(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	a, err := h.addresses.Get(c.Request.Context(), userID, c.Param("addressId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Adresse récupérée", "address": a})
}

// PUT /update_address/:addressId
func (h *Handler) UpdateAddress(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var input services.UpdateAddressInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	a, err := h.addresses.Update(c.Request.Context(), userID, c.Param("addressId"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Adresse mise à jour", "address": a})
}

// DELETE /delete_address/:addressId
func (h *Handler) DeleteAddress(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.addresses.Delete(c.Request.Context(), userID, c.Param("addressId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Adresse supprimée"})
}
