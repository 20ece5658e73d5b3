package product

import (
	"net/http"

	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// 🟢 Créer une catégorie
func (h *Handler) CreateCategory(c *gin.Context) {
	var input services.CreateCategoryInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	cat, err := h.categories.Create(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Set(utils.ContextResourceID, cat.ID.String())
	c.JSON(http.StatusCreated, gin.H{"message": "Catégorie créée", "category": cat})
}

// 🔵 Lister les catégories
func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.categories.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catégories récupérées", "categories": list})
}

func (h *Handler) GetCategory(c *gin.Context) {
	cat, err := h.categories.Get(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catégorie récupérée", "category": cat})
}

// 🟠 Modifier une catégorie
func (h *Handler) UpdateCategory(c *gin.Context) {
	var input services.UpdateCategoryInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	cat, err := h.categories.Update(c.Request.Context(), c.Param("categoryId"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catégorie mise à jour", "category": cat})
}

// 🔴 Supprimer une catégorie (refusé tant que des produits la référencent)
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("categoryId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catégorie supprimée"})
}
