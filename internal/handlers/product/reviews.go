package product

import (
	"net/http"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// CreateReview crée un avis sur un produit
func (h *Handler) CreateReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.RespondError(c, apperr.Unauthenticated("Non authentifié"))
		return
	}
	var input services.ReviewInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	r, err := h.reviews.Create(c.Request.Context(), *user, c.Param("productId"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Avis publié", "review": r})
}

func (h *Handler) ListReviews(c *gin.Context) {
	list, err := h.reviews.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis récupérés", "reviews": list})
}

// GetProductReviews récupère les avis d'un produit, du plus récent au plus ancien
func (h *Handler) GetProductReviews(c *gin.Context) {
	list, err := h.reviews.ListByProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis récupérés", "reviews": list})
}

func (h *Handler) GetUserReviews(c *gin.Context) {
	list, err := h.reviews.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis récupérés", "reviews": list})
}

// UpdateReview modifie un avis (auteur uniquement)
func (h *Handler) UpdateReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.RespondError(c, apperr.Unauthenticated("Non authentifié"))
		return
	}
	var input services.UpdateReviewInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	r, err := h.reviews.Update(c.Request.Context(), user.ID, c.Param("reviewId"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis mis à jour", "review": r})
}

// DeleteReview supprime un avis (auteur uniquement)
func (h *Handler) DeleteReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.RespondError(c, apperr.Unauthenticated("Non authentifié"))
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), user.ID, c.Param("reviewId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis supprimé"})
}
