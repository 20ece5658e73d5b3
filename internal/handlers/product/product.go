package product

import (
	"net/http"

	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler expose le catalogue : produits, catégories et avis.
type Handler struct {
	products   *services.ProductService
	categories *services.CategoryService
	reviews    *services.ReviewService
}

func NewHandler(products *services.ProductService, categories *services.CategoryService, reviews *services.ReviewService) *Handler {
	return &Handler{products: products, categories: categories, reviews: reviews}
}

// POST /create_product
func (h *Handler) CreateProduct(c *gin.Context) {
	var input services.CreateProductInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	p, err := h.products.Create(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Set(utils.ContextResourceID, p.ID.String())
	c.JSON(http.StatusCreated, gin.H{"message": "Produit créé avec succès", "product": p})
}

// GET /product_list
func (h *Handler) ListProducts(c *gin.Context) {
	list, err := h.products.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produits récupérés", "products": list})
}

// GET /product_search?q=
func (h *Handler) SearchProducts(c *gin.Context) {
	list, err := h.products.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Résultats de recherche", "products": list})
}

// GET /product/:productId
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit récupéré", "product": p})
}

// PUT /update_product/:productId
func (h *Handler) UpdateProduct(c *gin.Context) {
	var input services.UpdateProductInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	p, err := h.products.Update(c.Request.Context(), c.Param("productId"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit mis à jour", "product": p})
}

// DELETE /delete_product/:productId
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("productId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}
