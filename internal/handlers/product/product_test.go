package product

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/auth"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"
	"ecom_back_end/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenUsers associe un token de test à un utilisateur.
type tokenUsers map[string]*models.User

func (t tokenUsers) Authenticate(_ context.Context, token string) (*models.User, *auth.Claims, error) {
	u, ok := t[token]
	if !ok {
		return nil, nil, apperr.Unauthenticated("Token invalide")
	}
	return u, &auth.Claims{UserID: u.ID.String()}, nil
}

type catalogServer struct {
	router *gin.Engine
	mr     *miniredis.Miniredis
	ada    *models.User
	bob    *models.User
}

func newCatalogServer(t *testing.T) *catalogServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := repository.NewMemory()
	ctx := context.Background()
	ada := &models.User{ID: gocql.TimeUUID(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	bob := &models.User{ID: gocql.TimeUUID(), FirstName: "Bob", LastName: "Martin", Email: "bob@example.com"}
	require.NoError(t, store.Users().Create(ctx, ada))
	require.NoError(t, store.Users().Create(ctx, bob))

	listCache := cache.NewListCache(rdb)
	h := NewHandler(
		services.NewProductService(store.Products(), store.Categories(), listCache, nil, nil),
		services.NewCategoryService(store.Categories(), store.Products(), listCache),
		services.NewReviewService(store.Reviews(), store.Products(), store.Users()),
	)

	authRequired := middleware.AuthRequired(tokenUsers{"ada": ada, "bob": bob})
	r := gin.New()
	r.POST("/create_product", authRequired, h.CreateProduct)
	r.GET("/product_list", h.ListProducts)
	r.GET("/product_search", h.SearchProducts)
	r.GET("/product/:productId", h.GetProduct)
	r.PUT("/update_product/:productId", authRequired, h.UpdateProduct)
	r.DELETE("/delete_product/:productId", authRequired, h.DeleteProduct)

	r.POST("/create_category", authRequired, h.CreateCategory)
	r.GET("/category_list", h.ListCategories)
	r.GET("/category/:categoryId", h.GetCategory)
	r.PUT("/update_category/:categoryId", authRequired, h.UpdateCategory)
	r.DELETE("/delete_category/:categoryId", authRequired, h.DeleteCategory)

	r.POST("/review/:productId", authRequired, h.CreateReview)
	r.GET("/review_list", h.ListReviews)
	r.GET("/review/product/:productId", h.GetProductReviews)
	r.GET("/review/user/:userId", h.GetUserReviews)
	r.PUT("/review/:reviewId", authRequired, h.UpdateReview)
	r.DELETE("/review/:reviewId", authRequired, h.DeleteReview)

	return &catalogServer{router: r, mr: mr, ada: ada, bob: bob}
}

func (s *catalogServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (s *catalogServer) createProduct(t *testing.T, name string) (productID, categoryID string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/create_category", gin.H{"name": "cat-" + name}, "ada")
	require.Equal(t, http.StatusCreated, code, body)
	categoryID = body["category"].(map[string]any)["id"].(string)

	code, body = s.do(t, http.MethodPost, "/create_product", gin.H{
		"name": name, "description": "description " + name, "price": 19.9, "quantity": 4, "category": categoryID,
	}, "ada")
	require.Equal(t, http.StatusCreated, code, body)
	return body["product"].(map[string]any)["id"].(string), categoryID
}

func TestUpdateProduct_EmptyDescriptionLeavesStoredValue(t *testing.T) {
	s := newCatalogServer(t)
	id, _ := s.createProduct(t, "Table")

	code, body := s.do(t, http.MethodPut, "/update_product/"+id, gin.H{"description": ""}, "ada")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["errors"])

	code, body = s.do(t, http.MethodGet, "/product/"+id, nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "description Table", body["product"].(map[string]any)["description"])

	code, body = s.do(t, http.MethodPut, "/update_product/"+id, gin.H{"price": 0}, "ada")
	require.Equal(t, http.StatusOK, code)
	p := body["product"].(map[string]any)
	assert.EqualValues(t, 0, p["price"], "present zero value is applied")
	assert.Equal(t, "Table", p["name"])
}

func TestProductEndpoints(t *testing.T) {
	s := newCatalogServer(t)

	code, _ := s.do(t, http.MethodPost, "/create_product", gin.H{"name": "X"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.do(t, http.MethodPost, "/create_product", gin.H{"name": "X", "price": "cher"}, "ada")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["errors"])

	id, _ := s.createProduct(t, "Chaise rouge")
	s.createProduct(t, "Table basse")

	code, body = s.do(t, http.MethodGet, "/product_list", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["products"], 2)
	assert.True(t, s.mr.Exists(cache.ProductsListKey))

	code, body = s.do(t, http.MethodGet, "/product_search?q=chaise", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["products"], 1)

	code, _ = s.do(t, http.MethodGet, "/product/pas-un-id", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/product/"+gocql.TimeUUID().String(), nil, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodDelete, "/delete_product/"+id, nil, "ada")
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/product/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCategoryEndpoints(t *testing.T) {
	s := newCatalogServer(t)
	productID, categoryID := s.createProduct(t, "Lampe")

	code, body := s.do(t, http.MethodPost, "/create_category", gin.H{"name": "cat-Lampe"}, "ada")
	assert.Equal(t, http.StatusBadRequest, code, "exact duplicate")
	assert.NotEmpty(t, body["message"])

	code, _ = s.do(t, http.MethodPost, "/create_category", gin.H{"name": "CAT-lampe"}, "ada")
	assert.Equal(t, http.StatusCreated, code)

	code, body = s.do(t, http.MethodGet, "/category_list", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["categories"], 2)

	code, body = s.do(t, http.MethodPut, "/update_category/"+categoryID, gin.H{"description": "Luminaires"}, "ada")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Luminaires", body["category"].(map[string]any)["description"])

	code, _ = s.do(t, http.MethodDelete, "/delete_category/"+categoryID, nil, "ada")
	assert.Equal(t, http.StatusBadRequest, code, "category still in use")

	s.do(t, http.MethodDelete, "/delete_product/"+productID, nil, "ada")
	code, _ = s.do(t, http.MethodDelete, "/delete_category/"+categoryID, nil, "ada")
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/category/"+categoryID, nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReviewEndpoints(t *testing.T) {
	s := newCatalogServer(t)
	productID, _ := s.createProduct(t, "Vase")

	code, _ := s.do(t, http.MethodPost, "/review/"+productID, gin.H{"rating": 9}, "ada")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do(t, http.MethodPost, "/review/"+productID, gin.H{"rating": 4, "title": "Joli", "comment": "Très beau vase"}, "ada")
	require.Equal(t, http.StatusCreated, code, body)
	reviewID := body["review"].(map[string]any)["id"].(string)

	code, body = s.do(t, http.MethodGet, "/review/product/"+productID, nil, "")
	require.Equal(t, http.StatusOK, code)
	reviews := body["reviews"].([]any)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Ada Lovelace", reviews[0].(map[string]any)["userName"])

	code, body = s.do(t, http.MethodGet, "/review/user/"+s.ada.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["reviews"], 1)

	code, _ = s.do(t, http.MethodPut, "/review/"+reviewID, gin.H{"rating": 1}, "bob")
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(t, http.MethodPut, "/review/"+reviewID, gin.H{"rating": 5}, "ada")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 5, body["review"].(map[string]any)["rating"])

	code, _ = s.do(t, http.MethodDelete, "/review/"+reviewID, nil, "bob")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodDelete, "/review/"+reviewID, nil, "ada")
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodGet, "/review_list", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["reviews"])
}
