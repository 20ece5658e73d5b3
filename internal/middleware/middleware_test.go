package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/auth"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"
	"ecom_back_end/internal/utils"

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

type stubAuthenticator struct {
	user *models.User
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, *auth.Claims, error) {
	if token != "valid" {
		return nil, nil, apperr.Unauthenticated("Token invalide")
	}
	return s.user, &auth.Claims{UserID: s.user.ID.String()}, nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func perform(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	user := &models.User{ID: gocql.TimeUUID(), Email: "ada@example.com"}
	r := gin.New()
	r.GET("/me", AuthRequired(stubAuthenticator{user}), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		_, ok = CurrentClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": u.ID.String(), "owner": CartOwner(c)})
	})

	w := perform(r, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token manquant")

	w = perform(r, http.MethodGet, "/me", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/me", "", "valid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID.String())
}

func TestAuthRequired_QueryTokenOnlyForWebsocket(t *testing.T) {
	user := &models.User{ID: gocql.TimeUUID()}
	r := gin.New()
	r.GET("/cart/ws", AuthRequired(stubAuthenticator{user}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/cart/ws?token=valid", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/cart/ws?token=valid", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthFallsBackToGuest(t *testing.T) {
	user := &models.User{ID: gocql.TimeUUID()}
	r := gin.New()
	r.GET("/owner", OptionalAuth(stubAuthenticator{user}), func(c *gin.Context) {
		c.String(http.StatusOK, CartOwner(c))
	})

	assert.Equal(t, cache.GuestOwner, perform(r, http.MethodGet, "/owner", "", "").Body.String())
	assert.Equal(t, cache.GuestOwner, perform(r, http.MethodGet, "/owner", "", "expired").Body.String())
	assert.Equal(t, user.ID.String(), perform(r, http.MethodGet, "/owner", "", "valid").Body.String())
}

func TestLoginRateLimit(t *testing.T) {
	_, rdb := setupRedis(t)
	limiter := NewRateLimiter(rdb)

	r := gin.New()
	r.POST("/login", limiter.Login(), func(c *gin.Context) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, c.ShouldBindJSON(&in), "body must be restored")
		if in.Password != "good" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Email ou mot de passe incorrect"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	bad := `{"email":"ada@example.com","password":"bad"}`
	for i := 0; i < LoginMaxAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/login", bad, "").Code)
	}
	w := perform(r, http.MethodPost, "/login", `{"email":"ADA@example.com","password":"good"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "retry_after")

	// une autre adresse n'est pas concernée
	w = perform(r, http.MethodPost, "/login", `{"email":"bob@example.com","password":"good"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRateLimit_SuccessResetsCounter(t *testing.T) {
	mr, rdb := setupRedis(t)
	limiter := NewRateLimiter(rdb)

	r := gin.New()
	r.POST("/login", limiter.Login(), func(c *gin.Context) {
		if strings.Contains(c.GetHeader("X-Test"), "ok") {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusUnauthorized)
	})

	body := `{"email":"ada@example.com"}`
	perform(r, http.MethodPost, "/login", body, "")
	assert.True(t, mr.Exists("login_attempts:ada@example.com"))

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("X-Test", "ok")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, mr.Exists("login_attempts:ada@example.com"))
}

func TestRegisterRateLimit(t *testing.T) {
	_, rdb := setupRedis(t)
	limiter := NewRateLimiter(rdb)

	r := gin.New()
	r.POST("/sign-up", limiter.Register(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < RegisterMaxAttempts; i++ {
		assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/sign-up", "{}", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodPost, "/sign-up", "{}", "").Code)
}

func TestCartRateLimit(t *testing.T) {
	mr, rdb := setupRedis(t)
	limiter := NewRateLimiter(rdb)

	r := gin.New()
	r.POST("/add_cart_guest", limiter.Cart(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < CartMaxRequests; i++ {
		require.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/add_cart_guest", "{}", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodPost, "/add_cart_guest", "{}", "").Code)

	mr.FastForward(CartWindow + time.Second)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/add_cart_guest", "{}", "").Code)
}

func TestCartRateLimit_RestoresMissingExpiry(t *testing.T) {
	mr, rdb := setupRedis(t)
	limiter := NewRateLimiter(rdb)

	r := gin.New()
	r.POST("/add_cart_guest", limiter.Cart(), func(c *gin.Context) { c.Status(http.StatusOK) })

	// compteur resté sans expiration
	key := "cart_add:ip:192.0.2.1"
	require.NoError(t, mr.Set(key, "25"))
	require.Zero(t, mr.TTL(key))

	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodPost, "/add_cart_guest", "{}", "").Code)
	assert.Positive(t, mr.TTL(key))

	mr.FastForward(CartWindow + time.Second)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/add_cart_guest", "{}", "").Code)
}

func TestAuditCriticalActions(t *testing.T) {
	store := repository.NewMemory()
	logger := utils.NewAuditLogger(store.Audit())

	r := gin.New()
	r.DELETE("/delete_product/:productId",
		AuditCriticalActions(logger, utils.ActionProductDelete, utils.ResourceProduct),
		func(c *gin.Context) {
			if c.Param("productId") == "missing" {
				c.Status(http.StatusNotFound)
				return
			}
			c.Status(http.StatusOK)
		})

	perform(r, http.MethodDelete, "/delete_product/p1", "", "")
	perform(r, http.MethodDelete, "/delete_product/missing", "", "")

	require.Eventually(t, func() bool { return len(store.AuditEntries()) == 2 }, time.Second, 10*time.Millisecond)
	byID := map[string]models.AuditLog{}
	for _, e := range store.AuditEntries() {
		byID[e.ResourceID] = e
	}
	assert.True(t, byID["p1"].Success)
	assert.False(t, byID["missing"].Success)
	assert.Equal(t, utils.ActionProductDelete, byID["p1"].Action)
}

func TestRequestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/slow", RequestTimeout(20*time.Millisecond), func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(20*time.Millisecond), deadline, 20*time.Millisecond)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/slow", "", "").Code)
}
