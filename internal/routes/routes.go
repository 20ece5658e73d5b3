package routes

import (
	"net/http"
	"time"

	"ecom_back_end/internal/config"
	"ecom_back_end/internal/handlers/payment"
	"ecom_back_end/internal/handlers/product"
	"ecom_back_end/internal/handlers/user"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies regroupe ce dont le routeur a besoin, construit dans main.
type Dependencies struct {
	Config        *config.Config
	Authenticator middleware.Authenticator
	Limiter       *middleware.RateLimiter
	Audit         *utils.AuditLogger

	User    *user.Handler
	Product *product.Handler
	Payment *payment.Handler
}

// NewRouter crée le moteur gin avec les middlewares globaux puis enregistre les routes.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestTimeout(deps.Config.StoreTimeout))

	RegisterRoutes(r, deps)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route introuvable"})
	})
	return r
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authRequired := middleware.AuthRequired(deps.Authenticator)
	optionalAuth := middleware.OptionalAuth(deps.Authenticator)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.AuditCriticalActions(deps.Audit, action, resource)
	}
	u, p, pay := deps.User, deps.Product, deps.Payment

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	// Authentification
	r.POST("/sign-up", deps.Limiter.Register(), u.SignUp)
	r.POST("/login", deps.Limiter.Login(), u.Login)
	r.POST("/forgot-password", deps.Limiter.ForgotPassword(), u.ForgotPassword)
	r.POST("/reset-password", u.ResetPassword)
	r.POST("/logout", authRequired, u.Logout)
	r.GET("/profile", authRequired, u.Profile)
	r.PUT("/profile", authRequired, u.UpdateProfile)
	r.GET("/auth/:provider", u.BeginOAuth)
	r.GET("/auth/:provider/callback", u.OAuthCallback)

	// Produits
	r.POST("/create_product", authRequired, audit(utils.ActionProductCreate, utils.ResourceProduct), p.CreateProduct)
	r.GET("/product_list", p.ListProducts)
	r.GET("/product_search", p.SearchProducts)
	r.GET("/product/:productId", p.GetProduct)
	r.PUT("/update_product/:productId", authRequired, audit(utils.ActionProductUpdate, utils.ResourceProduct), p.UpdateProduct)
	r.DELETE("/delete_product/:productId", authRequired, audit(utils.ActionProductDelete, utils.ResourceProduct), p.DeleteProduct)

	// Catégories
	r.POST("/create_category", authRequired, audit(utils.ActionCategoryCreate, utils.ResourceCategory), p.CreateCategory)
	r.GET("/category_list", p.ListCategories)
	r.GET("/category/:categoryId", p.GetCategory)
	r.PUT("/update_category/:categoryId", authRequired, audit(utils.ActionCategoryUpdate, utils.ResourceCategory), p.UpdateCategory)
	r.DELETE("/delete_category/:categoryId", authRequired, audit(utils.ActionCategoryDelete, utils.ResourceCategory), p.DeleteCategory)

	// Avis
	r.POST("/review/:productId", authRequired, p.CreateReview)
	r.GET("/review_list", p.ListReviews)
	r.GET("/review/product/:productId", p.GetProductReviews)
	r.GET("/review/user/:userId", p.GetUserReviews)
	r.PUT("/review/:reviewId", authRequired, p.UpdateReview)
	r.DELETE("/review/:reviewId", authRequired, p.DeleteReview)

	// Commandes
	orders := r.Group("/", authRequired)
	{
		orders.POST("/create_order", u.CreateOrder)
		orders.GET("/order_list", u.ListOrders)
		orders.GET("/my_orders", u.MyOrders)
		orders.GET("/order/:orderId", u.GetOrder)
		orders.PUT("/update_order/:orderId", audit(utils.ActionOrderUpdate, utils.ResourceOrder), u.UpdateOrder)
		orders.DELETE("/delete_order/:orderId", audit(utils.ActionOrderDelete, utils.ResourceOrder), u.DeleteOrder)
	}

	// Adresses
	addresses := r.Group("/", authRequired)
	{
		addresses.POST("/create_address", u.CreateAddress)
		addresses.GET("/address_list", u.ListAddresses)
		addresses.GET("/address/:addressId", u.GetAddress)
		addresses.PUT("/update_address/:addressId", u.UpdateAddress)
		addresses.DELETE("/delete_address/:addressId", u.DeleteAddress)
	}

	// Paiements
	r.POST("/payment/webhook", pay.Webhook)
	payments := r.Group("/", authRequired)
	{
		payments.POST("/payment/:orderId", audit(utils.ActionPaymentCreate, utils.ResourcePayment), pay.MakePayment)
		payments.POST("/payment/:orderId/intent", audit(utils.ActionPaymentCreate, utils.ResourcePayment), pay.CreateIntent)
		payments.GET("/payment_list", pay.List)
		payments.GET("/payment/:paymentId", pay.Get)
		payments.GET("/payment/user/:userId", pay.ListByUser)
		payments.DELETE("/payment/:paymentId", audit(utils.ActionPaymentDelete, utils.ResourcePayment), pay.Delete)
	}

	// Panier : même handler pour invité et utilisateur, le propriétaire est résolu par le middleware
	r.POST("/add_cart_guest", deps.Limiter.Cart(), u.AddToCart)
	r.POST("/add_cart_auth", authRequired, deps.Limiter.Cart(), u.AddToCart)
	r.GET("/cart_guest", u.GetCart)
	r.GET("/cart_user", authRequired, u.GetCart)
	r.PUT("/cart/update_guest/:productId", u.UpdateCartItem)
	r.PUT("/cart/update_auth/:productId", authRequired, u.UpdateCartItem)
	r.DELETE("/cart/remove_guest/:productId", u.RemoveCartItem)
	r.DELETE("/cart/remove_auth/:productId", authRequired, u.RemoveCartItem)
	r.DELETE("/clear_cart", optionalAuth, u.ClearCart)
	r.GET("/cart/ws", authRequired, u.CartWebSocket)
}
