package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ecom_back_end/internal/auth"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/config"
	"ecom_back_end/internal/database"
	"ecom_back_end/internal/handlers/payment"
	"ecom_back_end/internal/handlers/product"
	"ecom_back_end/internal/handlers/user"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/routes"
	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}
	utils.SetErrorDetail(!cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conns, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer conns.Close()
	store := conns.Store()

	// Collaborateurs optionnels : nil non typé quand ils ne sont pas configurés
	var index services.ProductIndex
	if conns.Elastic != nil {
		index = services.NewElasticIndex(conns.Elastic)
	}
	var images services.ImageSigner
	if conns.MinIO != nil {
		images = services.NewMinIOSigner(conns.MinIO, conns.Bucket)
	}
	var gateway services.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency)
		log.Println("✅ Stripe initialisé")
		if cfg.StripeWebhookSecret == "" {
			log.Println("⚠️ STRIPE_WEBHOOK_SECRET absent, les webhooks seront refusés")
		}
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY absent, paiement par carte désactivé")
	}

	mailer := utils.NewMailer(cfg)
	notifier := utils.NewMailNotifier(mailer, cfg.FrontendURL, cfg.ReceiptPDFEnabled)
	audit := utils.NewAuditLogger(store.Audit())

	listCache := cache.NewListCache(conns.Redis)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	carts := services.NewCartService(cache.NewCartStore(conns.Redis), store.Products())
	users := services.NewUserService(store.Users(), tokens,
		auth.NewStrategies(auth.NewLocalStrategy(store.Users())),
		cache.NewTokenBlacklist(conns.Redis), carts, notifier, cfg.FrontendURL)
	products := services.NewProductService(store.Products(), store.Categories(), listCache, index, images)
	categories := services.NewCategoryService(store.Categories(), store.Products(), listCache)
	reviews := services.NewReviewService(store.Reviews(), store.Products(), store.Users())
	orders := services.NewOrderService(store.Orders(), store.Products(), store.Users(), notifier)
	payments := services.NewPaymentService(store.Payments(), store.Orders(), store.Users(), gateway, notifier)

	reconcileCtx, cancel := context.WithTimeout(ctx, time.Minute)
	if paid, failed, err := payments.Reconcile(reconcileCtx); err != nil {
		log.Printf("⚠️ Réconciliation des paiements: %v", err)
	} else if paid+failed > 0 {
		log.Printf("💳 Réconciliation : %d payé(s), %d échoué(s)", paid, failed)
	}
	cancel()

	auth.SetupOAuth(cfg)

	r := routes.NewRouter(routes.Dependencies{
		Config:        cfg,
		Authenticator: users,
		Limiter:       middleware.NewRateLimiter(conns.Redis),
		Audit:         audit,
		User: user.NewHandler(users, carts, services.NewAddressService(store.Addresses()), orders, audit, user.Options{
			FrontendURL:    cfg.FrontendURL,
			AllowedOrigins: cfg.CORSOrigins,
		}),
		Product: product.NewHandler(products, categories, reviews),
		Payment: payment.NewHandler(payments),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Erreur serveur: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du serveur...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
}
