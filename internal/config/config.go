package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config regroupe toute la configuration du serveur, lue depuis .env puis l'environnement.
type Config struct {
	Port   string
	AppEnv string

	JWTSecret string
	JWTTTL    time.Duration

	ScyllaHosts       []string
	ScyllaKeyspace    string
	ScyllaUsername    string
	ScyllaPassword    string
	ScyllaSSLEnabled  bool
	ScyllaCACertPath  string
	ScyllaAutoMigrate bool

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	FrontendURL string
	BaseURL     string

	SessionSecret        string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string

	ReceiptPDFEnabled bool
	CORSOrigins       []string
	StoreTimeout      time.Duration
}

// ErrMissingJWTSecret est retournée quand JWT_SECRET est absent.
var ErrMissingJWTSecret = errors.New("JWT_SECRET manquant")

// ErrMissingWebhookSecret : en production, Stripe exige un secret de webhook.
var ErrMissingWebhookSecret = errors.New("STRIPE_WEBHOOK_SECRET manquant alors que STRIPE_SECRET_KEY est défini")

// Load charge le fichier .env (s'il existe) puis construit la configuration.
func Load() (*Config, error) {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv construit la configuration à partir des variables d'environnement seules.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getDuration("JWT_TTL", 7*24*time.Hour),

		ScyllaHosts:       splitList(os.Getenv("SCYLLA_HOSTS")),
		ScyllaKeyspace:    getEnv("SCYLLA_KEYSPACE", "ecom"),
		ScyllaUsername:    os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword:    os.Getenv("SCYLLA_PASSWORD"),
		ScyllaSSLEnabled:  getBool("SCYLLA_SSL_ENABLED", false),
		ScyllaCACertPath:  os.Getenv("SCYLLA_SSL_CA_PATH"),
		ScyllaAutoMigrate: getBool("SCYLLA_AUTO_MIGRATE", true),

		RedisHost:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "product-images"),
		MinIOUseSSL:    getBool("MINIO_USE_SSL", false),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            getEnv("CURRENCY", "eur"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@localhost"),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		SessionSecret:        os.Getenv("SESSION_SECRET"),
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		FacebookClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
		FacebookClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),

		ReceiptPDFEnabled: getBool("RECEIPT_PDF_ENABLED", false),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		StoreTimeout:      getDuration("STORE_TIMEOUT", 5*time.Second),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" && cfg.IsProduction() {
		return nil, ErrMissingWebhookSecret
	}
	return cfg, nil
}

// IsProduction indique si le détail des erreurs doit être masqué.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
