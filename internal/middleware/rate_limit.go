package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// Limites par endpoint
	LoginMaxAttempts          = 5
	RegisterMaxAttempts       = 3
	ForgotPasswordMaxAttempts = 3
	CartMaxRequests           = 20 // par minute

	// Durées de cooldown
	LoginCooldown          = 15 * time.Minute
	RegisterCooldown       = 30 * time.Minute
	ForgotPasswordCooldown = 10 * time.Minute
	CartWindow             = time.Minute
)

// RateLimiter compte les tentatives dans Redis. Au-delà du maximum, la clé
// passe en cooldown et les requêtes reçoivent 429.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

type limitRule struct {
	prefix   string
	max      int
	cooldown time.Duration
	message  string
}

var (
	loginRule    = limitRule{"login", LoginMaxAttempts, LoginCooldown, "Trop de tentatives échouées"}
	registerRule = limitRule{"register", RegisterMaxAttempts, RegisterCooldown, "Trop d'inscriptions"}
	forgotRule   = limitRule{"forgot_password", ForgotPasswordMaxAttempts, ForgotPasswordCooldown, "Trop de demandes"}
)

func (r limitRule) keys(subject string) (attempts, cooldown string) {
	return r.prefix + "_attempts:" + subject, r.prefix + "_cooldown:" + subject
}

func tooManyRequests(c *gin.Context, message string, retry time.Duration) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"message":     fmt.Sprintf("%s. Réessayez dans %d minutes", message, int(retry.Minutes())+1),
		"retry_after": int(retry.Seconds()),
	})
}

// blocked vérifie le cooldown et le compteur. Le compteur plein déclenche le cooldown.
func (l *RateLimiter) blocked(c *gin.Context, rule limitRule, subject string) bool {
	ctx := c.Request.Context()
	attemptsKey, cooldownKey := rule.keys(subject)

	if ttl, err := l.rdb.TTL(ctx, cooldownKey).Result(); err == nil && ttl > 0 {
		tooManyRequests(c, rule.message, ttl)
		return true
	}

	attempts, err := l.rdb.Get(ctx, attemptsKey).Int()
	if err != nil && err != redis.Nil {
		log.Printf("⚠️ Rate limit %s indisponible: %v", rule.prefix, err)
		return false
	}
	if attempts >= rule.max {
		pipe := l.rdb.TxPipeline()
		pipe.Set(ctx, cooldownKey, "1", rule.cooldown)
		pipe.Del(ctx, attemptsKey)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("⚠️ Activation cooldown %s: %v", rule.prefix, err)
		}
		tooManyRequests(c, rule.message, rule.cooldown)
		return true
	}
	return false
}

func (l *RateLimiter) hit(c *gin.Context, rule limitRule, subject string) {
	ctx := c.Request.Context()
	attemptsKey, _ := rule.keys(subject)
	pipe := l.rdb.TxPipeline()
	pipe.Incr(ctx, attemptsKey)
	pipe.Expire(ctx, attemptsKey, rule.cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("⚠️ Compteur %s: %v", rule.prefix, err)
	}
}

func (l *RateLimiter) reset(c *gin.Context, rule limitRule, subject string) {
	attemptsKey, cooldownKey := rule.keys(subject)
	l.rdb.Del(c.Request.Context(), attemptsKey, cooldownKey)
}

// emailFromBody lit le champ email du corps JSON et remet le corps en place
// pour le handler.
func emailFromBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var input struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &input) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(input.Email))
}

// Login limite les échecs de connexion par email.
func (l *RateLimiter) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := emailFromBody(c)
		if email == "" {
			c.Next()
			return
		}
		if l.blocked(c, loginRule, email) {
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			l.hit(c, loginRule, email)
		case http.StatusOK:
			l.reset(c, loginRule, email)
		}
	}
}

// Register limite les inscriptions réussies par IP.
func (l *RateLimiter) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if l.blocked(c, registerRule, ip) {
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			l.hit(c, registerRule, ip)
		}
	}
}

// ForgotPassword limite les demandes de réinitialisation par email.
func (l *RateLimiter) ForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := emailFromBody(c)
		if email == "" {
			c.Next()
			return
		}
		if l.blocked(c, forgotRule, email) {
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			l.hit(c, forgotRule, email)
		}
	}
}

// Cart limite les écritures panier par propriétaire (IP pour les invités).
func (l *RateLimiter) Cart() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(ContextUserID)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		ctx := c.Request.Context()
		key := "cart_add:" + subject

		pipe := l.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		ttl := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("⚠️ Rate limit panier indisponible: %v", err)
			c.Next()
			return
		}
		count := incr.Val()
		// fenêtre fixe : l'expiration n'est posée que si la clé n'en a pas
		if ttl.Val() < 0 {
			if err := l.rdb.Expire(ctx, key, CartWindow).Err(); err != nil {
				log.Printf("⚠️ Expiration rate limit panier: %v", err)
			}
		}

		if count > CartMaxRequests {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Trop d'ajouts au panier. Ralentissez un peu",
				"retry_after": int(CartWindow.Seconds()),
			})
			return
		}
		c.Next()
	}
}
