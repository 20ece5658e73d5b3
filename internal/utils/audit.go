package utils

import (
	"context"
	"log"
	"time"

	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

const auditTimeout = 5 * time.Second

// ContextResourceID permet à un handler de création de transmettre l'id créé à l'audit.
const ContextResourceID = "audit_resource_id"

// Actions d'audit
const (
	ActionLoginSuccess   = "auth.login_success"
	ActionLoginFailed    = "auth.login_failed"
	ActionLogout         = "auth.logout"
	ActionPasswordReset  = "auth.password_reset"
	ActionUserCreate     = "user.create"
	ActionUserUpdate     = "user.update"
	ActionProductCreate  = "product.create"
	ActionProductUpdate  = "product.update"
	ActionProductDelete  = "product.delete"
	ActionCategoryCreate = "category.create"
	ActionCategoryUpdate = "category.update"
	ActionCategoryDelete = "category.delete"
	ActionOrderUpdate    = "order.update"
	ActionOrderDelete    = "order.delete"
	ActionPaymentCreate  = "payment.create"
	ActionPaymentDelete  = "payment.delete"
)

// Ressources d'audit
const (
	ResourceAuth     = "auth"
	ResourceUser     = "user"
	ResourceProduct  = "product"
	ResourceCategory = "category"
	ResourceOrder    = "order"
	ResourcePayment  = "payment"
)

// AuditLogger enregistre les actions sensibles dans audit_logs.
type AuditLogger struct {
	repo repository.AuditRepository
}

func NewAuditLogger(repo repository.AuditRepository) *AuditLogger {
	return &AuditLogger{repo: repo}
}

// Entry construit une entrée à partir de la requête. Les valeurs sont copiées
// ici car le gin.Context est recyclé après la réponse.
func Entry(c *gin.Context, action, resource, resourceID string) models.AuditLog {
	return models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     c.GetString("user_id"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    true,
		Timestamp:  time.Now(),
	}
}

// Log insère l'entrée en arrière-plan.
func (a *AuditLogger) Log(entry models.AuditLog) {
	if a == nil || a.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := a.repo.Insert(ctx, entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// LogAction trace une action réussie.
func (a *AuditLogger) LogAction(c *gin.Context, action, resource, resourceID string) {
	a.Log(Entry(c, action, resource, resourceID))
}

// LogFailedAction trace une action échouée.
func (a *AuditLogger) LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	entry := Entry(c, action, resource, resourceID)
	entry.Success = false
	entry.ErrorMsg = errorMsg
	a.Log(entry)
}
