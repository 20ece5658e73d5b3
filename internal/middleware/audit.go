package middleware

import (
	"net/http"

	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// resourceParams sont les paramètres de route qui identifient la ressource auditée.
var resourceParams = []string{"productId", "categoryId", "orderId", "paymentId", "userId"}

// AuditCriticalActions trace l'action après traitement, réussie (2xx) ou non.
func AuditCriticalActions(logger *utils.AuditLogger, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resourceID string
		for _, p := range resourceParams {
			if resourceID = c.Param(p); resourceID != "" {
				break
			}
		}

		c.Next()

		if resourceID == "" {
			resourceID = c.GetString(utils.ContextResourceID)
		}
		status := c.Writer.Status()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			logger.LogAction(c, action, resource, resourceID)
		} else {
			logger.LogFailedAction(c, action, resource, resourceID, http.StatusText(status))
		}
	}
}
