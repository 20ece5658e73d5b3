package user

import (
	"net/http"

	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /forgot-password
// La réponse est identique que l'adresse existe ou non.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.users.ForgotPassword(c.Request.Context(), input.Email); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Si un compte existe avec cet email, un lien de réinitialisation a été envoyé",
	})
}

// POST /reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	var input services.ResetPasswordInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), input); err != nil {
		utils.RespondError(c, err)
		return
	}
	h.audit.LogAction(c, utils.ActionPasswordReset, utils.ResourceAuth, "")
	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe réinitialisé avec succès"})
}
