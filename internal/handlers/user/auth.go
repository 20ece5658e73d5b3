package user

import (
	"log"
	"net/http"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /sign-up
func (h *Handler) SignUp(c *gin.Context) {
	var input services.SignupInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	u, err := h.users.Signup(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.audit.LogAction(c, utils.ActionUserCreate, utils.ResourceUser, u.ID.String())
	c.JSON(http.StatusCreated, gin.H{"message": "Utilisateur créé avec succès", "user": u})
}

// POST /login
func (h *Handler) Login(c *gin.Context) {
	var input services.LoginInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	session, err := h.users.Login(c.Request.Context(), input)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuthentication {
			log.Printf("❌ Échec de connexion pour %s", input.Email)
			h.audit.LogFailedAction(c, utils.ActionLoginFailed, utils.ResourceAuth, "", "identifiants invalides")
		}
		utils.RespondError(c, err)
		return
	}

	c.Set(middleware.ContextUserID, session.User.ID.String())
	h.audit.LogAction(c, utils.ActionLoginSuccess, utils.ResourceAuth, session.User.ID.String())
	log.Printf("✅ Connexion de %s", session.User.Email)

	c.JSON(http.StatusOK, gin.H{
		"message":    "Connexion réussie",
		"token":      session.Token,
		"user":       session.User,
		"cartMerged": session.CartMerged,
	})
}

// POST /logout
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		utils.RespondError(c, apperr.Unauthenticated("Non authentifié"))
		return
	}
	if err := h.users.Logout(c.Request.Context(), claims); err != nil {
		utils.RespondError(c, err)
		return
	}
	h.audit.LogAction(c, utils.ActionLogout, utils.ResourceAuth, claims.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

// GET /profile
func (h *Handler) Profile(c *gin.Context) {
	id, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	u, err := h.users.Profile(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profil récupéré", "user": u})
}

// PUT /profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var input services.UpdateProfileInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.audit.LogAction(c, utils.ActionUserUpdate, utils.ResourceUser, u.ID.String())
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour", "user": u})
}
