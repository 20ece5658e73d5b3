package user

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/auth"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /auth/:provider
func (h *Handler) BeginOAuth(c *gin.Context) {
	if err := auth.BeginOAuth(c.Writer, c.Request, c.Param("provider")); err != nil {
		utils.RespondError(c, oauthError(err))
	}
}

// GET /auth/:provider/callback
// Redirige vers le front avec le token en paramètre.
func (h *Handler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	identity, err := auth.CompleteOAuth(c.Writer, c.Request, provider)
	if err != nil {
		log.Printf("❌ Callback OAuth %s: %v", provider, err)
		utils.RespondError(c, oauthError(err))
		return
	}

	session, err := h.users.OAuthLogin(c.Request.Context(), identity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	log.Printf("✅ Connexion %s de %s", provider, session.User.Email)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback?token="+url.QueryEscape(session.Token))
}

func oauthError(err error) error {
	if errors.Is(err, auth.ErrUnknownProvider) {
		return apperr.NotFound("Provider OAuth inconnu ou non configuré")
	}
	return apperr.Unauthenticated("Authentification OAuth échouée")
}
