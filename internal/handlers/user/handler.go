package user

import (
	"net/http"
	"strings"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/gorilla/websocket"
)

// Handler regroupe les routes du compte : authentification, profil, panier,
// adresses et commandes.
type Handler struct {
	users       *services.UserService
	carts       *services.CartService
	addresses   *services.AddressService
	orders      *services.OrderService
	audit       *utils.AuditLogger
	frontendURL string
	upgrader    websocket.Upgrader
}

type Options struct {
	FrontendURL    string
	AllowedOrigins []string
}

func NewHandler(users *services.UserService, carts *services.CartService, addresses *services.AddressService,
	orders *services.OrderService, audit *utils.AuditLogger, opts Options) *Handler {
	return &Handler{
		users:       users,
		carts:       carts,
		addresses:   addresses,
		orders:      orders,
		audit:       audit,
		frontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(opts.AllowedOrigins),
		},
	}
}

// originChecker accepte les origines CORS configurées, et toutes si la liste est vide.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// requesterID lit l'identifiant posé par middleware.AuthRequired.
func requesterID(c *gin.Context) (gocql.UUID, error) {
	id, err := gocql.ParseUUID(c.GetString(middleware.ContextUserID))
	if err != nil {
		return gocql.UUID{}, apperr.Unauthenticated("Non authentifié")
	}
	return id, nil
}
