package payment

import (
	"log"
	"net/http"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/services"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

// MaxBodyBytes borne la taille des webhooks Stripe.
const MaxBodyBytes = int64(65536)

type Handler struct {
	payments *services.PaymentService
}

func NewHandler(payments *services.PaymentService) *Handler {
	return &Handler{payments: payments}
}

func requesterID(c *gin.Context) (gocql.UUID, error) {
	id, err := gocql.ParseUUID(c.GetString(middleware.ContextUserID))
	if err != nil {
		return gocql.UUID{}, apperr.Unauthenticated("Non authentifié")
	}
	return id, nil
}

// POST /payment/:orderId
func (h *Handler) MakePayment(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var input services.MakePaymentInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	p, err := h.payments.MakePayment(c.Request.Context(), userID, c.Param("orderId"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Set(utils.ContextResourceID, p.ID.String())
	c.JSON(http.StatusCreated, gin.H{"message": "Paiement effectué", "payment": p})
}

// ✅ POST /payment/:orderId/intent : crée un PaymentIntent Stripe
func (h *Handler) CreateIntent(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	res, err := h.payments.CreateIntent(c.Request.Context(), userID, c.Param("orderId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Set(utils.ContextResourceID, res.Payment.ID.String())
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Paiement par carte initialisé",
		"payment":      res.Payment,
		"clientSecret": res.ClientSecret,
	})
}

// POST /payment/webhook : événements signés Stripe
func (h *Handler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture webhook:", err)
		utils.RespondError(c, apperr.Validation("Corps de requête illisible"))
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Événement traité"})
}

// GET /payment_list
func (h *Handler) List(c *gin.Context) {
	list, err := h.payments.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Paiements récupérés", "payments": list})
}

// GET /payment/:paymentId
func (h *Handler) Get(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	p, err := h.payments.Get(c.Request.Context(), userID, c.Param("paymentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Paiement récupéré", "payment": p})
}

// GET /payment/user/:userId
func (h *Handler) ListByUser(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	list, err := h.payments.ListByUser(c.Request.Context(), userID, c.Param("userId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Paiements récupérés", "payments": list})
}

// DELETE /payment/:paymentId
func (h *Handler) Delete(c *gin.Context) {
	userID, err := requesterID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.payments.Delete(c.Request.Context(), userID, c.Param("paymentId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Paiement supprimé"})
}
