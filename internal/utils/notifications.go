package utils

import (
	"context"
	"log"
	"time"

	"ecom_back_end/internal/models"
)

const notificationTimeout = 45 * time.Second

// MailNotifier envoie les notifications utilisateur en arrière-plan.
type MailNotifier struct {
	mailer      *Mailer
	frontendURL string
	pdfEnabled  bool
}

func NewMailNotifier(mailer *Mailer, frontendURL string, pdfEnabled bool) *MailNotifier {
	return &MailNotifier{mailer: mailer, frontendURL: frontendURL, pdfEnabled: pdfEnabled}
}

func (n *MailNotifier) PasswordReset(user models.User, link string) {
	n.async("reset", func(ctx context.Context) error {
		html, err := renderEmail("reset_password", struct {
			Title string
			Name  string
			Link  string
		}{"Réinitialisation du mot de passe", user.FullName(), link})
		if err != nil {
			return err
		}
		return n.mailer.Send(ctx, user.Email, "🔑 Réinitialisation de votre mot de passe", html)
	})
}

func (n *MailNotifier) OrderStatusChanged(user models.User, order models.Order) {
	n.async("statut commande", func(ctx context.Context) error {
		html, err := renderEmail("order_status", struct {
			Title   string
			Name    string
			Message string
			OrderID string
			Total   float64
			Status  string
			Color   string
			Link    string
		}{
			Title:   "Mise à jour de votre commande",
			Name:    user.FullName(),
			Message: statusMessage(order.Status),
			OrderID: order.ID.String(),
			Total:   order.TotalAmount,
			Status:  order.Status,
			Color:   statusColor(order.Status),
			Link:    n.frontendURL + "/orders",
		})
		if err != nil {
			return err
		}
		log.Printf("📧 Email de statut: %s → %s", order.Status, user.Email)
		return n.mailer.Send(ctx, user.Email, statusSubject(order.Status), html)
	})
}

func (n *MailNotifier) PaymentSucceeded(user models.User, order models.Order, payment models.Payment) {
	n.async("reçu", func(ctx context.Context) error {
		html, err := RenderReceiptHTML(user, order, payment)
		if err != nil {
			return err
		}

		var attachments []Attachment
		if n.pdfEnabled {
			pdf, err := RenderPDF(ctx, html)
			if err != nil {
				log.Printf("⚠️ Reçu PDF non généré pour %s: %v", payment.ID, err)
			} else {
				attachments = append(attachments, Attachment{Name: "recu_" + payment.ID.String() + ".pdf", Data: pdf})
			}
		}
		return n.mailer.Send(ctx, user.Email, "✅ Paiement confirmé", html, attachments...)
	})
}

func (n *MailNotifier) async(kind string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("❌ Erreur envoi email %s: %v", kind, err)
		}
	}()
}

func statusSubject(status string) string {
	switch status {
	case models.OrderStatusPaid:
		return "✅ Paiement confirmé"
	case models.OrderStatusShipped:
		return "📦 Votre commande a été expédiée"
	case models.OrderStatusDelivered:
		return "🎉 Votre commande a été livrée"
	default:
		return "📋 Mise à jour de votre commande"
	}
}

func statusMessage(status string) string {
	switch status {
	case models.OrderStatusPaid:
		return "Votre paiement a été confirmé, nous préparons votre commande."
	case models.OrderStatusShipped:
		return "Bonne nouvelle ! Votre commande est en route."
	case models.OrderStatusDelivered:
		return "Votre commande a été livrée. Merci pour votre confiance !"
	default:
		return "Votre commande est en attente de traitement."
	}
}

func statusColor(status string) string {
	switch status {
	case models.OrderStatusPaid, models.OrderStatusDelivered:
		return "#28a745"
	case models.OrderStatusShipped:
		return "#17a2b8"
	default:
		return "#ffc107"
	}
}
