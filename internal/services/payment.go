package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gocql/gocql"
)

// ReconcileGrace est l'âge minimal d'un paiement Pending avant réconciliation.
const ReconcileGrace = 5 * time.Minute

const paymentMethodCard = "card"

type MakePaymentInput struct {
	PaymentMethod string `json:"paymentMethod"`
}

// IntentResult est renvoyé au front pour confirmer le paiement par carte.
type IntentResult struct {
	Payment      *models.Payment `json:"payment"`
	ClientSecret string          `json:"clientSecret"`
}

type PaymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	gateway  PaymentGateway
	notifier Notifier
	grace    time.Duration
	now      func() time.Time
}

// NewPaymentService : gateway est nil quand Stripe n'est pas configuré.
func NewPaymentService(payments repository.PaymentRepository, orders repository.OrderRepository,
	users repository.UserRepository, gateway PaymentGateway, notifier Notifier) *PaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PaymentService{
		payments: payments,
		orders:   orders,
		users:    users,
		gateway:  gateway,
		notifier: notifier,
		grace:    ReconcileGrace,
		now:      time.Now,
	}
}

// payableOrder charge la commande et vérifie qu'elle peut être payée par userID.
func (s *PaymentService) payableOrder(ctx context.Context, userID gocql.UUID, rawOrderID string) (*models.Order, error) {
	orderID, err := ParseID("orderId", rawOrderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(err, "Commande introuvable", "Erreur récupération commande")
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("Cette commande ne vous appartient pas")
	}
	if order.Status == models.OrderStatusPaid {
		return nil, apperr.Conflict("Commande déjà payée")
	}
	if !isFinite(order.TotalAmount) || order.TotalAmount < 0 {
		return nil, apperr.Field("totalAmount", "montant de la commande invalide")
	}
	return order, nil
}

// MakePayment enregistre le paiement en Pending, bascule la commande à Paid
// par une écriture conditionnelle sur son statut, puis finalise le paiement.
// Si la bascule échoue parce qu'un autre paiement a gagné, le paiement passe Failed.
func (s *PaymentService) MakePayment(ctx context.Context, userID gocql.UUID, rawOrderID string, in MakePaymentInput) (*models.Payment, error) {
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return nil, apperr.Field("paymentMethod", "champ requis")
	}
	order, err := s.payableOrder(ctx, userID, rawOrderID)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:            gocql.TimeUUID(),
		UserID:        userID,
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		PaymentMethod: sanitize(method),
		Status:        models.PaymentStatusPending,
		CreatedAt:     s.now(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, apperr.Internal("Erreur enregistrement paiement", err)
	}

	if err := s.complete(ctx, p, order); err != nil {
		return nil, err
	}
	return p, nil
}

// complete bascule la commande puis fixe le statut final du paiement.
func (s *PaymentService) complete(ctx context.Context, p *models.Payment, order *models.Order) error {
	applied, err := s.orders.MarkPaid(ctx, order.ID, p.ID, order.Status)
	if err != nil {
		// issue inconnue : le paiement reste Pending pour la réconciliation
		return apperr.Internal("Erreur mise à jour commande", err)
	}
	if !applied {
		s.setStatus(ctx, p, models.PaymentStatusFailed)
		return apperr.Conflict("Commande déjà payée ou modifiée entre-temps")
	}

	s.setStatus(ctx, p, models.PaymentStatusPaid)
	log.Printf("💳 Paiement %s: commande %s payée (%.2f€)", p.ID, order.ID, p.Amount)

	order.Status = models.OrderStatusPaid
	order.PaymentID = &p.ID
	if u, err := s.users.GetByID(ctx, p.UserID); err == nil {
		s.notifier.PaymentSucceeded(*u, *order, *p)
	}
	return nil
}

func (s *PaymentService) setStatus(ctx context.Context, p *models.Payment, status string) {
	p.Status = status
	if err := s.payments.UpdateStatus(ctx, p.ID, status); err != nil {
		log.Printf("⚠️ Statut %s du paiement %s non enregistré: %v", status, p.ID, err)
	}
}

// Reconcile résout les paiements restés Pending après une interruption :
// Paid si la commande référence le paiement, Failed sinon. Les paiements
// par carte attendent le webhook et sont ignorés.
func (s *PaymentService) Reconcile(ctx context.Context) (paid, failed int, err error) {
	pending, err := s.payments.ListByStatus(ctx, models.PaymentStatusPending)
	if err != nil {
		return 0, 0, err
	}
	cutoff := s.now().Add(-s.grace)

	for i := range pending {
		p := &pending[i]
		if p.ProviderRef != "" || p.CreatedAt.After(cutoff) {
			continue
		}

		status := models.PaymentStatusFailed
		order, err := s.orders.Get(ctx, p.OrderID)
		switch {
		case err == nil && order.PaymentID != nil && *order.PaymentID == p.ID:
			status = models.PaymentStatusPaid
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			log.Printf("⚠️ Réconciliation %s reportée: %v", p.ID, err)
			continue
		}

		if err := s.payments.UpdateStatus(ctx, p.ID, status); err != nil {
			log.Printf("⚠️ Réconciliation %s: %v", p.ID, err)
			continue
		}
		if status == models.PaymentStatusPaid {
			paid++
		} else {
			failed++
		}
	}
	if paid+failed > 0 {
		log.Printf("🔁 Réconciliation paiements: %d payés, %d échoués", paid, failed)
	}
	return paid, failed, nil
}

func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	list, err := s.payments.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération paiements", err)
	}
	return list, nil
}

func (s *PaymentService) ListByUser(ctx context.Context, requester gocql.UUID, rawUserID string) ([]models.Payment, error) {
	userID, err := ParseID("userId", rawUserID)
	if err != nil {
		return nil, err
	}
	if userID != requester {
		return nil, apperr.Forbidden("Accès refusé")
	}
	list, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération paiements", err)
	}
	return list, nil
}

func (s *PaymentService) Get(ctx context.Context, requester gocql.UUID, rawID string) (*models.Payment, error) {
	id, err := ParseID("paymentId", rawID)
	if err != nil {
		return nil, err
	}
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Paiement introuvable", "Erreur récupération paiement")
	}
	if p.UserID != requester {
		return nil, apperr.Forbidden("Ce paiement ne vous appartient pas")
	}
	return p, nil
}

// Delete supprime le paiement et retire la référence de la commande
// uniquement si celle-ci pointe sur ce paiement.
func (s *PaymentService) Delete(ctx context.Context, requester gocql.UUID, rawID string) error {
	p, err := s.Get(ctx, requester, rawID)
	if err != nil {
		return err
	}

	cleared, err := s.orders.ClearPayment(ctx, p.OrderID, p.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return apperr.Internal("Erreur mise à jour commande", err)
	}
	if cleared {
		log.Printf("🧹 Référence paiement %s retirée de la commande %s", p.ID, p.OrderID)
	}

	if err := s.payments.Delete(ctx, p.ID); err != nil {
		return apperr.Wrap(err, "Paiement introuvable", "Erreur suppression paiement")
	}
	return nil
}

// CreateIntent prépare un paiement par carte : PaymentIntent Stripe et
// paiement Pending portant la référence de l'intent.
func (s *PaymentService) CreateIntent(ctx context.Context, userID gocql.UUID, rawOrderID string) (*IntentResult, error) {
	if s.gateway == nil {
		return nil, apperr.Validation("Paiement par carte non configuré")
	}
	order, err := s.payableOrder(ctx, userID, rawOrderID)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		Amount:  order.TotalAmount,
		OrderID: order.ID.String(),
		UserID:  userID.String(),
	})
	if err != nil {
		return nil, apperr.Internal("Erreur création paiement carte", err)
	}

	p := &models.Payment{
		ID:            gocql.TimeUUID(),
		UserID:        userID,
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		PaymentMethod: paymentMethodCard,
		Status:        models.PaymentStatusPending,
		ProviderRef:   intent.ID,
		CreatedAt:     s.now(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, apperr.Internal("Erreur enregistrement paiement", err)
	}
	log.Printf("💳 PaymentIntent créé : %s (%.2f€) pour la commande %s", intent.ID, p.Amount, order.ID)
	return &IntentResult{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

// HandleWebhook traite un événement Stripe signé. Les événements répétés
// ou inconnus sont acceptés sans effet.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return apperr.Validation("Paiement par carte non configuré")
	}
	event, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		log.Println("❌ Signature Stripe invalide:", err)
		return apperr.Validation("Signature invalide")
	}
	log.Printf("📥 Événement Stripe reçu : %s", event.Type)

	if event.Type != EventIntentSucceeded && event.Type != EventIntentFailed {
		return nil
	}

	p, err := s.payments.GetByProviderRef(ctx, event.IntentID)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Printf("⚠️ Aucun paiement pour l'intent %s", event.IntentID)
		return nil
	}
	if err != nil {
		return apperr.Internal("Erreur récupération paiement", err)
	}
	if p.Status != models.PaymentStatusPending {
		return nil
	}

	if event.Type == EventIntentFailed {
		s.setStatus(ctx, p, models.PaymentStatusFailed)
		return nil
	}

	order, err := s.orders.Get(ctx, p.OrderID)
	if errors.Is(err, apperr.ErrNotFound) {
		// commande supprimée entre-temps
		log.Printf("⚠️ Intent %s encaissé pour une commande supprimée (%s), remboursement manuel requis", event.IntentID, p.OrderID)
		s.setStatus(ctx, p, models.PaymentStatusFailed)
		return nil
	}
	if err != nil {
		return apperr.Internal("Erreur récupération commande", err)
	}
	if order.Status == models.OrderStatusPaid {
		if order.PaymentID != nil && *order.PaymentID == p.ID {
			s.setStatus(ctx, p, models.PaymentStatusPaid)
			return nil
		}
		log.Printf("⚠️ Intent %s encaissé pour une commande déjà payée (%s), remboursement manuel requis", event.IntentID, order.ID)
		s.setStatus(ctx, p, models.PaymentStatusFailed)
		return nil
	}

	if err := s.complete(ctx, p, order); err != nil && apperr.KindOf(err) != apperr.KindConflict {
		return err
	}
	return nil
}
