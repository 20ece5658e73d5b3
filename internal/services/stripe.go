package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

type IntentRequest struct {
	Amount  float64
	OrderID string
	UserID  string
}

type Intent struct {
	ID           string
	ClientSecret string
}

// WebhookEvent est la partie d'un événement du prestataire utile au service.
type WebhookEvent struct {
	Type     string
	IntentID string
}

// PaymentGateway abstrait le prestataire de paiement par carte.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ParseEvent(payload []byte, signature string) (*WebhookEvent, error)
}

type StripeGateway struct {
	webhookSecret string
	currency      string
}

func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret, currency: currency}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(req.Amount * 100))), // en centimes
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id": req.OrderID,
			"user_id":  req.UserID,
		},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ErrWebhookSecretMissing est retournée quand aucun secret de webhook n'est
// configuré : un événement non signé n'est jamais accepté.
var ErrWebhookSecretMissing = errors.New("STRIPE_WEBHOOK_SECRET manquant, webhook refusé")

// ParseEvent vérifie la signature Stripe avant de lire l'événement.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookSecret == "" {
		log.Println("❌ Webhook reçu sans STRIPE_WEBHOOK_SECRET configuré")
		return nil, ErrWebhookSecretMissing
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("décodage PaymentIntent: %w", err)
		}
		out.IntentID = pi.ID
	}
	return out, nil
}
