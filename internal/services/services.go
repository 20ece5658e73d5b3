// Package services contient la logique métier : validation des entrées,
// règles de propriété et orchestration des repositories.
package services

import (
	"html"
	"math"
	"strings"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

var validate = validator.New()

// Notifier reçoit les événements qui déclenchent un e-mail. Les
// implémentations ne doivent pas bloquer l'appelant.
type Notifier interface {
	PasswordReset(user models.User, link string)
	OrderStatusChanged(user models.User, order models.Order)
	PaymentSucceeded(user models.User, order models.Order, payment models.Payment)
}

// NopNotifier ignore toutes les notifications.
type NopNotifier struct{}

func (NopNotifier) PasswordReset(models.User, string) {}
func (NopNotifier) OrderStatusChanged(models.User, models.Order) {}
func (NopNotifier) PaymentSucceeded(models.User, models.Order, models.Payment) {}

// ParseID valide un identifiant reçu dans l'URL ou le corps.
func ParseID(field, raw string) (gocql.UUID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return gocql.UUID{}, apperr.Field(field, "identifiant invalide")
	}
	id, err := gocql.ParseUUID(raw)
	if err != nil {
		return gocql.UUID{}, apperr.Field(field, "identifiant invalide")
	}
	return id, nil
}

// sanitize retire les espaces et échappe le HTML.
func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isDigits(s string) bool {
	return validate.Var(s, "required,number") == nil
}

// fieldErrors accumule les erreurs de validation d'une entrée.
type fieldErrors []apperr.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperr.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation("Données invalides", f...)
}
