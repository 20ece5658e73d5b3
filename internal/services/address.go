package services

import (
	"context"
	"strings"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gocql/gocql"
)

type AddressInput struct {
	AddressLine string `json:"addressLine"`
	PostalCode  string `json:"postalCode"`
	Phone       string `json:"phone"`
}

type UpdateAddressInput struct {
	AddressLine *string `json:"addressLine"`
	PostalCode  *string `json:"postalCode"`
	Phone       *string `json:"phone"`
}

type AddressService struct {
	addresses repository.AddressRepository
}

func NewAddressService(addresses repository.AddressRepository) *AddressService {
	return &AddressService{addresses: addresses}
}

func validateAddress(line, postal, phone *string) error {
	var errs fieldErrors
	if line != nil && sanitize(*line) == "" {
		errs.add("addressLine", "champ requis")
	}
	if postal != nil && !isDigits(strings.TrimSpace(*postal)) {
		errs.add("postalCode", "doit être numérique")
	}
	if phone != nil && !isDigits(strings.TrimSpace(*phone)) {
		errs.add("phone", "doit être numérique")
	}
	return errs.err()
}

func (s *AddressService) Create(ctx context.Context, userID gocql.UUID, in AddressInput) (*models.Address, error) {
	if err := validateAddress(&in.AddressLine, &in.PostalCode, &in.Phone); err != nil {
		return nil, err
	}
	a := &models.Address{
		ID:          gocql.TimeUUID(),
		UserID:      userID,
		AddressLine: sanitize(in.AddressLine),
		PostalCode:  strings.TrimSpace(in.PostalCode),
		Phone:       strings.TrimSpace(in.Phone),
		CreatedAt:   time.Now(),
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, apperr.Internal("Erreur création adresse", err)
	}
	return a, nil
}

func (s *AddressService) List(ctx context.Context, userID gocql.UUID) ([]models.Address, error) {
	list, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération adresses", err)
	}
	return list, nil
}

// Get retourne l'adresse si elle appartient à l'utilisateur.
func (s *AddressService) Get(ctx context.Context, userID gocql.UUID, rawID string) (*models.Address, error) {
	id, err := ParseID("addressId", rawID)
	if err != nil {
		return nil, err
	}
	a, err := s.addresses.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Adresse introuvable", "Erreur récupération adresse")
	}
	if a.UserID != userID {
		return nil, apperr.Forbidden("Cette adresse ne vous appartient pas")
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, userID gocql.UUID, rawID string, in UpdateAddressInput) (*models.Address, error) {
	if err := validateAddress(in.AddressLine, in.PostalCode, in.Phone); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, userID, rawID)
	if err != nil {
		return nil, err
	}
	if in.AddressLine != nil {
		a.AddressLine = sanitize(*in.AddressLine)
	}
	if in.PostalCode != nil {
		a.PostalCode = strings.TrimSpace(*in.PostalCode)
	}
	if in.Phone != nil {
		a.Phone = strings.TrimSpace(*in.Phone)
	}
	if err := s.addresses.Update(ctx, a); err != nil {
		return nil, apperr.Wrap(err, "Adresse introuvable", "Erreur mise à jour adresse")
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, userID gocql.UUID, rawID string) error {
	a, err := s.Get(ctx, userID, rawID)
	if err != nil {
		return err
	}
	if err := s.addresses.Delete(ctx, a.ID); err != nil {
		return apperr.Wrap(err, "Adresse introuvable", "Erreur suppression adresse")
	}
	return nil
}
