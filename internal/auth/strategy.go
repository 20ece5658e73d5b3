package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"
	"ecom_back_end/internal/utils"
)

// Credentials transporte les informations fournies au login.
type Credentials struct {
	Email    string
	Password string
}

// Strategy vérifie des identifiants et retourne l'utilisateur correspondant.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (*models.User, error)
}

// LocalStrategy authentifie par e-mail et mot de passe.
type LocalStrategy struct {
	users repository.UserRepository
}

func NewLocalStrategy(users repository.UserRepository) *LocalStrategy {
	return &LocalStrategy{users: users}
}

func (s *LocalStrategy) Name() string { return models.ProviderLocal }

func (s *LocalStrategy) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthenticated("Email ou mot de passe incorrect")
	}
	if err != nil {
		return nil, apperr.Internal("Erreur serveur", err)
	}
	if user.Password == "" {
		// compte créé via OAuth
		return nil, apperr.Unauthenticated("Email ou mot de passe incorrect")
	}

	ok, err := utils.VerifyPassword(creds.Password, user.Password)
	if err != nil {
		log.Printf("⚠️ Hash illisible pour %s: %v", user.ID, err)
		return nil, apperr.Unauthenticated("Email ou mot de passe incorrect")
	}
	if !ok {
		return nil, apperr.Unauthenticated("Email ou mot de passe incorrect")
	}
	return user, nil
}

// Strategies indexe les stratégies disponibles par nom.
type Strategies map[string]Strategy

func NewStrategies(list ...Strategy) Strategies {
	s := make(Strategies, len(list))
	for _, st := range list {
		s[st.Name()] = st
	}
	return s
}

// Get retourne la stratégie demandée ("local" par défaut).
func (s Strategies) Get(name string) (Strategy, error) {
	if name == "" {
		name = models.ProviderLocal
	}
	st, ok := s[name]
	if !ok {
		return nil, apperr.Field("strategy", "stratégie inconnue")
	}
	return st, nil
}
