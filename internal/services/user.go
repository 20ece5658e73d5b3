package services

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/auth"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"
	"ecom_back_end/internal/utils"

	"github.com/gocql/gocql"
)

const (
	ResetTokenTTL        = time.Hour
	minPasswordLength    = 3
	minNewPasswordLength = 8
)

type SignupInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Strategy string `json:"strategy"`
}

type ResetPasswordInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type UpdateProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// Session est le résultat d'une connexion réussie.
type Session struct {
	Token      string       `json:"token"`
	User       *models.User `json:"user"`
	CartMerged bool         `json:"cartMerged"`
}

type UserService struct {
	users       repository.UserRepository
	tokens      *auth.TokenManager
	strategies  auth.Strategies
	blacklist   *cache.TokenBlacklist
	carts       *CartService
	notifier    Notifier
	frontendURL string
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenManager, strategies auth.Strategies,
	blacklist *cache.TokenBlacklist, carts *CartService, notifier Notifier, frontendURL string) *UserService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &UserService{
		users:       users,
		tokens:      tokens,
		strategies:  strategies,
		blacklist:   blacklist,
		carts:       carts,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(sanitize(email))
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	var errs fieldErrors
	first := sanitize(in.FirstName)
	last := sanitize(in.LastName)
	email := normalizeEmail(in.Email)
	if first == "" {
		errs.add("firstName", "champ requis")
	}
	if last == "" {
		errs.add("lastName", "champ requis")
	}
	if validate.Var(email, "required,email") != nil {
		errs.add("email", "email invalide")
	}
	if len(in.Password) < minPasswordLength {
		errs.add("password", "au moins 3 caractères")
	}
	if in.ConfirmPassword != in.Password {
		errs.add("confirmPassword", "les mots de passe ne correspondent pas")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email déjà utilisé")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Internal("Erreur vérification email", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Erreur hash mot de passe", err)
	}

	now := time.Now()
	u := &models.User{
		ID:        gocql.TimeUUID(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  hash,
		Provider:  models.ProviderLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("Email déjà utilisé")
		}
		return nil, apperr.Internal("Erreur création utilisateur", err)
	}
	log.Printf("✅ Utilisateur créé: %s", u.Email)
	return u, nil
}

// Login vérifie les identifiants avec la stratégie demandée, émet un token
// et rattache le panier invité.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	strategy, err := s.strategies.Get(in.Strategy)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperr.Validation("Email et mot de passe requis")
	}
	user, err := strategy.Authenticate(ctx, auth.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

// OAuthLogin retrouve ou crée l'utilisateur correspondant à l'identité du provider.
func (s *UserService) OAuthLogin(ctx context.Context, id *auth.OAuthIdentity) (*Session, error) {
	user, err := s.users.GetByProvider(ctx, id.Provider, id.ProviderID)
	if err == nil {
		return s.openSession(ctx, user)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Internal("Erreur récupération utilisateur", err)
	}

	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, apperr.Unauthenticated("Le provider n'a pas fourni d'email")
	}

	user, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user.Provider = id.Provider
		user.ProviderID = id.ProviderID
		user.UpdatedAt = time.Now()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, apperr.Internal("Erreur liaison compte", err)
		}
	case errors.Is(err, apperr.ErrNotFound):
		now := time.Now()
		user = &models.User{
			ID:         gocql.TimeUUID(),
			FirstName:  sanitize(id.FirstName),
			LastName:   sanitize(id.LastName),
			Email:      email,
			Provider:   id.Provider,
			ProviderID: id.ProviderID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, apperr.Wrap(err, "", "Erreur création utilisateur")
		}
		log.Printf("✅ Utilisateur %s créé via %s", email, id.Provider)
	default:
		return nil, apperr.Internal("Erreur récupération utilisateur", err)
	}
	return s.openSession(ctx, user)
}

func (s *UserService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	token, _, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, apperr.Internal("Erreur génération token", err)
	}

	merged := false
	if s.carts != nil {
		merged, err = s.carts.ReassignGuestCart(ctx, user.ID.String())
		if err != nil {
			log.Printf("⚠️ Rattachement panier invité pour %s: %v", user.ID, err)
		}
	}
	return &Session{Token: token, User: user, CartMerged: merged}, nil
}

// Authenticate valide un token porteur : signature, blacklist puis existence de l'utilisateur.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, apperr.Unauthenticated("Token invalide")
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, apperr.Internal("Erreur vérification token", err)
	}
	if revoked {
		return nil, nil, apperr.Unauthenticated("Token révoqué")
	}

	id, err := gocql.ParseUUID(claims.UserID)
	if err != nil {
		return nil, nil, apperr.Unauthenticated("Token invalide")
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, apperr.Unauthenticated("Utilisateur introuvable")
	}
	if err != nil {
		return nil, nil, apperr.Internal("Erreur récupération utilisateur", err)
	}
	return user, claims, nil
}

// Logout blackliste le token jusqu'à son expiration.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
		return apperr.Internal("Erreur déconnexion", err)
	}
	return nil
}

// ForgotPassword ne révèle jamais si l'adresse existe.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if validate.Var(email, "required,email") != nil {
		return apperr.Field("email", "email invalide")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Printf("⚠️ Reset demandé pour un email inconnu")
		return nil
	}
	if err != nil {
		return apperr.Internal("Erreur récupération utilisateur", err)
	}

	token, err := utils.GenerateToken(32)
	if err != nil {
		return apperr.Internal("Erreur génération token", err)
	}
	user.ResetToken = token
	user.ResetTokenExpiresAt = time.Now().Add(ResetTokenTTL)
	user.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal("Erreur enregistrement token", err)
	}

	link := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	s.notifier.PasswordReset(*user, link)
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if len(in.Password) < minNewPasswordLength {
		return apperr.Field("password", "au moins 8 caractères")
	}
	if in.Token == "" {
		return apperr.Unauthenticated("Lien invalide ou expiré")
	}

	user, err := s.users.GetByResetToken(ctx, in.Token)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Unauthenticated("Lien invalide ou expiré")
	}
	if err != nil {
		return apperr.Internal("Erreur récupération utilisateur", err)
	}
	if time.Now().After(user.ResetTokenExpiresAt) {
		return apperr.Unauthenticated("Lien invalide ou expiré")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return apperr.Internal("Erreur hash mot de passe", err)
	}
	user.Password = hash
	user.ResetToken = ""
	user.ResetTokenExpiresAt = time.Time{}
	user.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal("Erreur mise à jour mot de passe", err)
	}
	return nil
}

func (s *UserService) Profile(ctx context.Context, id gocql.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Utilisateur introuvable", "Erreur récupération utilisateur")
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id gocql.UUID, in UpdateProfileInput) (*models.User, error) {
	if in.FirstName != nil && sanitize(*in.FirstName) == "" {
		return nil, apperr.Field("firstName", "ne peut pas être vide")
	}
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = sanitize(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = sanitize(*in.LastName)
	}
	u.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, apperr.Wrap(err, "Utilisateur introuvable", "Erreur mise à jour profil")
	}
	return u, nil
}
