package auth

import (
	"errors"
	"log"
	"net/http"

	"ecom_back_end/internal/config"
	"ecom_back_end/internal/models"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
)

var ErrUnknownProvider = errors.New("provider OAuth non supporté")

// OAuthIdentity est l'identité renvoyée par un provider après le callback.
type OAuthIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
}

// SetupOAuth configure gothic (store de session cookie et providers).
// Retourne le nombre de providers actifs.
func SetupOAuth(cfg *config.Config) int {
	if cfg.SessionSecret == "" {
		log.Println("⚠️ SESSION_SECRET manquant, OAuth désactivé")
		return 0
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		return "", ErrUnknownProvider
	}

	var providers []goth.Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BaseURL+"/auth/google/callback",
			"email", "profile",
		))
		log.Println("✅ Google OAuth activé")
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(
			cfg.FacebookClientID,
			cfg.FacebookClientSecret,
			cfg.BaseURL+"/auth/facebook/callback",
			"email",
		))
		log.Println("✅ Facebook OAuth activé")
	}

	if len(providers) == 0 {
		log.Println("⚠️ Aucun provider OAuth configuré")
		return 0
	}
	goth.UseProviders(providers...)
	log.Printf("✅ %d OAuth provider(s) initialisé(s)", len(providers))
	return len(providers)
}

func checkProvider(provider string) error {
	if provider != models.ProviderGoogle && provider != models.ProviderFacebook {
		return ErrUnknownProvider
	}
	if _, err := goth.GetProvider(provider); err != nil {
		return ErrUnknownProvider
	}
	return nil
}

func withProvider(r *http.Request, provider string) {
	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()
}

// BeginOAuth redirige vers la page de consentement du provider.
func BeginOAuth(w http.ResponseWriter, r *http.Request, provider string) error {
	if err := checkProvider(provider); err != nil {
		return err
	}
	withProvider(r, provider)
	gothic.BeginAuthHandler(w, r)
	return nil
}

// CompleteOAuth termine l'échange de code et retourne l'identité du provider.
func CompleteOAuth(w http.ResponseWriter, r *http.Request, provider string) (*OAuthIdentity, error) {
	if err := checkProvider(provider); err != nil {
		return nil, err
	}
	withProvider(r, provider)

	gu, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		return nil, err
	}
	return identityFromGoth(gu), nil
}

func identityFromGoth(gu goth.User) *OAuthIdentity {
	id := &OAuthIdentity{
		Provider:   gu.Provider,
		ProviderID: gu.UserID,
		Email:      gu.Email,
		FirstName:  gu.FirstName,
		LastName:   gu.LastName,
	}
	if id.FirstName == "" && id.LastName == "" {
		id.FirstName = gu.Name
	}
	return id
}
