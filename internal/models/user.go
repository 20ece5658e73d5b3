package models

import (
	"strings"
	"time"

	"github.com/gocql/gocql"
)

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

type User struct {
	ID                  gocql.UUID `json:"id"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	Email               string     `json:"email"`
	Password            string     `json:"-"`
	Provider            string     `json:"provider"`
	ProviderID          string     `json:"-"`
	ResetToken          string     `json:"-"`
	ResetTokenExpiresAt time.Time  `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// FullName est le nom affiché (claims du token, auteur des avis).
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
