package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Address struct {
	ID          gocql.UUID `json:"id"`
	UserID      gocql.UUID `json:"user"`
	AddressLine string     `json:"addressLine"`
	PostalCode  string     `json:"postalCode"`
	Phone       string     `json:"phone"`
	CreatedAt   time.Time  `json:"createdAt"`
}
