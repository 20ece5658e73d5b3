package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
	PaymentStatusFailed  = "Failed"
)

type Payment struct {
	ID            gocql.UUID `json:"id"`
	UserID        gocql.UUID `json:"user"`
	OrderID       gocql.UUID `json:"order"`
	Amount        float64    `json:"amount"`
	PaymentMethod string     `json:"paymentMethod"`
	Status        string     `json:"status"`
	ProviderRef   string     `json:"providerRef,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
