package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusPaid      = "Paid"
)

type OrderItem struct {
	ProductID gocql.UUID `json:"product"`
	Quantity  int        `json:"quantity"`
}

type Order struct {
	ID          gocql.UUID  `json:"id"`
	UserID      gocql.UUID  `json:"user"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      string      `json:"status"`
	PaymentID   *gocql.UUID `json:"payment,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// IsOrderStatus indique si le statut fait partie de l'énumération complète.
func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusPaid:
		return true
	}
	return false
}
