// Package repository déclare les accès aux données consommés par les services,
// avec une implémentation ScyllaDB et une implémentation en mémoire.
package repository

import (
	"context"

	"ecom_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Les méthodes renvoient apperr.ErrNotFound quand la ligne n'existe pas et
// apperr.ErrConflict quand une contrainte d'unicité est violée.

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id gocql.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id gocql.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id gocql.UUID) error
	CountByCategory(ctx context.Context, categoryID gocql.UUID) (int, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	Get(ctx context.Context, id gocql.UUID) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id gocql.UUID) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id gocql.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id gocql.UUID) error
	// MarkPaid passe la commande à Paid et pose la référence de paiement,
	// seulement si son statut vaut encore expectedStatus. Renvoie false sinon.
	MarkPaid(ctx context.Context, orderID, paymentID gocql.UUID, expectedStatus string) (bool, error)
	// ClearPayment retire la référence seulement si elle vaut paymentID.
	ClearPayment(ctx context.Context, orderID, paymentID gocql.UUID) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, id gocql.UUID) (*models.Payment, error)
	GetByProviderRef(ctx context.Context, ref string) (*models.Payment, error)
	List(ctx context.Context) ([]models.Payment, error)
	ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Payment, error)
	ListByOrder(ctx context.Context, orderID gocql.UUID) ([]models.Payment, error)
	ListByStatus(ctx context.Context, status string) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, id gocql.UUID, status string) error
	Delete(ctx context.Context, id gocql.UUID) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	Get(ctx context.Context, id gocql.UUID) (*models.Review, error)
	List(ctx context.Context) ([]models.Review, error)
	ListByProduct(ctx context.Context, productID gocql.UUID) ([]models.Review, error)
	ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Review, error)
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id gocql.UUID) error
}

type AddressRepository interface {
	Create(ctx context.Context, a *models.Address) error
	Get(ctx context.Context, id gocql.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Address, error)
	Update(ctx context.Context, a *models.Address) error
	Delete(ctx context.Context, id gocql.UUID) error
}

type AuditRepository interface {
	Insert(ctx context.Context, entry models.AuditLog) error
}

// Store regroupe tous les repositories d'un même backend.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Categories() CategoryRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Reviews() ReviewRepository
	Addresses() AddressRepository
	Audit() AuditRepository
}
