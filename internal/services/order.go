package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gocql/gocql"
)

type OrderItemInput struct {
	Product  string `json:"product"`
	Quantity *int   `json:"quantity"`
}

type CreateOrderInput struct {
	Items       []OrderItemInput `json:"items"`
	TotalAmount *float64         `json:"totalAmount"`
	Status      string           `json:"status"`
}

type UpdateOrderInput struct {
	Items       *[]OrderItemInput `json:"items"`
	TotalAmount *float64          `json:"totalAmount"`
	Status      *string           `json:"status"`
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	notifier Notifier
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository,
	users repository.UserRepository, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OrderService{orders: orders, products: products, users: users, notifier: notifier}
}

// parseItems valide les lignes puis vérifie que chaque produit existe.
func (s *OrderService) parseItems(ctx context.Context, in []OrderItemInput) ([]models.OrderItem, error) {
	if len(in) == 0 {
		return nil, apperr.Field("items", "au moins un article requis")
	}

	var errs fieldErrors
	items := make([]models.OrderItem, 0, len(in))
	for i, it := range in {
		id, err := ParseID("product", it.Product)
		if err != nil {
			errs.add(fmt.Sprintf("items[%d].product", i), "identifiant invalide")
		}
		if it.Quantity == nil || *it.Quantity < 1 {
			errs.add(fmt.Sprintf("items[%d].quantity", i), "doit être un entier >= 1")
			continue
		}
		items = append(items, models.OrderItem{ProductID: id, Quantity: *it.Quantity})
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	for _, it := range items {
		if _, err := s.products.Get(ctx, it.ProductID); err != nil {
			return nil, apperr.Wrap(err, "Produit introuvable: "+it.ProductID.String(), "Erreur récupération produit")
		}
	}
	return items, nil
}

func validTotal(total *float64) bool {
	return total != nil && isFinite(*total) && *total >= 0
}

func (s *OrderService) Create(ctx context.Context, userID gocql.UUID, in CreateOrderInput) (*models.Order, error) {
	if !validTotal(in.TotalAmount) {
		return nil, apperr.Field("totalAmount", "doit être un nombre >= 0")
	}
	status := in.Status
	if status == "" {
		status = models.OrderStatusPending
	}
	if status != models.OrderStatusPending && status != models.OrderStatusShipped && status != models.OrderStatusDelivered {
		return nil, apperr.Field("status", "doit valoir Pending, Shipped ou Delivered")
	}
	items, err := s.parseItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o := &models.Order{
		ID:          gocql.TimeUUID(),
		UserID:      userID,
		Items:       items,
		TotalAmount: *in.TotalAmount,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, apperr.Internal("Erreur création commande", err)
	}
	log.Printf("📦 Commande %s créée (%.2f€)", o.ID, o.TotalAmount)
	return o, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	list, err := s.orders.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération commandes", err)
	}
	return list, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID gocql.UUID) ([]models.Order, error) {
	list, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération commandes", err)
	}
	return list, nil
}

func (s *OrderService) Get(ctx context.Context, rawID string) (*models.Order, error) {
	id, err := ParseID("orderId", rawID)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Commande introuvable", "Erreur récupération commande")
	}
	return o, nil
}

func (s *OrderService) owned(ctx context.Context, userID gocql.UUID, rawID string) (*models.Order, error) {
	o, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.Forbidden("Cette commande ne vous appartient pas")
	}
	return o, nil
}

// Update applique les champs présents. Aucune transition de statut n'est imposée.
func (s *OrderService) Update(ctx context.Context, userID gocql.UUID, rawID string, in UpdateOrderInput) (*models.Order, error) {
	if in.TotalAmount != nil && !validTotal(in.TotalAmount) {
		return nil, apperr.Field("totalAmount", "doit être un nombre >= 0")
	}
	if in.Status != nil && !models.IsOrderStatus(*in.Status) {
		return nil, apperr.Field("status", "doit valoir Pending, Shipped, Delivered ou Paid")
	}

	o, err := s.owned(ctx, userID, rawID)
	if err != nil {
		return nil, err
	}
	if in.Items != nil {
		items, err := s.parseItems(ctx, *in.Items)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	if in.TotalAmount != nil {
		o.TotalAmount = *in.TotalAmount
	}
	statusChanged := in.Status != nil && *in.Status != o.Status
	if in.Status != nil {
		o.Status = *in.Status
	}
	o.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, apperr.Wrap(err, "Commande introuvable", "Erreur mise à jour commande")
	}

	if statusChanged {
		if u, err := s.users.GetByID(ctx, o.UserID); err == nil {
			s.notifier.OrderStatusChanged(*u, *o)
		} else {
			log.Printf("⚠️ Notification statut %s impossible: %v", o.ID, err)
		}
	}
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, userID gocql.UUID, rawID string) error {
	o, err := s.owned(ctx, userID, rawID)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, o.ID); err != nil {
		return apperr.Wrap(err, "Commande introuvable", "Erreur suppression commande")
	}
	return nil
}
