package services

import (
	"context"
	"errors"
	"log"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/redis/go-redis/v9"
)

type AddCartItemInput struct {
	Product  string `json:"product"`
	Quantity *int   `json:"quantity"`
}

type CartService struct {
	store    *cache.CartStore
	products repository.ProductRepository
}

func NewCartService(store *cache.CartStore, products repository.ProductRepository) *CartService {
	return &CartService{store: store, products: products}
}

func wrapCartErr(err error) error {
	if errors.Is(err, cache.ErrCartContention) {
		return apperr.Internal("Panier temporairement indisponible", err)
	}
	return apperr.Wrap(err, "Panier introuvable", "Erreur mise à jour panier")
}

// AddItem ajoute un produit au panier du propriétaire, en cumulant la quantité
// si le produit y est déjà.
func (s *CartService) AddItem(ctx context.Context, owner string, in AddCartItemInput) (*models.CartView, error) {
	var errs fieldErrors
	productID, idErr := ParseID("product", in.Product)
	if idErr != nil {
		errs.add("product", "identifiant invalide")
	}
	if in.Quantity == nil || *in.Quantity < 1 {
		errs.add("quantity", "doit être un entier >= 1")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, apperr.Wrap(err, "Produit introuvable", "Erreur récupération produit")
	}

	line := models.CartItem{ProductID: productID.String(), Quantity: *in.Quantity}
	items, err := s.store.Update(ctx, owner, func(items []models.CartItem, _ bool) ([]models.CartItem, error) {
		return cache.MergeItems(items, []models.CartItem{line}), nil
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	log.Printf("🛒 %s: +%d %s", owner, line.Quantity, line.ProductID)
	return s.view(ctx, owner, items), nil
}

// Get retourne le panier enrichi du nom et du prix courant des produits.
func (s *CartService) Get(ctx context.Context, owner string) (*models.CartView, error) {
	items, err := s.store.Get(ctx, owner)
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return s.view(ctx, owner, items), nil
}

// UpdateQuantity remplace la quantité d'une ligne. 0 retire la ligne.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, productID string, quantity *int) (*models.CartView, error) {
	id, err := ParseID("productId", productID)
	if err != nil {
		return nil, err
	}
	if quantity == nil || *quantity < 0 {
		return nil, apperr.Field("quantity", "doit être un entier >= 0")
	}

	items, err := s.store.Update(ctx, owner, func(items []models.CartItem, exists bool) ([]models.CartItem, error) {
		idx, err := findLine(items, exists, id.String())
		if err != nil {
			return nil, err
		}
		if *quantity == 0 {
			return append(items[:idx:idx], items[idx+1:]...), nil
		}
		items[idx].Quantity = *quantity
		return items, nil
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return s.view(ctx, owner, items), nil
}

// RemoveItem retire une ligne du panier.
func (s *CartService) RemoveItem(ctx context.Context, owner, productID string) (*models.CartView, error) {
	id, err := ParseID("productId", productID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.Update(ctx, owner, func(items []models.CartItem, exists bool) ([]models.CartItem, error) {
		idx, err := findLine(items, exists, id.String())
		if err != nil {
			return nil, err
		}
		return append(items[:idx:idx], items[idx+1:]...), nil
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return s.view(ctx, owner, items), nil
}

func (s *CartService) Clear(ctx context.Context, owner string) error {
	if err := s.store.Clear(ctx, owner); err != nil {
		return apperr.Internal("Erreur suppression panier", err)
	}
	return nil
}

// ReassignGuestCart transfère le panier invité à l'utilisateur qui se connecte.
// Si l'utilisateur a déjà un panier, les quantités communes sont additionnées.
func (s *CartService) ReassignGuestCart(ctx context.Context, userID string) (bool, error) {
	moved, err := s.store.Merge(ctx, cache.GuestOwner, userID)
	if err != nil {
		return false, wrapCartErr(err)
	}
	if moved {
		log.Printf("🛒 Panier invité rattaché à %s", userID)
	}
	return moved, nil
}

// Subscribe ouvre le flux de notifications du panier (websocket).
func (s *CartService) Subscribe(ctx context.Context, owner string) *redis.PubSub {
	return s.store.Subscribe(ctx, owner)
}

func findLine(items []models.CartItem, exists bool, productID string) (int, error) {
	if !exists {
		return 0, apperr.NotFound("Panier introuvable")
	}
	for i, it := range items {
		if it.ProductID == productID {
			return i, nil
		}
	}
	return 0, apperr.NotFound("Produit absent du panier")
}

func (s *CartService) view(ctx context.Context, owner string, items []models.CartItem) *models.CartView {
	v := &models.CartView{Owner: owner, Items: make([]models.CartLine, 0, len(items))}
	for _, it := range items {
		line := models.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if id, err := ParseID("product", it.ProductID); err == nil {
			if p, err := s.products.Get(ctx, id); err == nil {
				line.Name = p.Name
				line.Price = p.Price
			} else {
				log.Printf("⚠️ Produit %s du panier %s introuvable: %v", it.ProductID, owner, err)
			}
		}
		line.Subtotal = line.Price * float64(line.Quantity)
		v.Items = append(v.Items, line)
		v.Total += line.Subtotal
		v.Count += line.Quantity
	}
	return v
}
