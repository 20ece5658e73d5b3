package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	CartTTL = 30 * 24 * time.Hour // 30 jours

	// GuestOwner est le propriétaire du panier invité partagé.
	GuestOwner = "guest"

	CartEventUpdated = "updated"
	CartEventCleared = "cleared"

	cartMaxRetries = 10
)

// ErrCartContention signale qu'une transaction optimiste n'a pas abouti après les tentatives.
var ErrCartContention = errors.New("panier modifié en concurrence")

// CartKey est aussi le canal pub/sub des notifications du panier.
func CartKey(owner string) string {
	return "cart:" + owner
}

// CartMutation reçoit les lignes actuelles (exists=false si pas de panier) et
// retourne les nouvelles lignes. Une liste vide supprime le panier.
type CartMutation func(items []models.CartItem, exists bool) ([]models.CartItem, error)

// CartStore conserve un document JSON par propriétaire dans Redis.
type CartStore struct {
	rdb *redis.Client
}

func NewCartStore(rdb *redis.Client) *CartStore {
	return &CartStore{rdb: rdb}
}

func decodeCart(data string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("décodage panier: %w", err)
	}
	return items, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readCart(ctx context.Context, getter stringGetter, key string) ([]models.CartItem, bool, error) {
	data, err := getter.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	items, err := decodeCart(data)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// Get renvoie apperr.ErrNotFound quand le propriétaire n'a pas de panier.
func (s *CartStore) Get(ctx context.Context, owner string) ([]models.CartItem, error) {
	items, exists, err := readCart(ctx, s.rdb, CartKey(owner))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.ErrNotFound
	}
	return items, nil
}

// Update applique fn dans une transaction WATCH/MULTI, rejouée si la clé change entre-temps.
func (s *CartStore) Update(ctx context.Context, owner string, fn CartMutation) ([]models.CartItem, error) {
	key := CartKey(owner)
	var result []models.CartItem

	txf := func(tx *redis.Tx) error {
		items, exists, err := readCart(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(items, exists)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return writeCart(ctx, pipe, owner, next)
		})
		if err == nil {
			result = next
		}
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return result, nil
}

// Clear supprime le panier et notifie les abonnés.
func (s *CartStore) Clear(ctx context.Context, owner string) error {
	key := CartKey(owner)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Publish(ctx, key, CartEventCleared)
	_, err := pipe.Exec(ctx)
	return err
}

// Merge déplace le panier de from vers to. Si to possède déjà un panier, les
// quantités des produits communs sont additionnées et les autres lignes
// ajoutées dans l'ordre de from. Le panier from est supprimé dans la même transaction.
func (s *CartStore) Merge(ctx context.Context, from, to string) (bool, error) {
	fromKey, toKey := CartKey(from), CartKey(to)
	moved := false

	txf := func(tx *redis.Tx) error {
		source, exists, err := readCart(ctx, tx, fromKey)
		if err != nil || !exists {
			return err
		}
		target, _, err := readCart(ctx, tx, toKey)
		if err != nil {
			return err
		}
		merged := MergeItems(target, source)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, fromKey)
			pipe.Publish(ctx, fromKey, CartEventCleared)
			return writeCart(ctx, pipe, to, merged)
		})
		if err == nil {
			moved = true
		}
		return err
	}

	if err := s.watch(ctx, txf, fromKey, toKey); err != nil {
		return false, err
	}
	return moved, nil
}

// Subscribe ouvre l'abonnement aux notifications du panier.
func (s *CartStore) Subscribe(ctx context.Context, owner string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, CartKey(owner))
}

func (s *CartStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < cartMaxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		log.Printf("🔁 Conflit panier %v, nouvelle tentative (%d)", keys, i+1)
	}
	return ErrCartContention
}

func writeCart(ctx context.Context, pipe redis.Pipeliner, owner string, items []models.CartItem) error {
	key := CartKey(owner)
	if len(items) == 0 {
		pipe.Del(ctx, key)
		pipe.Publish(ctx, key, CartEventCleared)
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	pipe.Set(ctx, key, payload, CartTTL)
	pipe.Publish(ctx, key, CartEventUpdated)
	return nil
}

// MergeItems additionne les quantités de src dans dst, sans dupliquer de produit.
func MergeItems(dst, src []models.CartItem) []models.CartItem {
	out := append([]models.CartItem(nil), dst...)
	for _, item := range src {
		found := false
		for i := range out {
			if out[i].ProductID == item.ProductID {
				out[i].Quantity += item.Quantity
				found = true
				break
			}
		}
		if !found {
			out = append(out, item)
		}
	}
	return out
}
