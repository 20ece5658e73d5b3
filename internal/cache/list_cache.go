package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProductsListKey   = "products:all"
	CategoriesListKey = "categories:all"
	ListCacheTTL      = time.Hour
)

// ListCache met en cache des listes sérialisées en JSON. Un receveur nil
// se comporte comme un cache toujours vide.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewListCache(rdb *redis.Client) *ListCache {
	return &ListCache{rdb: rdb, ttl: ListCacheTTL}
}

// Load décode la valeur en cache dans dst et indique si elle existait.
func (c *ListCache) Load(ctx context.Context, key string, dst interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("⚠️ Cache %s illisible: %v", key, err)
		return false
	}
	return true
}

func (c *ListCache) Store(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("⚠️ Sérialisation cache %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("⚠️ Écriture cache %s: %v", key, err)
	}
}

func (c *ListCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ Invalidation cache %v: %v", keys, err)
	} else {
		log.Printf("🧹 Cache invalidé: %v", keys)
	}
}
