package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/olyamironova/market-engine/internal/port"
	"github.com/redis/go-redis/v9"
)

var _ port.Cache = (*RedisCache)(nil)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisCacheWithClient(rdb, ttl)
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func key(product string) string { return "book:" + product }

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SetBook stores snap unless a snapshot with a higher sequence is already
// cached, so late writers cannot roll the cache back.
func (c *RedisCache) SetBook(ctx context.Context, snap *domain.BookSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", snap.Product, err)
	}
	k := key(snap.Product.Name)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var prev struct {
				Sequence uint64 `json:"sequence"`
			}
			if json.Unmarshal(cur, &prev) == nil && prev.Sequence > snap.Sequence {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, b, c.ttl)
			return nil
		})
		return err
	}, k)
	if err != nil {
		return fmt.Errorf("cache: set %s: %w", snap.Product, err)
	}
	return nil
}

func (c *RedisCache) GetBook(ctx context.Context, product string) (*domain.BookSnapshot, error) {
	b, err := c.client.Get(ctx, key(product)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", product, err)
	}
	var snap domain.BookSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("cache: decode %s: %w", product, err)
	}
	return &snap, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, product string) error {
	return c.client.Del(ctx, key(product)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
