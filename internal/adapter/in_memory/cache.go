package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/olyamironova/market-engine/internal/port"
)

type Cache struct {
	mu    sync.Mutex
	store map[string]*domain.BookSnapshot
}

var _ port.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{store: make(map[string]*domain.BookSnapshot)}
}

func (c *Cache) SetBook(ctx context.Context, snap *domain.BookSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[snap.Product.Name] = snap.DeepCopy()
	return nil
}

func (c *Cache) GetBook(ctx context.Context, product string) (*domain.BookSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.store[product]
	if !ok {
		return nil, port.ErrNotFound
	}
	return snap.DeepCopy(), nil
}

func (c *Cache) Invalidate(ctx context.Context, product string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, product)
	return nil
}
