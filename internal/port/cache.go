package port

import (
	"context"

	"github.com/olyamironova/market-engine/internal/domain"
)

// Cache keeps the latest snapshot of each product's book for readers that
// should not contend for the market lock.
type Cache interface {
	SetBook(ctx context.Context, snap *domain.BookSnapshot) error
	// GetBook returns ErrNotFound when nothing is cached for product.
	GetBook(ctx context.Context, product string) (*domain.BookSnapshot, error)
	Invalidate(ctx context.Context, product string) error
}
