package port

import (
	"context"
	"errors"

	"github.com/olyamironova/market-engine/internal/domain"
)

var ErrNotFound = errors.New("not found")

// TradeJournal is an append-only export of executed trades. The market never
// reads it back.
type TradeJournal interface {
	SaveTrades(ctx context.Context, seq uint64, trades []domain.TradeState) error
}

// Publisher pushes executed trades to subscribers outside the process.
type Publisher interface {
	PublishTrades(ctx context.Context, product string, trades []domain.TradeState) error
}
