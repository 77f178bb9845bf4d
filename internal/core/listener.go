package core

import "github.com/olyamironova/market-engine/internal/domain"

// MarketView is the read access a listener gets to the market it observes.
type MarketView interface {
	Products() []domain.Product
	Book() *TradeBook
	BuyQueue(p domain.Product) *PriceTimeQueue
	SellQueue(p domain.Product) *PriceTimeQueue
	Snapshot(p domain.Product) (domain.BookSnapshot, bool)
	Sequence() uint64
}

// MarketUpdate describes the placement that triggered a notification.
type MarketUpdate struct {
	Sequence uint64
	Product  domain.Product
	Order    *domain.Order
	Trades   []domain.Trade
}

// TradeListener receives one notification per successful PlaceOrder, after
// the book and positions reflect it. The callback runs while the market is
// locked: it must return quickly and must not place or cancel orders.
type TradeListener interface {
	OnMarketUpdate(view MarketView, update MarketUpdate)
}

// ListenerFunc adapts a function to TradeListener. Function listeners cannot
// be removed again since functions are not comparable.
type ListenerFunc func(view MarketView, update MarketUpdate)

func (f ListenerFunc) OnMarketUpdate(view MarketView, update MarketUpdate) {
	f(view, update)
}
