package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookSnapshot is a point-in-time copy of one product's queues and recent
// trades. It shares nothing with the live market.
type BookSnapshot struct {
	Product   Product         `json:"product"`
	Bids      []OrderState    `json:"bids"`
	Asks      []OrderState    `json:"asks"`
	Trades    []TradeState    `json:"trades"`
	LastPrice decimal.Decimal `json:"last_price"`
	Sequence  uint64          `json:"sequence"`
	Timestamp time.Time       `json:"timestamp"`
}

// TradeState is the reporting form of a Trade, with accounts by name.
type TradeState struct {
	ID         string          `json:"id"`
	Product    Product         `json:"product"`
	Buyer      string          `json:"buyer"`
	Seller     string          `json:"seller"`
	BuyOrder   string          `json:"buy_order"`
	SellOrder  string          `json:"sell_order"`
	Price      decimal.Decimal `json:"price"`
	Amount     int64           `json:"amount"`
	ExecutedAt time.Time       `json:"executed_at"`
}

func (t Trade) State() TradeState {
	return TradeState{
		ID:         t.ID,
		Product:    t.Product,
		Buyer:      accountName(t.Buyer),
		Seller:     accountName(t.Seller),
		BuyOrder:   t.BuyOrder,
		SellOrder:  t.SellOrder,
		Price:      t.Price,
		Amount:     t.Amount,
		ExecutedAt: t.ExecutedAt,
	}
}

func TradeStates(trades []Trade) []TradeState {
	res := make([]TradeState, len(trades))
	for i, t := range trades {
		res[i] = t.State()
	}
	return res
}

func (s *BookSnapshot) DeepCopy() *BookSnapshot {
	cp := *s
	cp.Bids = append([]OrderState(nil), s.Bids...)
	cp.Asks = append([]OrderState(nil), s.Asks...)
	cp.Trades = append([]TradeState(nil), s.Trades...)
	return &cp
}

// BestBid returns the highest resting buy price.
func (s *BookSnapshot) BestBid() (decimal.Decimal, bool) {
	if len(s.Bids) == 0 {
		return decimal.Zero, false
	}
	return s.Bids[0].Price, true
}

// BestAsk returns the lowest resting sell price.
func (s *BookSnapshot) BestAsk() (decimal.Decimal, bool) {
	if len(s.Asks) == 0 {
		return decimal.Zero, false
	}
	return s.Asks[0].Price, true
}
