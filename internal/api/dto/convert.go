package dto

import (
	"fmt"

	"github.com/olyamironova/market-engine/internal/domain"
)

func FromOrderState(o domain.OrderState) Order {
	return Order{
		ID:        o.ID,
		Account:   o.Account,
		Product:   o.Product.Name,
		Side:      Side(o.Side),
		Price:     o.Price,
		Amount:    o.Amount,
		Remaining: o.Remaining,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func FromOrderStates(orders []domain.OrderState) []Order {
	res := make([]Order, len(orders))
	for i, o := range orders {
		res[i] = FromOrderState(o)
	}
	return res
}

func FromTradeState(t domain.TradeState) Trade {
	return Trade{
		ID:         t.ID,
		Product:    t.Product.Name,
		Buyer:      t.Buyer,
		Seller:     t.Seller,
		BuyOrder:   t.BuyOrder,
		SellOrder:  t.SellOrder,
		Price:      t.Price,
		Amount:     t.Amount,
		ExecutedAt: t.ExecutedAt,
	}
}

func FromTrades(trades []domain.Trade) []Trade {
	res := make([]Trade, len(trades))
	for i, t := range trades {
		res[i] = FromTradeState(t.State())
	}
	return res
}

func FromTradeStates(trades []domain.TradeState) []Trade {
	res := make([]Trade, len(trades))
	for i, t := range trades {
		res[i] = FromTradeState(t)
	}
	return res
}

func FromSnapshot(s *domain.BookSnapshot) GetBookResponse {
	return GetBookResponse{
		Product:   s.Product.Name,
		Bids:      FromOrderStates(s.Bids),
		Asks:      FromOrderStates(s.Asks),
		Trades:    FromTradeStates(s.Trades),
		LastPrice: s.LastPrice,
		Sequence:  s.Sequence,
		Timestamp: s.Timestamp,
	}
}

func FromAccount(a *domain.Account) GetAccountResponse {
	positions := make(map[string]int64)
	for p, n := range a.Positions() {
		positions[p.Name] = n
	}
	return GetAccountResponse{Name: a.Name(), Positions: positions}
}

// ToSide parses a wire side, case sensitive.
func ToSide(s Side) (domain.Side, error) {
	switch s {
	case Buy:
		return domain.Buy, nil
	case Sell:
		return domain.Sell, nil
	}
	return "", fmt.Errorf("invalid side: %s", s)
}
