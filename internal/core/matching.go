package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// MatchOrder matches incoming against the opposing queue using price-time
// priority and returns the trades in execution order. Matched resting
// orders that complete are removed from the queue; incoming itself is never
// queued here, resting any remainder is up to the caller.
//
// Each trade executes at the midpoint of the two limit prices and is stamped
// with now().
func MatchOrder(incoming *domain.Order, opposing *PriceTimeQueue, now func() time.Time) []domain.Trade {
	if incoming.Side() == opposing.Side() {
		panic(fmt.Sprintf("match: %s order %s against a %s queue", incoming.Side(), incoming.ID(), opposing.Side()))
	}

	var trades []domain.Trade
	for !opposing.Empty() {
		top, _ := opposing.First()
		if !crosses(incoming, top) {
			break
		}

		qty := min(incoming.Remaining(), top.Remaining())
		top.Execute(qty)
		incoming.Execute(qty)

		buy, sell := incoming, top
		if incoming.Side() == domain.Sell {
			buy, sell = top, incoming
		}
		trades = append(trades, domain.Trade{
			ID:         uuid.NewString(),
			Product:    incoming.Product(),
			Buyer:      buy.Account(),
			Seller:     sell.Account(),
			BuyOrder:   buy.ID(),
			SellOrder:  sell.ID(),
			Price:      incoming.Price().Add(top.Price()).Div(two),
			Amount:     qty,
			ExecutedAt: now(),
		})

		if top.Status() != domain.StatusCompleted {
			// incoming ran out first; top keeps its place at the head
			break
		}
		opposing.PollFirst()
		if incoming.Status() == domain.StatusCompleted {
			break
		}
	}
	return trades
}

// crosses reports whether the resting order's price is acceptable to the
// incoming one.
func crosses(incoming, resting *domain.Order) bool {
	if incoming.Side() == domain.Buy {
		return resting.Price().LessThanOrEqual(incoming.Price())
	}
	return resting.Price().GreaterThanOrEqual(incoming.Price())
}
