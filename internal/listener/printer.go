package listener

import (
	"fmt"

	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/domain"
	"go.uber.org/zap"
)

// BookPrinter logs the buy queue, sell queue and recent trades of the
// product that was just traded. It is meant for development and demos.
type BookPrinter struct {
	logger *zap.Logger
	trades int
}

var _ core.TradeListener = (*BookPrinter)(nil)

// NewBookPrinter logs at most trades book records per update, all of them
// when trades <= 0.
func NewBookPrinter(logger *zap.Logger, trades int) *BookPrinter {
	return &BookPrinter{logger: logger, trades: trades}
}

func (p *BookPrinter) OnMarketUpdate(view core.MarketView, update core.MarketUpdate) {
	product := update.Product
	p.logger.Info("market updated",
		zap.Uint64("seq", update.Sequence),
		zap.String("product", product.Name),
		zap.Strings("buy_queue", orderLines(view.BuyQueue(product))),
		zap.Strings("sell_queue", orderLines(view.SellQueue(product))),
		zap.Strings("book", stringLines(view.Book().Records(product, p.trades))))
}

func orderLines(q *core.PriceTimeQueue) []string {
	if q == nil {
		return nil
	}
	var lines []string
	q.Ascend(func(o *domain.Order) bool {
		lines = append(lines, o.String())
		return true
	})
	return lines
}

func stringLines[T fmt.Stringer](xs []T) []string {
	lines := make([]string, len(xs))
	for i, x := range xs {
		lines[i] = x.String()
	}
	return lines
}
