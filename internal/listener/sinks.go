package listener

import (
	"context"

	"github.com/olyamironova/market-engine/internal/port"
)

// CacheSink keeps the latest book of each product in a port.Cache.
type CacheSink struct {
	Cache port.Cache
}

func (s CacheSink) Name() string { return "cache" }

func (s CacheSink) Handle(ctx context.Context, ev Event) error {
	return s.Cache.SetBook(ctx, &ev.Snapshot)
}

// JournalSink exports trades, placements without trades are skipped.
type JournalSink struct {
	Journal port.TradeJournal
}

func (s JournalSink) Name() string { return "journal" }

func (s JournalSink) Handle(ctx context.Context, ev Event) error {
	if len(ev.Trades) == 0 {
		return nil
	}
	return s.Journal.SaveTrades(ctx, ev.Sequence, ev.Trades)
}

type PublisherSink struct {
	Publisher port.Publisher
}

func (s PublisherSink) Name() string { return "publisher" }

func (s PublisherSink) Handle(ctx context.Context, ev Event) error {
	if len(ev.Trades) == 0 {
		return nil
	}
	return s.Publisher.PublishTrades(ctx, ev.Product.Name, ev.Trades)
}
