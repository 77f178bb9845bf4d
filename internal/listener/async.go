package listener

import (
	"context"
	"sync/atomic"

	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/domain"
	"go.uber.org/zap"
)

const DefaultBuffer = 1024

// Event is what a Sink receives for one placement: a copy of the product's
// book taken at notification time plus the trades the placement produced.
type Event struct {
	Sequence uint64
	Product  domain.Product
	Snapshot domain.BookSnapshot
	Trades   []domain.TradeState
}

// Sink consumes events outside the market lock. Handle may block on I/O.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
}

// Async is a TradeListener that copies each update into an Event and hands
// it to its sinks from a separate goroutine, see Run. When the buffer is
// full the event is dropped rather than stalling the market.
type Async struct {
	sinks   []Sink
	events  chan Event
	dropped atomic.Uint64
	logger  *zap.Logger
}

var _ core.TradeListener = (*Async)(nil)

func NewAsync(buffer int, logger *zap.Logger, sinks ...Sink) *Async {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Async{
		sinks:  sinks,
		events: make(chan Event, buffer),
		logger: logger,
	}
}

func (a *Async) OnMarketUpdate(view core.MarketView, update core.MarketUpdate) {
	snap, _ := view.Snapshot(update.Product)
	ev := Event{
		Sequence: update.Sequence,
		Product:  update.Product,
		Snapshot: snap,
		Trades:   domain.TradeStates(update.Trades),
	}
	select {
	case a.events <- ev:
	default:
		a.dropped.Add(1)
		a.logger.Warn("listener buffer full, event dropped",
			zap.Uint64("seq", update.Sequence),
			zap.String("product", update.Product.Name))
	}
}

// Dropped counts events lost to a full buffer.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Run delivers events until ctx is done, then flushes what is already
// buffered and returns.
func (a *Async) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.flush(context.WithoutCancel(ctx))
			return
		case ev := <-a.events:
			a.dispatch(ctx, ev)
		}
	}
}

func (a *Async) flush(ctx context.Context) {
	for {
		select {
		case ev := <-a.events:
			a.dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (a *Async) dispatch(ctx context.Context, ev Event) {
	for _, s := range a.sinks {
		if err := s.Handle(ctx, ev); err != nil {
			a.logger.Warn("sink failed",
				zap.String("sink", s.Name()),
				zap.Uint64("seq", ev.Sequence),
				zap.Error(err))
		}
	}
}
