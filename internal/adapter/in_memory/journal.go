package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/olyamironova/market-engine/internal/port"
)

// Journal keeps exported trades in memory, oldest first. It stands in for
// the Postgres journal when no database is configured.
type Journal struct {
	mu     sync.Mutex
	trades []domain.TradeState
	seen   map[string]struct{}
	last   uint64
}

var (
	_ port.TradeJournal = (*Journal)(nil)
	_ port.Publisher    = (*Publisher)(nil)
)

func NewJournal() *Journal {
	return &Journal{seen: make(map[string]struct{})}
}

// SaveTrades ignores trades it already holds, like ON CONFLICT DO NOTHING.
func (j *Journal) SaveTrades(ctx context.Context, seq uint64, trades []domain.TradeState) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, t := range trades {
		if _, ok := j.seen[t.ID]; ok {
			continue
		}
		j.seen[t.ID] = struct{}{}
		j.trades = append(j.trades, t)
	}
	j.last = max(j.last, seq)
	return nil
}

func (j *Journal) Trades() []domain.TradeState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.TradeState(nil), j.trades...)
}

// LastSequence is the highest placement sequence saved so far.
func (j *Journal) LastSequence() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Publisher records published batches per product.
type Publisher struct {
	mu      sync.Mutex
	batches map[string][][]domain.TradeState
}

func NewPublisher() *Publisher {
	return &Publisher{batches: make(map[string][][]domain.TradeState)}
}

func (p *Publisher) PublishTrades(ctx context.Context, product string, trades []domain.TradeState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches[product] = append(p.batches[product], append([]domain.TradeState(nil), trades...))
	return nil
}

func (p *Publisher) Batches(product string) [][]domain.TradeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]domain.TradeState(nil), p.batches[product]...)
}
