package core

import "github.com/olyamironova/market-engine/internal/domain"

// TradeBook is the ledger of all trades of a market, newest first.
type TradeBook struct {
	records []domain.Trade
}

func NewTradeBook() *TradeBook {
	return &TradeBook{}
}

// AddRecord inserts t before the first record that is strictly older. New
// trades are normally the newest, so the scan stops at the head.
func (b *TradeBook) AddRecord(t domain.Trade) {
	for i, r := range b.records {
		if r.ExecutedAt.Before(t.ExecutedAt) {
			b.records = append(b.records, domain.Trade{})
			copy(b.records[i+1:], b.records[i:])
			b.records[i] = t
			return
		}
	}
	b.records = append(b.records, t)
}

// AddAllRecords inserts the records one by one, so the input order does not
// matter.
func (b *TradeBook) AddAllRecords(trades []domain.Trade) {
	for _, t := range trades {
		b.AddRecord(t)
	}
}

// AllRecords returns a copy of the records, newest first.
func (b *TradeBook) AllRecords() []domain.Trade {
	return append([]domain.Trade(nil), b.records...)
}

// Records returns up to limit of the newest records for p; limit <= 0 means
// all of them.
func (b *TradeBook) Records(p domain.Product, limit int) []domain.Trade {
	var res []domain.Trade
	for _, r := range b.records {
		if limit > 0 && len(res) == limit {
			break
		}
		if r.Product == p {
			res = append(res, r)
		}
	}
	return res
}

func (b *TradeBook) Len() int {
	return len(b.records)
}

func (b *TradeBook) Copy() *TradeBook {
	return &TradeBook{records: b.AllRecords()}
}

// Equal reports whether both books hold the same records in the same order.
func (b *TradeBook) Equal(other *TradeBook) bool {
	if len(b.records) != len(other.records) {
		return false
	}
	for i := range b.records {
		if !b.records[i].Equal(other.records[i]) {
			return false
		}
	}
	return true
}
