package core

import (
	"context"
	"testing"
	"time"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// TestMarketInvariants places random order flow and checks after every step
// that the book is uncrossed, that units are conserved and that every order
// agrees with the trades recorded for it.
func TestMarketInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		names := []string{"A", "B", "C"}
		var accounts []*domain.Account
		const opening = 1000
		for _, n := range names {
			accounts = append(accounts, domain.NewAccount(n, map[domain.Product]int64{xyz: opening}))
		}
		m := NewManager([]domain.Product{xyz}, WithAccounts(accounts...))

		var placed []*domain.Order
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(placed) > 0 && rapid.IntRange(0, 9).Draw(t, "cancel") == 0 {
				target := rapid.SampledFrom(placed).Draw(t, "target")
				if _, err := m.CancelOrder(ctx, target); err != nil {
					t.Fatalf("cancel: %v", err)
				}
				continue
			}
			acct := rapid.SampledFrom(accounts).Draw(t, "account")
			side := rapid.SampledFrom([]domain.Side{domain.Buy, domain.Sell}).Draw(t, "side")
			ticks := rapid.IntRange(90, 110).Draw(t, "price")
			amount := rapid.Int64Range(1, 50).Draw(t, "amount")
			o := domain.NewOrder(xyz, decimal.New(int64(ticks), 0), amount, acct, side, base.Add(time.Duration(i)*time.Millisecond))

			trades, err := m.PlaceOrder(ctx, o)
			if err != nil {
				if side == domain.Sell && acct.Position(xyz) < amount {
					continue
				}
				t.Fatalf("unexpected rejection: %v", err)
			}
			placed = append(placed, o)
			for _, tr := range trades {
				if tr.Amount <= 0 {
					t.Fatalf("trade with non-positive amount: %s", tr)
				}
			}
			checkInvariants(t, m, accounts, placed, opening*int64(len(accounts)))
		}
	})
}

func checkInvariants(t *rapid.T, m *Manager, accounts []*domain.Account, placed []*domain.Order, total int64) {
	bid, hasBid := m.BuyQueue(xyz).First()
	ask, hasAsk := m.SellQueue(xyz).First()
	if hasBid && hasAsk && bid.Price().GreaterThanOrEqual(ask.Price()) {
		t.Fatalf("crossed book: bid %s >= ask %s", bid.Price(), ask.Price())
	}

	var sum int64
	for _, a := range accounts {
		sum += a.Position(xyz)
	}
	if sum != total {
		t.Fatalf("units not conserved: %d != %d", sum, total)
	}

	filled := make(map[string]int64)
	records := m.Book().AllRecords()
	for i, tr := range records {
		filled[tr.BuyOrder] += tr.Amount
		filled[tr.SellOrder] += tr.Amount
		if i > 0 && !records[i-1].ExecutedAt.After(tr.ExecutedAt) {
			t.Fatalf("trade book not strictly newest first at %d", i)
		}
	}
	for _, o := range placed {
		if got := o.Amount() - o.Remaining(); got != filled[o.ID()] {
			t.Fatalf("order %s: executed %d, trades say %d", o.ID(), got, filled[o.ID()])
		}
		queued := m.BuyQueue(xyz).Contains(o) || m.SellQueue(xyz).Contains(o)
		wantQueued := !o.Status().Terminal()
		if queued != wantQueued {
			t.Fatalf("order %s status %s queued=%v", o.ID(), o.Status(), queued)
		}
	}
}
