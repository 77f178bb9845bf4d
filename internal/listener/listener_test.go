package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var xyz = domain.NewProduct("XYZ")

type market struct {
	*core.Manager
	alice, bob *domain.Account
}

func newMarket(t *testing.T, listeners ...core.TradeListener) *market {
	t.Helper()
	alice := domain.NewAccount("Alice", nil)
	bob := domain.NewAccount("Bob", map[domain.Product]int64{xyz: 100})
	m := core.NewManager([]domain.Product{xyz},
		core.WithAccounts(alice, bob),
		core.WithListeners(listeners...))
	return &market{Manager: m, alice: alice, bob: bob}
}

func (m *market) place(t *testing.T, acct *domain.Account, side domain.Side, price string, amount int64) *domain.Order {
	t.Helper()
	o := domain.NewOrder(xyz, decimal.RequireFromString(price), amount, acct, side, time.Now())
	_, err := m.PlaceOrder(context.Background(), o)
	require.NoError(t, err)
	return o
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Handle(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

var errSink = errors.New("sink down")
