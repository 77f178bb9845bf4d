package core

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultSnapshotTrades = 50

var ErrDuplicateAccount = errors.New("account already registered")

// Manager runs one market: it validates and matches orders for the listed
// products, keeps the trade book and account positions in step with the
// queues, and notifies trade listeners. PlaceOrder and CancelOrder are
// serialized by a single lock.
type Manager struct {
	mu sync.Mutex

	products   []domain.Product
	listed     map[domain.Product]struct{}
	buyQueues  map[domain.Product]*PriceTimeQueue
	sellQueues map[domain.Product]*PriceTimeQueue
	book       *TradeBook
	listeners  []TradeListener

	orders    map[string]*domain.Order
	accounts  map[string]*domain.Account
	lastPrice map[domain.Product]decimal.Decimal

	seq         uint64
	lastTradeAt time.Time
	clock       func() time.Time

	snapshotTrades int
	logger         *zap.Logger
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock replaces time.Now as the source of trade timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithSnapshotTrades sets how many recent trades a BookSnapshot carries.
func WithSnapshotTrades(n int) Option {
	return func(m *Manager) { m.snapshotTrades = n }
}

func WithListeners(ls ...TradeListener) Option {
	return func(m *Manager) { m.listeners = append(m.listeners, ls...) }
}

// WithAccounts pre-registers accounts, see RegisterAccount.
func WithAccounts(accounts ...*domain.Account) Option {
	return func(m *Manager) {
		for _, a := range accounts {
			m.accounts[a.Name()] = a
		}
	}
}

// NewManager creates a market on which the given products can be traded.
// Duplicate products are listed once.
func NewManager(products []domain.Product, opts ...Option) *Manager {
	m := &Manager{
		listed:         make(map[domain.Product]struct{}, len(products)),
		buyQueues:      make(map[domain.Product]*PriceTimeQueue, len(products)),
		sellQueues:     make(map[domain.Product]*PriceTimeQueue, len(products)),
		book:           NewTradeBook(),
		orders:         make(map[string]*domain.Order),
		accounts:       make(map[string]*domain.Account),
		lastPrice:      make(map[domain.Product]decimal.Decimal),
		clock:          time.Now,
		snapshotTrades: defaultSnapshotTrades,
		logger:         zap.NewNop(),
	}
	for _, p := range products {
		if _, ok := m.listed[p]; ok {
			continue
		}
		m.listed[p] = struct{}{}
		m.products = append(m.products, p)
		m.buyQueues[p] = NewPriceTimeQueue(domain.Buy)
		m.sellQueues[p] = NewPriceTimeQueue(domain.Sell)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PlaceOrder validates o, matches it against the opposite side of its
// product and rests whatever is left. It returns the trades produced by this
// call. A rejected order gets an *domain.IllegalTradeError and leaves the
// market, the order and all accounts untouched.
func (m *Manager) PlaceOrder(ctx context.Context, o *domain.Order) ([]domain.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.IllegalTrade("order is missing")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validate(o); err != nil {
		m.logger.Debug("order rejected",
			zap.String("order_id", o.ID()),
			zap.String("product", o.Product().Name),
			zap.Error(err))
		return nil, err
	}

	m.seq++
	m.orders[o.ID()] = o
	own, opposing := m.queuesFor(o)

	trades := MatchOrder(o, opposing, m.nextTradeTime)
	if o.Status() != domain.StatusCompleted {
		own.Add(o)
	}

	m.book.AddAllRecords(trades)
	for _, t := range trades {
		t.Buyer.UpdatePosition(t.Product, t.Amount)
		t.Seller.UpdatePosition(t.Product, -t.Amount)
		m.lastPrice[t.Product] = t.Price
	}

	m.logger.Debug("order placed",
		zap.Uint64("seq", m.seq),
		zap.String("order_id", o.ID()),
		zap.String("product", o.Product().Name),
		zap.String("side", string(o.Side())),
		zap.String("price", o.Price().String()),
		zap.Int64("amount", o.Amount()),
		zap.Int("trades", len(trades)))

	m.notify(MarketUpdate{
		Sequence: m.seq,
		Product:  o.Product(),
		Order:    o,
		Trades:   append([]domain.Trade(nil), trades...),
	})
	return trades, nil
}

// validate runs every business check before anything is mutated.
func (m *Manager) validate(o *domain.Order) error {
	if o.Amount() <= 0 {
		return domain.IllegalTrade("the order should have a positive amount of units (had %d)", o.Amount())
	}
	if o.Account() == nil {
		return domain.IllegalTrade("the order should be from a valid account (account was missing)")
	}
	if !o.Price().IsPositive() {
		return domain.IllegalTrade("the order should have a positive price (had %s)", o.Price())
	}
	if !o.Side().Valid() {
		return domain.IllegalTrade("unknown order side %q", o.Side())
	}
	if _, ok := m.listed[o.Product()]; !ok {
		return domain.IllegalTrade("the product is not listed on this market (was %s)", o.Product())
	}
	if _, seen := m.orders[o.ID()]; seen || o.Status() != domain.StatusNew {
		return domain.IllegalTrade("order %s was already placed or cancelled (status %s)", o.ID(), o.Status())
	}
	if o.Side() == domain.Sell {
		if has := o.Account().Position(o.Product()); has < o.Amount() {
			return domain.IllegalTrade("the account does not have enough of the product it is trying to sell (has: %d, wants: %d)", has, o.Amount())
		}
	}
	return nil
}

// CancelOrder marks o cancelled and takes it off its queue. It reports
// whether the order was resting; false means it had already matched out,
// was never placed, or belongs to a product this market does not list.
func (m *Manager) CancelOrder(ctx context.Context, o *domain.Order) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if o == nil {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listed[o.Product()]; !ok {
		return false, nil
	}
	own, _ := m.queuesFor(o)
	o.Cancel()
	removed := own.Remove(o)
	m.logger.Debug("order cancelled",
		zap.String("order_id", o.ID()),
		zap.Bool("removed", removed))
	return removed, nil
}

// CancelOrderByID cancels an order previously placed on this market.
func (m *Manager) CancelOrderByID(ctx context.Context, id string) (bool, error) {
	o, ok := m.Order(id)
	if !ok {
		return false, nil
	}
	return m.CancelOrder(ctx, o)
}

// AddTradeListener registers l. Listeners are notified in registration
// order.
func (m *Manager) AddTradeListener(l TradeListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// RemoveTradeListener unregisters the first registration of l and reports
// whether one was found.
func (m *Manager) RemoveTradeListener(l TradeListener) bool {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.listeners {
		if x == l {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager) notify(update MarketUpdate) {
	view := lockedView{m}
	for _, l := range m.listeners {
		m.deliver(l, view, update)
	}
}

func (m *Manager) deliver(l TradeListener, view MarketView, update MarketUpdate) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("trade listener panicked",
				zap.Uint64("seq", update.Sequence),
				zap.Any("panic", r))
		}
	}()
	l.OnMarketUpdate(view, update)
}

// RegisterAccount makes a lookup by name possible for outer surfaces that
// only carry account names.
func (m *Manager) RegisterAccount(a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.Name()]; ok {
		return ErrDuplicateAccount
	}
	m.accounts[a.Name()] = a
	return nil
}

func (m *Manager) Account(name string) (*domain.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[name]
	return a, ok
}

// Order returns an order that was successfully placed on this market.
func (m *Manager) Order(id string) (*domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

// Products returns a copy of the listed products.
func (m *Manager) Products() []domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.productsLocked()
}

// Book returns a copy of the trade book.
func (m *Manager) Book() *TradeBook {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.Copy()
}

// Trades returns up to limit of the newest trades across all products.
func (m *Manager) Trades(limit int) []domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.book.AllRecords()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// BuyQueue returns the live buy queue of p, nil when p is not listed.
func (m *Manager) BuyQueue(p domain.Product) *PriceTimeQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buyQueues[p]
}

// SellQueue returns the live sell queue of p, nil when p is not listed.
func (m *Manager) SellQueue(p domain.Product) *PriceTimeQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sellQueues[p]
}

// Snapshot copies the queues and recent trades of p.
func (m *Manager) Snapshot(p domain.Product) (domain.BookSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(p)
}

// Sequence is the number of orders placed so far.
func (m *Manager) Sequence() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

func (m *Manager) productsLocked() []domain.Product {
	return append([]domain.Product(nil), m.products...)
}

func (m *Manager) snapshotLocked(p domain.Product) (domain.BookSnapshot, bool) {
	if _, ok := m.listed[p]; !ok {
		return domain.BookSnapshot{}, false
	}
	return domain.BookSnapshot{
		Product:   p,
		Bids:      m.buyQueues[p].states(0),
		Asks:      m.sellQueues[p].states(0),
		Trades:    domain.TradeStates(m.book.Records(p, m.snapshotTrades)),
		LastPrice: m.lastPrice[p],
		Sequence:  m.seq,
		Timestamp: m.clock(),
	}, true
}

func (m *Manager) queuesFor(o *domain.Order) (own, opposing *PriceTimeQueue) {
	p := o.Product()
	if o.Side() == domain.Buy {
		return m.buyQueues[p], m.sellQueues[p]
	}
	return m.sellQueues[p], m.buyQueues[p]
}

// nextTradeTime keeps trade timestamps strictly increasing even when the
// clock does not advance between two matches.
func (m *Manager) nextTradeTime() time.Time {
	t := m.clock()
	if !t.After(m.lastTradeAt) {
		t = m.lastTradeAt.Add(time.Nanosecond)
	}
	m.lastTradeAt = t
	return t
}

// lockedView serves listeners while the manager lock is held.
type lockedView struct {
	m *Manager
}

func (v lockedView) Products() []domain.Product {
	return v.m.productsLocked()
}

func (v lockedView) Book() *TradeBook {
	return v.m.book.Copy()
}

func (v lockedView) Sequence() uint64 {
	return v.m.seq
}

func (v lockedView) BuyQueue(p domain.Product) *PriceTimeQueue {
	return v.m.buyQueues[p]
}

func (v lockedView) SellQueue(p domain.Product) *PriceTimeQueue {
	return v.m.sellQueues[p]
}

func (v lockedView) Snapshot(p domain.Product) (domain.BookSnapshot, bool) {
	return v.m.snapshotLocked(p)
}
