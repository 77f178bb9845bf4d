package domain

import "sync"

// Account is a named ledger of per-product positions. Positions are signed:
// a trade can leave an account net short, the sell guard only stops an
// account from offering more than it currently holds.
type Account struct {
	name string

	mu        sync.RWMutex
	positions map[Product]int64
}

// NewAccount creates an account with the given opening holdings. The map is
// copied.
func NewAccount(name string, holdings map[Product]int64) *Account {
	a := &Account{
		name:      name,
		positions: make(map[Product]int64, len(holdings)),
	}
	for p, qty := range holdings {
		a.positions[p] = qty
	}
	return a
}

func (a *Account) Name() string {
	return a.name
}

// Position returns the current holding of p, zero when the account never
// held it.
func (a *Account) Position(p Product) int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.positions[p]
}

// Positions returns a copy of all positions.
func (a *Account) Positions() map[Product]int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	res := make(map[Product]int64, len(a.positions))
	for p, qty := range a.positions {
		res[p] = qty
	}
	return res
}

// UpdatePosition adds delta to the position in p. Only the market manager
// calls it, once per side of every trade.
func (a *Account) UpdatePosition(p Product, delta int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.positions[p] += delta
}

func (a *Account) String() string {
	return a.name
}
