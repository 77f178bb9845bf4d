package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side string
type OrderStatus string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"

	StatusNew       OrderStatus = "NEW"
	StatusPartial   OrderStatus = "PARTIAL"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is a limit order to buy or sell Amount units of Product at Price.
// Identity, price, amount, side, owner and creation time never change; the
// remaining amount and status are mutated by the matching engine after the
// order is placed, and may be read concurrently by the submitting agent.
type Order struct {
	id        string
	product   Product
	price     decimal.Decimal
	amount    int64
	account   *Account
	side      Side
	createdAt time.Time

	mu        sync.RWMutex
	remaining int64
	status    OrderStatus
}

func NewOrder(product Product, price decimal.Decimal, amount int64, account *Account, side Side, at time.Time) *Order {
	return &Order{
		id:        uuid.NewString(),
		product:   product,
		price:     price,
		amount:    amount,
		account:   account,
		side:      side,
		createdAt: at,
		remaining: amount,
		status:    StatusNew,
	}
}

func (o *Order) ID() string { return o.id }
func (o *Order) Product() Product { return o.product }
func (o *Order) Price() decimal.Decimal { return o.price }
func (o *Order) Amount() int64 { return o.amount }
func (o *Order) Account() *Account { return o.account }
func (o *Order) Side() Side { return o.side }
func (o *Order) CreatedAt() time.Time { return o.createdAt }

func (o *Order) Remaining() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.remaining
}

func (o *Order) Status() OrderStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// Execute trades amount units of the order. Calling it with a non-positive
// amount, with more than the remaining amount, or on a cancelled order is a
// bug in the caller and panics.
func (o *Order) Execute(amount int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if amount <= 0 {
		panic(fmt.Sprintf("order %s: traded amount must be positive (was %d)", o.id, amount))
	}
	if amount > o.remaining {
		panic(fmt.Sprintf("order %s: traded amount %d exceeds remaining %d", o.id, amount, o.remaining))
	}
	if o.status == StatusCancelled {
		panic(fmt.Sprintf("order %s: cannot trade a cancelled order", o.id))
	}
	o.remaining -= amount
	if o.remaining == 0 {
		o.status = StatusCompleted
	} else {
		o.status = StatusPartial
	}
}

// Cancel moves a NEW or PARTIAL order to CANCELLED and reports whether the
// status changed. The remaining amount is kept as is. Placed orders must be
// cancelled through the market so they also leave their queue.
func (o *Order) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.Terminal() {
		return false
	}
	o.status = StatusCancelled
	return true
}

// State returns a consistent copy of the order for reporting.
func (o *Order) State() OrderState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st := OrderState{
		ID:        o.id,
		Product:   o.product,
		Side:      o.side,
		Price:     o.price,
		Amount:    o.amount,
		Remaining: o.remaining,
		Status:    o.status,
		CreatedAt: o.createdAt,
	}
	if o.account != nil {
		st.Account = o.account.Name()
	}
	return st
}

func (o *Order) String() string {
	side := "Buy"
	if o.side == Sell {
		side = "Sell"
	}
	owner := "<none>"
	if o.account != nil {
		owner = o.account.Name()
	}
	return fmt.Sprintf("%s %s from %s: (%d/%d)x%s @ %s",
		side, o.product.Name, owner, o.Remaining(), o.amount,
		o.price.StringFixed(2), o.createdAt.Format("15:04:05.000000"))
}

// OrderState is an immutable copy of an order at one point in time.
type OrderState struct {
	ID        string          `json:"id"`
	Account   string          `json:"account"`
	Product   Product         `json:"product"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    int64           `json:"amount"`
	Remaining int64           `json:"remaining"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
