package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one match between a buy and a sell order. It is created
// once by the matching engine and never modified.
type Trade struct {
	ID         string
	Product    Product
	Buyer      *Account
	Seller     *Account
	BuyOrder   string
	SellOrder  string
	Price      decimal.Decimal
	Amount     int64
	ExecutedAt time.Time
}

// Equal compares every field; prices are compared numerically.
func (t Trade) Equal(other Trade) bool {
	return t.ID == other.ID &&
		t.Product == other.Product &&
		t.Buyer == other.Buyer &&
		t.Seller == other.Seller &&
		t.BuyOrder == other.BuyOrder &&
		t.SellOrder == other.SellOrder &&
		t.Price.Equal(other.Price) &&
		t.Amount == other.Amount &&
		t.ExecutedAt.Equal(other.ExecutedAt)
}

func (t Trade) String() string {
	return fmt.Sprintf("%s: %dx%s %s->%s @ %s",
		t.Product.Name, t.Amount, t.Price.StringFixed(2),
		accountName(t.Seller), accountName(t.Buyer),
		t.ExecutedAt.Format("15:04:05.000000"))
}

func accountName(a *Account) string {
	if a == nil {
		return "<none>"
	}
	return a.Name()
}
