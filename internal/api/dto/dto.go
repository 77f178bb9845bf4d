package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type PlaceOrderRequest struct {
	Account string          `json:"account" binding:"required"`
	Product string          `json:"product" binding:"required"`
	Side    Side            `json:"side" binding:"required"`
	Price   decimal.Decimal `json:"price"`
	Amount  int64           `json:"amount"`
}

type PlaceOrderResponse struct {
	Order  Order   `json:"order"`
	Trades []Trade `json:"trades"`
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID   string `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message,omitempty"`
}

type GetOrderResponse struct {
	Order Order `json:"order"`
}

type GetTradesResponse struct {
	Trades []Trade `json:"trades"`
}

type GetBookRequest struct {
	Product string `form:"product" binding:"required"`
}

type GetBookResponse struct {
	Product   string          `json:"product"`
	Bids      []Order         `json:"bids"`
	Asks      []Order         `json:"asks"`
	Trades    []Trade         `json:"trades"`
	LastPrice decimal.Decimal `json:"last_price"`
	Sequence  uint64          `json:"sequence"`
	Timestamp time.Time       `json:"timestamp"`
}

type GetAccountResponse struct {
	Name      string           `json:"name"`
	Positions map[string]int64 `json:"positions"`
}

type GetProductsResponse struct {
	Products []string `json:"products"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Order struct {
	ID        string          `json:"id"`
	Account   string          `json:"account"`
	Product   string          `json:"product"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    int64           `json:"amount"`
	Remaining int64           `json:"remaining"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type Trade struct {
	ID         string          `json:"id"`
	Product    string          `json:"product"`
	Buyer      string          `json:"buyer"`
	Seller     string          `json:"seller"`
	BuyOrder   string          `json:"buy_order"`
	SellOrder  string          `json:"sell_order"`
	Price      decimal.Decimal `json:"price"`
	Amount     int64           `json:"amount"`
	ExecutedAt time.Time       `json:"executed_at"`
}
