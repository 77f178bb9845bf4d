package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/market-engine/internal/api/dto"
	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/olyamironova/market-engine/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var xyz = domain.NewProduct("XYZ")

func newTestServer(t *testing.T, opts ...Option) (http.Handler, *core.Manager) {
	t.Helper()
	m := core.NewManager([]domain.Product{xyz}, core.WithAccounts(
		domain.NewAccount("Alice", nil),
		domain.NewAccount("Bob", map[domain.Product]int64{xyz: 100}),
	))
	return NewHTTPServer(m, opts...).Handler(), m
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func place(account, side, price string, amount int64) dto.PlaceOrderRequest {
	return dto.PlaceOrderRequest{
		Account: account,
		Product: "XYZ",
		Side:    dto.Side(side),
		Price:   decimal.RequireFromString(price),
		Amount:  amount,
	}
}

func TestPlaceAndMatchOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, http.MethodPost, "/orders", place("Alice", "BUY", "100.00", 20))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	buy := decode[dto.PlaceOrderResponse](t, w)
	assert.Empty(t, buy.Trades)
	assert.Equal(t, "NEW", buy.Order.Status)
	assert.Equal(t, "Alice", buy.Order.Account)

	w = do(t, h, http.MethodPost, "/orders", place("Bob", "SELL", "99.90", 5))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sell := decode[dto.PlaceOrderResponse](t, w)
	require.Len(t, sell.Trades, 1)
	assert.True(t, sell.Trades[0].Price.Equal(decimal.RequireFromString("99.95")))
	assert.Equal(t, "COMPLETED", sell.Order.Status)

	w = do(t, h, http.MethodGet, "/orders/"+buy.Order.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.GetOrderResponse](t, w)
	assert.Equal(t, int64(15), got.Order.Remaining)
	assert.Equal(t, "PARTIAL", got.Order.Status)

	w = do(t, h, http.MethodGet, "/book?product=XYZ", nil)
	require.Equal(t, http.StatusOK, w.Code)
	book := decode[dto.GetBookResponse](t, w)
	require.Len(t, book.Bids, 1)
	assert.Empty(t, book.Asks)
	assert.Len(t, book.Trades, 1)
	assert.Equal(t, uint64(2), book.Sequence)

	w = do(t, h, http.MethodGet, "/trades?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.GetTradesResponse](t, w).Trades, 1)

	w = do(t, h, http.MethodGet, "/trades?product=ABC", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.GetTradesResponse](t, w).Trades)

	w = do(t, h, http.MethodGet, "/accounts/Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int64{"XYZ": 5}, decode[dto.GetAccountResponse](t, w).Positions)

	w = do(t, h, http.MethodGet, "/products", nil)
	assert.Equal(t, []string{"XYZ"}, decode[dto.GetProductsResponse](t, w).Products)
}

func TestPlaceOrderErrors(t *testing.T) {
	h, _ := newTestServer(t)

	cases := []struct {
		name string
		req  any
		code int
	}{
		{"malformed", map[string]any{"account": 1}, http.StatusBadRequest},
		{"bad side", place("Alice", "HOLD", "1", 1), http.StatusBadRequest},
		{"unknown account", place("Carol", "BUY", "1", 1), http.StatusNotFound},
		{"zero amount", place("Alice", "BUY", "1", 0), http.StatusUnprocessableEntity},
		{"short sell", place("Alice", "SELL", "1", 1), http.StatusUnprocessableEntity},
		{"unlisted", dto.PlaceOrderRequest{Account: "Bob", Product: "ABC", Side: dto.Sell, Price: decimal.NewFromInt(1), Amount: 1}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/orders", tc.req)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[dto.ErrorResponse](t, w).Error)
		})
	}
}

func TestCancelOverHTTP(t *testing.T) {
	h, m := newTestServer(t)
	w := do(t, h, http.MethodPost, "/orders", place("Bob", "SELL", "101", 10))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[dto.PlaceOrderResponse](t, w).Order.ID

	w = do(t, h, http.MethodPost, "/orders/cancel", dto.CancelOrderRequest{OrderID: id}, middleware.AccountHeader, "Alice")
	assert.Equal(t, http.StatusForbidden, w.Code, "only the owner may cancel")

	w = do(t, h, http.MethodPost, "/orders/cancel", dto.CancelOrderRequest{OrderID: id}, middleware.AccountHeader, "Bob")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.CancelOrderResponse](t, w).Cancelled)
	assert.True(t, m.SellQueue(xyz).Empty())

	w = do(t, h, http.MethodPost, "/orders/cancel", dto.CancelOrderRequest{OrderID: id})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.CancelOrderResponse](t, w)
	assert.False(t, resp.Cancelled)
	assert.Contains(t, resp.Message, "CANCELLED")

	w = do(t, h, http.MethodPost, "/orders/cancel", dto.CancelOrderRequest{OrderID: "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadEndpointsNotFound(t *testing.T) {
	h, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/orders/unknown", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/book?product=ABC", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/book", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/accounts/Carol", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/trades?limit=-1", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", nil).Code)
}

func TestOptionalHandlersAndRateLimit(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("market_sequence 0\n"))
	})
	h, _ := newTestServer(t, WithMetrics(metrics), WithRateLimit(time.Hour))

	w := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "market_sequence")

	first := do(t, h, http.MethodPost, "/orders", place("Alice", "BUY", "1", 1), middleware.AccountHeader, "Alice")
	assert.Equal(t, http.StatusCreated, first.Code)
	second := do(t, h, http.MethodPost, "/orders", place("Alice", "BUY", "1", 1), middleware.AccountHeader, "Alice")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestCancelledRequestContext(t *testing.T) {
	h, _ := newTestServer(t)
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(place("Alice", "BUY", "1", 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/orders", &buf).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
