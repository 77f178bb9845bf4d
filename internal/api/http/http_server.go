package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/market-engine/internal/api/dto"
	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/olyamironova/market-engine/internal/middleware"
	"go.uber.org/zap"
)

const (
	defaultTradesLimit = 100
	maxTradesLimit     = 1000
)

// Market is the part of core.Manager the HTTP API uses.
type Market interface {
	PlaceOrder(ctx context.Context, o *domain.Order) ([]domain.Trade, error)
	CancelOrder(ctx context.Context, o *domain.Order) (bool, error)
	Order(id string) (*domain.Order, bool)
	Account(name string) (*domain.Account, bool)
	Products() []domain.Product
	Snapshot(p domain.Product) (domain.BookSnapshot, bool)
	Trades(limit int) []domain.Trade
	Book() *core.TradeBook
}

var _ Market = (*core.Manager)(nil)

type HTTPServer struct {
	market    Market
	logger    *zap.Logger
	rateLimit time.Duration
	metrics   http.Handler
	feed      http.Handler
	now       func() time.Time
}

type Option func(*HTTPServer)

func WithLogger(l *zap.Logger) Option {
	return func(s *HTTPServer) { s.logger = l }
}

// WithRateLimit limits order placement and cancellation per account.
func WithRateLimit(d time.Duration) Option {
	return func(s *HTTPServer) { s.rateLimit = d }
}

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *HTTPServer) { s.metrics = h }
}

// WithFeed serves the live market feed on /ws.
func WithFeed(h http.Handler) Option {
	return func(s *HTTPServer) { s.feed = h }
}

func NewHTTPServer(market Market, opts ...Option) *HTTPServer {
	s := &HTTPServer{
		market: market,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(s.logger))

	rl := middleware.NewRateLimiter(s.rateLimit)
	orders := r.Group("/orders")
	orders.POST("", rl.Middleware(), s.placeOrder)
	orders.POST("/cancel", rl.Middleware(), s.cancelOrder)
	orders.GET("/:id", s.getOrder)

	r.GET("/book", s.getBook)
	r.GET("/trades", s.getTrades)
	r.GET("/accounts/:name", s.getAccount)
	r.GET("/products", s.getProducts)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	if s.feed != nil {
		r.GET("/ws", gin.WrapH(s.feed))
	}
	return r
}

func (s *HTTPServer) placeOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	side, err := dto.ToSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if !s.authorized(c, req.Account) {
		return
	}
	acct, ok := s.market.Account(req.Account)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown account " + req.Account})
		return
	}

	o := domain.NewOrder(domain.NewProduct(req.Product), req.Price, req.Amount, acct, side, s.now())
	trades, err := s.market.PlaceOrder(c.Request.Context(), o)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.PlaceOrderResponse{
		Order:  dto.FromOrderState(o.State()),
		Trades: dto.FromTrades(trades),
	})
}

func (s *HTTPServer) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	o, ok := s.market.Order(req.OrderID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "order not found"})
		return
	}
	if !s.authorized(c, o.State().Account) {
		return
	}
	cancelled, err := s.market.CancelOrder(c.Request.Context(), o)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := dto.CancelOrderResponse{OrderID: req.OrderID, Cancelled: cancelled}
	if !cancelled {
		resp.Message = "order is no longer resting (status " + string(o.Status()) + ")"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	o, ok := s.market.Order(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "order not found"})
		return
	}
	c.JSON(http.StatusOK, dto.GetOrderResponse{Order: dto.FromOrderState(o.State())})
}

func (s *HTTPServer) getBook(c *gin.Context) {
	var req dto.GetBookRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	snap, ok := s.market.Snapshot(domain.NewProduct(req.Product))
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "product not listed: " + req.Product})
		return
	}
	c.JSON(http.StatusOK, dto.FromSnapshot(&snap))
}

func (s *HTTPServer) getTrades(c *gin.Context) {
	limit := defaultTradesLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxTradesLimit)
	}
	var trades []domain.Trade
	if p := c.Query("product"); p != "" {
		trades = s.market.Book().Records(domain.NewProduct(p), limit)
	} else {
		trades = s.market.Trades(limit)
	}
	c.JSON(http.StatusOK, dto.GetTradesResponse{Trades: dto.FromTrades(trades)})
}

func (s *HTTPServer) getAccount(c *gin.Context) {
	a, ok := s.market.Account(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "account not found"})
		return
	}
	c.JSON(http.StatusOK, dto.FromAccount(a))
}

func (s *HTTPServer) getProducts(c *gin.Context) {
	products := s.market.Products()
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	c.JSON(http.StatusOK, dto.GetProductsResponse{Products: names})
}

// authorized rejects requests whose X-Account header names another account.
// Requests without the header are trusted.
func (s *HTTPServer) authorized(c *gin.Context, account string) bool {
	if h := c.GetHeader(middleware.AccountHeader); h != "" && h != account {
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "request is not for account " + h})
		return false
	}
	return true
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrIllegalTrade):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
