package listener

import (
	"net/http"

	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "market"

// Metrics is a TradeListener exporting order flow and book state to
// Prometheus. Updates are cheap and run inside the market lock.
type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced *prometheus.CounterVec
	trades       *prometheus.CounterVec
	tradedUnits  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	bookDepth    *prometheus.GaugeVec
	bestPrice    *prometheus.GaugeVec
	sequence     prometheus.Gauge
}

var _ core.TradeListener = (*Metrics)(nil)

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the market",
		}, []string{"product", "side"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Trades executed",
		}, []string{"product"}),
		tradedUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_units_total",
			Help:      "Units exchanged by executed trades",
		}, []string{"product"}),
		lastPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_trade_price",
			Help:      "Price of the latest trade",
		}, []string{"product"}),
		bookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orderbook_depth",
			Help:      "Resting orders by side",
		}, []string{"product", "side"}),
		bestPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_price",
			Help:      "Best resting price by side, 0 when the side is empty",
		}, []string{"product", "side"}),
		sequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sequence",
			Help:      "Orders placed since start",
		}),
	}
	registry.MustRegister(
		m.ordersPlaced,
		m.trades,
		m.tradedUnits,
		m.lastPrice,
		m.bookDepth,
		m.bestPrice,
		m.sequence,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) OnMarketUpdate(view core.MarketView, update core.MarketUpdate) {
	p := update.Product.Name
	m.sequence.Set(float64(update.Sequence))
	if update.Order != nil {
		m.ordersPlaced.WithLabelValues(p, string(update.Order.Side())).Inc()
	}
	for _, t := range update.Trades {
		m.trades.WithLabelValues(p).Inc()
		m.tradedUnits.WithLabelValues(p).Add(float64(t.Amount))
		m.lastPrice.WithLabelValues(p).Set(t.Price.InexactFloat64())
	}
	m.observeQueue(p, view.BuyQueue(update.Product))
	m.observeQueue(p, view.SellQueue(update.Product))
}

func (m *Metrics) observeQueue(product string, q *core.PriceTimeQueue) {
	if q == nil {
		return
	}
	side := string(q.Side())
	m.bookDepth.WithLabelValues(product, side).Set(float64(q.Len()))
	best := 0.0
	if o, ok := q.First(); ok {
		best = o.Price().InexactFloat64()
	}
	m.bestPrice.WithLabelValues(product, side).Set(best)
}

// WatchDropped exports the drop counter of an Async listener.
func (m *Metrics) WatchDropped(a *Async) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listener_events_dropped_total",
		Help:      "Events dropped because the listener buffer was full",
	}, func() float64 { return float64(a.Dropped()) }))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// domainSides lists the label values used for per-side series.
var domainSides = []domain.Side{domain.Buy, domain.Sell}

// Init pre-creates zero series for products so dashboards show them before
// the first order.
func (m *Metrics) Init(products []domain.Product) {
	for _, p := range products {
		m.trades.WithLabelValues(p.Name)
		m.tradedUnits.WithLabelValues(p.Name)
		for _, s := range domainSides {
			m.ordersPlaced.WithLabelValues(p.Name, string(s))
			m.bookDepth.WithLabelValues(p.Name, string(s)).Set(0)
		}
	}
}
