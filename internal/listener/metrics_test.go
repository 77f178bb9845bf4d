package listener

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsTrackOrderFlow(t *testing.T) {
	metrics := NewMetrics()
	metrics.Init([]domain.Product{xyz})
	m := newMarket(t, metrics)

	m.place(t, m.alice, domain.Buy, "100", 20)
	m.place(t, m.bob, domain.Sell, "101", 5)
	m.place(t, m.bob, domain.Sell, "99", 8)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ordersPlaced.WithLabelValues("XYZ", "BUY")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ordersPlaced.WithLabelValues("XYZ", "SELL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.trades.WithLabelValues("XYZ")))
	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.tradedUnits.WithLabelValues("XYZ")))
	assert.Equal(t, 99.5, testutil.ToFloat64(metrics.lastPrice.WithLabelValues("XYZ")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.bookDepth.WithLabelValues("XYZ", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.bookDepth.WithLabelValues("XYZ", "SELL")))
	assert.Equal(t, 100.0, testutil.ToFloat64(metrics.bestPrice.WithLabelValues("XYZ", "BUY")))
	assert.Equal(t, 101.0, testutil.ToFloat64(metrics.bestPrice.WithLabelValues("XYZ", "SELL")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.sequence))
}

func TestMetricsHandlerExposesDropped(t *testing.T) {
	metrics := NewMetrics()
	async := NewAsync(1, nil)
	metrics.WatchDropped(async)
	m := newMarket(t, async)
	m.place(t, m.alice, domain.Buy, "90", 1)
	m.place(t, m.alice, domain.Buy, "91", 1)

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "market_listener_events_dropped_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
