package listener

import (
	"context"
	"testing"
	"time"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAsyncDeliversSnapshotsAndTrades(t *testing.T) {
	sink := &recordingSink{}
	async := NewAsync(16, nil, sink)
	m := newMarket(t, async)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		async.Run(ctx)
		close(done)
	}()

	m.place(t, m.alice, domain.Buy, "100", 20)
	m.place(t, m.bob, domain.Sell, "99", 5)

	require.Eventually(t, func() bool { return len(sink.Events()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	events := sink.Events()
	first, second := events[0], events[1]
	assert.Equal(t, uint64(1), first.Sequence)
	assert.Empty(t, first.Trades)
	require.Len(t, first.Snapshot.Bids, 1)
	assert.Equal(t, int64(20), first.Snapshot.Bids[0].Remaining)

	assert.Equal(t, uint64(2), second.Sequence)
	require.Len(t, second.Trades, 1)
	assert.Equal(t, "Alice", second.Trades[0].Buyer)
	assert.Equal(t, "Bob", second.Trades[0].Seller)
	assert.Equal(t, int64(15), second.Snapshot.Bids[0].Remaining)
	assert.Equal(t, int64(20), first.Snapshot.Bids[0].Remaining, "earlier snapshots are not affected by later trades")
}

func TestAsyncDropsWhenBufferFull(t *testing.T) {
	obs, logs := observer.New(zap.WarnLevel)
	sink := &recordingSink{}
	async := NewAsync(1, zap.New(obs), sink)
	m := newMarket(t, async)

	m.place(t, m.alice, domain.Buy, "90", 1)
	m.place(t, m.alice, domain.Buy, "91", 1)
	m.place(t, m.alice, domain.Buy, "92", 1)

	assert.Equal(t, uint64(2), async.Dropped())
	assert.Equal(t, 2, logs.FilterMessage("listener buffer full, event dropped").Len())
	assert.Equal(t, 3, m.BuyQueue(xyz).Len(), "the market is unaffected by drops")
}

func TestAsyncFlushesOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	async := NewAsync(8, nil, sink)
	m := newMarket(t, async)
	m.place(t, m.alice, domain.Buy, "90", 1)
	m.place(t, m.alice, domain.Buy, "91", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	async.Run(ctx)

	assert.Len(t, sink.Events(), 2)
}

func TestAsyncLogsSinkErrors(t *testing.T) {
	obs, logs := observer.New(zap.WarnLevel)
	failing := &recordingSink{err: errSink}
	healthy := &recordingSink{}
	async := NewAsync(8, zap.New(obs), failing, healthy)
	m := newMarket(t, async)
	m.place(t, m.alice, domain.Buy, "90", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	async.Run(ctx)

	assert.Len(t, healthy.Events(), 1, "a failing sink does not stop the others")
	entries := logs.FilterMessage("sink failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "recording", entries[0].ContextMap()["sink"])
}
