package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/market-engine/internal/adapter/cache"
	"github.com/olyamironova/market-engine/internal/adapter/in_memory"
	"github.com/olyamironova/market-engine/internal/adapter/natsbus"
	"github.com/olyamironova/market-engine/internal/adapter/pg"
	grpcapi "github.com/olyamironova/market-engine/internal/api/grpc"
	httpapi "github.com/olyamironova/market-engine/internal/api/http"
	"github.com/olyamironova/market-engine/internal/api/ws"
	"github.com/olyamironova/market-engine/internal/config"
	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/listener"
	"github.com/olyamironova/market-engine/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	market, err := cfg.Market()
	if err != nil {
		return err
	}
	products := market.DomainProducts()

	sinks, closeSinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	hub := ws.NewHub(logger.Named("ws"))
	sinks = append(sinks, hub)

	metrics := listener.NewMetrics()
	metrics.Init(products)
	async := listener.NewAsync(cfg.ListenerBuffer, logger.Named("listener"), sinks...)
	metrics.WatchDropped(async)

	listeners := []core.TradeListener{metrics, async}
	if cfg.PrintBook {
		listeners = append(listeners, listener.NewBookPrinter(logger.Named("book"), 20))
	}
	manager := core.NewManager(products,
		core.WithLogger(logger.Named("market")),
		core.WithAccounts(market.DomainAccounts()...),
		core.WithListeners(listeners...),
	)

	gin.SetMode(gin.ReleaseMode)
	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewHTTPServer(manager,
			httpapi.WithLogger(logger.Named("http")),
			httpapi.WithRateLimit(cfg.RateLimit),
			httpapi.WithMetrics(metrics.Handler()),
			httpapi.WithFeed(hub),
		).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := grpcapi.NewServer(manager, logger.Named("grpc"))
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		async.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		return grpcSrv.Serve(grpcLis)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		grpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	logger.Info("market open",
		zap.Int("products", len(products)),
		zap.Int("accounts", len(market.Accounts)))
	return g.Wait()
}

// buildSinks picks the external adapters that are configured and falls back
// to in-memory ones for the cache and journal.
func buildSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]listener.Sink, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var sinks []listener.Sink
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, book cache writes will fail until it is back", zap.Error(err))
		}
		closers = append(closers, func() { _ = rc.Close() })
		sinks = append(sinks, listener.CacheSink{Cache: rc})
	} else {
		sinks = append(sinks, listener.CacheSink{Cache: in_memory.NewCache()})
	}

	if cfg.PGDSN != "" {
		journal, err := pg.NewJournal(ctx, cfg.PGDSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, journal.Close)
		if err := journal.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, listener.JournalSink{Journal: journal})
	} else {
		sinks = append(sinks, listener.JournalSink{Journal: in_memory.NewJournal()})
	}

	if cfg.NATSURL != "" {
		pub, err := natsbus.Connect(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pub.Close)
		sinks = append(sinks, listener.PublisherSink{Publisher: pub})
	}
	return sinks, closeAll, nil
}
