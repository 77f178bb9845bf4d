package config

import (
	"time"
)

// Config is the server configuration read from the environment.
type Config struct {
	HTTPAddr  string
	GRPCAddr  string
	LogLevel  string
	LogFormat string

	// MarketFile is a YAML file listing products and opening holdings.
	// Products is used when it is empty.
	MarketFile string
	Products   []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	PGDSN string

	NATSURL     string
	NATSSubject string

	// RateLimit is the minimum interval between two order requests of one
	// account, 0 disables limiting.
	RateLimit      time.Duration
	ListenerBuffer int
	// PrintBook adds the book printer listener.
	PrintBook bool
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      GetEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:      GetEnv("GRPC_ADDR", ":9090"),
		LogLevel:      GetEnv("LOG_LEVEL", "info"),
		LogFormat:     GetEnv("LOG_FORMAT", "json"),
		MarketFile:    GetEnv("MARKET_FILE", ""),
		Products:      GetList("PRODUCTS", []string{"XYZ"}),
		RedisAddr:     GetEnv("REDIS_ADDR", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		PGDSN:         GetEnv("PG_DSN", ""),
		NATSURL:       GetEnv("NATS_URL", ""),
		NATSSubject:   GetEnv("NATS_SUBJECT", "market.trades"),
		PrintBook:     GetEnv("PRINT_BOOK", "") == "true",
	}

	var err error
	if cfg.RedisDB, err = GetInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisTTL, err = GetDuration("REDIS_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = GetDuration("RATE_LIMIT", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ListenerBuffer, err = GetInt("LISTENER_BUFFER", 1024); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Market returns the market definition from MarketFile, or one built from
// Products with no accounts.
func (c *Config) Market() (*Market, error) {
	if c.MarketFile != "" {
		return LoadMarket(c.MarketFile)
	}
	m := &Market{Products: c.Products}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}
