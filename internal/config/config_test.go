package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "PRODUCTS", "REDIS_TTL", "RATE_LIMIT", "LISTENER_BUFFER", "REDIS_DB"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"XYZ"}, cfg.Products)
	assert.Equal(t, 5*time.Minute, cfg.RedisTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit)
	assert.Equal(t, 1024, cfg.ListenerBuffer)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":1234")
	t.Setenv("PRODUCTS", "XYZ, ABC,,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT", "0s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.HTTPAddr)
	assert.Equal(t, []string{"XYZ", "ABC"}, cfg.Products)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Zero(t, cfg.RateLimit)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LISTENER_BUFFER", "lots")
	_, err := Load()
	var envErr *EnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, "LISTENER_BUFFER", envErr.Key)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MARKET_ENGINE_TEST_KEY=from-file\n"), 0o600))
	t.Setenv("MARKET_ENGINE_TEST_KEY", "")
	os.Unsetenv("MARKET_ENGINE_TEST_KEY")

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", GetEnv("MARKET_ENGINE_TEST_KEY", "fallback"))
}

func TestParseMarket(t *testing.T) {
	m, err := ParseMarket([]byte(`
products: [XYZ, ABC]
accounts:
  - name: Alice
  - name: Bob
    holdings:
      XYZ: 100
`))
	require.NoError(t, err)
	assert.Equal(t, []domain.Product{domain.NewProduct("XYZ"), domain.NewProduct("ABC")}, m.DomainProducts())

	accounts := m.DomainAccounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, "Alice", accounts[0].Name())
	assert.Empty(t, accounts[0].Positions())
	assert.Equal(t, int64(100), accounts[1].Position(domain.NewProduct("XYZ")))
}

func TestParseMarketValidation(t *testing.T) {
	cases := map[string]string{
		"no products":      `accounts: [{name: A}]`,
		"duplicate":        `products: [XYZ, XYZ]`,
		"unnamed account":  "products: [XYZ]\naccounts: [{holdings: {XYZ: 1}}]",
		"twice":            "products: [XYZ]\naccounts: [{name: A}, {name: A}]",
		"unlisted holding": "products: [XYZ]\naccounts: [{name: A, holdings: {ABC: 1}}]",
		"negative":         "products: [XYZ]\naccounts: [{name: A, holdings: {XYZ: -1}}]",
		"not yaml":         "products: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMarket([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestConfigMarket(t *testing.T) {
	cfg := &Config{Products: []string{"XYZ"}}
	m, err := cfg.Market()
	require.NoError(t, err)
	assert.Equal(t, []string{"XYZ"}, m.Products)

	path := filepath.Join(t.TempDir(), "market.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products: [ABC]\n"), 0o600))
	cfg.MarketFile = path
	m, err = cfg.Market()
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC"}, m.Products)

	cfg.MarketFile = filepath.Join(t.TempDir(), "none.yaml")
	_, err = cfg.Market()
	assert.Error(t, err)
}
