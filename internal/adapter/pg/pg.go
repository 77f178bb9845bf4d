package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/olyamironova/market-engine/internal/port"
)

var _ port.TradeJournal = (*Journal)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
  id          UUID PRIMARY KEY,
  seq         BIGINT NOT NULL,
  product     TEXT NOT NULL,
  buyer       TEXT NOT NULL,
  seller      TEXT NOT NULL,
  buy_order   UUID NOT NULL,
  sell_order  UUID NOT NULL,
  price       NUMERIC NOT NULL,
  amount      BIGINT NOT NULL,
  executed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS trades_product_executed_at ON trades (product, executed_at DESC);
`

const insertTrade = `
INSERT INTO trades(id, seq, product, buyer, seller, buy_order, sell_order, price, amount, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`

// Journal exports trades to Postgres. It is write-only: the market's state
// lives in memory and is never rebuilt from this table.
type Journal struct {
	pool *pgxpool.Pool
}

// call Close when finish to work with database.
func NewJournal(ctx context.Context, dsn string) (*Journal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &Journal{pool: pool}, nil
}

func (j *Journal) Close() {
	if j.pool != nil {
		j.pool.Close()
	}
}

func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pg: ensure schema: %w", err)
	}
	return nil
}

// SaveTrades writes the trades of one placement in a single transaction.
func (j *Journal) SaveTrades(ctx context.Context, seq uint64, trades []domain.TradeState) error {
	if len(trades) == 0 {
		return nil
	}
	return withTx(ctx, j.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range trades {
			batch.Queue(insertTrade, tradeArgs(seq, t)...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("pg: save trades of seq %d: %w", seq, err)
		}
		return nil
	})
}

func tradeArgs(seq uint64, t domain.TradeState) []any {
	return []any{
		t.ID, int64(seq), t.Product.Name, t.Buyer, t.Seller,
		t.BuyOrder, t.SellOrder, t.Price, t.Amount, t.ExecutedAt,
	}
}
