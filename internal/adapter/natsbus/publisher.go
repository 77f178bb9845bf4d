package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/olyamironova/market-engine/internal/domain"
	"github.com/olyamironova/market-engine/internal/port"
)

const DefaultSubject = "market.trades"

var _ port.Publisher = (*Publisher)(nil)

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// Publisher sends one message per trade batch on <prefix>.<product>.
type Publisher struct {
	conn   msgPublisher
	prefix string
	close  func()
}

func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("market-engine"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", url, err)
	}
	p := NewPublisher(nc, prefix)
	p.close = func() { _ = nc.Drain() }
	return p, nil
}

func NewPublisher(conn msgPublisher, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubject
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Subject is where trades of product are published.
func (p *Publisher) Subject(product string) string {
	return p.prefix + "." + product
}

func (p *Publisher) PublishTrades(ctx context.Context, product string, trades []domain.TradeState) error {
	if len(trades) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(trades)
	if err != nil {
		return fmt.Errorf("nats: encode trades: %w", err)
	}
	msg := nats.NewMsg(p.Subject(product))
	msg.Data = data
	// JetStream de-duplicates on this header when a stream captures the subject.
	msg.Header.Set(nats.MsgIdHdr, trades[0].ID)
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats: publish %s: %w", msg.Subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}
