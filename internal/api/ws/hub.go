package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/olyamironova/market-engine/internal/api/dto"
	"github.com/olyamironova/market-engine/internal/listener"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is what feed clients receive.
type Message struct {
	Type      string `json:"type"`
	Product   string `json:"product,omitempty"`
	Data      any    `json:"data,omitempty"`
	Sequence  uint64 `json:"sequence,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub is a live market feed. It is a listener.Sink: every event becomes a
// "book" message and, when the placement traded, a "trades" message, sent
// to the clients subscribed to the product. Clients pick a product with
// ?product=; without it they receive every product.
type Hub struct {
	logger *zap.Logger

	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	done       chan struct{}

	clientCount atomic.Int32
	messagesOut atomic.Uint64
}

var _ listener.Sink = (*Hub)(nil)

type client struct {
	id      string
	product string
	conn    *websocket.Conn
	send    chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan Message, 256),
		done:       make(chan struct{}),
	}
}

// Run routes messages until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.clientCount.Add(1)
			h.logger.Debug("feed client connected", zap.String("id", c.id), zap.String("product", c.product))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("feed client disconnected", zap.String("id", c.id))
			}
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.clientCount.Add(-1)
}

func (h *Hub) fanOut(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("feed message encoding failed", zap.Error(err))
		return
	}
	for c := range h.clients {
		if c.product != "" && c.product != msg.Product {
			continue
		}
		select {
		case c.send <- data:
		default:
			// slow consumer
			h.drop(c)
			h.logger.Warn("feed client too slow, disconnected", zap.String("id", c.id))
		}
	}
}

func (h *Hub) Name() string { return "ws" }

func (h *Hub) Handle(ctx context.Context, ev listener.Event) error {
	now := time.Now().UnixMilli()
	msgs := []Message{{
		Type:      "book",
		Product:   ev.Product.Name,
		Data:      dto.FromSnapshot(&ev.Snapshot),
		Sequence:  ev.Sequence,
		Timestamp: now,
	}}
	if len(ev.Trades) > 0 {
		msgs = append(msgs, Message{
			Type:      "trades",
			Product:   ev.Product.Name,
			Data:      dto.FromTradeStates(ev.Trades),
			Sequence:  ev.Sequence,
			Timestamp: now,
		})
	}
	for _, m := range msgs {
		select {
		case h.broadcast <- m:
		case <-h.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.clientCount.Load())
}

func (h *Hub) MessagesOut() uint64 {
	return h.messagesOut.Load()
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("feed upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		id:      uuid.NewString(),
		product: r.URL.Query().Get("product"),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
	welcome, _ := json.Marshal(Message{
		Type:      "welcome",
		Product:   c.product,
		Data:      map[string]string{"id": c.id},
		Timestamp: time.Now().UnixMilli(),
	})
	c.send <- welcome

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go h.writePump(c)
	go h.readPump(c)
}

// readPump only handles control frames; clients have nothing to say.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("feed read failed", zap.String("id", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			h.messagesOut.Add(1)
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
