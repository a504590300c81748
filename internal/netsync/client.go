package netsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"isoclient/internal/geometry"
	"isoclient/internal/logger"
)

const (
	defaultWriteWait = 10 * time.Second
	pongWait         = 60 * time.Second
	maxMessageSize   = 1 << 20
	defaultBuffer    = 64
)

// Options tunes a Client.
type Options struct {
	Buffer       int           // updates held until the next Drain
	WriteTimeout time.Duration // deadline for a single write
	Dialer       *websocket.Dialer
}

// Client owns one websocket connection. Run reads on its own goroutine
// while the game loop calls Drain and SendMove; nothing here touches
// simulation state directly.
type Client struct {
	conn      *websocket.Conn
	updates   chan Update
	welcomeMu sync.Mutex
	welcome   *Welcome // held apart from updates so backpressure never evicts it
	writeMu   sync.Mutex
	writeWait time.Duration
	closeOnce sync.Once
	log       *logrus.Entry
}

// Dial connects to the game server.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	logger.WithComponent("netsync").WithField("url", url).Info("Connected to server")
	return NewClient(conn, opts), nil
}

// NewClient wraps an established connection.
func NewClient(conn *websocket.Conn, opts Options) *Client {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	writeWait := opts.WriteTimeout
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	return &Client{
		conn:      conn,
		updates:   make(chan Update, buffer),
		writeWait: writeWait,
		log:       logger.WithComponent("netsync"),
	}
}

// Run reads messages until the connection closes or ctx is done. It
// returns nil on a normal close or cancellation.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("Failed to set read deadline")
	}
	c.conn.SetPingHandler(func(data string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return err
		}
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.writeWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("Disconnected from server")
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("Failed to extend read deadline")
		}

		update, err := decode(kind, data)
		if err != nil {
			c.log.WithError(err).Warn("Dropping malformed server message")
			continue
		}
		if update == nil {
			continue
		}
		c.deliver(*update)
	}
}

// deliver queues an update without blocking the read loop. When the game
// loop falls behind the oldest sync is dropped, since newer snapshots
// supersede it. A welcome is kept until the next Drain.
func (c *Client) deliver(u Update) {
	if u.Welcome != nil {
		c.welcomeMu.Lock()
		c.welcome = u.Welcome
		c.welcomeMu.Unlock()
		return
	}

	select {
	case c.updates <- u:
		return
	default:
	}
	select {
	case <-c.updates:
		c.log.Debug("Update buffer full, dropped oldest")
	default:
	}
	select {
	case c.updates <- u:
	default:
		c.log.Warn("Update buffer full, dropped update")
	}
}

// Drain returns every update received since the last call. A pending
// welcome comes first, then syncs oldest first.
func (c *Client) Drain() []Update {
	var out []Update
	c.welcomeMu.Lock()
	if c.welcome != nil {
		out = append(out, Update{Welcome: c.welcome})
		c.welcome = nil
	}
	c.welcomeMu.Unlock()

	for {
		select {
		case u := <-c.updates:
			out = append(out, u)
		default:
			return out
		}
	}
}

// SendMove asks the server to move the local entity to p.
func (c *Client) SendMove(p geometry.Point) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode move: %w", err)
	}
	return c.writeJSON(Envelope{Type: TypeMove, Payload: payload})
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close sends a close frame and closes the connection. Safe to call more
// than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

var errUnknownFrame = errors.New("unsupported frame type")

func decode(kind int, data []byte) (*Update, error) {
	switch kind {
	case websocket.BinaryMessage:
		var s Sync
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode binary sync: %w", err)
		}
		return &Update{Sync: &s}, nil
	case websocket.TextMessage:
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to decode envelope: %w", err)
		}
		switch env.Type {
		case TypeWelcome:
			var w Welcome
			if err := json.Unmarshal(env.Payload, &w); err != nil {
				return nil, fmt.Errorf("failed to decode welcome: %w", err)
			}
			return &Update{Welcome: &w}, nil
		case TypeSync:
			var s Sync
			if err := json.Unmarshal(env.Payload, &s); err != nil {
				return nil, fmt.Errorf("failed to decode sync: %w", err)
			}
			return &Update{Sync: &s}, nil
		default:
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("%w: %d", errUnknownFrame, kind)
	}
}

// EncodeSync produces the binary sync frame the server may send.
func EncodeSync(s Sync) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode sync: %w", err)
	}
	return buf.Bytes(), nil
}
