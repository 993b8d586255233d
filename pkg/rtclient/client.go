// Package rtclient is a Go client for the realtime channel. It handles
// connecting with a token, event dispatch, bounded reconnection, duplicate
// suppression and local conversation state.
package rtclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Envelope mirrors the wire format of the realtime channel
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives the raw payload of a subscribed event
type Handler func(data json.RawMessage)

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	// MaxRetries bounds reconnection attempts after a dropped connection.
	// Once exhausted the client stays disconnected until Connect is called
	// again.
	MaxRetries int
	// RetryDelay is the fixed wait between reconnection attempts.
	RetryDelay time.Duration
	Logger     *zap.SugaredLogger
}

const (
	defaultMaxRetries = 5
	defaultRetryDelay = 3 * time.Second
)

// Client is a realtime channel client. Messages arriving while disconnected
// are not queued; callers backfill missed state over REST after reconnecting.
type Client struct {
	endpoint string
	token    string
	opts     Options
	log      *zap.SugaredLogger

	mu        sync.Mutex
	conn      *websocket.Conn
	handlers  map[string][]Handler
	connected bool
	closed    bool
}

// New builds a client for the given ws endpoint (e.g. ws://host/ws) and token.
func New(endpoint, token string, opts Options) *Client {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		opts:     opts,
		log:      log,
		handlers: map[string][]Handler{},
	}
}

// On registers a handler for an event. Multiple handlers per event are
// allowed and run in registration order.
func (c *Client) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Connect dials the endpoint and starts the read loop. It returns once the
// connection is established or the dial fails.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("client is closed")
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := c.dial()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.endpoint, err)
	}
	return conn, nil
}

// Send emits an event with a JSON payload over the socket
func (c *Client) Send(event string, payload interface{}) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return errors.New("not connected")
	}

	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = raw
	}
	return conn.WriteJSON(Envelope{Event: event, Data: data})
}

// IsConnected reports whether the socket is currently up
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close tears the connection down and unregisters every handler. The client
// must not be reused afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.connected = false
	c.handlers = map[string][]Handler{}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.connected = false
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.log.Warnw("connection lost", "error", err)
				c.reconnect()
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			c.log.Warnw("dropping malformed frame", "error", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env Envelope) {
	c.mu.Lock()
	handlers := append([]Handler(nil), c.handlers[env.Event]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(env.Data)
	}
}

// reconnect retries with a fixed delay up to MaxRetries attempts, then gives
// up. No jitter or backoff growth, matching the UI client's behavior.
func (c *Client) reconnect() {
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		time.Sleep(c.opts.RetryDelay)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		conn, err := c.dial()
		if err != nil {
			c.log.Warnw("reconnect failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.connected = true
		c.mu.Unlock()

		c.log.Infow("reconnected", "attempt", attempt)
		go c.readLoop(conn)
		return
	}
	c.log.Errorw("giving up after max reconnect attempts", "attempts", c.opts.MaxRetries)
}
