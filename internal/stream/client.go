package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"star-notary/internal/domain"
)

// ErrClosed is returned by calls on a closed Client.
var ErrClosed = errors.New("client closed")

// ClientConfig configures WebSocket client behavior.
type ClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
	// Logger receives protocol errors. Nil discards them.
	Logger *log.Logger
}

// DefaultClientConfig returns default WebSocket configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  10 * time.Second,
	}
}

// subscription is a filter and its delivery channel. It outlives the
// server-side id, which changes on every reconnect.
type subscription struct {
	filter Filter
	ch     chan domain.Event
}

// Client subscribes to the notary event stream and survives reconnects.
type Client struct {
	endpoint string
	config   ClientConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps server subscription ids on the current connection;
	// all holds every subscription until Close
	subs   map[int64]*subscription
	all    []*subscription
	subsMu sync.RWMutex

	// pending maps request id to the waiter for its response
	pending   map[uint64]chan Response
	pendingMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// Dial connects to endpoint, e.g. ws://localhost:8080/v1/events.
func Dial(ctx context.Context, endpoint string, config *ClientConfig) (*Client, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = DefaultClientConfig().SubscribeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		subs:     make(map[int64]*subscription),
		pending:  make(map[uint64]chan Response),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	if c.closed.Load() {
		conn.Close()
		return ErrClosed
	}

	c.conn = conn
	return nil
}

// Subscribe registers filter with the server and returns a channel of
// matching events. The channel is closed by Close.
func (c *Client) Subscribe(ctx context.Context, filter Filter) (<-chan domain.Event, error) {
	subID, err := c.subscribe(ctx, filter)
	if err != nil {
		return nil, err
	}

	sub := &subscription{filter: filter, ch: make(chan domain.Event, 1024)}
	c.subsMu.Lock()
	c.subs[subID] = sub
	c.all = append(c.all, sub)
	c.subsMu.Unlock()

	return sub.ch, nil
}

// subscribe sends the request and waits for the subscription id without
// registering a channel.
func (c *Client) subscribe(ctx context.Context, filter Filter) (int64, error) {
	params, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("marshal filter: %w", err)
	}
	resp, err := c.call(ctx, MethodSubscribe, params)
	if err != nil {
		return 0, err
	}
	return resp.Result, nil
}

// call sends a request and waits for its response.
func (c *Client) call(ctx context.Context, method string, params json.RawMessage) (Response, error) {
	if c.closed.Load() {
		return Response{}, ErrClosed
	}

	reqID := c.requestID.Add(1)
	req := Request{JSONRPC: "2.0", ID: reqID, Method: method, Params: params}

	waiter := make(chan Response, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = waiter
	c.pendingMu.Unlock()

	forget := func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		forget()
		return Response{}, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		forget()
		return Response{}, fmt.Errorf("write %s: %w", method, err)
	}

	select {
	case resp, ok := <-waiter:
		if !ok {
			return Response{}, ErrClosed
		}
		if resp.Error != nil {
			return Response{}, fmt.Errorf("%s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		return resp, nil
	case <-time.After(c.config.SubscribeTimeout):
		forget()
		return Response{}, fmt.Errorf("%s timeout after %s", method, c.config.SubscribeTimeout)
	case <-c.done:
		return Response{}, ErrClosed
	case <-ctx.Done():
		forget()
		return Response{}, ctx.Err()
	}
}

// Close closes the connection and every subscription channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()

	c.subsMu.Lock()
	for _, sub := range c.all {
		close(sub.ch)
	}
	c.all = nil
	c.subs = make(map[int64]*subscription)
	c.subsMu.Unlock()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	return nil
}

// readLoop reads messages and dispatches them. A failed connection is
// replaced in the background with exponential backoff.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay
	var failed *websocket.Conn

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil || conn == failed {
			if !c.reconnecting.Swap(true) {
				go c.reconnect(conn, reconnectDelay)

				reconnectDelay *= 2
				if reconnectDelay > c.config.MaxReconnectDelay {
					reconnectDelay = c.config.MaxReconnectDelay
				}
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			failed = conn
			continue
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect replaces the broken connection and resubscribes every filter.
func (c *Client) reconnect(broken *websocket.Conn, delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil && c.conn == broken {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Printf("reconnect %s: %v", c.endpoint, err)
		return
	}

	c.resubscribeAll()
}

// resubscribeAll registers every subscription on the new connection.
// Ids from the old connection mean nothing to the server now and may be
// reused by it, so the id map is emptied before the first request.
func (c *Client) resubscribeAll() {
	c.subsMu.Lock()
	all := make([]*subscription, len(c.all))
	copy(all, c.all)
	c.subs = make(map[int64]*subscription, len(all))
	c.subsMu.Unlock()

	for _, sub := range all {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SubscribeTimeout)
		id, err := c.subscribe(ctx, sub.filter)
		cancel()
		if err != nil {
			// retried on the next reconnect
			c.logger.Printf("resubscribe %+v: %v", sub.filter, err)
			continue
		}

		c.subsMu.Lock()
		c.subs[id] = sub
		c.subsMu.Unlock()
	}
}

func (c *Client) handleMessage(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Printf("decode message: %v", err)
		return
	}

	if env.Method == MethodNotification {
		if env.Params != nil {
			c.deliver(env.Params)
		}
		return
	}

	c.pendingMu.Lock()
	waiter, ok := c.pending[env.ID]
	if ok {
		delete(c.pending, env.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		if env.Error != nil {
			c.logger.Printf("error response: code=%d msg=%s", env.Error.Code, env.Error.Message)
		}
		return
	}

	select {
	case waiter <- Response{ID: env.ID, Result: env.Result, Error: env.Error}:
	default:
	}
}

// deliver blocks until the subscriber takes the event or the client closes.
func (c *Client) deliver(p *NotificationParams) {
	c.subsMu.RLock()
	sub, ok := c.subs[p.Subscription]
	c.subsMu.RUnlock()

	if !ok {
		return
	}
	select {
	case sub.ch <- p.Result:
	case <-c.done:
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// a dead connection surfaces in readLoop
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}
