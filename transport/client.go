// Package transport owns the persistent websocket connection to the
// broadcast service and exposes a small message-oriented API: send a named
// event, subscribe to inbound events, observe connection-state transitions.
package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Asadafridi84/whiteboard-final/domain"
)

// ErrNotConnected is returned by Send while the connection is down.
// Messages are dropped, never queued.
var ErrNotConnected = errors.New("transport: not connected")

// ErrAlreadyStarted is returned by Connect while a connection attempt or an
// established connection is live.
var ErrAlreadyStarted = errors.New("transport: already started")

const (
	defaultMaxAttempts    = 5
	defaultAttemptTimeout = 10 * time.Second
	defaultRetryDelay     = time.Second
)

// Options configures a Client.
type Options struct {
	// Endpoints are websocket URLs tried in preference order on every
	// attempt; the first that answers wins.
	Endpoints []string
	// Reconnect enables automatic reconnection after a failed attempt or a
	// dropped connection.
	Reconnect bool
	// MaxAttempts bounds consecutive failed attempts before the client
	// settles in Disconnected until Connect is called again.
	MaxAttempts int
	// AttemptTimeout bounds a single handshake.
	AttemptTimeout time.Duration
	// RetryDelay is slept between attempts.
	RetryDelay time.Duration
}

func (o *Options) defaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = defaultAttemptTimeout
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
}

// Client is a reconnecting websocket transport. Inbound events are
// dispatched FIFO from a single goroutine, matching the delivery order of
// the connection.
type Client struct {
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	ws        *websocket.Conn
	state     domain.ConnState
	sessionID string
	running   bool
	closing   bool
	handlers  map[string][]func(json.RawMessage)
	stateFns  []func(domain.ConnState, error)

	writeMu sync.Mutex
}

// New creates a client; Connect must be called to bring the link up.
func New(opts Options, log *slog.Logger) *Client {
	opts.defaults()
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		opts:     opts,
		log:      log,
		handlers: make(map[string][]func(json.RawMessage)),
	}
}

// On registers a handler for a named inbound event. Handlers registered for
// the same event run in registration order.
func (c *Client) On(event string, handler func(data json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

// OnStateChange registers a connection-state observer. reason is non-nil
// for failure-driven transitions.
func (c *Client) OnStateChange(fn func(state domain.ConnState, reason error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateFns = append(c.stateFns, fn)
}

// State reports the current connection state.
func (c *Client) State() domain.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID reports the service-assigned id for this connection, empty
// while disconnected.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Connect starts connecting asynchronously; completion is signaled through
// the state observers, not a return value.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(c.opts.Endpoints) == 0 {
		c.mu.Unlock()
		return errors.New("transport: no endpoints configured")
	}
	c.running = true
	c.closing = false
	c.mu.Unlock()

	c.setState(domain.Connecting, nil)
	go c.run()
	return nil
}

// Send publishes a named event, fire and forget.
func (c *Client) Send(event string, payload any) error {
	c.mu.Lock()
	ws := c.ws
	connected := c.state == domain.Connected
	c.mu.Unlock()
	if !connected || ws == nil {
		return ErrNotConnected
	}

	b, err := domain.Encode(event, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ws.WriteMessage(websocket.TextMessage, b)
}

// Close tears the connection down and disables reconnection until the next
// Connect.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closing = true
	ws := c.ws
	wasRunning := c.running
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}
	if !wasRunning {
		c.setState(domain.Disconnected, nil)
	}
	return nil
}

func (c *Client) run() {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	failures := 0
	for {
		if c.isClosing() {
			c.setState(domain.Disconnected, nil)
			return
		}

		ws, err := c.dial()
		if err != nil {
			failures++
			c.log.Warn("connect error", "error", err, "attempt", failures)
			c.notify(domain.Connecting, err)
			if !c.opts.Reconnect || failures >= c.opts.MaxAttempts {
				c.setState(domain.Disconnected, err)
				return
			}
			time.Sleep(c.opts.RetryDelay)
			continue
		}

		failures = 0
		c.mu.Lock()
		c.ws = ws
		c.mu.Unlock()
		c.setState(domain.Connected, nil)

		readErr := c.readLoop(ws)

		c.mu.Lock()
		c.ws = nil
		c.sessionID = ""
		c.mu.Unlock()
		c.setState(domain.Disconnected, readErr)

		if c.isClosing() || !c.opts.Reconnect {
			return
		}
		failures++
		c.setState(domain.Connecting, nil)
		time.Sleep(c.opts.RetryDelay)
	}
}

// dial walks the endpoint preference order and returns the first connection
// that completes a handshake.
func (c *Client) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.AttemptTimeout}
	var lastErr error
	for _, endpoint := range c.opts.Endpoints {
		ws, resp, err := dialer.Dial(endpoint, nil)
		if err != nil {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			lastErr = err
			continue
		}
		return ws, nil
	}
	return nil, lastErr
}

func (c *Client) readLoop(ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("invalid envelope", "error", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env domain.Envelope) {
	if env.Event == domain.EventWelcome {
		var w domain.Welcome
		if err := json.Unmarshal(env.Data, &w); err != nil {
			c.log.Warn("invalid welcome", "error", err)
			return
		}
		c.mu.Lock()
		c.sessionID = w.SessionID
		c.mu.Unlock()
		c.log.Debug("session assigned", "sessionId", w.SessionID)
		// fall through so subscribers see the welcome too
	}

	c.mu.Lock()
	handlers := append(([]func(json.RawMessage))(nil), c.handlers[env.Event]...)
	c.mu.Unlock()
	if len(handlers) == 0 {
		c.log.Debug("unhandled event", "event", env.Event)
		return
	}
	for _, h := range handlers {
		h(env.Data)
	}
}

func (c *Client) setState(state domain.ConnState, reason error) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	fns := append(([]func(domain.ConnState, error))(nil), c.stateFns...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(state, reason)
	}
}

// notify reports a connect-error without changing state.
func (c *Client) notify(state domain.ConnState, reason error) {
	c.mu.Lock()
	fns := append(([]func(domain.ConnState, error))(nil), c.stateFns...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(state, reason)
	}
}

func (c *Client) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}
