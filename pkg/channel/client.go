package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/looplab/fsm"

	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

// ErrNotConnected is returned by Send when no connection is established.
// Commands are fire-and-forget: they are never queued for later delivery.
var ErrNotConnected = errors.New("channel: not connected")

// Client is the single logical connection to the vehicle-control process.
// It is constructed explicitly and injected where needed; there is no
// package-level instance.
type Client interface {
	// Connect opens the connection. It is idempotent: a no-op while
	// already connecting or connected. Dialing happens in the background;
	// observe the outcome via OnStatusChange.
	Connect()

	// Disconnect closes the connection with a normal-closure frame and
	// cancels any pending heartbeat or reconnect timer. An explicit
	// disconnect never triggers an automatic reconnect.
	Disconnect()

	// Send transmits one command. It returns ErrNotConnected while
	// disconnected and never queues or retries.
	Send(cmd Command) error

	// Subscribe registers a handler for the given message kind (KindAny
	// for every frame) and returns a disposer.
	Subscribe(kind MessageKind, h Handler) (unsubscribe func())

	// OnStatusChange registers a listener invoked on every lifecycle
	// transition and returns a disposer.
	OnStatusChange(fn func(Status)) (unsubscribe func())

	// Status returns the current lifecycle state.
	Status() Status

	// Attempts returns the count of automatic reconnect attempts since
	// the last successful open.
	Attempts() int
}

var _ Client = (*wsClient)(nil)

type wsClient struct {
	cfg    *ClientConfig
	logger log.Logger

	// lifecycle is the transition authority; see lifecycle.go.
	lifecycle *fsm.FSM

	mu             sync.Mutex
	conn           *websocket.Conn
	subs           map[MessageKind]map[uint64]Handler
	statusSubs     map[uint64]func(Status)
	nextID         uint64
	attempts       int
	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
	intentional    bool

	// writeMu serializes frame writes; gorilla/websocket allows at most
	// one concurrent writer per connection.
	writeMu sync.Mutex
}

// NewClient creates a ground-station channel client.
func NewClient(cfg *ClientConfig, logger log.Logger) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("channel config is required")
	}

	setDefaultConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid channel config: %w", err)
	}

	if logger == nil {
		logger = log.Std()
	}

	return &wsClient{
		cfg:        cfg,
		logger:     logger.WithName("channel"),
		lifecycle:  newLifecycle(),
		subs:       make(map[MessageKind]map[uint64]Handler),
		statusSubs: make(map[uint64]func(Status)),
	}, nil
}

func (c *wsClient) Connect() {
	c.mu.Lock()
	if err := c.lifecycle.Event(context.Background(), eventDial); err != nil {
		// Already connecting or connected.
		c.mu.Unlock()
		return
	}
	c.intentional = false
	c.mu.Unlock()

	c.notifyStatus(StatusConnecting)
	go c.dial()
}

func (c *wsClient) dial() {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, resp, err := dialer.Dial(c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	if c.intentional {
		// Operator disconnected while the dial was in flight.
		if conn != nil {
			conn.Close()
		}
		_ = c.lifecycle.Event(context.Background(), eventClose)
		c.mu.Unlock()
		c.notifyStatus(StatusDisconnected)
		return
	}

	if err != nil {
		_ = c.lifecycle.Event(context.Background(), eventClose)
		c.scheduleReconnectLocked()
		attempts := c.attempts
		c.mu.Unlock()

		c.logger.Warn("connect failed", "url", c.cfg.URL, "attempts", attempts, err)
		c.notifyStatus(StatusDisconnected)
		return
	}

	c.conn = conn
	c.attempts = 0
	_ = c.lifecycle.Event(context.Background(), eventOpen)
	c.heartbeatStop = make(chan struct{})
	go c.heartbeatLoop(conn, c.heartbeatStop)
	go c.readLoop(conn)
	c.mu.Unlock()

	c.logger.Info("connected", "url", c.cfg.URL)
	c.notifyStatus(StatusConnected)
}

func (c *wsClient) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()
	conn := c.conn
	c.conn = nil
	closed := c.lifecycle.Event(context.Background(), eventClose) == nil
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}

	if closed {
		c.logger.Info("disconnected by operator")
		c.notifyStatus(StatusDisconnected)
	}
}

func (c *wsClient) Send(cmd Command) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.lifecycle.Current() == string(StatusConnected)
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command %q: %w", cmd.Kind(), err)
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send command %q: %w", cmd.Kind(), err)
	}
	return nil
}

func (c *wsClient) Subscribe(kind MessageKind, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++

	set, ok := c.subs[kind]
	if !ok {
		set = make(map[uint64]Handler)
		c.subs[kind] = set
	}
	set[id] = h

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[kind], id)
	}
}

func (c *wsClient) OnStatusChange(fn func(Status)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.statusSubs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.statusSubs, id)
	}
}

func (c *wsClient) Status() Status {
	return Status(c.lifecycle.Current())
}

func (c *wsClient) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// readLoop owns the connection's inbound side. A read error is the single
// authority on connection death; heartbeat write failures are ignored.
func (c *wsClient) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(conn, err)
			return
		}
		c.dispatch(payload)
	}
}

func (c *wsClient) dispatch(payload []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.Type == "" {
		c.logger.Warn("dropping malformed frame", "size", len(payload), err)
		return
	}

	kind := MessageKind(env.Type)

	c.mu.Lock()
	var handlers []Handler
	for _, category := range kindRoutes[kind] {
		for _, h := range c.subs[category] {
			handlers = append(handlers, h)
		}
	}
	for _, h := range c.subs[KindAny] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	// Handlers run inline so frames are consumed in arrival order.
	for _, h := range handlers {
		h(kind, payload)
	}
}

func (c *wsClient) heartbeatLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	ping, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, ping)
			c.writeMu.Unlock()
			if err != nil {
				// Non-fatal: the read loop reports the close.
				c.logger.Debug("heartbeat send failed", err)
				continue
			}
			_ = c.lifecycle.Event(context.Background(), eventHeartbeat)
		}
	}
}

// connectionLost handles a peer-initiated close or transport error. Stale
// invocations from a superseded connection are ignored.
func (c *wsClient) connectionLost(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = nil
	c.stopHeartbeatLocked()
	_ = c.lifecycle.Event(context.Background(), eventClose)
	if !c.intentional {
		c.scheduleReconnectLocked()
	}
	attempts := c.attempts
	c.mu.Unlock()

	conn.Close()
	c.logger.Warn("connection lost", "attempts", attempts, cause)
	c.notifyStatus(StatusDisconnected)
}

// scheduleReconnectLocked arms the reconnect timer. At most one timer is
// pending at a time, and no timer is armed past the attempt bound.
// Caller must hold c.mu.
func (c *wsClient) scheduleReconnectLocked() {
	if c.reconnectTimer != nil {
		return
	}
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.logger.Error(nil, "reconnect attempts exhausted, waiting for operator",
			"max", c.cfg.MaxReconnectAttempts)
		return
	}
	c.attempts++
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		intentional := c.intentional
		c.mu.Unlock()
		if !intentional {
			c.Connect()
		}
	})
}

// stopHeartbeatLocked stops the heartbeat goroutine. Caller must hold c.mu.
func (c *wsClient) stopHeartbeatLocked() {
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
}

func (c *wsClient) notifyStatus(s Status) {
	c.mu.Lock()
	listeners := make([]func(Status), 0, len(c.statusSubs))
	for _, fn := range c.statusSubs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
