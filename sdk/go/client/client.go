// Package client is a Go client for the arcourse /play websocket endpoint.
package client

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
)

// Client drives one remote game session.
type Client struct {
	// Connection management
	conn    *websocket.Conn
	codec   protocol.JSONCodec
	writeMu sync.Mutex

	sessionID string
	lastState atomic.Pointer[protocol.ServerMessage]

	// Event handlers
	messageHandlers map[protocol.MessageType][]MessageHandler
	eventHandlers   map[EventType][]EventHandler
	handlerMutex    sync.RWMutex

	// Lifecycle
	connected int32 // atomic bool
	closed    int32 // atomic bool
	done      chan struct{}

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	// ServerURL is the websocket URL of the play endpoint, e.g. ws://host:8080/play.
	ServerURL      string
	AccessToken    string
	ConnectTimeout time.Duration
	MessageTimeout time.Duration
	MaxMessageSize int64
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:      "ws://127.0.0.1:8080/play",
		ConnectTimeout: 10 * time.Second,
		MessageTimeout: 5 * time.Second,
		MaxMessageSize: 1024 * 1024, // 1MB
	}
}

// MessageHandler is called for every server message of a type, in arrival order.
type MessageHandler func(msg protocol.ServerMessage) error

// EventHandler defines a function type for handling client events
type EventHandler func(event Event) error

// EventType represents different types of client events
type EventType string

const (
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"
)

// Event represents a client event
type Event struct {
	Type      EventType
	Timestamp time.Time
	Error     error
}

func NewClient(config Config, logger log.Log) *Client {
	if logger == nil {
		logger = log.Provide()
	}
	return &Client{
		messageHandlers: make(map[protocol.MessageType][]MessageHandler),
		eventHandlers:   make(map[EventType][]EventHandler),
		done:            make(chan struct{}),
		config:          config,
		logger:          logger.With(log.String("component", "client")),
	}
}

// Connect dials the server and waits for its hello.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 1 {
		return ErrAlreadyConnected
	}

	target, err := url.Parse(c.config.ServerURL)
	if err != nil {
		return errors.Wrap(err, "parse server url")
	}
	if c.config.AccessToken != "" {
		q := target.Query()
		q.Set("token", c.config.AccessToken)
		target.RawQuery = q.Encode()
	}

	c.logger.Info("Connecting to server", log.String("url", c.config.ServerURL))

	connectCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(connectCtx, target.String(), nil)
	if err != nil {
		if errors.Is(connectCtx.Err(), context.DeadlineExceeded) {
			return errors.Wrap(ErrConnectionTimeout, err.Error())
		}
		return errors.Wrap(err, "dial")
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	hello, err := c.read(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	if hello.Type != protocol.TypeHello {
		_ = conn.Close()
		return errors.Wrapf(ErrUnexpectedHello, "got %q", hello.Type)
	}

	c.conn = conn
	c.sessionID = hello.SessionID
	atomic.StoreInt32(&c.connected, 1)

	c.logger.Info("Connected to server", log.String("session_id", c.sessionID))

	c.workerGroup.Add(1)
	go func() {
		defer c.workerGroup.Done()
		c.messageReceiver()
	}()

	c.emitEvent(Event{Type: EventTypeConnected, Timestamp: time.Now()})
	return nil
}

// Disconnect closes the connection to the server
func (c *Client) Disconnect() error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return ErrNotConnected
	}

	c.logger.Info("Disconnecting from server")

	c.writeMu.Lock()
	closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect")
	_ = c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = c.conn.Close()

	c.workerGroup.Wait()
	c.emitEvent(Event{Type: EventTypeDisconnected, Timestamp: time.Now()})
	return nil
}

// Close closes the client and releases all resources
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil // Already closed
	}
	if atomic.LoadInt32(&c.connected) == 1 {
		_ = c.Disconnect()
	}
	close(c.done)
	return nil
}

// Done is closed once Close has been called.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Send(msg protocol.ClientMessage) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 0 {
		return ErrNotConnected
	}

	data, err := c.codec.EncodeClient(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.config.MessageTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.MessageTimeout))
	}
	return errors.Wrap(c.conn.WriteMessage(websocket.TextMessage, data), "failed to write message")
}

// SendFrame sends one pose sample. A nil head reports lost tracking.
func (c *Client) SendFrame(t float64, head *geometry.Vec3) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeFrame, Time: t, Head: head})
}

func (c *Client) Place(position, forward geometry.Vec3) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypePlace, Position: position, Forward: forward})
}

func (c *Client) Recenter(position, forward geometry.Vec3) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeRecenter, Position: position, Forward: forward})
}

func (c *Client) Reset() error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeReset})
}

func (c *Client) TogglePlacement() error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeTogglePlacement})
}

// OnMessage registers a message handler for a specific message type
func (c *Client) OnMessage(msgType protocol.MessageType, handler MessageHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.messageHandlers[msgType] = append(c.messageHandlers[msgType], handler)
}

// OnEvent registers an event handler for a specific event type
func (c *Client) OnEvent(eventType EventType, handler EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.eventHandlers[eventType] = append(c.eventHandlers[eventType], handler)
}

// SessionID is the server-assigned session ID from the hello message.
func (c *Client) SessionID() string { return c.sessionID }

// LastState returns the most recent state message.
func (c *Client) LastState() (protocol.ServerMessage, bool) {
	if s := c.lastState.Load(); s != nil {
		return *s, true
	}
	return protocol.ServerMessage{}, false
}

func (c *Client) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

func (c *Client) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) read(conn *websocket.Conn) (protocol.ServerMessage, error) {
	if c.config.MessageTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.config.MessageTimeout))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return protocol.ServerMessage{}, errors.Wrap(err, "failed to read message")
	}
	return c.codec.DecodeServer(data)
}

// messageReceiver reads until the connection fails or is closed. The server
// may stay quiet between client messages, so no read deadline applies here.
func (c *Client) messageReceiver() {
	c.logger.Debug("Message receiver started")
	defer c.logger.Debug("Message receiver stopped")

	_ = c.conn.SetReadDeadline(time.Time{})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
				c.logger.Warn("Connection lost", log.Error(err))
				_ = c.conn.Close()
				c.emitEvent(Event{Type: EventTypeDisconnected, Timestamp: time.Now(), Error: err})
			}
			return
		}

		msg, err := c.codec.DecodeServer(data)
		if err != nil {
			c.emitEvent(Event{Type: EventTypeError, Timestamp: time.Now(), Error: err})
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg protocol.ServerMessage) {
	if msg.Type == protocol.TypeState {
		c.lastState.Store(&msg)
	}

	c.handlerMutex.RLock()
	handlers := c.messageHandlers[msg.Type]
	c.handlerMutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(msg); err != nil {
			c.logger.Error("Message handler error", log.Error(err))
		}
	}
}

func (c *Client) emitEvent(event Event) {
	c.handlerMutex.RLock()
	handlers := c.eventHandlers[event.Type]
	c.handlerMutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			c.logger.Error("Event handler error", log.Error(err))
		}
	}
}
