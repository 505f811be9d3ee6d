package protocol

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

type ConnConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// Connection wraps a websocket with deadlines, a codec and counters.
// Reads happen on one goroutine; writes are serialised.
type Connection struct {
	conn   *websocket.Conn
	config ConnConfig
	codec  JSONCodec
	closed int32

	writeMu sync.Mutex

	messagesSent     uint64
	messagesReceived uint64
}

func NewConnection(conn *websocket.Conn, config ConnConfig) *Connection {
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(config.MaxMessageSize)
	}
	return &Connection{conn: conn, config: config}
}

// Receive blocks for the next client message. Decode failures are returned
// wrapping ErrMalformed and leave the connection usable.
func (c *Connection) Receive() (ClientMessage, error) {
	if c.IsClosed() {
		return ClientMessage{}, ErrConnClosed
	}
	if c.config.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return ClientMessage{}, errors.Wrap(ErrMessageTooLarge, "failed to read message")
		}
		return ClientMessage{}, errors.Wrap(err, "failed to read message")
	}
	atomic.AddUint64(&c.messagesReceived, 1)

	if messageType != websocket.TextMessage {
		return ClientMessage{}, errors.Wrap(ErrMalformed, "expected text message")
	}
	return c.codec.Decode(data)
}

func (c *Connection) Send(msg ServerMessage) error {
	if c.IsClosed() {
		return ErrConnClosed
	}
	data, err := c.codec.Encode(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err = c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	atomic.AddUint64(&c.messagesSent, 1)
	return nil
}

func (c *Connection) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Stats returns the number of messages sent and received.
func (c *Connection) Stats() (sent, received uint64) {
	return atomic.LoadUint64(&c.messagesSent), atomic.LoadUint64(&c.messagesReceived)
}

func (c *Connection) Close() error {
	return c.CloseWithReason("connection closed")
}

// CloseWithReason sends a close frame and closes the socket. It is idempotent.
func (c *Connection) CloseWithReason(reason string) error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	c.writeMu.Lock()
	closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
