package signal

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnState describes the control channel's lifecycle.
type ConnState int

const (
	StateClosed ConnState = iota
	StateConnecting
	StateOpen
)

// ReconnectDelay is the fixed pause before a dropped control channel is
// redialed.
const ReconnectDelay = 3 * time.Second

// Client maintains the persistent control channel to the signaling server.
// Dial failures and dropped connections are retried on a fixed delay until
// Close is called; transport errors are never surfaced to the caller.
type Client struct {
	endpoint string

	mu     sync.Mutex
	conn   *websocket.Conn
	state  ConnState
	closed bool
	retry  *time.Timer

	writeMu sync.Mutex

	onMessage func(Message)
	onState   func(bool)
}

// NewClient creates a client for the given WebSocket endpoint. Handlers must
// be registered before Connect.
func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint}
}

// SetMessageHandler registers the callback invoked for every inbound message.
func (c *Client) SetMessageHandler(fn func(Message)) {
	c.mu.Lock()
	c.onMessage = fn
	c.mu.Unlock()
}

// SetConnectionHandler registers the callback fired on channel open/close.
func (c *Client) SetConnectionHandler(fn func(bool)) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

// State returns the current channel state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts dialing the endpoint. It returns immediately; the channel
// opens (or keeps retrying) in the background.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed || c.state != StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.dial()
}

func (c *Client) dial() {
	conn, _, err := websocket.DefaultDialer.Dial(c.endpoint, nil)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		log.Printf("signal: dial %s: %v", c.endpoint, err)
		c.scheduleReconnect()
		return
	}
	c.conn = conn
	c.state = StateOpen
	onState := c.onState
	c.mu.Unlock()

	if onState != nil {
		onState(true)
	}
	go c.readLoop(conn)
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state = StateConnecting
	c.retry = time.AfterFunc(ReconnectDelay, c.dial)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("signal: invalid message: %v", err)
			continue
		}

		c.mu.Lock()
		fn := c.onMessage
		c.mu.Unlock()
		if fn != nil {
			fn(msg)
		}
	}

	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.state = StateClosed
	}
	closed := c.closed
	onState := c.onState
	c.mu.Unlock()

	if closed {
		return
	}
	if onState != nil {
		onState(false)
	}
	c.scheduleReconnect()
}

// Send writes msg to the channel. If the channel is not open the call is a
// no-op; nothing is queued.
func (c *Client) Send(msg Message) {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen && !c.closed
	c.mu.Unlock()

	if !open || conn == nil {
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("signal: send %s: %v", msg.Type, err)
	}
}

// Close shuts the channel down and cancels any pending reconnect. Safe to
// call multiple times.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.retry != nil {
		c.retry.Stop()
	}
	conn := c.conn
	c.conn = nil
	wasOpen := c.state == StateOpen
	c.state = StateClosed
	onState := c.onState
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if wasOpen && onState != nil {
		onState(false)
	}
}
