// Package netclient connects the terminal client to the versus relay.
package netclient

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 16384
)

// ServerMsg is a tea.Msg that wraps an incoming server message.
type ServerMsg struct {
	protocol.Envelope
}

// ConnectedMsg is sent when the client receives its PlayerID.
type ConnectedMsg struct {
	PlayerID string
}

// DisconnectedMsg is sent when the WebSocket connection is lost.
type DisconnectedMsg struct {
	Err error
}

// Sender delivers messages into the UI. *tea.Program implements it.
type Sender interface {
	Send(tea.Msg)
}

// Client manages the WebSocket connection to the relay.
type Client struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	sendCh  chan []byte
	program Sender
	done    chan struct{}
	closed  bool
	log     *zap.Logger
}

// New dials the relay at serverURL.
func New(serverURL string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:   conn,
		sendCh: make(chan []byte, 256),
		done:   make(chan struct{}),
		log:    log.With(zap.String("server", serverURL)),
	}, nil
}

// SetProgram sets where incoming messages are delivered.
func (c *Client) SetProgram(p Sender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.program = p
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Send encodes and queues a message for the relay.
func (c *Client) Send(t protocol.MessageType, payload any) {
	data, err := protocol.Encode(t, payload)
	if err != nil {
		c.log.Error("encode message", zap.Error(err))
		return
	}
	select {
	case c.sendCh <- data:
	default:
		c.log.Warn("send buffer full, dropping message", zap.String("type", string(t)))
	}
}

// Close asks the write pump to say goodbye and drop the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

func (c *Client) deliver(msg tea.Msg) {
	c.mu.Lock()
	p := c.program
	c.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// readPump reads messages from the relay and forwards them to the program.
func (c *Client) readPump() {
	var readErr error
	defer func() {
		c.deliver(DisconnectedMsg{Err: readErr})
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", zap.Error(err))
				readErr = err
			}
			return
		}

		env, err := protocol.Decode(message)
		if err != nil {
			c.log.Warn("bad message", zap.Error(err))
			continue
		}

		switch env.Type {
		case protocol.MsgAssignID:
			var payload protocol.AssignIDPayload
			if env.Into(&payload) == nil {
				c.deliver(ConnectedMsg{PlayerID: payload.PlayerID})
			}
		default:
			c.deliver(ServerMsg{Envelope: env})
		}
	}
}

// writePump writes queued messages and pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.conn.Close()
			return
		}
	}
}
