package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 16384
	sendBuffer     = 256
)

// Player is one connected client. Name, Ready, Alive, Rank and the snapshot
// belong to the match and are only touched under its lock.
type Player struct {
	ID    string
	Name  string
	Ready bool
	Alive bool
	Rank  int

	snapshot *protocol.BoardSnapshotPayload

	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger
}

func newPlayer(id string, conn *websocket.Conn, log *zap.Logger) *Player {
	return &Player{
		ID:     id,
		Alive:  true,
		conn:   conn,
		sendCh: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		log:    log.With(zap.String("player_id", id)),
	}
}

// send encodes a message and queues it without blocking.
func (p *Player) send(t protocol.MessageType, payload any) {
	data, err := protocol.Encode(t, payload)
	if err != nil {
		p.log.Error("encode message", zap.String("type", string(t)), zap.Error(err))
		return
	}
	select {
	case <-p.done:
	case p.sendCh <- data:
	default:
		p.log.Warn("send buffer full, dropping message", zap.String("type", string(t)))
	}
}

func (p *Player) close() {
	p.once.Do(func() { close(p.done) })
}

// writePump sends queued messages and keeps the connection alive with pings.
func (p *Player) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg := <-p.sendCh:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				p.log.Debug("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-p.done:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump reads messages until the connection fails, handing each decoded
// envelope to handle.
func (p *Player) readPump(handle func(protocol.Envelope)) {
	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.log.Warn("read failed", zap.Error(err))
			}
			return
		}

		env, err := protocol.Decode(message)
		if err != nil {
			p.log.Warn("bad message", zap.Error(err))
			continue
		}
		handle(env)
	}
}
