// Package relay is the versus server: a websocket hub that gathers players in
// a lobby, starts rounds with a shared seed and relays board snapshots
// between them.
package relay

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/protocol"
)

// Config tunes the relay. Zero values use the defaults.
type Config struct {
	Logger *zap.Logger

	MinPlayers        int
	BroadcastInterval time.Duration
	CountdownFrom     int
	CountdownStep     time.Duration
	// ResetDelay is how long results stay up before the lobby reopens.
	ResetDelay time.Duration
	// Seed picks the piece seed of each round.
	Seed func() int64
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.MinPlayers <= 0 {
		c.MinPlayers = 2
	}
	if c.BroadcastInterval <= 0 {
		c.BroadcastInterval = 100 * time.Millisecond
	}
	if c.CountdownFrom <= 0 {
		c.CountdownFrom = 3
	}
	if c.CountdownStep <= 0 {
		c.CountdownStep = time.Second
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = 2 * time.Second
	}
	if c.Seed == nil {
		c.Seed = rand.Int63
	}
}

// Server accepts websocket clients into a single match.
type Server struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	match    *Match
}

// New returns a server with cfg applied.
func New(cfg Config) *Server {
	cfg.setDefaults()
	return &Server{
		log: cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		match: newMatch(cfg),
	}
}

// Match returns the server's match.
func (s *Server) Match() *Match { return s.match }

// Handler serves the websocket endpoint on /ws and a health check on
// /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	p := newPlayer(uuid.NewString(), conn, s.log)
	go p.writePump()
	p.send(protocol.MsgAssignID, protocol.AssignIDPayload{PlayerID: p.ID})
	p.log.Debug("connected", zap.String("remote", r.RemoteAddr))

	p.readPump(func(env protocol.Envelope) { s.handleMessage(p, env) })

	s.match.leave(p)
	p.close()
	p.log.Info("disconnected", zap.String("name", p.Name))
}

func (s *Server) handleMessage(p *Player, env protocol.Envelope) {
	switch env.Type {
	case protocol.MsgJoin:
		var payload protocol.JoinPayload
		if s.decode(p, env, &payload) {
			s.match.join(p, payload.PlayerName)
		}

	case protocol.MsgReady:
		var payload protocol.ReadyPayload
		if s.decode(p, env, &payload) {
			s.match.setReady(p, payload.Ready)
		}

	case protocol.MsgBoardSnapshot:
		var payload protocol.BoardSnapshotPayload
		if s.decode(p, env, &payload) {
			s.match.storeSnapshot(p, payload)
		}

	case protocol.MsgPlayerDead:
		var payload protocol.PlayerDeadPayload
		if s.decode(p, env, &payload) {
			s.match.playerDead(p, payload.Level)
		}

	default:
		p.log.Warn("unknown message type", zap.String("type", string(env.Type)))
	}
}

func (s *Server) decode(p *Player, env protocol.Envelope, v any) bool {
	if err := env.Into(v); err != nil {
		p.log.Warn("bad payload", zap.Error(err))
		return false
	}
	return true
}
