package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hersh/gmtris/internal/game"
	"github.com/hersh/gmtris/internal/netclient"
	"github.com/hersh/gmtris/internal/progression"
	"github.com/hersh/gmtris/internal/protocol"
)

type sent struct {
	typ     protocol.MessageType
	payload any
}

type fakeConn struct {
	sent   []sent
	closed bool
}

func (c *fakeConn) Send(t protocol.MessageType, payload any) {
	c.sent = append(c.sent, sent{t, payload})
}

func (c *fakeConn) Close() { c.closed = true }

func (c *fakeConn) last() sent { return c.sent[len(c.sent)-1] }

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newModel(conn Conn) (Model, *fakeClock) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	cfg := Config{
		Name:  "dana",
		Table: progression.Default(),
		Seed:  func() int64 { return 1 },
		Now:   clock.now,
	}
	if conn != nil {
		cfg.Conn = conn
	}
	return NewModel(cfg), clock
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func serverMsg(t *testing.T, typ protocol.MessageType, payload any) netclient.ServerMsg {
	t.Helper()
	data, err := protocol.Encode(typ, payload)
	require.NoError(t, err)
	env, err := protocol.Decode(data)
	require.NoError(t, err)
	return netclient.ServerMsg{Envelope: env}
}

func TestOfflineStartsOnWelcome(t *testing.T) {
	m, _ := newModel(nil)
	assert.Equal(t, ScreenWelcome, m.Screen())

	m, cmd := update(t, m, key("2"))
	assert.Nil(t, cmd)
	assert.Equal(t, ScreenWelcome, m.Screen())
	assert.Contains(t, m.View(), "server connection")
}

func TestSinglePlayerRunsFrames(t *testing.T) {
	m, clock := newModel(nil)

	m, cmd := update(t, m, key("1"))
	require.NotNil(t, cmd)
	assert.Equal(t, ScreenPlaying, m.Screen())

	m, cmd = update(t, m, FrameMsg(clock.t))
	require.NotNil(t, cmd)
	assert.Equal(t, game.Falling, m.State().Phase)
	assert.Equal(t, 1, m.State().Level.Level)

	m, _ = update(t, m, key("q"))
	assert.Equal(t, ScreenPlaying, m.Screen(), "q does not quit mid-game")

	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ScreenWelcome, m.Screen())

	_, cmd = update(t, m, FrameMsg(clock.t))
	assert.Nil(t, cmd, "frames stop once the game is left")
}

func TestMovementKeyReachesGame(t *testing.T) {
	m, clock := newModel(nil)
	m, _ = update(t, m, key("1"))
	m, _ = update(t, m, FrameMsg(clock.t))
	x := m.logic.Active().Position().X

	m, _ = update(t, m, key("a"))
	clock.t = clock.t.Add(progression.Frame)
	m, _ = update(t, m, FrameMsg(clock.t))
	assert.Equal(t, x-1, m.logic.Active().Position().X)
}

func TestVersusFlow(t *testing.T) {
	conn := &fakeConn{}
	m, clock := newModel(conn)
	assert.Equal(t, ScreenConnecting, m.Screen())

	m, _ = update(t, m, netclient.ConnectedMsg{PlayerID: "p1"})
	assert.Equal(t, ScreenWelcome, m.Screen())

	m, _ = update(t, m, key("2"))
	require.Equal(t, ScreenLobby, m.Screen())
	assert.Equal(t, protocol.MsgJoin, conn.last().typ)
	assert.Equal(t, protocol.JoinPayload{PlayerName: "dana"}, conn.last().payload)

	m, _ = update(t, m, key(" "))
	assert.Equal(t, sent{protocol.MsgReady, protocol.ReadyPayload{Ready: true}}, conn.last())

	m, _ = update(t, m, serverMsg(t, protocol.MsgLobbyUpdate, protocol.LobbyUpdatePayload{
		Players: []protocol.LobbyPlayer{{PlayerID: "p1", Name: "dana", Ready: true}},
	}))
	assert.Contains(t, m.View(), "dana <")

	m, _ = update(t, m, serverMsg(t, protocol.MsgCountdown, protocol.CountdownPayload{Value: 3}))
	assert.Equal(t, ScreenCountdown, m.Screen())

	m, cmd := update(t, m, serverMsg(t, protocol.MsgGameStart, protocol.GameStartPayload{Seed: 9, Players: []string{"p1", "p2"}}))
	require.NotNil(t, cmd)
	require.Equal(t, ScreenPlaying, m.Screen())

	m, _ = update(t, m, FrameMsg(clock.t))
	m, cmd = update(t, m, SnapshotTickMsg(clock.t))
	assert.NotNil(t, cmd)
	snap, ok := conn.last().payload.(protocol.BoardSnapshotPayload)
	require.True(t, ok)
	assert.True(t, snap.Alive)
	assert.Equal(t, game.DefaultWidth, snap.Width)
	assert.Len(t, snap.Board, game.DefaultWidth*game.DefaultHeight)

	m, _ = update(t, m, serverMsg(t, protocol.MsgOpponentUpdate, protocol.OpponentUpdatePayload{
		Opponents: []protocol.OpponentState{{PlayerID: "p2", PlayerName: "eve", Alive: true}},
	}))
	assert.Contains(t, m.View(), "eve")

	m, _ = update(t, m, serverMsg(t, protocol.MsgMatchOver, protocol.MatchOverPayload{
		WinnerID: "p1", WinnerName: "dana", YourRank: 1,
		Standings: []protocol.Standing{{PlayerID: "p1", Name: "dana", Rank: 1}, {PlayerID: "p2", Name: "eve", Rank: 2}},
	}))
	require.Equal(t, ScreenGameOver, m.Screen())
	assert.Contains(t, m.View(), "WINNER!")

	m, _ = update(t, m, key("enter"))
	assert.Equal(t, ScreenLobby, m.Screen())
	assert.Nil(t, m.logic)

	_, cmd = update(t, m, key("q"))
	assert.NotNil(t, cmd)
	assert.True(t, conn.closed)
}

func TestServerErrorIsShown(t *testing.T) {
	conn := &fakeConn{}
	m, _ := newModel(conn)
	m, _ = update(t, m, netclient.ConnectedMsg{PlayerID: "p1"})
	m, _ = update(t, m, key("2"))

	m, _ = update(t, m, serverMsg(t, protocol.MsgError, protocol.ErrorPayload{Message: "round in progress"}))
	assert.Contains(t, m.View(), "round in progress")
}

func TestDisconnect(t *testing.T) {
	m, _ := newModel(&fakeConn{})
	m, _ = update(t, m, netclient.DisconnectedMsg{})
	assert.Contains(t, m.View(), "Disconnected")
}
