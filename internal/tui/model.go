// Package tui is the terminal front end: a bubbletea model that runs the game
// at a fixed frame rate and talks to the versus relay when connected.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/game"
	"github.com/hersh/gmtris/internal/input"
	"github.com/hersh/gmtris/internal/netclient"
	"github.com/hersh/gmtris/internal/piece"
	"github.com/hersh/gmtris/internal/progression"
	"github.com/hersh/gmtris/internal/protocol"
	"github.com/hersh/gmtris/internal/sound"
)

// --- Custom tea.Msg types ---

// FrameMsg advances the game by one frame.
type FrameMsg time.Time

// SnapshotTickMsg triggers sending a board snapshot to the relay.
type SnapshotTickMsg time.Time

const (
	snapshotInterval = 100 * time.Millisecond
	bannerTime       = 1500 * time.Millisecond
)

// --- Screens and modes ---

type Screen int

const (
	ScreenConnecting Screen = iota
	ScreenWelcome
	ScreenLobby
	ScreenCountdown
	ScreenPlaying
	ScreenGameOver
)

type GameMode int

const (
	ModeNone GameMode = iota
	ModeSingle
	ModeMulti
)

// Conn is the relay connection as the model sees it.
type Conn interface {
	Send(t protocol.MessageType, payload any)
	Close()
}

// Config configures a Model. Table is required.
type Config struct {
	Name        string
	Table       *progression.Table
	Progression progression.Options
	// Seed seeds single-player games. Nil uses the wall clock.
	Seed   func() int64
	Logger *zap.Logger
	// Conn is nil in offline mode, where only single player is offered.
	Conn Conn
	// Now is the clock used for key timing. Nil means time.Now.
	Now func() time.Time
}

// --- Model ---

type Model struct {
	cfg    Config
	log    *zap.Logger
	conn   Conn
	screen Screen
	mode   GameMode

	playerID string
	width    int
	height   int

	// Local game
	logic    *game.Logic
	sink     *presenter
	keys     *keyboard
	buttons  *input.Buttons
	state    game.State
	deadSent bool
	banner   string
	bannerAt time.Time

	// Lobby state (from server)
	lobbyPlayers []protocol.LobbyPlayer
	ready        bool
	countdown    int

	// Versus state
	opponents   []protocol.OpponentState
	matchResult *protocol.MatchOverPayload

	notice       string
	err          error
	disconnected bool
}

// NewModel creates the client model.
func NewModel(cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Seed == nil {
		cfg.Seed = func() int64 { return time.Now().UnixNano() }
	}
	if cfg.Name == "" {
		cfg.Name = "Player"
	}

	screen := ScreenConnecting
	if cfg.Conn == nil {
		screen = ScreenWelcome
	}
	return Model{
		cfg:     cfg,
		log:     cfg.Logger,
		conn:    cfg.Conn,
		screen:  screen,
		keys:    newKeyboard(),
		buttons: &input.Buttons{},
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func frameCmd() tea.Cmd {
	return tea.Tick(progression.Frame, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func snapshotTickCmd() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg {
		return SnapshotTickMsg(t)
	})
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case FrameMsg:
		return m.handleFrame()
	case SnapshotTickMsg:
		return m.handleSnapshotTick()

	// Network messages
	case netclient.ConnectedMsg:
		m.playerID = msg.PlayerID
		if m.screen == ScreenConnecting {
			m.screen = ScreenWelcome
		}
		return m, nil
	case netclient.DisconnectedMsg:
		m.disconnected = true
		m.log.Info("disconnected", zap.Error(msg.Err))
		return m, nil
	case netclient.ServerMsg:
		return m.handleServerMsg(msg)
	}
	return m, nil
}

// --- Network message handlers ---

func (m Model) handleServerMsg(msg netclient.ServerMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case protocol.MsgLobbyUpdate:
		var payload protocol.LobbyUpdatePayload
		if m.decode(msg, &payload) {
			m.lobbyPlayers = payload.Players
		}

	case protocol.MsgCountdown:
		var payload protocol.CountdownPayload
		if m.decode(msg, &payload) {
			m.countdown = payload.Value
			m.screen = ScreenCountdown
		}

	case protocol.MsgGameStart:
		var payload protocol.GameStartPayload
		if !m.decode(msg, &payload) {
			break
		}
		m.log.Info("round starting", zap.Int64("seed", payload.Seed), zap.Int("players", len(payload.Players)))
		m.matchResult = nil
		m.opponents = nil
		m.mode = ModeMulti
		if err := m.startGame(piece.NewBag(payload.Seed)); err != nil {
			m.err = err
			return m, nil
		}
		return m, tea.Batch(frameCmd(), snapshotTickCmd())

	case protocol.MsgOpponentUpdate:
		var payload protocol.OpponentUpdatePayload
		if m.decode(msg, &payload) {
			m.opponents = payload.Opponents
		}

	case protocol.MsgMatchOver:
		var payload protocol.MatchOverPayload
		if m.decode(msg, &payload) {
			m.matchResult = &payload
			m.screen = ScreenGameOver
		}

	case protocol.MsgError:
		var payload protocol.ErrorPayload
		if m.decode(msg, &payload) {
			m.notice = payload.Message
		}
	}
	return m, nil
}

func (m Model) decode(msg netclient.ServerMsg, v any) bool {
	if err := msg.Into(v); err != nil {
		m.log.Warn("bad server message", zap.Error(err))
		return false
	}
	return true
}

// --- Key handlers ---

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.closeConn()
		return m, tea.Quit
	case "q":
		if m.screen == ScreenPlaying {
			// Don't quit during gameplay with q
			break
		}
		m.closeConn()
		return m, tea.Quit
	}

	switch m.screen {
	case ScreenWelcome:
		return m.handleWelcomeKeys(msg)
	case ScreenLobby:
		return m.handleLobbyKeys(msg)
	case ScreenPlaying:
		return m.handlePlayingKeys(msg)
	case ScreenGameOver:
		return m.handleGameOverKeys(msg)
	}
	return m, nil
}

func (m Model) handleWelcomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "1", "s":
		// Single player - local only, no network
		m.mode = ModeSingle
		if err := m.startGame(piece.NewBag(m.cfg.Seed())); err != nil {
			m.err = err
			return m, nil
		}
		return m, frameCmd()
	case "2", "enter":
		if m.conn == nil || m.disconnected {
			m.notice = "multiplayer needs a server connection"
			return m, nil
		}
		m.mode = ModeMulti
		m.screen = ScreenLobby
		m.ready = false
		m.notice = ""
		m.conn.Send(protocol.MsgJoin, protocol.JoinPayload{PlayerName: m.cfg.Name})
	}
	return m, nil
}

func (m Model) handleLobbyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == " " {
		m.ready = !m.ready
		m.conn.Send(protocol.MsgReady, protocol.ReadyPayload{Ready: m.ready})
	}
	return m, nil
}

func (m Model) handlePlayingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" && m.mode == ModeSingle {
		m.stopGame()
		m.screen = ScreenWelcome
		m.mode = ModeNone
		return m, nil
	}
	m.keys.press(msg.String(), m.cfg.Now())
	return m, nil
}

func (m Model) handleGameOverKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "enter" {
		return m, nil
	}
	m.stopGame()
	if m.mode == ModeSingle {
		m.screen = ScreenWelcome
		m.mode = ModeNone
		return m, nil
	}
	// the relay returns everyone to the lobby on its own
	m.screen = ScreenLobby
	m.ready = false
	m.matchResult = nil
	m.opponents = nil
	return m, nil
}

// --- Game lifecycle ---

func (m *Model) startGame(seq piece.Sequence) error {
	sink := &presenter{log: m.log}
	logic, err := game.New(game.Config{
		Source:  piece.NewFactory(seq, game.DefaultTexture),
		Sink:    sink,
		Table:   m.cfg.Table,
		Options: m.cfg.Progression,
		Logger:  m.log,
	})
	if err != nil {
		return err
	}
	m.logic = logic
	m.sink = sink
	m.keys.reset(m.buttons)
	m.state = logic.Start()
	m.deadSent = false
	m.banner = ""
	m.screen = ScreenPlaying
	return nil
}

func (m *Model) stopGame() {
	m.logic = nil
	m.sink = nil
}

func (m Model) handleFrame() (tea.Model, tea.Cmd) {
	if m.screen != ScreenPlaying || m.logic == nil {
		return m, nil
	}
	if m.state.Phase == game.GameOver {
		return m, nil
	}

	now := m.cfg.Now()
	m.keys.apply(m.buttons, now)
	m.state = m.logic.Update(m.buttons, progression.Frame)
	m.buttons.Commit()
	m.noteEffects(now)

	if m.state.Phase != game.GameOver {
		return m, frameCmd()
	}

	if m.mode == ModeSingle {
		m.screen = ScreenGameOver
		return m, nil
	}
	if !m.deadSent && m.conn != nil {
		m.conn.Send(protocol.MsgPlayerDead, protocol.PlayerDeadPayload{Level: m.state.Level.Level})
		m.deadSent = true
	}
	// stay on the board until the relay declares a result
	return m, nil
}

// noteEffects turns this frame's cues into a banner.
func (m *Model) noteEffects(now time.Time) {
	for _, e := range m.sink.drain() {
		switch e {
		case sound.SectionPass:
			m.setBanner("SECTION PASS", now)
		case sound.SectionBell:
			m.setBanner("LEVEL STOP", now)
		}
	}
	if m.state.Alert == progression.AlertSectionClear {
		m.setBanner("SECTION CLEAR!", now)
	}
	if m.banner != "" && now.Sub(m.bannerAt) > bannerTime {
		m.banner = ""
	}
}

func (m *Model) setBanner(text string, now time.Time) {
	m.banner = text
	m.bannerAt = now
}

func (m Model) handleSnapshotTick() (tea.Model, tea.Cmd) {
	if m.screen != ScreenPlaying || m.mode != ModeMulti || m.logic == nil || m.conn == nil {
		return m, nil
	}
	grid := m.logic.Grid()
	alive := m.state.Phase != game.GameOver
	m.conn.Send(protocol.MsgBoardSnapshot, protocol.BoardSnapshotPayload{
		Level:   m.state.Level.Level,
		Section: m.state.Section,
		Lines:   m.state.Lines,
		Alive:   alive,
		Width:   grid.Width(),
		Height:  grid.Height(),
		Board:   m.logic.Board(),
	})
	if !alive {
		return m, nil
	}
	return m, snapshotTickCmd()
}

func (m *Model) closeConn() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// --- View ---

func (m Model) View() string {
	if m.disconnected && m.screen != ScreenPlaying {
		return m.renderCentered("Disconnected from server.\nPress Ctrl+C to exit.")
	}
	if m.err != nil {
		return m.renderCentered(fmt.Sprintf("Error: %v\nPress Ctrl+C to exit.", m.err))
	}

	switch m.screen {
	case ScreenConnecting:
		return m.renderCentered("Connecting to server...")
	case ScreenWelcome:
		return m.renderCentered(RenderWelcome(m.conn != nil && !m.disconnected, m.notice))
	case ScreenLobby:
		return m.renderCentered(RenderLobby(m.lobbyPlayers, m.playerID, m.notice))
	case ScreenCountdown:
		return m.renderCentered(RenderCountdown(m.countdown))
	case ScreenPlaying:
		return m.renderPlaying()
	case ScreenGameOver:
		return m.renderGameOver()
	}
	return ""
}

func (m Model) renderCentered(content string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (m Model) renderPlaying() string {
	if m.logic == nil || m.sink == nil {
		return m.renderCentered("Loading...")
	}
	grid := m.logic.Grid()

	leftPanel := lipgloss.NewStyle().
		Width(24).
		Render(RenderInfo(m.cfg.Name, m.state, m.sink.frame, m.banner))

	centerPanel := lipgloss.NewStyle().
		Padding(1, 2).
		Render(RenderBoard(m.sink.frame, grid.Width(), grid.Height()))

	panels := []string{leftPanel, centerPanel}
	if m.mode == ModeMulti {
		if opp := RenderNetOpponents(m.opponents, 8); opp != "" {
			panels = append(panels, lipgloss.NewStyle().Padding(1, 2).Render(opp))
		}
	}
	return m.renderCentered(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
}

func (m Model) renderGameOver() string {
	var content string
	switch {
	case m.mode == ModeMulti && m.matchResult != nil:
		content = RenderResults(*m.matchResult, m.playerID)
	default:
		content = RenderSingleGameOver(m.state)
	}
	content += "\n\nPress ENTER to continue"
	return m.renderCentered(content)
}

// Screen reports the current screen.
func (m Model) Screen() Screen { return m.screen }

// State returns the outcome of the last game frame.
func (m Model) State() game.State { return m.state }
