package relay

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/protocol"
)

// Phase is the lifecycle stage of a match.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhasePlaying
	PhaseResults
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseResults:
		return "results"
	}
	return "unknown"
}

// Match runs the lobby and the rounds played from it. Every client plays its
// own simulation; the match only relays snapshots and decides the ranking.
type Match struct {
	mu     sync.Mutex
	cfg    Config
	log    *zap.Logger
	phase  Phase
	roster *roster
	seed   int64
	// round is closed when the current countdown or round ends
	round chan struct{}
}

func newMatch(cfg Config) *Match {
	return &Match{
		cfg:    cfg,
		log:    cfg.Logger.With(zap.String("match", "main")),
		roster: newRoster(),
	}
}

// Phase returns the current phase.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Match) join(p *Player, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseLobby && m.roster.get(p.ID) == nil {
		p.send(protocol.MsgError, protocol.ErrorPayload{Message: "match in progress"})
		return
	}
	p.Name = name
	m.roster.add(p)
	m.log.Info("player joined", zap.String("player_id", p.ID), zap.String("name", name))
	m.broadcastLobby()
}

func (m *Match) setReady(p *Player, ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseLobby || m.roster.get(p.ID) == nil {
		return
	}
	p.Ready = ready
	m.broadcastLobby()

	if m.roster.allReady(m.cfg.MinPlayers) {
		m.startCountdown()
	}
}

func (m *Match) storeSnapshot(p *Player, snap protocol.BoardSnapshotPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlaying || m.roster.get(p.ID) == nil {
		return
	}
	p.snapshot = &snap
}

func (m *Match) playerDead(p *Player, level int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlaying || m.roster.get(p.ID) == nil || !p.Alive {
		return
	}
	if p.snapshot != nil {
		p.snapshot.Level = max(p.snapshot.Level, level)
		p.snapshot.Alive = false
	} else {
		p.snapshot = &protocol.BoardSnapshotPayload{Level: level}
	}
	m.eliminate(p)
	m.checkWinCondition()
}

func (m *Match) leave(p *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.roster.remove(p.ID) == nil {
		return
	}
	m.log.Info("player left", zap.String("player_id", p.ID), zap.String("name", p.Name))

	switch m.phase {
	case PhaseCountdown:
		if !m.roster.allReady(m.cfg.MinPlayers) {
			m.log.Info("countdown cancelled")
			m.endRound()
			m.phase = PhaseLobby
		}
	case PhasePlaying:
		if p.Alive {
			p.Alive = false
			m.checkWinCondition()
		}
	}
	if m.phase == PhaseLobby {
		m.broadcastLobby()
	}
}

// startCountdown must be called with m.mu held.
func (m *Match) startCountdown() {
	m.phase = PhaseCountdown
	m.round = make(chan struct{})
	go m.runCountdown(m.round)
}

func (m *Match) runCountdown(round <-chan struct{}) {
	for i := m.cfg.CountdownFrom; i > 0; i-- {
		m.mu.Lock()
		if m.phase != PhaseCountdown {
			m.mu.Unlock()
			return
		}
		m.broadcast(protocol.MsgCountdown, protocol.CountdownPayload{Value: i})
		m.mu.Unlock()

		select {
		case <-time.After(m.cfg.CountdownStep):
		case <-round:
			return
		}
	}
	m.startGame(round)
}

func (m *Match) startGame(round <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseCountdown {
		return
	}
	m.phase = PhasePlaying
	m.seed = m.cfg.Seed()

	ids := make([]string, 0, m.roster.len())
	for _, p := range m.roster.all() {
		ids = append(ids, p.ID)
		p.Alive = true
		p.Ready = false
		p.Rank = 0
		p.snapshot = nil
	}
	m.broadcast(protocol.MsgGameStart, protocol.GameStartPayload{Seed: m.seed, Players: ids})
	m.log.Info("round started", zap.Int64("seed", m.seed), zap.Strings("players", ids))

	go m.broadcastLoop(round)
}

// broadcastLoop relays opponent snapshots until the round ends.
func (m *Match) broadcastLoop(round <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sendOpponentUpdates()
		case <-round:
			return
		}
	}
}

func (m *Match) sendOpponentUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlaying {
		return
	}

	players := m.roster.all()
	states := make([]protocol.OpponentState, len(players))
	for i, p := range players {
		st := protocol.OpponentState{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Alive:      p.Alive,
		}
		if snap := p.snapshot; snap != nil {
			st.Level = snap.Level
			st.Section = snap.Section
			st.Lines = snap.Lines
			st.Width = snap.Width
			st.Height = snap.Height
			st.Board = snap.Board
			st.Alive = p.Alive && snap.Alive
		}
		states[i] = st
	}

	for i, p := range players {
		opponents := make([]protocol.OpponentState, 0, len(states)-1)
		for j, st := range states {
			if j != i {
				opponents = append(opponents, st)
			}
		}
		p.send(protocol.MsgOpponentUpdate, protocol.OpponentUpdatePayload{Opponents: opponents})
	}
}

// eliminate ranks p behind everyone still alive. Must be called with m.mu
// held.
func (m *Match) eliminate(p *Player) {
	p.Rank = len(m.roster.alive())
	p.Alive = false
	m.log.Info("player out", zap.String("player_id", p.ID), zap.Int("rank", p.Rank))
}

// checkWinCondition ends the round once at most one player is left. Must be
// called with m.mu held.
func (m *Match) checkWinCondition() {
	alive := m.roster.alive()
	if len(alive) > 1 {
		return
	}

	var winnerID, winnerName string
	if len(alive) == 1 {
		winner := alive[0]
		winner.Rank = 1
		winnerID, winnerName = winner.ID, winner.Name
	}

	players := m.roster.all()
	standings := make([]protocol.Standing, 0, len(players))
	for _, p := range players {
		level := 0
		if p.snapshot != nil {
			level = p.snapshot.Level
		}
		standings = append(standings, protocol.Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Rank:     p.Rank,
			Level:    level,
		})
	}
	sortStandings(standings)

	for _, p := range players {
		p.send(protocol.MsgMatchOver, protocol.MatchOverPayload{
			WinnerID:   winnerID,
			WinnerName: winnerName,
			YourRank:   p.Rank,
			Standings:  standings,
		})
	}
	m.log.Info("round over", zap.String("winner_id", winnerID), zap.String("winner", winnerName))

	m.phase = PhaseResults
	m.endRound()
	time.AfterFunc(m.cfg.ResetDelay, m.resetToLobby)
}

func (m *Match) resetToLobby() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseResults {
		return
	}
	m.phase = PhaseLobby
	m.roster.reset()
	m.broadcastLobby()
}

// endRound stops the loops of the current round. Must be called with m.mu
// held.
func (m *Match) endRound() {
	if m.round != nil {
		close(m.round)
		m.round = nil
	}
}

// broadcastLobby must be called with m.mu held.
func (m *Match) broadcastLobby() {
	players := m.roster.all()
	entries := make([]protocol.LobbyPlayer, 0, len(players))
	for _, p := range players {
		entries = append(entries, protocol.LobbyPlayer{
			PlayerID: p.ID,
			Name:     p.Name,
			Ready:    p.Ready,
		})
	}
	m.broadcast(protocol.MsgLobbyUpdate, protocol.LobbyUpdatePayload{Players: entries})
}

// broadcast must be called with m.mu held.
func (m *Match) broadcast(t protocol.MessageType, payload any) {
	for _, p := range m.roster.all() {
		p.send(t, payload)
	}
}

func sortStandings(standings []protocol.Standing) {
	slices.SortStableFunc(standings, func(a, b protocol.Standing) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
}
