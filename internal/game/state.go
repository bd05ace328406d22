package game

import (
	"slices"
	"time"

	"github.com/hersh/gmtris/internal/progression"
)

// Phase is where the game is between frames.
type Phase int

const (
	// NoPiece waits for the spawn timer.
	NoPiece Phase = iota
	// Falling has an airborne piece.
	Falling
	// Locking has a piece resting on the stack while the lock timer runs.
	Locking
	// ClearPending waits for cleared rows to be removed.
	ClearPending
	// GameOver is terminal.
	GameOver
)

var phaseNames = [...]string{
	NoPiece:      "no_piece",
	Falling:      "falling",
	Locking:      "locking",
	ClearPending: "clear_pending",
	GameOver:     "game_over",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Anchor is a point in field units, used to place the game-over effect.
type Anchor struct {
	X, Y float64
}

// State is the externally visible outcome of a frame.
type State struct {
	Phase Phase

	// LinesCleared holds the rows completed by the last lock. It is kept
	// until the next piece spawns.
	LinesCleared []int
	Level        progression.LevelState
	Assets       progression.Assets
	GameOver     *Anchor
	Alert        progression.Alert

	Lines   int
	Section int
	Target  int
	Time    time.Duration
}

func (s *State) reset() {
	s.LinesCleared = s.LinesCleared[:0]
	s.Alert = progression.AlertNone
}

func (s *State) clone() State {
	out := *s
	out.LinesCleared = slices.Clone(s.LinesCleared)
	if s.GameOver != nil {
		anchor := *s.GameOver
		out.GameOver = &anchor
	}
	return out
}
