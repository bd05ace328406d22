package game

import (
	"github.com/hersh/gmtris/internal/piece"
	"github.com/hersh/gmtris/internal/playfield"
	"github.com/hersh/gmtris/internal/sound"
)

// Sink receives presentation output. Render is called once per Update after
// all mutation for the frame is done; the Frame must not be modified.
type Sink interface {
	sound.Player
	Render(Frame)
}

// Frame is what the playfield looks like after an update.
type Frame struct {
	Blocks  []playfield.Placed
	Falling []playfield.Placed
	// Ghost marks where the falling piece would land. Empty when the level
	// disables it.
	Ghost []playfield.Point
	// Clearing lists full rows waiting to be removed.
	Clearing []int

	Next       *piece.Definition
	Hold       *piece.Definition
	HoldLocked bool

	GameOver bool
}
