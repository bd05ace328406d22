package game

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/piece"
	"github.com/hersh/gmtris/internal/playfield"
	"github.com/hersh/gmtris/internal/progression"
)

const (
	DefaultWidth  = 10
	DefaultHeight = 20
	DefaultExcess = 4
)

// DefaultTexture is the atlas mapping stamped on every block.
var DefaultTexture = playfield.Texture{ScaleX: 0.5, ScaleY: 1}

var (
	ErrNoSource = errors.New("game: no piece source")
	ErrNoSink   = errors.New("game: no presentation sink")
	ErrNoTable  = errors.New("game: no level table")
)

// Config wires a Logic to its collaborators. Source, Sink and Table are
// required.
type Config struct {
	Source piece.Source
	Sink   Sink
	Table  *progression.Table

	Options progression.Options
	Logger  *zap.Logger

	// Field size in cells. Zero values use the defaults.
	Width, Height, Excess int

	// ShiftRepeat is the interval between auto-shift moves once a held
	// direction has charged. Zero means one frame.
	ShiftRepeat time.Duration
}

func (c *Config) validate() error {
	switch {
	case c.Source == nil:
		return ErrNoSource
	case c.Sink == nil:
		return ErrNoSink
	case c.Table == nil:
		return ErrNoTable
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Excess <= 0 {
		c.Excess = DefaultExcess
	}
	if c.ShiftRepeat <= 0 {
		c.ShiftRepeat = progression.Frame
	}
}
