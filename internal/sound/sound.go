// Package sound names the effects the simulation asks the presentation layer
// to play. Choosing and mixing the actual samples is up to the host.
package sound

// Effect is a symbolic sound cue.
type Effect string

const (
	Lock        Effect = "lock"
	LineClear   Effect = "line_clear"
	LineFall    Effect = "line_fall"
	Land        Effect = "land"
	PreHold     Effect = "pre_hold"
	PreRotate   Effect = "pre_rotate"
	SectionPass Effect = "section_pass"
	SectionBell Effect = "section_bell"
)

// Player plays effects.
type Player interface {
	Play(Effect)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(Effect)

func (f PlayerFunc) Play(e Effect) { f(e) }
