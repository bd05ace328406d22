package tui

import (
	"time"

	"github.com/hersh/gmtris/internal/input"
)

// Terminals report key presses and auto-repeats but never releases, so a key
// counts as held for a short window after each event it produces.
const (
	tapWindow    = 60 * time.Millisecond
	repeatWindow = 80 * time.Millisecond
)

type binding struct {
	action input.Action
	axis   int
}

var bindings = map[string]binding{
	"left":  {input.Move, -1},
	"h":     {input.Move, -1},
	"a":     {input.Move, -1},
	"right": {input.Move, 1},
	"l":     {input.Move, 1},
	"d":     {input.Move, 1},
	"up":    {input.Rotation, 1},
	"x":     {input.Rotation, 1},
	"k":     {input.Rotation, 1},
	"z":     {input.Rotation, -1},
	"c":     {input.Hold, 1},
	" ":     {input.SonicDrop, 1},
	"down":  {input.DropLock, 1},
	"j":     {input.DropLock, 1},
	"s":     {input.DropLock, 1},
}

type press struct {
	axis  int
	until time.Time
}

// keyboard turns the terminal's key events into held buttons.
type keyboard struct {
	held map[input.Action]press
}

func newKeyboard() *keyboard {
	return &keyboard{held: make(map[input.Action]press)}
}

// press records key at now. It reports whether the key is bound.
func (k *keyboard) press(key string, now time.Time) bool {
	b, ok := bindings[key]
	if !ok {
		return false
	}
	window := tapWindow
	if p, held := k.held[b.action]; held && p.axis == b.axis && !now.After(p.until) {
		window = repeatWindow
	}
	k.held[b.action] = press{axis: b.axis, until: now.Add(window)}
	return true
}

// apply writes the buttons still held at now into b and forgets the rest.
func (k *keyboard) apply(b *input.Buttons, now time.Time) {
	for a, p := range k.held {
		if now.After(p.until) {
			delete(k.held, a)
			b.Release(a)
			continue
		}
		b.Set(a, p.axis)
	}
}

func (k *keyboard) reset(b *input.Buttons) {
	clear(k.held)
	b.ReleaseAll()
	b.Commit()
}
