// Package input defines the abstract button queries the simulation reads each
// frame, and a small edge-tracking implementation hosts can feed.
package input

// Action is a logical game button.
type Action int

const (
	Move Action = iota
	Rotation
	Hold
	SonicDrop
	DropLock

	actionCount
)

var actionNames = [...]string{
	Move:      "move",
	Rotation:  "rotation",
	Hold:      "hold",
	SonicDrop: "sonic_drop",
	DropLock:  "drop_lock",
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Source answers button queries for the current frame. For Move and Rotation
// the int result is the signed axis: -1 left / counter-clockwise, +1 right /
// clockwise. Other actions report 1 while pressed.
type Source interface {
	// ButtonDown is true on the frame the action was pressed, or on a frame
	// where a held axis flipped direction.
	ButtonDown(a Action) (bool, int)
	// ButtonUp is true on the frame the action was released.
	ButtonUp(a Action) bool
	// ButtonHold is true on every frame the action is pressed.
	ButtonHold(a Action) (bool, int)
}

// Buttons tracks pressed actions across frames. Set and Release record the
// state for the coming frame; Commit marks the frame as consumed.
type Buttons struct {
	prev [actionCount]int
	cur  [actionCount]int
}

// Set records a as pressed with the given axis value. Zero releases it.
func (b *Buttons) Set(a Action, axis int) {
	b.cur[a] = sign(axis)
}

// Press records a non-directional action as pressed.
func (b *Buttons) Press(a Action) {
	b.cur[a] = 1
}

// Release records a as released.
func (b *Buttons) Release(a Action) {
	b.cur[a] = 0
}

// ReleaseAll releases every action.
func (b *Buttons) ReleaseAll() {
	b.cur = [actionCount]int{}
}

// Commit ends the frame: the current state becomes the previous one.
func (b *Buttons) Commit() {
	b.prev = b.cur
}

func (b *Buttons) ButtonDown(a Action) (bool, int) {
	v := b.cur[a]
	return v != 0 && v != b.prev[a], v
}

func (b *Buttons) ButtonUp(a Action) bool {
	return b.prev[a] != 0 && b.cur[a] == 0
}

func (b *Buttons) ButtonHold(a Action) (bool, int) {
	v := b.cur[a]
	return v != 0, v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
