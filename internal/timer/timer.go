// Package timer implements the frame countdowns that drive spawn, drop, lock,
// line-clear and auto-shift phases.
//
// Timers do not read a wall clock. The owner advances them once per frame with
// the frame delta, so expiry is decided in whole frame steps and the overshoot
// past a deadline can be handed to the next phase without drift.
package timer

import "time"

// Timer is a countdown with a configurable duration.
//
// The duration is captured when the timer is started; changing it afterwards
// only affects the next Start.
type Timer struct {
	Duration time.Duration

	deadline time.Duration
	elapsed  time.Duration
	started  bool
	enabled  bool

	step     time.Duration
	advanced bool
	extended bool
}

// New returns a stopped timer with the given duration.
func New(d time.Duration) *Timer {
	return &Timer{Duration: d}
}

// Start arms the timer. carry counts as time already elapsed, so the excess of
// a previously expired timer is not lost.
func (t *Timer) Start(carry time.Duration) {
	t.deadline = t.Duration
	t.elapsed = carry
	t.started = true
	t.enabled = true
	t.advanced = false
	t.extended = false
}

// SetEnabled pauses or resumes the timer without touching elapsed time.
func (t *Timer) SetEnabled(enabled bool) {
	t.enabled = enabled
}

// Running reports whether the timer has been started and not disabled or
// expired since.
func (t *Timer) Running() bool {
	return t.started && t.enabled
}

// Advance moves a running timer forward by dt.
func (t *Timer) Advance(dt time.Duration) {
	t.advanced = false
	t.extended = false
	if !t.Running() {
		return
	}
	t.elapsed += dt
	t.step = dt
	t.advanced = true
}

// HasExpired reports expiry at most once per Start. excess is how far past the
// deadline the timer ran.
func (t *Timer) HasExpired() (bool, time.Duration) {
	if !t.Running() || t.elapsed < t.deadline {
		return false, 0
	}
	t.started = false
	return true, t.elapsed - t.deadline
}

// ExtendThisFrame pushes the deadline back by the step of the current frame,
// cancelling this frame's progress. Only a running timer is extended: the
// lock timer is frozen this way while it runs during a fall. It is a no-op
// when the timer is stopped or disabled, was not advanced this frame, or has
// already been extended.
func (t *Timer) ExtendThisFrame() {
	if !t.advanced || t.extended || !t.Running() {
		return
	}
	t.deadline += t.step
	t.extended = true
}

// Elapsed returns the time accumulated since the last Start.
func (t *Timer) Elapsed() time.Duration {
	return t.elapsed
}

// Remaining returns the time left before expiry, never negative.
func (t *Timer) Remaining() time.Duration {
	return max(t.deadline-t.elapsed, 0)
}
