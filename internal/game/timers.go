package game

import (
	"time"

	"github.com/hersh/gmtris/internal/progression"
	"github.com/hersh/gmtris/internal/timer"
)

// Timers is the set of countdowns one game runs on.
type Timers struct {
	Spawn         timer.Timer
	Drop          timer.Timer
	Lock          timer.Timer
	Line          timer.Timer
	AutoShift     timer.Timer
	ShiftCooldown timer.Timer
}

// Configure loads durations from the speed curve. Running timers keep the
// deadline they were started with.
func (t *Timers) Configure(st progression.State, lineClear bool, shiftRepeat time.Duration) {
	t.Spawn.Duration = st.Spawn
	if lineClear {
		t.Spawn.Duration = st.LineClearSpawn
	}
	t.Drop.Duration = st.Drop
	t.Lock.Duration = st.Lock
	t.Line.Duration = st.Line
	t.AutoShift.Duration = st.AutoShift
	t.ShiftCooldown.Duration = shiftRepeat
}

// Advance steps every timer by dt. The order is fixed so that an excess
// reported by one timer can seed another within the same frame.
func (t *Timers) Advance(dt time.Duration) {
	for _, tm := range t.ordered() {
		tm.Advance(dt)
	}
}

func (t *Timers) ordered() [6]*timer.Timer {
	return [6]*timer.Timer{&t.Spawn, &t.Drop, &t.Lock, &t.Line, &t.AutoShift, &t.ShiftCooldown}
}
