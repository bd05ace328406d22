// Package progression maps the level counter to the speed curve and tracks
// section bonuses.
package progression

import (
	"errors"
	"time"
)

// Frame is the length of one simulation frame.
const Frame = time.Second / 60

// ErrEmptyTable is returned when a level table has no entries.
var ErrEmptyTable = errors.New("progression: empty level table")

// Timers are the per-level timings, in frames.
type Timers struct {
	DropFrames           float64 `yaml:"drop_frames"`
	Gravity              int     `yaml:"gravity"`
	SpawnFrames          int     `yaml:"spawn_frames"`
	LineClearSpawnFrames int     `yaml:"line_clear_spawn_frames"`
	LockFrames           int     `yaml:"lock_frames"`
	LineFrames           int     `yaml:"line_frames"`
	AutoShiftFrames      int     `yaml:"auto_shift_frames"`
}

// Assets are the presentation resources tied to a level range.
type Assets struct {
	Background string `yaml:"background"`
	Music      int    `yaml:"music"`
}

// Level is one row of the table: the settings that apply from Level onwards.
type Level struct {
	Level  int    `yaml:"level"`
	Ghost  bool   `yaml:"ghost"`
	Timers Timers `yaml:"timers"`
	Assets Assets `yaml:"assets"`
}

// State is the speed curve at a given level, converted to durations.
type State struct {
	Spawn          time.Duration
	LineClearSpawn time.Duration
	Drop           time.Duration
	Gravity        int
	Lock           time.Duration
	Line           time.Duration
	AutoShift      time.Duration
	Ghost          bool
}

// Table is an ascending list of level thresholds.
//
// Lookups are memoised: sequential queries with a non-decreasing level only
// scan forward from the previous match.
type Table struct {
	levels   []Level
	endLevel int

	last  int
	index int
	state State
}

// NewTable validates levels and returns a table over them. Authoring mistakes
// are normalised rather than rejected: thresholds are forced ascending, gravity
// is clamped to [1,20], frame counts to at least 1, and no timer may get slower
// as the level rises. An empty table is an error.
func NewTable(endLevel int, levels []Level) (*Table, error) {
	if len(levels) == 0 {
		return nil, ErrEmptyTable
	}

	levels = append([]Level(nil), levels...)
	normalise(levels)

	t := &Table{levels: levels, endLevel: endLevel}
	t.Reset()
	return t, nil
}

func normalise(levels []Level) {
	for i := range levels {
		cur := &levels[i].Timers
		cur.Gravity = min(max(cur.Gravity, 1), 20)
		cur.DropFrames = max(cur.DropFrames, 1)
		cur.SpawnFrames = max(cur.SpawnFrames, 1)
		cur.LineClearSpawnFrames = max(cur.LineClearSpawnFrames, 1)
		cur.LockFrames = max(cur.LockFrames, 1)
		cur.LineFrames = max(cur.LineFrames, 1)
		cur.AutoShiftFrames = max(cur.AutoShiftFrames, 1)

		if i == 0 {
			continue
		}
		prev := levels[i-1]
		if levels[i].Level <= prev.Level {
			levels[i].Level = prev.Level + 1
		}
		cur.SpawnFrames = min(cur.SpawnFrames, prev.Timers.SpawnFrames)
		cur.LineClearSpawnFrames = min(cur.LineClearSpawnFrames, prev.Timers.LineClearSpawnFrames)
		cur.LockFrames = min(cur.LockFrames, prev.Timers.LockFrames)
		cur.LineFrames = min(cur.LineFrames, prev.Timers.LineFrames)
		cur.AutoShiftFrames = min(cur.AutoShiftFrames, prev.Timers.AutoShiftFrames)
		levels[i].Assets.Music = max(levels[i].Assets.Music, prev.Assets.Music)
	}

	// the ghost piece is only ever switched off going up
	for i := len(levels) - 2; i >= 0; i-- {
		if levels[i+1].Ghost {
			levels[i].Ghost = true
		}
	}
}

// EndLevel is the final level of the curve.
func (t *Table) EndLevel() int { return t.endLevel }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.levels) }

// Reset forgets the memoised lookup.
func (t *Table) Reset() {
	t.last = -1
	t.index = 0
}

// State returns the speed curve for level: the entry with the highest
// threshold not above it.
func (t *Table) State(level int) State {
	if t.last >= 0 && t.last == level {
		return t.state
	}
	if level < t.last {
		t.index = 0
	}
	for t.index+1 < len(t.levels) && level >= t.levels[t.index+1].Level {
		t.index++
	}
	t.last = level

	entry := t.levels[t.index]
	tm := entry.Timers
	t.state = State{
		Spawn:          frames(tm.SpawnFrames),
		LineClearSpawn: frames(tm.LineClearSpawnFrames),
		Drop:           time.Duration(tm.DropFrames * float64(Frame)),
		Gravity:        tm.Gravity,
		Lock:           frames(tm.LockFrames),
		Line:           frames(tm.LineFrames),
		AutoShift:      frames(tm.AutoShiftFrames),
		Ghost:          entry.Ghost,
	}
	return t.state
}

// Assets returns the assets of the highest threshold not above level. Levels
// below the first threshold get the first entry.
func (t *Table) Assets(level int) Assets {
	for i := 1; i < len(t.levels); i++ {
		if level < t.levels[i].Level {
			return t.levels[i-1].Assets
		}
	}
	return t.levels[len(t.levels)-1].Assets
}

func frames(n int) time.Duration {
	return time.Duration(n) * Frame
}
