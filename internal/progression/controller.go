package progression

import (
	"time"

	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/sound"
)

const sectionLength = 100

// Sections finished in fewer than sectionClearFrames frames (one minute) add
// sectionClearBonus to the internal level. Section time is counted in whole
// frames: Frame is truncated to the nanosecond, so a minute of frames falls
// just short of time.Minute.
const (
	sectionClearFrames = 60 * 60
	sectionClearBonus  = 100
)

// Alert is a one-shot notice for the UI.
type Alert int

const (
	AlertNone Alert = iota
	AlertSectionClear
)

func (a Alert) String() string {
	switch a {
	case AlertSectionClear:
		return "section clear"
	}
	return ""
}

// LevelState is the level as shown to the player.
type LevelState struct {
	Level int
	// Gravity is a display value that reaches 1 at 20G.
	Gravity float64
}

// Options are debugging knobs.
type Options struct {
	// LevelMultiplier scales every level increment. Zero means 1.
	LevelMultiplier int
	// AlwaysClearSection grants the section-clear bonus regardless of time.
	AlwaysClearSection bool
}

// Controller owns the level counter.
//
// The displayed level advances by one per spawned piece and by the number of
// rows cleared plus a bonus for triples and tetrises. A spawn can never carry
// the counter into the next section: it stops at x99 until rows are cleared.
// Finishing a section in under a minute adds a hidden bonus of 100 levels to
// the speed curve.
type Controller struct {
	table *Table
	sfx   sound.Player
	now   func() time.Duration
	opts  Options
	log   *zap.Logger

	level         int
	internalLevel int
	section       int
	sectionClears int
	sectionStart  time.Duration
	bell          bool

	assets   Assets
	snapshot LevelState
}

// NewController returns a controller over table. now reports the current game
// time; sfx and log may be nil.
func NewController(table *Table, sfx sound.Player, now func() time.Duration, opts Options, log *zap.Logger) *Controller {
	if sfx == nil {
		sfx = sound.PlayerFunc(func(sound.Effect) {})
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LevelMultiplier <= 0 {
		opts.LevelMultiplier = 1
	}
	return &Controller{table: table, sfx: sfx, now: now, opts: opts, log: log}
}

// Initialize resets every counter for a new game.
func (c *Controller) Initialize() {
	c.level, c.internalLevel = 0, 0
	c.section, c.sectionClears = 0, 0
	c.sectionStart = c.now()
	c.bell = false
	c.table.Reset()
	c.assets = c.table.Assets(0)
	c.snapshot = c.levelState()
}

// Current returns the speed curve for the effective level.
func (c *Controller) Current() State {
	return c.table.State(c.level + c.internalLevel)
}

// Level returns the last level snapshot.
func (c *Controller) Level() LevelState { return c.snapshot }

// Assets returns the assets of the current section.
func (c *Controller) Assets() Assets { return c.assets }

// Section returns the index of the current section.
func (c *Controller) Section() int { return c.section }

// SectionClears returns how many sections were finished in time.
func (c *Controller) SectionClears() int { return c.sectionClears }

// Target is the level the player is working towards: the end of the current
// section, capped at the end of the curve.
func (c *Controller) Target() int {
	target := (c.section + 1) * sectionLength
	if end := c.table.EndLevel(); end > 0 && target > end {
		return end
	}
	return target
}

// IncrementLevel advances the level by one for a spawned piece.
func (c *Controller) IncrementLevel() LevelState {
	c.advance(1, false)
	return c.snapshot
}

// AwardLines advances the level for n cleared rows. Three rows earn one bonus
// level and four rows earn two. The alert is AlertSectionClear when the award
// completed a section in time.
func (c *Controller) AwardLines(n int) (LevelState, Alert) {
	levels := n
	switch n {
	case 3:
		levels++
	case 4:
		levels += 2
	}
	alert := c.advance(levels, n > 0)
	return c.snapshot, alert
}

func (c *Controller) advance(levels int, cleared bool) Alert {
	alert := AlertNone
	old := c.level % sectionLength
	c.level += levels * c.opts.LevelMultiplier

	if old > c.level%sectionLength {
		if cleared {
			c.sfx.Play(sound.SectionPass)
			c.assets = c.table.Assets(c.level + c.internalLevel)
			c.bell = false
			c.section++
			alert = c.checkSectionClear()
			c.sectionStart = c.now()
			c.log.Debug("section passed",
				zap.Int("section", c.section),
				zap.Int("level", c.level),
				zap.Int("internal_level", c.internalLevel))
		} else {
			if !c.bell {
				c.sfx.Play(sound.SectionBell)
				c.bell = true
			}
			c.level = c.section*sectionLength + sectionLength - 1
		}
	}

	c.snapshot = c.levelState()
	return alert
}

func (c *Controller) checkSectionClear() Alert {
	if sectionFrames(c.now()-c.sectionStart) >= sectionClearFrames && !c.opts.AlwaysClearSection {
		return AlertNone
	}
	c.sectionClears++
	c.internalLevel += sectionClearBonus
	return AlertSectionClear
}

// sectionFrames rounds d to the nearest whole frame.
func sectionFrames(d time.Duration) int {
	return int((d + Frame/2) / Frame)
}

func (c *Controller) levelState() LevelState {
	st := c.Current()
	return LevelState{
		Level:   c.level,
		Gravity: float64(Frame) / float64(st.Drop) * float64(st.Gravity) / 20,
	}
}
