// Package game runs the per-frame simulation: spawning, player input, the six
// phase timers, gravity, locking and line clears.
package game

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/input"
	"github.com/hersh/gmtris/internal/piece"
	"github.com/hersh/gmtris/internal/playfield"
	"github.com/hersh/gmtris/internal/progression"
	"github.com/hersh/gmtris/internal/sound"
)

// Logic owns the grid and the active piece. It is not safe for concurrent
// use; the host calls Update once per frame from a single goroutine.
type Logic struct {
	cfg  Config
	log  *zap.Logger
	sink Sink

	source      piece.Source
	progression *progression.Controller

	grid   *playfield.Grid
	active *piece.Piece
	phase  Phase
	timers Timers
	state  State
	clock  time.Duration

	// auto-shift: charged once the delay has elapsed with a direction held,
	// stalled after a repeat hits a wall until the player rotates or re-presses
	charged bool
	stalled bool
}

// New validates cfg and returns a game ready to Start.
func New(cfg Config) (*Logic, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	cfg.setDefaults()

	l := &Logic{
		cfg:    cfg,
		log:    cfg.Logger,
		sink:   cfg.Sink,
		source: cfg.Source,
	}
	l.progression = progression.NewController(cfg.Table, cfg.Sink, l.now, cfg.Options, cfg.Logger)
	return l, nil
}

func (l *Logic) now() time.Duration { return l.clock }

// Grid exposes the field read-only.
func (l *Logic) Grid() playfield.View { return l.grid }

// Active returns the falling piece, or nil between pieces.
func (l *Logic) Active() *piece.Piece { return l.active }

// Board returns the visible field as row-major piece kinds, top row first,
// with the falling piece drawn in. Empty cells are 0.
func (l *Logic) Board() []int {
	w, h := l.grid.Width(), l.grid.Height()
	flat := l.grid.Flat(h)
	if l.active == nil {
		return flat
	}
	kind := l.active.Definition().Kind
	for _, p := range l.active.Positions() {
		if p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h {
			flat[(h-1-p.Y)*w+p.X] = kind
		}
	}
	return flat
}

// Timers exposes the timer bundle for inspection.
func (l *Logic) Timers() *Timers { return &l.timers }

// Start begins a new game. The first Update spawns the first piece.
func (l *Logic) Start() State {
	l.grid = playfield.NewGrid(l.cfg.Width, l.cfg.Height, l.cfg.Excess)
	l.active = nil
	l.phase = NoPiece
	l.clock = 0
	l.charged, l.stalled = false, false

	if r, ok := l.source.(interface{ Reset() }); ok {
		r.Reset()
	}

	l.progression.Initialize()
	l.state = State{
		Level:  l.progression.Level(),
		Assets: l.progression.Assets(),
		Target: l.progression.Target(),
	}

	l.timers = Timers{}
	l.timers.Configure(l.progression.Current(), false, l.cfg.ShiftRepeat)
	l.timers.Spawn.Duration = 0
	l.timers.Spawn.Start(0)

	l.log.Info("game started",
		zap.Int("width", l.cfg.Width),
		zap.Int("height", l.cfg.Height))
	return l.state.clone()
}

// Update advances the game by one frame of length dt and returns the
// resulting state.
func (l *Logic) Update(in input.Source, dt time.Duration) State {
	if l.phase == GameOver {
		l.render(false)
		return l.state.clone()
	}

	l.clock += dt
	l.state.Time = l.clock
	l.timers.Advance(dt)

	prog := l.progression.Current()
	rotated := false

	if l.active == nil {
		if l.waitForPiece(in, &rotated) {
			return l.finish(false)
		}
		if l.active == nil {
			return l.finish(prog.Ghost)
		}
	}

	// hold
	if !l.source.HoldLocked() {
		if down, _ := in.ButtonDown(input.Hold); down {
			if l.hold(in, dt, &rotated) {
				return l.finish(false)
			}
		}
	}

	if down, _ := in.ButtonDown(input.SonicDrop); down {
		for !l.active.Move(piece.Down, l.grid) {
		}
	}

	if down, axis := in.ButtonDown(input.Rotation); down && !rotated {
		wasLanded := l.active.Landed()
		l.active.Rotate(axis, l.grid, false)
		l.timers.AutoShift.SetEnabled(true)
		if l.stalled {
			// the stalled repeat consumed the cooldown expiry
			l.timers.ShiftCooldown.Start(0)
			l.stalled = false
		}

		// syncro: a rotation on the stack carries the held direction with it
		if held, dir := in.ButtonHold(input.Move); held && wasLanded {
			l.active.Move(piece.Horizontal(dir), l.grid)
		}
		l.landingChanged(wasLanded, prog.Drop, dt)
	} else if down, dir := in.ButtonDown(input.Move); down {
		wasLanded := l.active.Landed()
		l.active.Move(piece.Horizontal(dir), l.grid)
		l.timers.AutoShift.Start(0)
		l.charged, l.stalled = false, false
		l.landingChanged(wasLanded, prog.Drop, dt)
	}

	l.autoShift(in, prog.Drop, dt)

	if held, _ := in.ButtonHold(input.DropLock); held {
		l.timers.Drop.Duration = progression.Frame
		if down, _ := in.ButtonDown(input.DropLock); down {
			l.timers.Drop.Start(dt + progression.Frame)
		}
		if l.active.Landed() {
			l.lock()
			l.timers.Spawn.Start(0)
			return l.finish(prog.Ghost)
		}
	} else {
		l.timers.Drop.Duration = prog.Drop
	}

	if l.active.Landed() {
		l.timers.Drop.ExtendThisFrame()
		if ok, excess := l.timers.Lock.HasExpired(); ok {
			l.lock()
			l.timers.Spawn.Start(excess)
		}
	} else {
		l.timers.Lock.ExtendThisFrame()
		if ok, excess := l.timers.Drop.HasExpired(); ok {
			l.fall(excess)
		}
	}

	return l.finish(prog.Ghost)
}

// waitForPiece runs the frame while no piece is active: it finishes a pending
// line clear or spawns the next piece. It returns true on game over.
func (l *Logic) waitForPiece(in input.Source, rotated *bool) bool {
	if l.phase == ClearPending {
		if ok, excess := l.timers.Line.HasExpired(); ok {
			l.timers.Spawn.Start(excess)
			l.timers.Line.SetEnabled(false)
			l.sink.Play(sound.LineFall)
			l.grid.DropLines(l.state.LinesCleared)
			l.phase = NoPiece
		}
	} else if ok, excess := l.timers.Spawn.HasExpired(); ok {
		if l.spawn(in, excess, rotated) {
			return true
		}
	}

	// a direction pressed between pieces starts charging auto-shift
	if down, _ := in.ButtonDown(input.Move); down {
		l.timers.AutoShift.Start(0)
		l.charged, l.stalled = false, false
	}
	if in.ButtonUp(input.Move) {
		l.timers.AutoShift.SetEnabled(false)
		l.charged = false
	}
	return false
}

func (l *Logic) spawn(in input.Source, excess time.Duration, rotated *bool) bool {
	l.take(l.source.Next(l.grid))

	l.timers.Drop.Start(excess + progression.Frame)
	l.timers.Lock.Start(excess)
	l.timers.ShiftCooldown.Start(0)

	l.state.Level = l.progression.IncrementLevel()
	l.state.reset()

	if !l.source.HoldLocked() {
		if held, _ := in.ButtonHold(input.Hold); held {
			l.sink.Play(sound.PreHold)
			l.take(l.source.Hold(l.active, l.grid))
		}
	}

	// pre-rotation never kicks
	if held, dir := in.ButtonHold(input.Rotation); held {
		l.sink.Play(sound.PreRotate)
		l.active.Rotate(dir, l.grid, true)
		*rotated = true
	}

	if l.active.Collides(l.grid) {
		l.gameOver()
		return true
	}
	l.active.PerformChecks(l.grid)
	l.phase = Falling

	l.log.Debug("spawn",
		zap.String("piece", l.active.Definition().Name),
		zap.Int("level", l.state.Level.Level))
	return false
}

func (l *Logic) hold(in input.Source, dt time.Duration, rotated *bool) bool {
	l.take(l.source.Hold(l.active, l.grid))

	l.timers.Drop.Start(dt + progression.Frame)
	l.timers.Lock.Start(dt)
	l.timers.ShiftCooldown.Start(0)
	l.timers.AutoShift.SetEnabled(true)
	l.stalled = false

	if held, dir := in.ButtonHold(input.Rotation); held && !*rotated {
		l.sink.Play(sound.PreRotate)
		l.active.Rotate(dir, l.grid, false)
		*rotated = true
	}

	if l.active.Collides(l.grid) {
		l.gameOver()
		return true
	}
	l.active.PerformChecks(l.grid)
	return false
}

// autoShift repeats a held direction. Once the auto-shift delay has run out
// the piece moves immediately, then once per ShiftRepeat, with the overshoot
// of each repeat carried into the next.
func (l *Logic) autoShift(in input.Source, drop, dt time.Duration) {
	held, dir := in.ButtonHold(input.Move)
	if !held {
		l.charged = false
		return
	}

	var excess time.Duration
	if !l.charged {
		var ok bool
		if ok, excess = l.timers.AutoShift.HasExpired(); !ok {
			l.timers.ShiftCooldown.SetEnabled(false)
			return
		}
		l.charged = true
	} else {
		var ok bool
		if ok, excess = l.timers.ShiftCooldown.HasExpired(); !ok {
			return
		}
	}
	if l.stalled {
		return
	}

	wasLanded := l.active.Landed()
	if l.active.Move(piece.Horizontal(dir), l.grid) {
		l.timers.AutoShift.SetEnabled(false)
		l.stalled = true
	}
	l.timers.ShiftCooldown.Start(excess)
	l.landingChanged(wasLanded, drop, dt)
}

// landingChanged restarts gravity when a move or rotation changed whether the
// piece rests on the stack. The restarted interval is shortened by one frame
// plus the current frame so a piece stepping off a ledge does not hover for a
// full drop interval.
func (l *Logic) landingChanged(wasLanded bool, drop, dt time.Duration) {
	if l.active.Landed() == wasLanded {
		return
	}
	l.timers.Drop.Duration = drop - progression.Frame - dt
	l.timers.Drop.Start(0)
}

func (l *Logic) fall(excess time.Duration) {
	dropped := false
	for range l.progression.Current().Gravity {
		if l.active.Move(piece.Down, l.grid) {
			break
		}
		dropped = true
	}
	if !dropped {
		return
	}
	if l.active.AtLowestPoint() {
		l.timers.Lock.Start(excess)
	}
	l.timers.Drop.Start(excess)
}

func (l *Logic) lock() {
	l.sink.Play(sound.Lock)
	rows := l.grid.LockPiece(l.active)
	l.state.LinesCleared = append(l.state.LinesCleared[:0], rows...)

	n := len(rows)
	if n > 0 {
		l.sink.Play(sound.LineClear)
		level, alert := l.progression.AwardLines(n)
		l.state.Level = level
		if alert != progression.AlertNone {
			l.state.Alert = alert
		}
		l.state.Lines += n
		l.state.Assets = l.progression.Assets()
	}

	l.log.Debug("lock",
		zap.String("piece", l.active.Definition().Name),
		zap.Ints("rows", rows),
		zap.Int("level", l.state.Level.Level))

	l.active = nil
	l.phase = NoPiece
	l.timers.Configure(l.progression.Current(), n > 0, l.cfg.ShiftRepeat)
	if n > 0 {
		l.timers.Line.Start(0)
		l.phase = ClearPending
	}
}

func (l *Logic) gameOver() {
	x, y := l.active.Center()
	l.state.GameOver = &Anchor{X: x, Y: y}
	l.phase = GameOver
	l.log.Info("game over",
		zap.Int("level", l.state.Level.Level),
		zap.Int("lines", l.state.Lines),
		zap.Duration("time", l.clock))
}

// take makes p the active piece.
func (l *Logic) take(p *piece.Piece) {
	p.OnLand(func() { l.sink.Play(sound.Land) })
	l.active = p
}

func (l *Logic) finish(ghost bool) State {
	if l.active != nil && l.phase != GameOver {
		l.phase = Falling
		if l.active.Landed() {
			l.phase = Locking
		}
	}
	l.state.Phase = l.phase
	l.state.Section = l.progression.Section()
	l.state.Target = l.progression.Target()

	l.render(ghost)
	return l.state.clone()
}

func (l *Logic) render(ghost bool) {
	f := Frame{
		Blocks:     l.grid.Blocks(),
		Next:       l.source.Preview(),
		Hold:       l.source.Held(),
		HoldLocked: l.source.HoldLocked(),
		GameOver:   l.phase == GameOver,
	}
	if l.phase == ClearPending {
		f.Clearing = slices.Clone(l.state.LinesCleared)
	}
	if l.active != nil {
		f.Falling = l.active.Placed()
		if ghost && l.phase != GameOver {
			d := l.active.DropDistance(l.grid)
			for _, p := range l.active.Positions() {
				f.Ghost = append(f.Ghost, playfield.Point{X: p.X, Y: p.Y - d})
			}
		}
	}
	l.sink.Render(f)
}
