package game

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hersh/gmtris/internal/input"
	"github.com/hersh/gmtris/internal/piece"
	"github.com/hersh/gmtris/internal/playfield"
	"github.com/hersh/gmtris/internal/progression"
	"github.com/hersh/gmtris/internal/sound"
)

const frame = progression.Frame

type recordingSink struct {
	effects []sound.Effect
	frames  int
	last    Frame
}

func (s *recordingSink) Play(e sound.Effect) { s.effects = append(s.effects, e) }

func (s *recordingSink) Render(f Frame) {
	s.frames++
	s.last = f
}

func (s *recordingSink) count(e sound.Effect) int {
	n := 0
	for _, got := range s.effects {
		if got == e {
			n++
		}
	}
	return n
}

func testTable(t *testing.T, dropFrames float64) *progression.Table {
	t.Helper()
	return gravityTable(t, dropFrames, 1)
}

func gravityTable(t *testing.T, dropFrames float64, gravity int) *progression.Table {
	t.Helper()
	tbl, err := progression.NewTable(999, []progression.Level{{
		Ghost: true,
		Timers: progression.Timers{
			DropFrames:           dropFrames,
			Gravity:              gravity,
			SpawnFrames:          27,
			LineClearSpawnFrames: 27,
			LockFrames:           30,
			LineFrames:           40,
			AutoShiftFrames:      16,
		},
	}})
	require.NoError(t, err)
	return tbl
}

type harness struct {
	logic   *Logic
	sink    *recordingSink
	buttons *input.Buttons
}

func newHarness(t *testing.T, dropFrames float64, shiftRepeat time.Duration, defs ...*piece.Definition) *harness {
	t.Helper()
	return newTableHarness(t, testTable(t, dropFrames), shiftRepeat, defs...)
}

func newTableHarness(t *testing.T, tbl *progression.Table, shiftRepeat time.Duration, defs ...*piece.Definition) *harness {
	t.Helper()
	sink := &recordingSink{}
	l, err := New(Config{
		Source:      piece.NewFactory(piece.NewQueue(defs...), DefaultTexture),
		Sink:        sink,
		Table:       tbl,
		ShiftRepeat: shiftRepeat,
	})
	require.NoError(t, err)
	l.Start()
	return &harness{logic: l, sink: sink, buttons: &input.Buttons{}}
}

func (h *harness) step() State {
	st := h.logic.Update(h.buttons, frame)
	h.buttons.Commit()
	return st
}

func (h *harness) fillRows(rows []int, skip ...int) {
	for _, y := range rows {
		for x := range h.logic.grid.Width() {
			if !slices.Contains(skip, x) {
				h.logic.grid.Set(playfield.Point{X: x, Y: y}, playfield.Block{Kind: 9})
			}
		}
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	src := piece.NewFactory(piece.NewQueue(piece.T), DefaultTexture)
	sink := &recordingSink{}
	tbl := testTable(t, 64)

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no source", Config{Sink: sink, Table: tbl}, ErrNoSource},
		{"no sink", Config{Source: src, Table: tbl}, ErrNoSink},
		{"no table", Config{Source: src, Sink: sink}, ErrNoTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, l)
		})
	}
}

func TestFirstFrameSpawns(t *testing.T) {
	h := newHarness(t, 64, 0, piece.T, piece.L)

	st := h.step()
	require.NotNil(t, h.logic.Active())
	assert.Equal(t, Falling, st.Phase)
	assert.Equal(t, 1, st.Level.Level)
	assert.Nil(t, st.GameOver)
	assert.Same(t, piece.T, h.logic.Active().Definition())
	assert.Same(t, piece.L, h.sink.last.Next)
	assert.Len(t, h.sink.last.Falling, 4)
	assert.Len(t, h.sink.last.Ghost, 4)
	assert.Equal(t, 1, h.sink.frames)
}

func TestGravity(t *testing.T) {
	h := newHarness(t, 4, 0, piece.T)
	h.step()
	y0 := h.logic.Active().Position().Y

	// the spawn frame and the frame after count towards the first drop
	h.step()
	assert.Equal(t, y0, h.logic.Active().Position().Y)
	h.step()
	assert.Equal(t, y0-1, h.logic.Active().Position().Y)
	for range 3 {
		h.step()
	}
	assert.Equal(t, y0-1, h.logic.Active().Position().Y)
	h.step()
	assert.Equal(t, y0-2, h.logic.Active().Position().Y)
}

func TestLockAfterLanding(t *testing.T) {
	h := newHarness(t, 64, 0, piece.O)
	h.step()

	h.buttons.Press(input.SonicDrop)
	st := h.step()
	h.buttons.Release(input.SonicDrop)
	assert.Equal(t, Locking, st.Phase)
	assert.Equal(t, 1, h.sink.count(sound.Land))
	assert.ElementsMatch(t, h.logic.Active().Positions(), h.sink.last.Ghost)

	// the lock timer was armed on the spawn frame and is frozen while falling
	for range 27 {
		st = h.step()
		require.Equal(t, Locking, st.Phase)
	}
	st = h.step()
	assert.Equal(t, NoPiece, st.Phase)
	assert.Nil(t, h.logic.Active())
	assert.Equal(t, 1, h.sink.count(sound.Lock))
	assert.Len(t, h.logic.grid.Blocks(), 4)

	for range 26 {
		st = h.step()
		require.Equal(t, NoPiece, st.Phase)
	}
	st = h.step()
	assert.Equal(t, Falling, st.Phase)
	assert.Equal(t, 2, st.Level.Level)
}

func TestDropLockLocksLandedPiece(t *testing.T) {
	h := newHarness(t, 64, 0, piece.O)
	h.step()

	h.buttons.Press(input.SonicDrop)
	h.buttons.Press(input.DropLock)
	st := h.step()
	assert.Equal(t, NoPiece, st.Phase)
	assert.Equal(t, 1, h.sink.count(sound.Lock))
}

func TestSpawnGameOver(t *testing.T) {
	h := newHarness(t, 64, 0, piece.T)
	h.fillRows([]int{18, 19}, 0)

	st := h.step()
	require.NotNil(t, st.GameOver)
	assert.Equal(t, GameOver, st.Phase)
	assert.InDelta(t, 4.5, st.GameOver.X, 1e-9)
	assert.True(t, h.sink.last.GameOver)
	assert.Zero(t, h.sink.count(sound.Lock))

	blocks := len(h.logic.grid.Blocks())
	anchor := *st.GameOver

	h.buttons.Press(input.DropLock)
	for range 100 {
		st = h.step()
	}
	assert.Equal(t, GameOver, st.Phase)
	assert.Equal(t, anchor, *st.GameOver, "game over is recorded once")
	assert.Len(t, h.logic.grid.Blocks(), blocks, "nothing locks after game over")
	assert.Zero(t, h.sink.count(sound.Lock))
	assert.Equal(t, 1, st.Level.Level)
}

func TestAutoShiftRepeats(t *testing.T) {
	h := newHarness(t, 1000, 2*frame, piece.T)
	h.step()
	require.Equal(t, 3, h.logic.Active().Position().X)

	h.buttons.Set(input.Move, 1)
	xs := []int{}
	for range 25 {
		h.step()
		xs = append(xs, h.logic.Active().Position().X)
	}

	// frame 2 is the press, the delay runs out on frame 18, then a move every
	// second frame until the wall
	want := make([]int, 25)
	for i := range want {
		frameNo := i + 2
		switch {
		case frameNo >= 22:
			want[i] = 7
		case frameNo >= 20:
			want[i] = 6
		case frameNo >= 18:
			want[i] = 5
		default:
			want[i] = 4
		}
	}
	assert.Equal(t, want, xs)
	assert.True(t, h.logic.stalled)
}

func TestAutoShiftResumesAfterRotation(t *testing.T) {
	h := newHarness(t, 1000, 2*frame, piece.T)
	h.step()

	h.buttons.Set(input.Move, 1)
	for range 25 {
		h.step()
	}
	require.Equal(t, 7, h.logic.Active().Position().X)
	require.True(t, h.logic.stalled)

	// upright, the T has a free column to its right again
	h.buttons.Set(input.Rotation, 1)
	h.step()
	h.buttons.Release(input.Rotation)
	assert.Equal(t, 1, h.logic.Active().Rotation())
	assert.Equal(t, 7, h.logic.Active().Position().X)
	assert.False(t, h.logic.stalled)

	h.step()
	assert.Equal(t, 7, h.logic.Active().Position().X)
	h.step()
	assert.Equal(t, 8, h.logic.Active().Position().X, "the held direction repeats")

	for range 5 {
		h.step()
	}
	assert.Equal(t, 8, h.logic.Active().Position().X)
	assert.True(t, h.logic.stalled)
}

func TestAutoShiftRestartsOnDirectionChange(t *testing.T) {
	h := newHarness(t, 1000, 0, piece.T)
	h.step()

	h.buttons.Set(input.Move, 1)
	for range 10 {
		h.step()
	}
	assert.Equal(t, 4, h.logic.Active().Position().X)

	h.buttons.Set(input.Move, -1)
	h.step()
	assert.Equal(t, 3, h.logic.Active().Position().X)
	for range 15 {
		h.step()
	}
	assert.Equal(t, 3, h.logic.Active().Position().X, "delay starts over")
	h.step()
	assert.Equal(t, 2, h.logic.Active().Position().X)
	h.step()
	assert.Equal(t, 1, h.logic.Active().Position().X)
}

func TestTetrisAwardsBonusAndClears(t *testing.T) {
	h := newHarness(t, 64, 0, piece.I)
	h.fillRows([]int{0, 1, 2, 3}, 5)

	// rotate on spawn, drop and lock in one frame
	h.buttons.Set(input.Rotation, 1)
	h.buttons.Press(input.SonicDrop)
	h.buttons.Press(input.DropLock)
	st := h.step()
	h.buttons.ReleaseAll()

	assert.Equal(t, ClearPending, st.Phase)
	assert.Equal(t, []int{0, 1, 2, 3}, st.LinesCleared)
	assert.Equal(t, 7, st.Level.Level, "1 for the spawn, 4 rows plus 2 bonus")
	assert.Equal(t, 4, st.Lines)
	assert.Equal(t, []sound.Effect{sound.PreRotate, sound.Land, sound.Lock, sound.LineClear}, h.sink.effects)
	assert.Equal(t, []int{0, 1, 2, 3}, h.sink.last.Clearing)

	for range 39 {
		st = h.step()
		require.Equal(t, ClearPending, st.Phase)
	}
	st = h.step()
	assert.Equal(t, NoPiece, st.Phase)
	assert.Equal(t, 1, h.sink.count(sound.LineFall))
	assert.Empty(t, h.logic.grid.Blocks())
	assert.Equal(t, []int{0, 1, 2, 3}, st.LinesCleared, "kept until the next spawn")

	for range 26 {
		h.step()
	}
	st = h.step()
	assert.Equal(t, Falling, st.Phase)
	assert.Empty(t, st.LinesCleared)
	assert.Equal(t, 8, st.Level.Level)
}

func TestHold(t *testing.T) {
	h := newHarness(t, 64, 0, piece.T, piece.L, piece.J)
	h.step()

	h.buttons.Press(input.Hold)
	h.step()
	assert.Same(t, piece.L, h.logic.Active().Definition())
	assert.Same(t, piece.T, h.sink.last.Hold)
	assert.True(t, h.sink.last.HoldLocked)

	h.buttons.Release(input.Hold)
	h.step()
	h.buttons.Press(input.Hold)
	h.step()
	assert.Same(t, piece.L, h.logic.Active().Definition(), "one hold per piece")
}

func TestPreHold(t *testing.T) {
	h := newHarness(t, 64, 0, piece.T, piece.L)
	h.buttons.Press(input.Hold)
	h.step()

	assert.Same(t, piece.L, h.logic.Active().Definition())
	assert.Equal(t, 1, h.sink.count(sound.PreHold))
	assert.True(t, h.logic.source.HoldLocked())
}

func TestRotationInput(t *testing.T) {
	h := newHarness(t, 64, 0, piece.T)
	h.step()

	h.buttons.Set(input.Rotation, -1)
	h.step()
	assert.Equal(t, 3, h.logic.Active().Rotation())
	h.step()
	assert.Equal(t, 3, h.logic.Active().Rotation(), "rotation is edge triggered")
}

func TestStartResets(t *testing.T) {
	h := newHarness(t, 64, 0, piece.O)
	h.step()
	h.buttons.Press(input.SonicDrop)
	h.buttons.Press(input.DropLock)
	h.step()
	require.NotEmpty(t, h.logic.grid.Blocks())

	st := h.logic.Start()
	assert.Equal(t, NoPiece, st.Phase)
	assert.Equal(t, 0, st.Level.Level)
	assert.Empty(t, h.logic.grid.Blocks())
}

func TestBoardIncludesFallingPiece(t *testing.T) {
	h := newHarness(t, 64, 0, piece.T)
	h.logic.grid.Set(playfield.Point{X: 0, Y: 0}, playfield.Block{Kind: 9})
	h.step()

	board := h.logic.Board()
	require.Len(t, board, DefaultWidth*DefaultHeight)
	assert.Equal(t, []int{0, 0, 0, 2, 2, 2, 0, 0, 0, 0}, board[:10])
	assert.Equal(t, 2, board[10+4])
	assert.Equal(t, 9, board[19*10])

	n := 0
	for _, k := range board {
		if k != 0 {
			n++
		}
	}
	assert.Equal(t, 5, n)
}

func TestSyncroMoveOnlyWhenLanded(t *testing.T) {
	t.Run("landed", func(t *testing.T) {
		h := newHarness(t, 64, 0, piece.T)
		h.step()

		h.buttons.Press(input.SonicDrop)
		h.buttons.Set(input.Move, 1)
		h.step()
		h.buttons.Release(input.SonicDrop)
		require.True(t, h.logic.Active().Landed())
		require.Equal(t, 4, h.logic.Active().Position().X)

		h.buttons.Set(input.Rotation, 1)
		h.step()
		assert.Equal(t, 1, h.logic.Active().Rotation())
		assert.Equal(t, 5, h.logic.Active().Position().X, "rotation carries the held direction")
	})

	t.Run("airborne", func(t *testing.T) {
		h := newHarness(t, 64, 0, piece.T)
		h.step()

		h.buttons.Set(input.Move, 1)
		h.step()
		require.False(t, h.logic.Active().Landed())
		require.Equal(t, 4, h.logic.Active().Position().X)

		h.buttons.Set(input.Rotation, 1)
		h.step()
		assert.Equal(t, 1, h.logic.Active().Rotation())
		assert.Equal(t, 4, h.logic.Active().Position().X)
	})
}

func TestSteppingOffLedgeShortensDrop(t *testing.T) {
	h := newHarness(t, 64, 0, piece.T)
	h.fillRows([]int{0}, 6, 7, 8, 9)
	h.step()

	h.buttons.Press(input.SonicDrop)
	h.step()
	h.buttons.Release(input.SonicDrop)
	require.True(t, h.logic.Active().Landed())
	require.Equal(t, 1, h.logic.Active().Position().Y)

	// the stem still rests on the ledge after one move, not after two
	h.buttons.Set(input.Move, 1)
	h.step()
	require.True(t, h.logic.Active().Landed())
	h.buttons.Release(input.Move)
	h.step()
	h.buttons.Set(input.Move, 1)
	h.step()
	h.buttons.Release(input.Move)
	require.Equal(t, 5, h.logic.Active().Position().X)
	require.False(t, h.logic.Active().Landed())

	// one drop interval less the previous frame and the current one
	assert.Equal(t, 62*frame, h.logic.timers.Drop.Remaining())

	for range 61 {
		h.step()
	}
	assert.Equal(t, 1, h.logic.Active().Position().Y)
	h.step()
	assert.Equal(t, 0, h.logic.Active().Position().Y)
}

func TestMultiRowGravityStopsOnFloor(t *testing.T) {
	h := newTableHarness(t, gravityTable(t, 1, 5), 0, piece.T)

	var ys []int
	for range 20 {
		h.step()
		y := h.logic.Active().Position().Y
		if len(ys) == 0 || ys[len(ys)-1] != y {
			ys = append(ys, y)
		}
	}
	// spawned at 18, the spawn frame already falls five rows
	assert.Equal(t, []int{13, 8, 3, 0}, ys)
	assert.True(t, h.logic.Active().Landed())
}

func TestLockRestartsOnlyAtNewLowestRow(t *testing.T) {
	h := newHarness(t, 4, 0, piece.I)
	h.step()
	require.Equal(t, 17, h.logic.Active().Position().Y)

	// upright the I reaches two rows lower than lying flat; it is laid
	// flat again on the frame of the first drop
	h.buttons.Set(input.Rotation, 1)
	h.step()
	h.buttons.Set(input.Rotation, -1)

	y := 17
	var restarted []bool
	for range 20 {
		h.step()
		h.buttons.Release(input.Rotation)
		if ny := h.logic.Active().Position().Y; ny != y {
			restarted = append(restarted, h.logic.timers.Lock.Elapsed() == 0)
			y = ny
		}
		if y == 14 {
			break
		}
	}
	assert.Equal(t, 0, h.logic.Active().Rotation())
	assert.Equal(t, []bool{false, false, true}, restarted)
}
