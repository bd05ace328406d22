// Package piece implements the falling piece: movement and rotation against the
// playfield, kick resolution, and the landing bookkeeping the lock logic
// depends on.
package piece

import (
	"math"

	"github.com/hersh/gmtris/internal/playfield"
)

// Direction is one of the four unit moves.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

var offsets = [...]playfield.Point{
	Left:  {X: -1},
	Right: {X: 1},
	Up:    {Y: 1},
	Down:  {Y: -1},
}

func (d Direction) offset(distance int) playfield.Point {
	o := offsets[d]
	return playfield.Point{X: o.X * distance, Y: o.Y * distance}
}

// Horizontal maps a signed axis value to Left or Right.
func Horizontal(axis int) Direction {
	if axis > 0 {
		return Right
	}
	return Left
}

// Piece is an active instance of a Definition on the field.
type Piece struct {
	def      *Definition
	texture  playfield.Texture
	position playfield.Point
	rotation int

	lowest   int
	landed   bool
	atLowest bool

	onLand func()
}

// New places def at its spawn position: horizontally centred, with the highest
// cell of the first orientation on the top visible row.
func New(def *Definition, texture playfield.Texture, grid playfield.View) *Piece {
	highest := 0
	for _, c := range def.Rotations[0] {
		highest = max(highest, c.Y)
	}

	x := grid.Width()>>1 - (def.GridSize+1)/2
	y := grid.Height() - highest - 1

	return &Piece{
		def:      def,
		texture:  texture,
		position: playfield.Point{X: x, Y: y},
		lowest:   math.MaxInt,
		atLowest: true,
	}
}

// OnLand registers fn to be called each time the piece goes from airborne to
// landed.
func (p *Piece) OnLand(fn func()) {
	p.onLand = fn
}

func (p *Piece) Definition() *Definition    { return p.def }
func (p *Piece) Position() playfield.Point  { return p.position }
func (p *Piece) Rotation() int              { return p.rotation }
func (p *Piece) Texture() playfield.Texture { return p.texture }

// Landed reports whether any cell rests directly on the floor or the stack.
func (p *Piece) Landed() bool { return p.landed }

// AtLowestPoint reports whether the last check reached a new lowest row for
// this piece.
func (p *Piece) AtLowestPoint() bool { return p.atLowest }

// Block is the cell value the piece leaves when locked.
func (p *Piece) Block() playfield.Block {
	return playfield.Block{
		Kind:    p.def.Kind,
		Color:   p.def.Colors[0],
		Texture: p.texture,
	}
}

// Positions returns the field coordinates of every cell.
func (p *Piece) Positions() []playfield.Point {
	cells := p.def.Rotations[p.rotation]
	out := make([]playfield.Point, len(cells))
	for i, c := range cells {
		out[i] = c.Add(p.position)
	}
	return out
}

// Placed returns the cells ready for rendering.
func (p *Piece) Placed() []playfield.Placed {
	block := p.Block()
	positions := p.Positions()
	out := make([]playfield.Placed, len(positions))
	for i, pos := range positions {
		out[i] = playfield.Placed{Block: block, Position: pos}
	}
	return out
}

// Center returns the mean of the cell centres in field units.
func (p *Piece) Center() (float64, float64) {
	var x, y float64
	positions := p.Positions()
	for _, pos := range positions {
		x += float64(pos.X) + 0.5
		y += float64(pos.Y) + 0.5
	}
	n := float64(len(positions))
	return x / n, y / n
}

// Collides reports whether any cell overlaps a wall, the floor or the stack.
func (p *Piece) Collides(grid playfield.View) bool {
	for _, pos := range p.Positions() {
		if grid.CheckCollision(pos) {
			return true
		}
	}
	return false
}

// Move translates the piece one cell. It returns true when the move was
// rejected.
func (p *Piece) Move(dir Direction, grid playfield.View) bool {
	return p.MoveBy(dir, grid, 1)
}

// MoveBy translates the piece distance cells in one step. A colliding
// destination is rejected and the piece stays put.
func (p *Piece) MoveBy(dir Direction, grid playfield.View, distance int) bool {
	delta := dir.offset(distance)
	p.position = p.position.Add(delta)
	if p.Collides(grid) {
		p.position = p.position.Add(dir.offset(-distance))
		return true
	}
	p.PerformChecks(grid)
	return false
}

// Rotate turns the piece by delta orientations. When the new orientation
// collides the kick sequence is tried unless noKick is set; if nothing fits
// the rotation is undone. Landing state is refreshed either way.
func (p *Piece) Rotate(delta int, grid playfield.View, noKick bool) bool {
	prev := p.rotation
	n := len(p.def.Rotations)
	p.rotation = ((prev+delta)%n + n) % n

	rotated := true
	if p.Collides(grid) && (noKick || !p.checkKicks(grid)) {
		p.rotation = prev
		rotated = false
	}

	p.PerformChecks(grid)
	return rotated
}

// PerformChecks refreshes Landed and AtLowestPoint for the current placement.
func (p *Piece) PerformChecks(grid playfield.View) {
	landed := false
	lowest := math.MaxInt
	below := offsets[Down]

	for _, pos := range p.Positions() {
		if grid.CheckCollision(pos.Add(below)) {
			landed = true
		}
		lowest = min(lowest, pos.Y)
	}

	p.atLowest = lowest < p.lowest
	if p.atLowest {
		p.lowest = lowest
	}

	if landed && !p.landed && p.onLand != nil {
		p.onLand()
	}
	p.landed = landed
}

// DropDistance returns how many rows the piece could fall before landing.
func (p *Piece) DropDistance(grid playfield.View) int {
	positions := p.Positions()
	for d := 0; ; d++ {
		for _, pos := range positions {
			if grid.CheckCollision(playfield.Point{X: pos.X, Y: pos.Y - d - 1}) {
				return d
			}
		}
	}
}
