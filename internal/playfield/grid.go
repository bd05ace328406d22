// Package playfield holds the locked stack of blocks.
//
// Row 0 is the bottom of the field and y grows upwards. The field has a fixed
// width but no ceiling: rows above the visible height are addressable so a
// piece can spawn partly above the screen and still collide.
package playfield

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// Point is a cell coordinate on the field.
type Point struct {
	X, Y int
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Color is a display colour in 8-bit RGB.
type Color struct {
	R, G, B uint8
}

// Texture maps a block face into a texture atlas: scale and offset.
type Texture struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
}

// Block is what a locked piece leaves behind in a cell.
type Block struct {
	Kind    int
	Color   Color
	Texture Texture
}

// Cell is one grid slot. Filled is false for an empty cell.
type Cell struct {
	Block
	Filled bool
}

// Placed is a block at a position, as handed to renderers.
type Placed struct {
	Block
	Position Point
}

// View is the read-only side of the field used for collision queries.
type View interface {
	Width() int
	Height() int
	CheckCollision(p Point) bool
	At(p Point) (Block, bool)
}

// Placeable is anything that can be committed into the grid.
type Placeable interface {
	Positions() []Point
	Block() Block
}

// Grid is the mutable playfield. Only the owner of the simulation holds a
// *Grid; everything else gets a View.
type Grid struct {
	width  int
	height int
	excess int

	rows *intmap.Map[int, []Cell]
	top  int
}

// NewGrid returns an empty grid with the given width and visible height.
// excess is the number of rows above the visible area that pieces are
// expected to use when spawning.
func NewGrid(width, height, excess int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		excess: excess,
		rows:   intmap.New[int, []Cell](height + excess),
	}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Excess returns the number of rows reserved above the visible area.
func (g *Grid) Excess() int { return g.excess }

// CheckCollision reports whether p is outside the walls, below the floor or
// already occupied.
func (g *Grid) CheckCollision(p Point) bool {
	if p.X < 0 || p.X >= g.width || p.Y < 0 {
		return true
	}
	row, ok := g.rows.Get(p.Y)
	return ok && row[p.X].Filled
}

// At returns the block at p, if any.
func (g *Grid) At(p Point) (Block, bool) {
	if p.X < 0 || p.X >= g.width || p.Y < 0 {
		return Block{}, false
	}
	row, ok := g.rows.Get(p.Y)
	if !ok || !row[p.X].Filled {
		return Block{}, false
	}
	return row[p.X].Block, true
}

// Set fills the cell at p. Points outside the field are ignored.
func (g *Grid) Set(p Point, b Block) {
	if p.X < 0 || p.X >= g.width || p.Y < 0 {
		return
	}
	row, ok := g.rows.Get(p.Y)
	if !ok {
		row = make([]Cell, g.width)
		g.rows.Put(p.Y, row)
	}
	row[p.X] = Cell{Block: b, Filled: true}
	g.top = max(g.top, p.Y+1)
}

// LockPiece commits every cell of pl into the grid and returns the indices of
// full rows in ascending order. Full rows stay in place until DropLines.
func (g *Grid) LockPiece(pl Placeable) []int {
	block := pl.Block()
	for _, p := range pl.Positions() {
		g.Set(p, block)
	}
	return g.FullRows()
}

// FullRows returns the rows whose every column is occupied.
func (g *Grid) FullRows() []int {
	var full []int
	for y := range g.top {
		row, ok := g.rows.Get(y)
		if !ok {
			continue
		}
		if !slices.ContainsFunc(row, func(c Cell) bool { return !c.Filled }) {
			full = append(full, y)
		}
	}
	return full
}

// DropLines removes the given rows and lets everything above fall into the
// gaps. Each surviving row moves down by the number of removed rows below it.
func (g *Grid) DropLines(cleared []int) {
	if len(cleared) == 0 {
		return
	}
	rows := slices.Clone(cleared)
	slices.Sort(rows)
	rows = slices.Compact(rows)
	rows = slices.DeleteFunc(rows, func(y int) bool { return y < 0 || y >= g.top })

	next := intmap.New[int, []Cell](g.rows.Len())
	shift := 0
	for y := range g.top {
		if shift < len(rows) && rows[shift] == y {
			shift++
			continue
		}
		if row, ok := g.rows.Get(y); ok {
			next.Put(y-shift, row)
		}
	}
	g.rows = next
	g.top = max(g.top-shift, 0)
}

// Clear empties the grid.
func (g *Grid) Clear() {
	g.rows.Clear()
	g.top = 0
}

// Blocks returns every occupied cell, bottom row first.
func (g *Grid) Blocks() []Placed {
	var out []Placed
	for y := range g.top {
		row, ok := g.rows.Get(y)
		if !ok {
			continue
		}
		for x, c := range row {
			if c.Filled {
				out = append(out, Placed{Block: c.Block, Position: Point{X: x, Y: y}})
			}
		}
	}
	return out
}

// Flat returns the lowest height rows as a row-major slice of block kinds,
// top row first, with 0 for empty cells.
func (g *Grid) Flat(height int) []int {
	flat := make([]int, height*g.width)
	for y := range min(height, g.top) {
		row, ok := g.rows.Get(y)
		if !ok {
			continue
		}
		base := (height - 1 - y) * g.width
		for x, c := range row {
			if c.Filled {
				flat[base+x] = c.Kind
			}
		}
	}
	return flat
}
