package piece

import "github.com/hersh/gmtris/internal/playfield"

// kicks lists the nudges tried, in order, after a rotation collides.
//
// Horizontal nudges come first: one cell right, then for wide pieces returning
// to their spawn orientation a nudge of half the bounding box, then the same
// amounts to the left. Pieces with floor kicks then try moving up by one cell
// and by half the bounding box. This is a fixed list, not a per-rotation
// offset table.
func (p *Piece) kicks() []playfield.Point {
	half := p.def.GridSize / 2
	wide := p.def.GridSize > 2 && half > 1

	steps := []int{1}
	if wide && p.rotation == 0 {
		steps = append(steps, half)
	}

	var out []playfield.Point
	for _, s := range steps {
		out = append(out, Right.offset(s))
	}
	for _, s := range steps {
		out = append(out, Left.offset(s))
	}

	if p.def.FloorKick {
		out = append(out, Up.offset(1))
		if wide {
			out = append(out, Up.offset(half))
		}
	}
	return out
}

// checkKicks moves the piece to the first nudge that clears every collision.
// The position is unchanged when none does.
func (p *Piece) checkKicks(grid playfield.View) bool {
	origin := p.position
	for _, nudge := range p.kicks() {
		p.position = origin.Add(nudge)
		if !p.Collides(grid) {
			return true
		}
	}
	p.position = origin
	return false
}
