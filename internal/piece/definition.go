package piece

import (
	"fmt"
	"strings"

	"github.com/hersh/gmtris/internal/playfield"
)

// Definition is the static description of a piece type. Instances share it by
// pointer and never modify it.
type Definition struct {
	Name string
	Kind int
	// Rotations holds the cell offsets of each orientation, relative to the
	// piece origin (bottom-left of the bounding box, y up).
	Rotations [][]playfield.Point
	GridSize  int
	Colors    [2]playfield.Color
	FloorKick bool
}

// Parse builds a definition from drawings of each orientation. Every drawing
// is GridSize rows of GridSize runes, top row first; any rune other than '.'
// marks a cell.
func Parse(name string, kind int, colors [2]playfield.Color, floorKick bool, drawings ...string) (*Definition, error) {
	if len(drawings) == 0 {
		return nil, fmt.Errorf("piece %s: no rotation states", name)
	}
	def := &Definition{
		Name:      name,
		Kind:      kind,
		Colors:    colors,
		FloorKick: floorKick,
	}
	for i, drawing := range drawings {
		rows := strings.Fields(drawing)
		if def.GridSize == 0 {
			def.GridSize = len(rows)
		}
		if len(rows) != def.GridSize {
			return nil, fmt.Errorf("piece %s rotation %d: %d rows, want %d", name, i, len(rows), def.GridSize)
		}
		var cells []playfield.Point
		for r, row := range rows {
			if len(row) != def.GridSize {
				return nil, fmt.Errorf("piece %s rotation %d row %d: %d columns, want %d", name, i, r, len(row), def.GridSize)
			}
			for c, ch := range row {
				if ch != '.' {
					cells = append(cells, playfield.Point{X: c, Y: def.GridSize - 1 - r})
				}
			}
		}
		if len(cells) == 0 {
			return nil, fmt.Errorf("piece %s rotation %d: empty", name, i)
		}
		def.Rotations = append(def.Rotations, cells)
	}
	return def, nil
}

// MustParse is Parse for static tables.
func MustParse(name string, kind int, colors [2]playfield.Color, floorKick bool, drawings ...string) *Definition {
	def, err := Parse(name, kind, colors, floorKick, drawings...)
	if err != nil {
		panic(err)
	}
	return def
}

func rgb(hex uint32) playfield.Color {
	return playfield.Color{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex)}
}

// The seven tetrominoes, with orientations in the classic arcade rotation
// system: flat side up on spawn, I and T allowed to floor kick.
var (
	I = MustParse("I", 1, [2]playfield.Color{rgb(0xd83a3a), rgb(0x8c1f1f)}, true, `
		....
		IIII
		....
		....`, `
		..I.
		..I.
		..I.
		..I.`)

	T = MustParse("T", 2, [2]playfield.Color{rgb(0x3ac8d8), rgb(0x1f7f8c)}, true, `
		...
		TTT
		.T.`, `
		.T.
		TT.
		.T.`, `
		...
		.T.
		TTT`, `
		.T.
		.TT
		.T.`)

	L = MustParse("L", 3, [2]playfield.Color{rgb(0xe8902a), rgb(0x9a5a14)}, false, `
		...
		LLL
		L..`, `
		LL.
		.L.
		.L.`, `
		...
		..L
		LLL`, `
		.L.
		.L.
		.LL`)

	J = MustParse("J", 4, [2]playfield.Color{rgb(0x3a5ad8), rgb(0x1f338c)}, false, `
		...
		JJJ
		..J`, `
		.J.
		.J.
		JJ.`, `
		...
		J..
		JJJ`, `
		.JJ
		.J.
		.J.`)

	S = MustParse("S", 5, [2]playfield.Color{rgb(0xc83ad8), rgb(0x7f1f8c)}, false, `
		...
		.SS
		SS.`, `
		S..
		SS.
		.S.`)

	Z = MustParse("Z", 6, [2]playfield.Color{rgb(0x3ad85a), rgb(0x1f8c33)}, false, `
		...
		ZZ.
		.ZZ`, `
		..Z
		.ZZ
		.Z.`)

	O = MustParse("O", 7, [2]playfield.Color{rgb(0xe8d83a), rgb(0x9a8c14)}, false, `
		OO
		OO`)
)

// Standard returns the seven tetrominoes in kind order.
func Standard() []*Definition {
	return []*Definition{I, T, L, J, S, Z, O}
}

// ByKind looks up a standard definition by its kind index.
func ByKind(kind int) *Definition {
	for _, def := range Standard() {
		if def.Kind == kind {
			return def
		}
	}
	return nil
}
