package piece

import (
	"math/rand"

	"github.com/hersh/gmtris/internal/playfield"
)

// Source hands out the next piece and manages the hold slot.
type Source interface {
	// Next spawns the next piece and releases the hold lock.
	Next(grid playfield.View) *Piece
	// Hold swaps current with the held piece (or the next piece when the slot
	// is empty) and locks hold until the next spawn. It returns current
	// unchanged when hold is locked.
	Hold(current *Piece, grid playfield.View) *Piece
	HoldLocked() bool
	Preview() *Definition
	Held() *Definition
}

// Sequence decides the order of piece types.
type Sequence interface {
	Next() *Definition
	Peek() *Definition
}

// Factory is the Source used by the game: a Sequence plus the hold slot.
type Factory struct {
	seq     Sequence
	texture playfield.Texture

	held       *Definition
	holdLocked bool
}

// NewFactory returns a factory that stamps every piece with texture.
func NewFactory(seq Sequence, texture playfield.Texture) *Factory {
	return &Factory{seq: seq, texture: texture}
}

func (f *Factory) Next(grid playfield.View) *Piece {
	f.holdLocked = false
	return New(f.seq.Next(), f.texture, grid)
}

func (f *Factory) Hold(current *Piece, grid playfield.View) *Piece {
	if f.holdLocked || current == nil {
		return current
	}
	f.holdLocked = true

	def := f.held
	f.held = current.Definition()
	if def == nil {
		def = f.seq.Next()
	}
	return New(def, f.texture, grid)
}

// Reset empties the hold slot for a new game.
func (f *Factory) Reset() {
	f.held = nil
	f.holdLocked = false
}

func (f *Factory) HoldLocked() bool     { return f.holdLocked }
func (f *Factory) Preview() *Definition { return f.seq.Peek() }
func (f *Factory) Held() *Definition    { return f.held }

// Bag is the 7-bag randomizer: every run of len(defs) pieces contains each
// type once. Two bags with the same seed produce identical sequences.
type Bag struct {
	rng  *rand.Rand
	defs []*Definition
	bag  []*Definition
}

// NewBag creates a seeded bag over defs, or the standard set when defs is
// empty.
func NewBag(seed int64, defs ...*Definition) *Bag {
	if len(defs) == 0 {
		defs = Standard()
	}
	return &Bag{
		rng:  rand.New(rand.NewSource(seed)),
		defs: defs,
	}
}

func (b *Bag) Next() *Definition {
	if len(b.bag) == 0 {
		b.refill()
	}
	def := b.bag[0]
	b.bag = b.bag[1:]
	return def
}

func (b *Bag) Peek() *Definition {
	if len(b.bag) == 0 {
		b.refill()
	}
	return b.bag[0]
}

func (b *Bag) refill() {
	b.bag = append(b.bag[:0], b.defs...)
	// Fisher-Yates shuffle
	for i := len(b.bag) - 1; i > 0; i-- {
		j := b.rng.Intn(i + 1)
		b.bag[i], b.bag[j] = b.bag[j], b.bag[i]
	}
}

// Queue replays a fixed list of types, cycling when exhausted.
type Queue struct {
	defs []*Definition
	next int
}

func NewQueue(defs ...*Definition) *Queue {
	return &Queue{defs: defs}
}

func (q *Queue) Next() *Definition {
	def := q.defs[q.next%len(q.defs)]
	q.next++
	return def
}

func (q *Queue) Peek() *Definition {
	return q.defs[q.next%len(q.defs)]
}
