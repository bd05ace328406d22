package tui

import (
	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/game"
	"github.com/hersh/gmtris/internal/sound"
)

// presenter is the game's sink: it keeps the latest frame for View and the
// effects played since the model last looked.
type presenter struct {
	log     *zap.Logger
	frame   game.Frame
	effects []sound.Effect
}

func (p *presenter) Play(e sound.Effect) {
	p.log.Debug("effect", zap.String("effect", string(e)))
	p.effects = append(p.effects, e)
}

func (p *presenter) Render(f game.Frame) { p.frame = f }

func (p *presenter) drain() []sound.Effect {
	out := p.effects
	p.effects = nil
	return out
}
