package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hersh/gmtris/internal/game"
	"github.com/hersh/gmtris/internal/piece"
	"github.com/hersh/gmtris/internal/playfield"
	"github.com/hersh/gmtris/internal/protocol"
)

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "00:00.00", formatTime(0))
	assert.Equal(t, "01:02.50", formatTime(62*time.Second+500*time.Millisecond))
}

func TestRenderBoardFlipsRows(t *testing.T) {
	f := game.Frame{
		Blocks: []playfield.Placed{{Position: playfield.Point{X: 0, Y: 0}}},
		Ghost:  []playfield.Point{{X: 1, Y: 0}},
	}
	out := RenderBoard(f, 3, 2)
	lines := strings.Split(out, "\n")
	// border, two rows, border
	require.Len(t, lines, 4)
	assert.NotContains(t, lines[1], blockChar)
	assert.Contains(t, lines[2], blockChar)
	assert.Contains(t, lines[2], ghostChar)
	assert.Equal(t, 3*2+2, lipgloss.Width(lines[2]))
}

func TestRenderBoardClipsHiddenRows(t *testing.T) {
	f := game.Frame{Falling: []playfield.Placed{{Position: playfield.Point{X: 0, Y: 5}}}}
	assert.NotContains(t, RenderBoard(f, 2, 2), blockChar)
}

func TestRenderPiece(t *testing.T) {
	assert.Equal(t, 2, lipgloss.Height(RenderPiece(piece.T, false)))
	assert.Equal(t, 1, lipgloss.Height(RenderPiece(piece.I, true)))
	assert.Contains(t, RenderPiece(nil, false), "Empty")
}

func TestRenderNetOpponentPreview(t *testing.T) {
	board := make([]int, 4*12)
	board[len(board)-1] = piece.O.Kind
	opp := protocol.OpponentState{PlayerName: "eve", Alive: true, Width: 4, Height: 12, Board: board, Level: 42}

	out := RenderNetOpponentPreview(opp)
	assert.Equal(t, previewRows+2, lipgloss.Height(out))
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "Lv:42")

	opp.Alive = false
	assert.Contains(t, RenderNetOpponentPreview(opp), "OUT")
}

func TestRenderResults(t *testing.T) {
	out := RenderResults(protocol.MatchOverPayload{
		WinnerID: "a",
		YourRank: 2,
		Standings: []protocol.Standing{
			{PlayerID: "a", Name: "ann", Rank: 1, Level: 120},
			{PlayerID: "b", Name: "bob", Rank: 2, Level: 80},
		},
	}, "b")
	assert.Contains(t, out, "Rank: #2")
	assert.Contains(t, out, "#1  ann")
	assert.Contains(t, out, "Lv 080 <")
}
