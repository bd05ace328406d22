package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hersh/gmtris/internal/game"
	"github.com/hersh/gmtris/internal/piece"
	"github.com/hersh/gmtris/internal/playfield"
	"github.com/hersh/gmtris/internal/protocol"
)

const (
	blockChar = "██"
	ghostChar = "[]"
	clearChar = "░░"
	emptyChar = "  "
)

var (
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("15"))

	infoStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("15"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	readyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	notReadyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	gameOverStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	winnerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226"))

	ghostStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	clearStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func hex(c playfield.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func blockStyle(c playfield.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(c))
}

// kindColor is the colour of a standard piece kind, grey for anything else.
func kindColor(kind int) lipgloss.Color {
	if def := piece.ByKind(kind); def != nil {
		return hex(def.Colors[0])
	}
	return lipgloss.Color("248")
}

// RenderBoard draws the visible part of a frame, top row first.
func RenderBoard(f game.Frame, width, height int) string {
	cells := make([][]string, height)
	for y := range cells {
		cells[y] = slices.Repeat([]string{emptyChar}, width)
	}
	put := func(p playfield.Point, s string) {
		if p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height {
			cells[p.Y][p.X] = s
		}
	}

	for _, b := range f.Blocks {
		put(b.Position, blockStyle(b.Color).Render(blockChar))
	}
	for _, y := range f.Clearing {
		for x := range width {
			put(playfield.Point{X: x, Y: y}, clearStyle.Render(clearChar))
		}
	}
	for _, p := range f.Ghost {
		put(p, ghostStyle.Render(ghostChar))
	}
	falling := blockChar
	if f.GameOver {
		falling = "▓▓"
	}
	for _, b := range f.Falling {
		put(b.Position, blockStyle(b.Color).Render(falling))
	}

	var sb strings.Builder
	for y := height - 1; y >= 0; y-- {
		sb.WriteString(strings.Join(cells[y], ""))
		if y > 0 {
			sb.WriteString("\n")
		}
	}
	return boardStyle.Render(sb.String())
}

// RenderPiece draws a definition in its spawn orientation. Dim pieces use the
// darker of the two colours.
func RenderPiece(def *piece.Definition, dim bool) string {
	if def == nil {
		return dimStyle.Render("Empty")
	}
	color := def.Colors[0]
	if dim {
		color = def.Colors[1]
	}
	style := blockStyle(color)

	top, bottom := 0, def.GridSize
	for _, c := range def.Rotations[0] {
		top = max(top, c.Y)
		bottom = min(bottom, c.Y)
	}

	var rows []string
	for y := top; y >= bottom; y-- {
		var sb strings.Builder
		for x := range def.GridSize {
			if slices.Contains(def.Rotations[0], playfield.Point{X: x, Y: y}) {
				sb.WriteString(style.Render(blockChar))
			} else {
				sb.WriteString(emptyChar)
			}
		}
		rows = append(rows, sb.String())
	}
	return strings.Join(rows, "\n")
}

// formatTime renders a game clock as mm:ss.cc.
func formatTime(d time.Duration) string {
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, cs/100%60, cs%100)
}

func RenderInfo(name string, st game.State, f game.Frame, banner string) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("GMTRIS") + "\n\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("Player: %s", name)) + "\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("Level:  %03d / %d", st.Level.Level, st.Target)) + "\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("Speed:  %.2fG", st.Level.Gravity*20)) + "\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("Lines:  %d", st.Lines)) + "\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("Time:   %s", formatTime(st.Time))) + "\n\n")

	sb.WriteString(titleStyle.Render("NEXT") + "\n")
	sb.WriteString(RenderPiece(f.Next, false) + "\n\n")

	sb.WriteString(titleStyle.Render("HOLD") + "\n")
	sb.WriteString(RenderPiece(f.Hold, f.HoldLocked) + "\n")

	if banner != "" {
		sb.WriteString("\n" + bannerStyle.Render(banner) + "\n")
	}
	if f.GameOver {
		sb.WriteString("\n" + gameOverStyle.Render("GAME OVER") + "\n")
	}
	return sb.String()
}

func RenderLobby(players []protocol.LobbyPlayer, self, notice string) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("=== LOBBY ===") + "\n\n")
	sb.WriteString(infoStyle.Render("Players in lobby:") + "\n\n")

	for _, p := range players {
		status := notReadyStyle.Render("[ ]")
		if p.Ready {
			status = readyStyle.Render("[✓]")
		}

		marker := ""
		if p.PlayerID == self {
			marker = " <"
		}

		sb.WriteString(fmt.Sprintf("%s %s%s\n", status, p.Name, marker))
	}

	sb.WriteString("\n")
	if notice != "" {
		sb.WriteString(gameOverStyle.Render(notice) + "\n")
	}
	sb.WriteString(infoStyle.Render("Press SPACE to toggle ready") + "\n")
	sb.WriteString(infoStyle.Render("Press Q to quit") + "\n")

	return sb.String()
}

func RenderCountdown(count int) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("51")).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("\n\n\n     %d     \n\n\n", count))
}

// RenderResults shows the final standings of a versus round.
func RenderResults(result protocol.MatchOverPayload, self string) string {
	var sb strings.Builder
	if result.WinnerID != "" && result.WinnerID == self {
		sb.WriteString(winnerStyle.Render("WINNER!"))
	} else {
		sb.WriteString(gameOverStyle.Render(fmt.Sprintf("GAME OVER  Rank: #%d", result.YourRank)))
	}
	sb.WriteString("\n\n")

	for _, s := range result.Standings {
		line := fmt.Sprintf("#%d  %-16s Lv %03d", s.Rank, s.Name, s.Level)
		if s.PlayerID == self {
			line += " <"
		}
		sb.WriteString(infoStyle.Render(line) + "\n")
	}
	return sb.String()
}

func RenderSingleGameOver(st game.State) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196")).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("\n\n     GAME OVER     \n     Level: %03d     \n     Lines: %d     \n     Time: %s     \n\n",
			st.Level.Level, st.Lines, formatTime(st.Time)))
}

// previewRows is how much of an opponent's stack is shown.
const previewRows = 10

// RenderNetOpponentPreview renders a mini-board from a network OpponentState,
// showing the full width and the bottom of the stack.
func RenderNetOpponentPreview(opp protocol.OpponentState) string {
	width, height := opp.Width, opp.Height
	if width <= 0 || height <= 0 {
		width, height = game.DefaultWidth, game.DefaultHeight
	}
	rows := min(previewRows, height)

	var sb strings.Builder

	nameStyle := lipgloss.NewStyle().
		MaxWidth(width).
		Foreground(lipgloss.Color("15"))

	sb.WriteString(nameStyle.Render(opp.PlayerName) + "\n")

	if !opp.Alive {
		for range rows {
			sb.WriteString(strings.Repeat("·", width) + "\n")
		}
		sb.WriteString(gameOverStyle.Render("OUT"))
		return sb.String()
	}

	for y := height - rows; y < height; y++ {
		for x := range width {
			idx := y*width + x
			kind := 0
			if idx < len(opp.Board) {
				kind = opp.Board[idx]
			}
			if kind != 0 {
				sb.WriteString(lipgloss.NewStyle().
					Foreground(kindColor(kind)).
					Render("█"))
			} else {
				sb.WriteString("·")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(infoStyle.Render(fmt.Sprintf("Lv:%d L:%d", opp.Level, opp.Lines)))

	return sb.String()
}

// RenderNetOpponents renders a grid of opponent previews from network state.
func RenderNetOpponents(opponents []protocol.OpponentState, maxDisplay int) string {
	if len(opponents) == 0 {
		return ""
	}

	display := opponents
	if len(display) > maxDisplay {
		display = display[:maxDisplay]
	}

	const cols = 4
	var rows []string
	var row []string
	for _, opp := range display {
		row = append(row, lipgloss.NewStyle().
			Padding(0, 1).
			Render(RenderNetOpponentPreview(opp)))
		if len(row) == cols {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func RenderWelcome(online bool, notice string) string {
	multi := "   [2] Versus (server)"
	if !online {
		multi = dimStyle.Render(multi + " - offline")
	}
	menu := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("51")).
		Render(`
╔══════════════════════════════╗
║          G M T R I S         ║
║      Arcade-speed stacker    ║
╚══════════════════════════════╝

   [1] Single Player`)

	var sb strings.Builder
	sb.WriteString(menu + "\n" + multi + "\n\n")
	if notice != "" {
		sb.WriteString(gameOverStyle.Render(notice) + "\n\n")
	}
	sb.WriteString(RenderControls())
	return sb.String()
}

func RenderControls() string {
	return infoStyle.Render(`Controls:
  ← → / A D   Move left/right
  ↑ / X       Rotate clockwise
  Z           Rotate counter-clockwise
  Space       Sonic drop
  ↓ / S       Drop and lock
  C           Hold piece
  Esc         Leave single player
  Q           Quit`)
}
