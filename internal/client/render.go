package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/emarcon/briscola/internal/protocol"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	refuseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// explainReply renders a server acceptance, refusal or error for the user,
// with the optional detail payload.
func explainReply(m protocol.Message) string {
	switch m.Type {
	case protocol.TypeOK:
		return okStyle.Render("request accepted")
	case protocol.TypeNo:
		if m.Text() == "" {
			return refuseStyle.Render("request refused")
		}
		return refuseStyle.Render("request refused: " + m.Text())
	case protocol.TypeErr:
		return errorStyle.Render("server error: " + m.Text())
	default:
		return errorStyle.Render(fmt.Sprintf("unexpected reply %c", m.Type))
	}
}

// renderTable shows the standing match state: trump, opponent and hand.
func renderTable(trump byte, opponent string, hand []string) string {
	var b strings.Builder
	b.WriteString(bannerStyle.Render(fmt.Sprintf("Playing against %s", opponent)))
	b.WriteByte('\n')
	b.WriteString(fmt.Sprintf("Briscola: %c\n", trump))
	b.WriteString("Your hand: " + handStyle.Render(strings.Join(hand, " ")))
	return b.String()
}

// renderResult shows the endgame banner from this player's point of view.
func renderResult(name string, res protocol.GameResult) string {
	switch res.Winner {
	case protocol.DrawWinner:
		return refuseStyle.Render(fmt.Sprintf("Draw, %d points each", res.Points))
	case name:
		return okStyle.Render(fmt.Sprintf("You win with %d points", res.Points))
	default:
		return errorStyle.Render(fmt.Sprintf("%s wins with %d points", res.Winner, res.Points))
	}
}
