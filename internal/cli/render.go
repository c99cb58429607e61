package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/boardroom/internal/models"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
	Seats      map[models.Role]lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
	Seats: map[models.Role]lipgloss.Color{
		models.RoleCEO: lipgloss.Color("#FFAF00"),
		models.RoleCTO: lipgloss.Color("#5F87FF"),
		models.RoleCFO: lipgloss.Color("#00D787"),
		models.RoleCMO: lipgloss.Color("#FF5FAF"),
		models.RoleCOO: lipgloss.Color("#AF87FF"),
		models.RoleCLO: lipgloss.Color("#D7AF87"),
	},
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) seatStyle(role models.Role) lipgloss.Style {
	c, ok := t.Seats[role]
	if !ok {
		c = t.Status
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

// speakerRole maps a message author to a board role, if it is one.
func speakerRole(m models.Message) (models.Role, bool) {
	if m.AuthorRole != models.AuthorAssistant {
		return "", false
	}
	role, err := models.ParseRole(m.AuthorID)
	return role, err == nil
}

// renderMessage formats one transcript line block.
func (t Theme) renderMessage(m models.Message) string {
	var header string
	switch m.AuthorRole {
	case models.AuthorUser:
		header = t.statusStyle().Bold(true).Render("FOUNDER")
	case models.AuthorSystem:
		header = t.hintStyle().Render("SYSTEM")
	default:
		role, ok := speakerRole(m)
		label := strings.ToUpper(m.AuthorID)
		if ok {
			label = string(role)
		}
		header = t.seatStyle(role).Render(label)
		if m.CEOMode != nil {
			header += t.hintStyle().Render(" (" + string(*m.CEOMode) + ")")
		}
	}
	return fmt.Sprintf("%s\n%s\n", header, strings.TrimSpace(m.Content))
}

func (t Theme) renderFailures(failed []models.PersonaFailure) string {
	if len(failed) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.errorStyle().Render(fmt.Sprintf("%d seat(s) did not answer:", len(failed))))
	b.WriteString("\n")
	for _, f := range failed {
		fmt.Fprintf(&b, "  • %s: %s\n", f.Role, f.Error)
	}
	return b.String()
}

// printTurn writes a finished turn without interactive rendering.
func printTurn(w io.Writer, t Theme, result *models.TurnResult) {
	if len(result.Replies) == 0 && len(result.Failed) == 0 {
		fmt.Fprintln(w, t.hintStyle().Render("No seat answered this message."))
		return
	}
	for _, r := range result.Replies {
		fmt.Fprintln(w, t.renderMessage(r))
	}
	if s := t.renderFailures(result.Failed); s != "" {
		fmt.Fprint(w, s)
	}
}
