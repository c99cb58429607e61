package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/boardroom/internal/api"
	"github.com/raphaelgruber/boardroom/internal/client"
	"github.com/raphaelgruber/boardroom/internal/models"
)

// routeMsg carries the seats chosen to answer
type routeMsg []models.Persona

// replyMsg carries one reply as it lands
type replyMsg models.Message

// turnDoneMsg carries the final turn result
type turnDoneMsg struct {
	result *models.TurnResult
	err    error
}

// turnModel is the bubbletea model for a live turn.
type turnModel struct {
	routed   []models.Persona
	replies  []models.Message
	result   *models.TurnResult
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

// newTurnModel creates a new live turn model.
func newTurnModel() turnModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return turnModel{
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m turnModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m turnModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case routeMsg:
		m.routed = msg
		return m, nil

	case replyMsg:
		m.replies = append(m.replies, models.Message(msg))
		return m, nil

	case turnDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the turn display.
func (m turnModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m turnModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	var b strings.Builder
	for _, r := range m.replies {
		b.WriteString(m.theme.renderMessage(r))
		b.WriteString("\n")
	}

	if m.routed == nil {
		b.WriteString(m.theme.statusStyle().Render("[routing]"))
		b.WriteString("\n")
		return b.String()
	}

	var pct float64
	if len(m.routed) > 0 {
		pct = float64(len(m.replies)) / float64(len(m.routed))
	}
	seats := make([]string, 0, len(m.routed))
	for _, p := range m.routed {
		seats = append(seats, string(p.Role))
	}

	status := m.theme.statusStyle().Render("[waiting]")
	counts := fmt.Sprintf("%d/%d seats (%s)", len(m.replies), len(m.routed), strings.Join(seats, ", "))
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop waiting")
	fmt.Fprintf(&b, "%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
	return b.String()
}

// finalView renders the finished turn.
func (m turnModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render(
			"\nStopped waiting. Replies still land in the conversation; use 'boardroom show' to read them.\n")
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Turn failed: %s\n", m.err))
	}

	var b strings.Builder
	printTurn(&b, m.theme, m.result)
	b.WriteString(m.theme.completedStyle().Render(fmt.Sprintf("✓ %d repl(ies)", len(m.result.Replies))))
	b.WriteString("\n")
	return b.String()
}

// runLiveTurn runs the interactive view for one turn over the live socket.
// Returns nil on success or Ctrl+C, error on turn failure.
func runLiveTurn(ctx context.Context, c *client.Client, conversationID string, req api.SendRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newTurnModel())
	go func() {
		result, err := c.SendMessageLive(ctx, conversationID, req, client.LiveHandlers{
			OnRoute: func(personas []models.Persona) { p.Send(routeMsg(personas)) },
			OnReply: func(reply models.Message) { p.Send(replyMsg(reply)) },
		})
		p.Send(turnDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("turn UI error: %w", err)
	}

	if m, ok := finalModel.(turnModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}
