// Package tui shows a sweep as it runs: scenarios stream into an overlaid
// infectious-curve chart as they complete.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/epilab/episim/internal/integrators"
	"github.com/epilab/episim/internal/logging"
	"github.com/epilab/episim/internal/runner"
	"github.com/epilab/episim/internal/scenario"
	"github.com/epilab/episim/internal/viz"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
)

type scenarioDoneMsg struct {
	id      string
	records runner.Table
	err     error
}

type sweepDoneMsg struct{}

type sweepOutcome struct {
	result   *runner.SweepResult
	failures []runner.ScenarioError
}

type model struct {
	total    int
	done     int
	table    runner.Table
	failures []string
	finished bool
	width    int
	height   int
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case scenarioDoneMsg:
		m.done++
		if msg.err != nil {
			m.failures = append(m.failures, fmt.Sprintf("%s: %v", msg.id, msg.err))
		} else {
			m.table = append(m.table, msg.records...)
		}
	case sweepDoneMsg:
		m.finished = true
	}
	return m, nil
}

func (m model) View() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("episim sweep"))
	sb.WriteString("\n")

	status := fmt.Sprintf("%d/%d scenarios", m.done, m.total)
	if m.finished {
		status += "  done, q to quit"
	}
	sb.WriteString(statusStyle.Render(status))
	sb.WriteString("\n\n")

	if len(m.table) > 0 {
		width := m.width - 12
		if width < 30 {
			width = 30
		}
		height := m.height - 10
		if height < 8 {
			height = 8
		}
		sb.WriteString(viz.Plot(m.table, "I", width, height))
	}

	for _, f := range m.failures {
		sb.WriteString(failStyle.Render(f))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Run executes the sweep while displaying live progress, and returns the
// final result once the view is dismissed. The result is nil when the
// view is dismissed before the sweep completes.
func Run(ctx context.Context, scenarios []scenario.Scenario, opts integrators.Options, workers int) (*runner.SweepResult, []runner.ScenarioError, error) {
	p := tea.NewProgram(model{total: len(scenarios)}, tea.WithAltScreen())

	outcome := make(chan sweepOutcome, 1)
	go func() {
		r := runner.New(opts, workers).
			WithLogger(logging.FromContext(ctx)).
			WithObserver(func(id string, records runner.Table, err error) {
				p.Send(scenarioDoneMsg{id: id, records: records, err: err})
			})
		result, failures := r.Run(ctx, scenarios)
		outcome <- sweepOutcome{result: result, failures: failures}
		p.Send(sweepDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return nil, nil, err
	}
	select {
	case o := <-outcome:
		return o.result, o.failures, nil
	default:
		return nil, nil, nil
	}
}
