package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openclaw/resinprophet/pkg/client"
)

// Config
const (
	pollRate       = 2 * time.Second
	viewportHeight = 14
	barWidth       = 20
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	nameStyle     = lipgloss.NewStyle().Bold(true).Width(22)
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	goodStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type tickMsg time.Time

type dataMsg struct {
	predictions []*client.Prediction
	alerts      string
	err         error
}

type model struct {
	api         *client.Client
	tenantID    string
	spinner     spinner.Model
	viewport    viewport.Model
	predictions []*client.Prediction
	alerts      string
	err         error
	ready       bool
}

func initialModel(api *client.Client, tenantID string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		api:      api,
		tenantID: tenantID,
		spinner:  s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchData(m.api, m.tenantID),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, fetchData(m.api, m.tenantID), tick())

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.predictions = msg.predictions
			m.alerts = msg.alerts
			m.viewport.SetContent(m.alerts)
		}
		if !m.ready {
			m.ready = true
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.viewport.Style = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				PaddingRight(2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Initializing...", m.spinner.View())
	}

	var levels strings.Builder
	levels.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("Resin Levels") + "\n\n")

	if len(m.predictions) == 0 {
		levels.WriteString(subtleStyle.Render("No cartridges registered."))
	} else {
		for _, p := range m.predictions {
			style := styleForAlert(p.AlertLevel)
			line := fmt.Sprintf("%s %s %s",
				nameStyle.Render(p.MaterialName),
				levelBar(p.PercentRemaining),
				style.Render(fmt.Sprintf("%5.1f%% (%.0fml)", p.PercentRemaining, p.CurrentVolumeML)),
			)
			if p.DaysRemaining != nil {
				line += subtleStyle.Render(fmt.Sprintf("  ~%.1fd", *p.DaysRemaining))
			}
			levels.WriteString(line + "\n")
		}
	}

	topPane := paneStyle.Render(levels.String())
	header := headerStyle.Render(fmt.Sprintf("%s Alerts", m.spinner.View()))
	bottomPane := m.viewport.View()

	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = okStyle.Render(fmt.Sprintf("Online • %d Cartridges • Tenant %s", len(m.predictions), m.tenantID))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\nPress q to quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, topPane, header, bottomPane, footer)
}

func styleForAlert(level string) lipgloss.Style {
	switch level {
	case client.AlertCritical:
		return criticalStyle
	case client.AlertWarning:
		return warningStyle
	case client.AlertInfo:
		return infoStyle
	default:
		return goodStyle
	}
}

func levelBar(percent float64) string {
	filled := int(percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// Commands

func fetchData(api *client.Client, tenantID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		predictions, err := api.Predictions(ctx, tenantID)
		if err != nil {
			return dataMsg{err: err}
		}
		alerts, err := api.AlertsText(ctx, tenantID)
		if err != nil {
			return dataMsg{err: err}
		}

		return dataMsg{predictions: predictions, alerts: alerts}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	daemonURL := os.Getenv("RESINPROPHET_URL")
	tenantID := os.Getenv("RESINPROPHET_TENANT")
	if tenantID == "" {
		tenantID = "default"
	}

	api := client.NewClient(daemonURL)
	p := tea.NewProgram(initialModel(api, tenantID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
