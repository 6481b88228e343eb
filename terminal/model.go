// Package terminal shows the dashboard as a grid of boxes in a terminal,
// for windowed use under X or over SSH.
package terminal

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kubesail/desk-controller/config"
)

// footerHeight is the status line plus the help line.
const footerHeight = 2

// Launcher starts a button command.
type Launcher interface {
	Launch(ctx context.Context, command string) (int, error)
}

type launchedMsg struct {
	name string
	pid  int
	err  error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	cfg      *config.Config
	launcher Launcher
	keys     KeyMap
	help     help.Model

	row, column   int
	width, height int
	fullscreen    bool

	// mouseDown is the cell a left button press started on.
	mouseDown *[2]int

	status    string
	statusErr bool
}

// New returns a model with the cursor on the first button.
func New(cfg *config.Config, launcher Launcher) Model {
	m := Model{
		cfg:        cfg,
		launcher:   launcher,
		keys:       DefaultKeyMap,
		help:       help.New(),
		width:      80,
		height:     24,
		fullscreen: cfg.Layout.Fullscreen,
	}
	for _, b := range cfg.Buttons {
		if cfg.InGrid(b) {
			m.row, m.column = b.Row(), b.Column()
			break
		}
	}
	return m
}

// Run shows the dashboard until the user quits.
func Run(ctx context.Context, cfg *config.Config, launcher Launcher) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if cfg.Layout.Fullscreen {
		opts = append(opts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(New(cfg, launcher), opts...).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case launchedMsg:
		if msg.err != nil {
			m.status, m.statusErr = fmt.Sprintf("%s: %v", msg.name, msg.err), true
		} else {
			m.status, m.statusErr = fmt.Sprintf("Launched %s (pid %d)", msg.name, msg.pid), false
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.row = max(m.row-1, 0)
		case key.Matches(msg, m.keys.Down):
			m.row = min(m.row+1, m.cfg.Layout.Rows-1)
		case key.Matches(msg, m.keys.Left):
			m.column = max(m.column-1, 0)
		case key.Matches(msg, m.keys.Right):
			m.column = min(m.column+1, m.cfg.Layout.Columns-1)
		case key.Matches(msg, m.keys.Launch):
			return m.launch()
		case key.Matches(msg, m.keys.Fullscreen):
			m.fullscreen = !m.fullscreen
			if m.fullscreen {
				return m, tea.EnterAltScreen
			}
			return m, tea.ExitAltScreen
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

// handleMouse launches a button when a left click is pressed and released
// on the same cell.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	row, column, ok := m.cellAt(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if ok {
			m.row, m.column = row, column
			m.mouseDown = &[2]int{row, column}
		}
	case tea.MouseActionRelease:
		down := m.mouseDown
		m.mouseDown = nil
		if ok && down != nil && *down == [2]int{row, column} {
			return m.launch()
		}
	}
	return m, nil
}

// launch starts the button under the cursor.
func (m Model) launch() (tea.Model, tea.Cmd) {
	b, ok := m.cfg.ButtonAt(m.row, m.column)
	if !ok {
		m.status, m.statusErr = "No button here", true
		return m, nil
	}
	m.status, m.statusErr = "Launching "+b.Name+"...", false
	launcher := m.launcher
	return m, func() tea.Msg {
		pid, err := launcher.Launch(context.Background(), b.Command)
		return launchedMsg{name: b.Name, pid: pid, err: err}
	}
}

// cellSize is the outer size of one grid cell, border included.
func (m Model) cellSize() (w, h int) {
	cols, rows := max(m.cfg.Layout.Columns, 1), max(m.cfg.Layout.Rows, 1)
	w = max((m.width-(cols-1)*m.gap())/cols, 4)
	h = max((m.height-footerHeight)/rows, 3)
	return w, h
}

func (m Model) gap() int {
	if m.cfg.Layout.ButtonSpacing > 0 {
		return 1
	}
	return 0
}

func (m Model) cellAt(x, y int) (row, column int, ok bool) {
	w, h := m.cellSize()
	stride := w + m.gap()
	column, row = x/stride, y/h
	if x < 0 || y < 0 || x%stride >= w || row >= m.cfg.Layout.Rows || column >= m.cfg.Layout.Columns {
		return 0, 0, false
	}
	return row, column, true
}

func (m Model) View() string {
	w, h := m.cellSize()
	background := lipgloss.Color(m.cfg.Layout.BackgroundColor)
	spacer := lipgloss.NewStyle().Width(m.gap()).Height(h).Background(background).Render("")

	rows := make([]string, 0, m.cfg.Layout.Rows)
	for r := 0; r < m.cfg.Layout.Rows; r++ {
		cells := make([]string, 0, 2*m.cfg.Layout.Columns)
		for c := 0; c < m.cfg.Layout.Columns; c++ {
			if c > 0 && m.gap() > 0 {
				cells = append(cells, spacer)
			}
			cells = append(cells, m.renderCell(r, c, w, h))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#A3BE8C"))
	if m.statusErr {
		statusStyle = statusStyle.Foreground(lipgloss.Color("#BF616A"))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		statusStyle.Render(m.status),
		m.help.View(m.keys),
	)
}

func (m Model) renderCell(row, column, w, h int) string {
	selected := row == m.row && column == m.column
	style := lipgloss.NewStyle().
		Width(w-2).
		Height(h-2).
		Align(lipgloss.Center, lipgloss.Center).
		Border(lipgloss.RoundedBorder())

	b, ok := m.cfg.ButtonAt(row, column)
	if !ok {
		style = style.
			Background(lipgloss.Color(m.cfg.Layout.BackgroundColor)).
			BorderForeground(lipgloss.Color(m.cfg.Layout.BackgroundColor))
		if selected {
			style = style.BorderForeground(lipgloss.Color(config.DefaultTextColor))
		}
		return style.Render("")
	}

	fill := b.Color
	if selected {
		style = style.Border(lipgloss.ThickBorder()).Bold(true)
		if lighter, err := config.Lighten(b.Color, config.DefaultShade); err == nil {
			fill = lighter
		}
	}
	style = style.
		Background(lipgloss.Color(fill)).
		Foreground(lipgloss.Color(b.TextColor)).
		BorderForeground(lipgloss.Color(b.Color))
	if selected {
		style = style.BorderForeground(lipgloss.Color(b.TextColor))
	}
	label := b.Name
	if runes := []rune(label); len(runes) > (w-2)*(h-2) {
		label = string(runes[:max((w-2)*(h-2)-1, 0)]) + "…"
	}
	return style.Render(strings.TrimSpace(label))
}
