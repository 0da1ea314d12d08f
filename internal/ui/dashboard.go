// internal/ui/dashboard.go
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
	"github.com/rovshanmuradov/token-sniper/internal/logger"
)

const (
	DefaultRefreshInterval = time.Second
	logLines               = 8
)

// Source is the read-only registry view the dashboard renders.
type Source interface {
	SnapshotOpenPositions() []*domain.Position
	RecentClosed() []*domain.Position
	DiscoveredCount() int
}

// LogSource provides the tail of the process log.
type LogSource interface {
	GetRecentLogs(limit int) []logger.LogEntry
}

type view int

const (
	viewOpen view = iota
	viewClosed
)

type tickMsg time.Time

// Model is the bubbletea model of the dashboard.
type Model struct {
	src      Source
	logs     LogSource
	interval time.Duration
	now      func() time.Time

	keys   KeyMap
	help   help.Model
	styles styles

	openTable   table.Model
	closedTable table.Model
	active      view
	showLogs    bool

	width       int
	height      int
	discovered  int
	openCount   int
	closedCount int
	recentPnL   float64
	logTail     []logger.LogEntry
	lastRefresh time.Time
}

// NewModel builds a dashboard over src; logs may be nil.
func NewModel(src Source, logs LogSource, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.Foreground(lipgloss.Color("#1B1D23")).Background(cyan)

	openTable := table.New(table.WithColumns(openColumns()), table.WithFocused(true), table.WithHeight(10))
	openTable.SetStyles(st)
	closedTable := table.New(table.WithColumns(closedColumns()), table.WithHeight(10))
	closedTable.SetStyles(st)

	m := Model{
		src:         src,
		logs:        logs,
		interval:    interval,
		now:         time.Now,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		styles:      defaultStyles(),
		openTable:   openTable,
		closedTable: closedTable,
		showLogs:    logs != nil,
	}
	m.refresh()
	return m
}

func openColumns() []table.Column {
	return []table.Column{
		{Title: "Token", Width: 14},
		{Title: "Tier", Width: 12},
		{Title: "Score", Width: 7},
		{Title: "Buy", Width: 12},
		{Title: "Target", Width: 12},
		{Title: "Stop", Width: 12},
		{Title: "Qty", Width: 12},
		{Title: "Age", Width: 8},
	}
}

func closedColumns() []table.Column {
	return []table.Column{
		{Title: "Token", Width: 14},
		{Title: "State", Width: 17},
		{Title: "Entry", Width: 12},
		{Title: "Exit", Width: 12},
		{Title: "PnL", Width: 10},
		{Title: "PnL %", Width: 8},
		{Title: "Hold", Width: 8},
		{Title: "Reason", Width: 16},
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick(m.interval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick(m.interval)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		h := m.tableHeight()
		m.openTable.SetHeight(h)
		m.closedTable.SetHeight(h)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.SwitchView):
			if m.active == viewOpen {
				m.active = viewClosed
				m.openTable.Blur()
				m.closedTable.Focus()
			} else {
				m.active = viewOpen
				m.closedTable.Blur()
				m.openTable.Focus()
			}
			return m, nil
		case key.Matches(msg, m.keys.ToggleLogs):
			m.showLogs = !m.showLogs && m.logs != nil
			h := m.tableHeight()
			m.openTable.SetHeight(h)
			m.closedTable.SetHeight(h)
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.active == viewOpen {
		m.openTable, cmd = m.openTable.Update(msg)
	} else {
		m.closedTable, cmd = m.closedTable.Update(msg)
	}
	return m, cmd
}

func (m Model) tableHeight() int {
	if m.height == 0 {
		return 10
	}
	// title, stats, help, borders
	h := m.height - 7
	if m.showLogs {
		h -= logLines + 2
	}
	if h < 3 {
		h = 3
	}
	return h
}

// refresh pulls a fresh snapshot from the registry and the log tail.
func (m *Model) refresh() {
	now := m.now()
	open := m.src.SnapshotOpenPositions()
	closed := m.src.RecentClosed()

	openRows := make([]table.Row, 0, len(open))
	for _, p := range open {
		openRows = append(openRows, table.Row{
			shorten(p.DisplayName(), 14),
			string(p.Category),
			fmt.Sprintf("%.2f", p.Score),
			formatPrice(p.BuyPrice),
			formatPrice(p.TargetPrice),
			formatPrice(p.StopLossPrice),
			fmt.Sprintf("%.2f", p.Quantity),
			formatAge(now.Sub(p.OpenedAt)),
		})
	}

	var pnl float64
	closedRows := make([]table.Row, 0, len(closed))
	for _, p := range closed {
		tradePnL := p.PnL(p.ExitPrice)
		pnl += tradePnL
		closedRows = append(closedRows, table.Row{
			shorten(p.DisplayName(), 14),
			string(p.State),
			formatPrice(p.BuyPrice),
			formatPrice(p.ExitPrice),
			fmt.Sprintf("%+.4f", tradePnL),
			fmt.Sprintf("%+.2f", p.PnLPercent(p.ExitPrice)),
			formatAge(p.ClosedAt.Sub(p.OpenedAt)),
			shorten(p.CloseReason, 16),
		})
	}

	m.openTable.SetRows(openRows)
	m.closedTable.SetRows(closedRows)
	m.openCount = len(open)
	m.closedCount = len(closed)
	m.recentPnL = pnl
	m.discovered = m.src.DiscoveredCount()
	if m.logs != nil {
		m.logTail = m.logs.GetRecentLogs(logLines)
	}
	m.lastRefresh = now
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("🎯 Token Sniper"))
	b.WriteString("\n")

	pnlStyle := m.styles.neutral
	if m.recentPnL > 0 {
		pnlStyle = m.styles.positive
	} else if m.recentPnL < 0 {
		pnlStyle = m.styles.negative
	}
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.stat.Render(fmt.Sprintf("Open: %d", m.openCount)),
		m.styles.stat.Render(fmt.Sprintf("Closed: %d", m.closedCount)),
		m.styles.stat.Render(fmt.Sprintf("Discovered: %d", m.discovered)),
		m.styles.stat.Render("PnL: "+pnlStyle.Render(fmt.Sprintf("%+.4f", m.recentPnL))),
		m.styles.neutral.Render(" updated "+m.lastRefresh.Format("15:04:05")),
	)
	b.WriteString(stats)
	b.WriteString("\n")

	if m.active == viewOpen {
		b.WriteString(m.styles.header.Render(" Open positions"))
		b.WriteString("\n")
		b.WriteString(m.styles.pane.Render(m.openTable.View()))
	} else {
		b.WriteString(m.styles.header.Render(" Recently closed"))
		b.WriteString("\n")
		b.WriteString(m.styles.pane.Render(m.closedTable.View()))
	}
	b.WriteString("\n")

	if m.showLogs {
		b.WriteString(m.styles.pane.Render(m.renderLogs()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderLogs() string {
	if len(m.logTail) == 0 {
		return m.styles.neutral.Render("no log entries yet")
	}
	lines := make([]string, 0, len(m.logTail))
	for _, e := range m.logTail {
		st := m.styles.logInfo
		switch e.Level {
		case "warn":
			st = m.styles.logWarn
		case "error", "dpanic", "panic", "fatal":
			st = m.styles.logError
		}
		line := fmt.Sprintf("%s %-5s %s", e.Timestamp.Format("15:04:05"), strings.ToUpper(e.Level), e.Message)
		if e.Logger != "" {
			line = fmt.Sprintf("%s %-5s [%s] %s", e.Timestamp.Format("15:04:05"), strings.ToUpper(e.Level), e.Logger, e.Message)
		}
		if m.width > 8 && lipgloss.Width(line) > m.width-6 {
			line = shorten(line, m.width-6)
		}
		lines = append(lines, st.Render(line))
	}
	return strings.Join(lines, "\n")
}

// Run shows the dashboard until the user quits or ctx is cancelled.
// A nil return means the user asked to quit; cancellation returns ctx.Err().
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max < 4 {
		return s
	}
	return string(r[:max-1]) + "…"
}

func formatPrice(p float64) string {
	switch {
	case p == 0:
		return "-"
	case p < 0.0001:
		return fmt.Sprintf("%.3e", p)
	case p < 1:
		return fmt.Sprintf("%.6f", p)
	}
	return fmt.Sprintf("%.4f", p)
}

func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
