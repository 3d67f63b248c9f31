package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Phreno/lazymvn-sub002/internal/executor"
)

const (
	// pollInterval paces output draining; each poll takes at most
	// pollBatch messages per session so a chatty build cannot starve
	// key handling.
	pollInterval = 50 * time.Millisecond
	pollBatch    = 500
)

// DashboardModel is the bubbletea model showing running module sessions.
type DashboardModel struct {
	sessions   []*Session
	supervisor *executor.Supervisor

	selectedIndex int
	focused       bool
	resources     ResourceStats

	width    int
	height   int
	viewport viewport.Model
	showHelp bool
	quitting bool
	status   string

	keys   keyMap
	styles *Styles
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Escape  key.Binding
	Kill    key.Binding
	StopAll key.Binding
	OpenURL key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "focus/unfocus"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Kill: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "kill selected"),
		),
		StopAll: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "kill all"),
		),
		OpenURL: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Styles holds all lipgloss styles for the dashboard
type Styles struct {
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	List         lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style

	StatusPending lipgloss.Style
	StatusRunning lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusStopped lipgloss.Style

	PhaseBuild lipgloss.Style
	PhaseRun   lipgloss.Style

	LogViewport lipgloss.Style
	Dim         lipgloss.Style
	HelpKey     lipgloss.Style
}

// DefaultStyles returns the default color scheme
func DefaultStyles() *Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666", Dark: "#999"}
	highlight := lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"}
	success := lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#00FF00"}
	warning := lipgloss.AdaptiveColor{Light: "#AAAA00", Dark: "#FFFF00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#AA0000", Dark: "#FF0000"}
	info := lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#00AAFF"}

	return &Styles{
		App: lipgloss.NewStyle().Padding(0, 1),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(subtle).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(subtle).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(subtle).
			Padding(0, 1),

		List: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1),

		Item: lipgloss.NewStyle().Padding(0, 1),

		ItemSelected: lipgloss.NewStyle().
			Padding(0, 1).
			Background(lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#333333"}).
			Bold(true),

		StatusPending: lipgloss.NewStyle().Foreground(subtle),
		StatusRunning: lipgloss.NewStyle().Foreground(info).Bold(true),
		StatusSuccess: lipgloss.NewStyle().Foreground(success),
		StatusError:   lipgloss.NewStyle().Foreground(errorColor).Bold(true),
		StatusStopped: lipgloss.NewStyle().Foreground(warning),

		PhaseBuild: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#FF9900", Dark: "#FFCC00"}),
		PhaseRun: lipgloss.NewStyle().Foreground(info),

		LogViewport: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1),

		Dim:     lipgloss.NewStyle().Foreground(subtle),
		HelpKey: lipgloss.NewStyle().Foreground(highlight).Bold(true),
	}
}

type pollMsg time.Time
type tickMsg time.Time
type statsMsg struct {
	resources ResourceStats
	procs     map[*Session]executor.Stats
}
type killedMsg struct {
	name string
	err  error
}

// NewDashboard creates a dashboard over sessions. The supervisor's slots
// are shut down when the user quits.
func NewDashboard(sessions []*Session, sup *executor.Supervisor) *DashboardModel {
	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &DashboardModel{
		sessions:   sessions,
		supervisor: sup,
		focused:    len(sessions) == 1,
		viewport:   vp,
		keys:       defaultKeyMap(),
		styles:     DefaultStyles(),
	}
}

// Sessions returns the tracked sessions.
func (m *DashboardModel) Sessions() []*Session { return m.sessions }

// Init implements tea.Model
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(pollCmd(), tickCmd())
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Quit wins over every other binding.
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Quit) {
		m.quitting = true
		m.shutdown()
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.focused {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			} else if m.selectedIndex > 0 {
				m.selectedIndex--
			}

		case key.Matches(msg, m.keys.Down):
			if m.focused {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			} else if m.selectedIndex < len(m.sessions)-1 {
				m.selectedIndex++
			}

		case key.Matches(msg, m.keys.Enter):
			m.focused = !m.focused && len(m.sessions) > 0
			if m.focused {
				m.updateViewportContent(true)
			}

		case key.Matches(msg, m.keys.Escape):
			m.focused = false

		case key.Matches(msg, m.keys.Kill):
			if s := m.selected(); s != nil && s.Status() == StatusRunning {
				m.status = "killing " + s.Name
				cmds = append(cmds, killCmd(s))
			}

		case key.Matches(msg, m.keys.StopAll):
			m.status = "killing all"
			for _, s := range m.sessions {
				if s.Status() == StatusRunning {
					cmds = append(cmds, killCmd(s))
				}
			}

		case key.Matches(msg, m.keys.OpenURL):
			if s := m.selected(); s != nil && s.URL() != "" {
				openInBrowser(s.URL())
			}

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}

	case tea.MouseMsg:
		if m.focused {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-6, 20)
		m.viewport.Height = max(msg.Height-9, 5)
		m.updateViewportContent(false)

	case pollMsg:
		moved := 0
		for _, s := range m.sessions {
			moved += s.Poll(pollBatch)
		}
		if moved > 0 {
			m.updateViewportContent(false)
		}
		cmds = append(cmds, pollCmd())

	case tickMsg:
		cmds = append(cmds, tickCmd(), m.fetchStats())

	case statsMsg:
		m.resources = msg.resources
		for s, st := range msg.procs {
			s.SetStats(st)
		}

	case killedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("kill %s: %v", msg.name, msg.err)
		} else {
			m.status = msg.name + " killed"
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *DashboardModel) selected() *Session {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.sessions) {
		return nil
	}
	return m.sessions[m.selectedIndex]
}

// shutdown kills every running process before the program exits.
func (m *DashboardModel) shutdown() {
	if m.supervisor != nil {
		m.supervisor.ShutdownAll()
		return
	}
	for _, s := range m.sessions {
		if s.Status() == StatusRunning {
			s.Stop()
		}
	}
}

func killCmd(s *Session) tea.Cmd {
	return func() tea.Msg {
		return killedMsg{name: s.Name, err: s.Stop()}
	}
}

// fetchStats samples the host and every running process tree.
func (m *DashboardModel) fetchStats() tea.Cmd {
	sessions := append([]*Session(nil), m.sessions...)
	return func() tea.Msg {
		msg := statsMsg{resources: GetResourceStats(), procs: make(map[*Session]executor.Stats)}
		for _, s := range sessions {
			h := s.Handle()
			if h == nil || s.Status() != StatusRunning {
				continue
			}
			if st, err := h.Stats(); err == nil {
				msg.procs[s] = st
			}
		}
		return msg
	}
}

func openInBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}
	cmd.Start()
}

// updateViewportContent shows the selected session's logs, following the
// tail only when the user has not scrolled up.
func (m *DashboardModel) updateViewportContent(forceBottom bool) {
	s := m.selected()
	if s == nil {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(s.Logs(), "\n"))
	if atBottom || forceBottom {
		m.viewport.GotoBottom()
	}
}

// View implements tea.Model
func (m *DashboardModel) View() string {
	if m.quitting {
		return "Stopping processes...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.focused {
		b.WriteString(m.renderFocusedView())
	} else {
		b.WriteString(m.renderList())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return m.styles.App.Render(b.String())
}

func (m *DashboardModel) renderHeader() string {
	title := "lazymvn"

	active := 0
	for _, s := range m.sessions {
		if s.Status() == StatusRunning {
			active++
		}
	}
	status := fmt.Sprintf("Sessions: %d | Running: %d", len(m.sessions), active)
	if m.resources.CPUPercent > 0 {
		status += fmt.Sprintf(" | CPU: %.1f%%", m.resources.CPUPercent)
	}
	if m.resources.MemPercent > 0 {
		status += fmt.Sprintf(" | Mem: %.1f%%", m.resources.MemPercent)
	}
	if m.resources.CPUTemp > 0 {
		status += fmt.Sprintf(" | Temp: %.0f°C", m.resources.CPUTemp)
	}

	width := max(m.width-4, 40)
	padding := max(width-lipgloss.Width(title)-lipgloss.Width(status), 1)
	return m.styles.Header.Width(width).Render(title + strings.Repeat(" ", padding) + status)
}

func (m *DashboardModel) renderList() string {
	width := max(m.width-6, 60)
	if len(m.sessions) == 0 {
		return m.styles.List.Width(width).Render(m.styles.Dim.Render("nothing running"))
	}

	items := make([]string, 0, len(m.sessions))
	for i, s := range m.sessions {
		style := m.styles.Item
		if i == m.selectedIndex {
			style = m.styles.ItemSelected
		}
		items = append(items, style.Width(width-2).Render(m.renderItem(s)))
	}
	return m.styles.List.Width(width).Render(strings.Join(items, "\n"))
}

func (m *DashboardModel) renderItem(s *Session) string {
	name := s.Name
	const maxName = 25
	if len(name) > maxName {
		name = name[:maxName-3] + "..."
	}

	line := fmt.Sprintf("%-*s  %s  %s", maxName, name, m.renderPhase(s.Phase), m.renderStatus(s))
	if s.Status() == StatusRunning {
		line += fmt.Sprintf(" %s", s.Elapsed())
		st := s.Stats()
		if st.RSS > 0 {
			line += m.styles.Dim.Render(fmt.Sprintf("  cpu %.0f%% mem %s", st.CPUPercent, FormatBytes(st.RSS)))
		}
		if url := s.URL(); url != "" {
			line += m.styles.StatusRunning.Render(" → " + url)
		}
	}
	return line
}

func (m *DashboardModel) renderPhase(phase Phase) string {
	if phase == PhaseRun {
		return m.styles.PhaseRun.Render(fmt.Sprintf("▶ %-5s", phase))
	}
	return m.styles.PhaseBuild.Render(fmt.Sprintf("⚒ %-5s", phase))
}

func (m *DashboardModel) renderStatus(s *Session) string {
	status := s.Status()
	switch status {
	case StatusRunning:
		return m.styles.StatusRunning.Render("● " + string(status))
	case StatusSuccess:
		return m.styles.StatusSuccess.Render("✓ " + string(status))
	case StatusError:
		return m.styles.StatusError.Render(fmt.Sprintf("✗ %s (%d)", status, s.ExitCode()))
	case StatusStopped:
		return m.styles.StatusStopped.Render("○ " + string(status))
	default:
		return m.styles.StatusPending.Render("◌ " + string(status))
	}
}

func (m *DashboardModel) renderFocusedView() string {
	s := m.selected()
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s | %s | %s\n", s.Name, m.renderPhase(s.Phase), m.renderStatus(s)))
	if s.Command != "" {
		b.WriteString(m.styles.Dim.Render("$ "+s.Command) + "\n")
	}
	b.WriteString(m.styles.LogViewport.Render(m.viewport.View()))
	return b.String()
}

func (m *DashboardModel) renderFooter() string {
	var help string
	switch {
	case m.showHelp:
		help = fmt.Sprintf("%s nav • %s focus • %s kill • %s kill all • %s open • %s quit",
			m.styles.HelpKey.Render("↑↓/jk"),
			m.styles.HelpKey.Render("enter"),
			m.styles.HelpKey.Render("x"),
			m.styles.HelpKey.Render("ctrl+x"),
			m.styles.HelpKey.Render("o"),
			m.styles.HelpKey.Render("q"))
	case m.focused:
		help = fmt.Sprintf("%s scroll • %s back • %s kill • %s quit",
			m.styles.HelpKey.Render("↑↓"),
			m.styles.HelpKey.Render("esc"),
			m.styles.HelpKey.Render("x"),
			m.styles.HelpKey.Render("q"))
	default:
		help = fmt.Sprintf("%s nav • %s focus • %s help • %s quit",
			m.styles.HelpKey.Render("↑↓"),
			m.styles.HelpKey.Render("enter"),
			m.styles.HelpKey.Render("?"),
			m.styles.HelpKey.Render("q"))
	}
	if m.status != "" {
		help = m.status + " • " + help
	}
	return m.styles.Footer.Width(max(m.width-4, 40)).Render(help)
}
