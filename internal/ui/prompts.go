package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/profiles"
)

var (
	promptTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"})

	promptSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#00FF00"})

	promptUnselectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"})

	promptCursorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"})

	promptEnabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#00FF00"})

	promptDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"})

	promptDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)

// YesNoPrompt asks a yes/no question.
type YesNoPrompt struct {
	question    string
	description string
	selected    bool
	confirmed   bool
	cancelled   bool
}

// NewYesNoPrompt creates a new yes/no prompt
func NewYesNoPrompt(question, description string, defaultYes bool) *YesNoPrompt {
	return &YesNoPrompt{
		question:    question,
		description: description,
		selected:    defaultYes,
	}
}

func (m YesNoPrompt) Init() tea.Cmd {
	return nil
}

func (m YesNoPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "left", "h", "y", "Y":
			m.selected = true
		case "right", "l", "n", "N":
			m.selected = false
		case "tab":
			m.selected = !m.selected
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m YesNoPrompt) View() string {
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render("? "+m.question) + "\n")
	if m.description != "" {
		b.WriteString(promptDimStyle.Render("  "+m.description) + "\n")
	}

	yesStyle, noStyle := promptUnselectedStyle, promptUnselectedStyle
	yesCursor, noCursor := "  ", "  "
	if m.selected {
		yesStyle = promptSelectedStyle
		yesCursor = promptCursorStyle.Render("❯ ")
	} else {
		noStyle = promptSelectedStyle
		noCursor = promptCursorStyle.Render("❯ ")
	}

	b.WriteString("\n")
	b.WriteString(yesCursor + yesStyle.Render("Yes") + "    ")
	b.WriteString(noCursor + noStyle.Render("No") + "\n\n")
	b.WriteString(promptDimStyle.Render("  ← → to select • enter to confirm • esc to cancel"))
	return b.String()
}

// Result returns the selected value and whether it was confirmed
func (m YesNoPrompt) Result() (bool, bool) {
	return m.selected, m.confirmed && !m.cancelled
}

// RunYesNoPrompt runs the prompt; a cancelled prompt answers no.
func RunYesNoPrompt(question, description string, defaultYes bool) (bool, error) {
	model, err := tea.NewProgram(NewYesNoPrompt(question, description, defaultYes)).Run()
	if err != nil {
		return false, err
	}
	selected, confirmed := model.(YesNoPrompt).Result()
	return selected && confirmed, nil
}

// SelectOption represents an option in the select prompt
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// SelectPrompt picks one option from a list.
type SelectPrompt struct {
	title     string
	options   []SelectOption
	cursor    int
	confirmed bool
	cancelled bool
}

// NewSelectPrompt creates a new selection prompt
func NewSelectPrompt(title string, options []SelectOption) *SelectPrompt {
	return &SelectPrompt{title: title, options: options}
}

func (m SelectPrompt) Init() tea.Cmd {
	return nil
}

func (m SelectPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SelectPrompt) View() string {
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render("? "+m.title) + "\n\n")

	for i, opt := range m.options {
		cursor := "  "
		style := promptUnselectedStyle
		if i == m.cursor {
			cursor = promptCursorStyle.Render("❯ ")
			style = promptSelectedStyle
		}
		b.WriteString(cursor + style.Render(opt.Label))
		if opt.Description != "" && i == m.cursor {
			b.WriteString(promptDimStyle.Render(" - " + opt.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptDimStyle.Render("  ↑ ↓ to navigate • enter to select • esc to cancel"))
	return b.String()
}

// Result returns the selected option and whether it was confirmed
func (m SelectPrompt) Result() (SelectOption, bool) {
	if m.cursor < 0 || m.cursor >= len(m.options) {
		return SelectOption{}, false
	}
	return m.options[m.cursor], m.confirmed && !m.cancelled
}

// RunSelectPrompt runs the prompt and reports whether the user chose.
func RunSelectPrompt(title string, options []SelectOption) (SelectOption, bool, error) {
	model, err := tea.NewProgram(NewSelectPrompt(title, options)).Run()
	if err != nil {
		return SelectOption{}, false, err
	}
	opt, ok := model.(SelectPrompt).Result()
	return opt, ok, nil
}

// TogglePrompt edits a module's profiles and flags in place. Profiles
// cycle through their states, flags switch on and off, and the bottom row
// takes free-form extra arguments. Cancelling restores what was there
// before.
type TogglePrompt struct {
	title    string
	profiles *profiles.Set
	flags    *command.FlagSet
	extra    textinput.Model

	profileSnap map[string]string
	flagSnap    []string

	cursor    int
	confirmed bool
	cancelled bool
}

// NewTogglePrompt creates a prompt over ps and fs. userFlags seeds the
// extra-arguments field.
func NewTogglePrompt(title string, ps *profiles.Set, fs *command.FlagSet, userFlags string) *TogglePrompt {
	ti := textinput.New()
	ti.Placeholder = "-X -Dkey=value"
	ti.CharLimit = 256
	ti.Width = 50
	ti.SetValue(userFlags)

	m := &TogglePrompt{
		title:       title,
		profiles:    ps,
		flags:       fs,
		extra:       ti,
		profileSnap: ps.Snapshot(),
		flagSnap:    fs.Snapshot(),
	}
	if m.onExtra() {
		m.extra.Focus()
	}
	return m
}

func (m TogglePrompt) rows() int {
	return m.profiles.Len() + len(m.flags.Specs()) + 1
}

func (m TogglePrompt) onExtra() bool {
	return m.cursor == m.rows()-1
}

func (m TogglePrompt) Init() tea.Cmd {
	return nil
}

func (m TogglePrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up":
		m.move(-1)
		return m, nil
	case "down", "tab":
		m.move(1)
		return m, nil
	case "enter":
		m.confirmed = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.cancelled = true
		m.profiles.Reset()
		m.profiles.Restore(m.profileSnap)
		m.flags.Restore(m.flagSnap)
		return m, tea.Quit
	}

	if m.onExtra() {
		var cmd tea.Cmd
		m.extra, cmd = m.extra.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "k":
		m.move(-1)
	case "j":
		m.move(1)
	case " ", "x":
		m.toggle()
	case "r":
		m.profiles.Reset()
		m.flags.Reset()
	case "q":
		m.confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *TogglePrompt) move(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= m.rows() {
		return
	}
	m.cursor = next
	if m.onExtra() {
		m.extra.Focus()
	} else {
		m.extra.Blur()
	}
}

func (m *TogglePrompt) toggle() {
	all := m.profiles.Profiles()
	if m.cursor < len(all) {
		m.profiles.Toggle(all[m.cursor].Name)
		return
	}
	specs := m.flags.Specs()
	if i := m.cursor - len(all); i < len(specs) {
		m.flags.Toggle(specs[i].Name)
	}
}

func (m TogglePrompt) View() string {
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render("? "+m.title) + "\n")

	row := 0
	cursor := func() string {
		defer func() { row++ }()
		if row == m.cursor {
			return promptCursorStyle.Render("❯ ")
		}
		return "  "
	}

	all := m.profiles.Profiles()
	if len(all) > 0 {
		b.WriteString("\n" + promptDimStyle.Render("  Profiles") + "\n")
	}
	for _, p := range all {
		b.WriteString(cursor() + profileMark(p) + " " + p.Name)
		if p.AutoActivated {
			b.WriteString(promptDimStyle.Render(" (auto)"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + promptDimStyle.Render("  Flags") + "\n")
	for _, f := range m.flags.Specs() {
		mark := promptUnselectedStyle.Render("○")
		if m.flags.IsEnabled(f.Name) {
			mark = promptEnabledStyle.Render("●")
		}
		b.WriteString(cursor() + mark + " " + f.Name)
		b.WriteString(promptDimStyle.Render(" " + strings.Join(f.Tokens, " ")))
		b.WriteString("\n")
	}

	b.WriteString("\n" + cursor() + "Extra arguments: " + m.extra.View() + "\n")

	if flag := m.profiles.Flag(); flag != "" {
		b.WriteString("\n" + promptDimStyle.Render(fmt.Sprintf("  %s", flag)) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(promptDimStyle.Render("  ↑ ↓ navigate • space toggle • r reset • enter save • esc cancel"))
	return b.String()
}

func profileMark(p profiles.Profile) string {
	switch p.State {
	case profiles.Enabled:
		return promptEnabledStyle.Render("+")
	case profiles.Disabled:
		return promptDisabledStyle.Render("!")
	}
	if p.IsActive() {
		return promptEnabledStyle.Render("•")
	}
	return promptUnselectedStyle.Render("○")
}

// Result returns the extra arguments and whether the edit was kept.
func (m TogglePrompt) Result() (string, bool) {
	return strings.TrimSpace(m.extra.Value()), m.confirmed && !m.cancelled
}

// RunTogglePrompt runs the prompt. The sets hold the new states when it
// returns true and the old ones otherwise.
func RunTogglePrompt(title string, ps *profiles.Set, fs *command.FlagSet, userFlags string) (string, bool, error) {
	model, err := tea.NewProgram(NewTogglePrompt(title, ps, fs, userFlags)).Run()
	if err != nil {
		return userFlags, false, err
	}
	extra, ok := model.(TogglePrompt).Result()
	if !ok {
		return userFlags, false, nil
	}
	return extra, true, nil
}
