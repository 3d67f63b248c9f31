// Package ui renders lazymvn for the terminal: styled status lines, the
// toggle and selection prompts, and the session dashboard.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Out receives the styled status lines.
var Out io.Writer = os.Stdout

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"})
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#00FF00"})
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC6600", Dark: "#FFAA00"})
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF0000"})
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#00AAFF"})
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"})
	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CCCCCC", Dark: "#444444"})
)

// PrintHeader prints a styled header
func PrintHeader(text string) {
	fmt.Fprintln(Out, headerStyle.Render(text))
}

// PrintSuccess prints a success message with checkmark
func PrintSuccess(text string) {
	fmt.Fprintln(Out, successStyle.Render("✔")+" "+text)
}

// PrintWarning prints a warning message
func PrintWarning(text string) {
	fmt.Fprintln(Out, warningStyle.Render("⚠")+" "+text)
}

// PrintError prints an error message
func PrintError(text string) {
	fmt.Fprintln(Out, errorStyle.Render("✖")+" "+text)
}

// PrintInfo prints an info message
func PrintInfo(text string) {
	fmt.Fprintln(Out, infoStyle.Render("ℹ")+" "+text)
}

// PrintHighlight prints a label and its value.
func PrintHighlight(label, value string) {
	fmt.Fprintln(Out, "  "+labelStyle.Render(label+":")+" "+valueStyle.Render(value))
}

// PrintDivider prints a styled divider
func PrintDivider() {
	fmt.Fprintln(Out, dividerStyle.Render(strings.Repeat("─", 50)))
}
