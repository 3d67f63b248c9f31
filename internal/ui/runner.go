package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Phreno/lazymvn-sub002/internal/executor"
)

// RunDashboard shows sessions full screen until the user quits or ctx is
// cancelled. Every slot of sup is shut down before it returns, so no
// process outlives the dashboard.
func RunDashboard(ctx context.Context, sup *executor.Supervisor, sessions []*Session) error {
	model := NewDashboard(sessions, sup)
	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := program.Run()
	if sup != nil {
		sup.ShutdownAll()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
