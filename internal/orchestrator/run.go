package orchestrator

import (
	"context"
	"fmt"

	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
	"github.com/Phreno/lazymvn-sub002/internal/executor"
)

// BuildOptions are the per-invocation inputs of a build.
type BuildOptions struct {
	// Goals default to the configured goals.
	Goals []string
	// UserFlags is free text typed by the user.
	UserFlags  string
	AlsoMake   command.AlsoMake
	Properties map[string]string
}

// Command composes the Maven command for the module's current toggles.
func (o *Orchestrator) Command(m *Module, opts BuildOptions) command.Command {
	goals := opts.Goals
	if len(goals) == 0 {
		goals = o.cfg.Goals
	}
	return command.Build(command.Request{
		Target:       o.Target(m.ID),
		Goals:        goals,
		Profiles:     m.Profiles.Profiles(),
		Flags:        m.Flags.Enabled(),
		SettingsPath: o.cfg.Settings,
		Threads:      o.threads,
		AlsoMake:     opts.AlsoMake,
		Properties:   opts.Properties,
		UserFlags:    opts.UserFlags,
	})
}

// Run starts a build in the module's slot.
func (o *Orchestrator) Run(ctx context.Context, m *Module, opts BuildOptions) (*executor.Handle, command.Command, error) {
	cmd := o.Command(m, opts)
	ctxlog.FromContext(ctx).Info("running build", "module", m.ID, "command", cmd.String())

	h, err := o.supervisor.Slot(SlotID(m.ID)).Start(ctx, executor.Spec{Command: cmd})
	if err != nil {
		return nil, cmd, fmt.Errorf("run %s: %w", m.ID, err)
	}
	return h, cmd, nil
}

// SlotID names the execution slot of a module session.
func SlotID(module string) string {
	if module == "" {
		return command.RootModule
	}
	return module
}
