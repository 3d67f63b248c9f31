package orchestrator

import (
	"context"
	"fmt"

	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
	"github.com/Phreno/lazymvn-sub002/internal/envfile"
	"github.com/Phreno/lazymvn-sub002/internal/executor"
	"github.com/Phreno/lazymvn-sub002/internal/launch"
	"github.com/Phreno/lazymvn-sub002/internal/overrides"
	"github.com/Phreno/lazymvn-sub002/internal/ports"
)

// LaunchOptions are the per-invocation inputs of an application launch.
// Empty fields fall back to the launch section of the configuration.
type LaunchOptions struct {
	Mode      *launch.Mode
	MainClass string
	JVMArgs   []string
	AppArgs   []string
	// SpringProfiles replace the configured ones when set.
	SpringProfiles []string
	UserFlags      string
	AlsoMake       command.AlsoMake
	// ShiftPort moves the application to the next free port when its
	// configured one is taken.
	ShiftPort bool
}

// Launched describes a started application.
type Launched struct {
	Handle       *executor.Handle
	Command      command.Command
	Strategy     launch.Strategy
	Capabilities launch.Capabilities
	Overrides    overrides.Result
	// Port is where the application should listen, 0 when random.
	Port int
	// Conflict is set when the configured port was taken.
	Conflict *ports.Conflict
}

// Detect resolves the launch strategy for a module.
func (o *Orchestrator) Detect(ctx context.Context, module string, mode launch.Mode, mainClass string) (launch.Strategy, launch.Capabilities, error) {
	if err := o.checkModule(module); err != nil {
		return launch.Strategy{}, launch.Capabilities{}, err
	}
	return o.detector.Detect(ctx, launch.Request{
		Root:       o.project.Root,
		Module:     o.Target(module).Module,
		Executable: o.executable,
		Mode:       mode,
		MainClass:  mainClass,
	})
}

// Prepare resolves everything a launch needs without spawning: strategy,
// override files and the final command. Override-file failures are logged
// and the launch goes ahead without them.
func (o *Orchestrator) Prepare(ctx context.Context, m *Module, opts LaunchOptions) (*Launched, error) {
	log := ctxlog.FromContext(ctx)

	mode := o.cfg.Mode()
	if opts.Mode != nil {
		mode = *opts.Mode
	}
	mainClass := opts.MainClass
	if mainClass == "" {
		mainClass = o.cfg.Launch.MainClass
	}
	strategy, caps, err := o.Detect(ctx, m.ID, mode, mainClass)
	if err != nil {
		return nil, err
	}

	springProfiles := opts.SpringProfiles
	if len(springProfiles) == 0 {
		springProfiles = o.cfg.Launch.SpringProfiles
	}

	res, err := o.overrides.Generate(overrides.Request{
		ProjectHash:    o.hash,
		LogLevels:      o.cfg.Logging,
		Properties:     o.cfg.Properties,
		ActiveProfiles: springProfiles,
	})
	if err != nil {
		log.Warn("override files incomplete, launching without them", "err", err)
	}

	var jvmArgs []string
	jvmArgs = append(jvmArgs, res.JVMArgs()...)
	jvmArgs = append(jvmArgs, o.cfg.Launch.JVMArgs...)
	jvmArgs = append(jvmArgs, opts.JVMArgs...)

	launched := &Launched{Strategy: strategy, Capabilities: caps, Overrides: res}
	launched.Port = ports.ServerPort(o.cfg.Properties, jvmArgs)
	if c, busy := ports.Check(launched.Port); busy {
		launched.Conflict = &c
		if opts.ShiftPort && c.Next > 0 {
			jvmArgs = append(jvmArgs, ports.ShiftArg(c.Next))
			launched.Port = c.Next
			log.Info("port taken, shifting", "from", c.Port, "to", c.Next, "owner", c.PID)
		} else {
			log.Warn("port taken", "port", c.Port, "owner", c.PID)
		}
	}

	appArgs := opts.AppArgs
	if len(appArgs) == 0 {
		appArgs = o.cfg.Launch.Args
	}
	goalOpts := launch.Options{JVMArgs: jvmArgs, AppArgs: appArgs}
	// The properties file already carries the active profiles.
	if res.Properties == nil {
		goalOpts.Profiles = springProfiles
	}

	launched.Command = command.Build(command.Request{
		Target:       o.Target(m.ID),
		Goals:        strategy.Goals(goalOpts),
		Profiles:     m.Profiles.Profiles(),
		Flags:        m.Flags.Enabled(),
		SettingsPath: o.cfg.Settings,
		Threads:      o.threads,
		AlsoMake:     opts.AlsoMake,
		UserFlags:    opts.UserFlags,
	})
	return launched, nil
}

// Launch prepares and starts the module's application in its slot. The
// project's dotenv files feed the application environment.
func (o *Orchestrator) Launch(ctx context.Context, m *Module, opts LaunchOptions) (*Launched, error) {
	launched, err := o.Prepare(ctx, m, opts)
	if err != nil {
		return nil, err
	}

	env, err := envfile.Load(o.project.Root)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("ignoring dotenv files", "err", err)
		env = nil
	}

	ctxlog.FromContext(ctx).Info("launching application",
		"module", m.ID,
		"strategy", launched.Strategy.String(),
		"command", launched.Command.String(),
	)
	h, err := o.supervisor.Slot(SlotID(m.ID)).Start(ctx, executor.Spec{
		Command: launched.Command,
		Env:     envfile.Environ(env),
	})
	if err != nil {
		return launched, fmt.Errorf("launch %s: %w", m.ID, err)
	}
	launched.Handle = h
	return launched, nil
}
