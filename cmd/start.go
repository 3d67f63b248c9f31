package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Phreno/lazymvn-sub002/internal/launch"
	"github.com/Phreno/lazymvn-sub002/internal/orchestrator"
	"github.com/Phreno/lazymvn-sub002/internal/ui"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Launch a module's application",
	Long: `The start command launches the application of a module.

In auto mode spring-boot:run is used when the module declares the Spring
Boot plugin and is packaged as a jar or war; otherwise exec:java is used
with the configured or discovered main class. Logging levels and Spring
properties from .lazymvn.yaml are written to override files and passed
to the application. Variables from .env and .env.local are added to its
environment.`,
	RunE: runStart,
}

func init() {
	addModuleFlags(startCmd)
	addAlsoMakeFlags(startCmd)
	addLaunchFlags(startCmd)
	startCmd.Flags().Bool("shift-port", false, "Use the next free port when the configured one is taken")
	startCmd.Flags().Bool("no-tui", false, "Disable TUI dashboard (use plain scrolling output)")
}

func addLaunchFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Launch mode: auto, force-run or force-exec (defaults to the configuration)")
	cmd.Flags().String("main-class", "", "Fully qualified main class")
	cmd.Flags().StringArray("jvm-arg", nil, "JVM argument for the application (repeatable)")
	cmd.Flags().StringArray("arg", nil, "Program argument for the application (repeatable)")
	cmd.Flags().StringSlice("spring-profile", nil, "Spring profile to activate (repeatable)")
	cmd.Flags().String("flags", "", "Extra Maven arguments, split on whitespace")
}

func launchOptions(cmd *cobra.Command) (orchestrator.LaunchOptions, error) {
	var opts orchestrator.LaunchOptions
	if raw, _ := cmd.Flags().GetString("mode"); raw != "" {
		mode, err := launch.ParseMode(raw)
		if err != nil {
			return opts, err
		}
		opts.Mode = &mode
	}
	opts.MainClass, _ = cmd.Flags().GetString("main-class")
	opts.JVMArgs, _ = cmd.Flags().GetStringArray("jvm-arg")
	opts.AppArgs, _ = cmd.Flags().GetStringArray("arg")
	opts.SpringProfiles, _ = cmd.Flags().GetStringSlice("spring-profile")
	opts.UserFlags, _ = cmd.Flags().GetString("flags")
	opts.AlsoMake = alsoMake(cmd)
	if cmd.Flags().Lookup("shift-port") != nil {
		opts.ShiftPort, _ = cmd.Flags().GetBool("shift-port")
	}
	return opts, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	noTUI, _ := cmd.Flags().GetBool("no-tui")
	s, err := openSession(cmd, !noTUI && interactive())
	if err != nil {
		return err
	}
	defer s.close()

	id, err := chooseModule(cmd, s, s.orch.Config().Launch.Module)
	if err != nil {
		return err
	}
	m, err := s.orch.Module(s.ctx, id)
	if err != nil {
		return err
	}
	opts, err := launchOptions(cmd)
	if err != nil {
		return err
	}

	launched, err := s.orch.Launch(s.ctx, m, opts)
	if err != nil {
		return err
	}
	if c := launched.Conflict; c != nil {
		if launched.Port != c.Port {
			ui.PrintWarning(fmt.Sprintf("%s, using %d", c.String(), launched.Port))
		} else {
			ui.PrintWarning(c.String() + " (retry with --shift-port)")
		}
	}
	if noTUI || !interactive() {
		ui.PrintInfo(launched.Strategy.String())
		ui.PrintInfo(launched.Command.String())
	}

	sess := ui.NewSession(m.ID, ui.PhaseRun, launched.Handle)
	if launched.Port > 0 {
		sess.SetPort(launched.Port)
	}
	return supervise(cmd, s, sess)
}
