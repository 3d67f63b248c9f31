package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Phreno/lazymvn-sub002/internal/orchestrator"
	"github.com/Phreno/lazymvn-sub002/internal/ui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [goals...]",
	Short: "Build a module with its remembered profiles and flags",
	Long: `The run command builds one module of the project. Goals default to
the ones in .lazymvn.yaml (clean install).

The command is composed from:
- the Maven wrapper when the project has one, mvn otherwise
- the settings file and thread count from the configuration
- the profiles and flags toggled for the module (see 'lazymvn profiles')
- -pl <module> and the also-make options

Only one process runs per module; a second run while one is active is
refused.`,
	RunE: runRun,
}

func init() {
	addModuleFlags(runCmd)
	addAlsoMakeFlags(runCmd)
	runCmd.Flags().String("flags", "", "Extra Maven arguments, split on whitespace")
	runCmd.Flags().StringArrayP("define", "D", nil, "System property key=value passed as -Dkey=value")
	runCmd.Flags().Bool("dry-run", false, "Print the command without running it")
	runCmd.Flags().Bool("no-tui", false, "Disable TUI dashboard (use plain scrolling output)")
}

func runRun(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noTUI, _ := cmd.Flags().GetBool("no-tui")
	s, err := openSession(cmd, !dryRun && !noTUI && interactive())
	if err != nil {
		return err
	}
	defer s.close()

	id, err := chooseModule(cmd, s, "")
	if err != nil {
		return err
	}
	m, err := s.orch.Module(s.ctx, id)
	if err != nil {
		return err
	}

	defines, _ := cmd.Flags().GetStringArray("define")
	props, err := parseProperties(defines)
	if err != nil {
		return err
	}
	userFlags, _ := cmd.Flags().GetString("flags")
	opts := orchestrator.BuildOptions{
		Goals:      args,
		UserFlags:  userFlags,
		AlsoMake:   alsoMake(cmd),
		Properties: props,
	}

	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), s.orch.Command(m, opts).String())
		return nil
	}

	h, built, err := s.orch.Run(s.ctx, m, opts)
	if err != nil {
		return err
	}
	if noTUI || !interactive() {
		ui.PrintInfo(built.String())
	}
	sess := ui.NewSession(m.ID, ui.PhaseBuild, h)
	return supervise(cmd, s, sess)
}

func parseProperties(defines []string) (map[string]string, error) {
	if len(defines) == 0 {
		return nil, nil
	}
	props := make(map[string]string, len(defines))
	for _, d := range defines {
		key, value, _ := strings.Cut(d, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid property %q, want key=value", d)
		}
		props[key] = value
	}
	return props, nil
}
