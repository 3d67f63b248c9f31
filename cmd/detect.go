package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Phreno/lazymvn-sub002/internal/launch"
	"github.com/Phreno/lazymvn-sub002/internal/ui"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show how a module would be launched",
	Long: `The detect command resolves the launch strategy of a module and
prints the command 'lazymvn start' would run, without starting anything.
Override files are written as they would be for a real launch.`,
	RunE: runDetect,
}

func init() {
	addModuleFlags(detectCmd)
	addAlsoMakeFlags(detectCmd)
	addLaunchFlags(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, false)
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

	launched, err := s.orch.Prepare(s.ctx, m, opts)
	if err != nil {
		return err
	}

	caps := launched.Capabilities
	ui.PrintHeader("Launch plan for " + m.ID)
	ui.PrintDivider()
	if caps.Known {
		ui.PrintHighlight("Packaging", caps.Packaging)
		ui.PrintHighlight("Spring Boot plugin", pluginSummary(caps.HasRunPlugin, caps.RunPluginVersion))
		ui.PrintHighlight("Exec plugin", pluginSummary(caps.HasExecPlugin, ""))
		if caps.ConfiguredMainClass != "" {
			ui.PrintHighlight("Main class", caps.ConfiguredMainClass)
		}
	} else {
		ui.PrintWarning("effective POM unavailable, assuming jar packaging without plugins")
	}
	ui.PrintHighlight("Strategy", launched.Strategy.String())
	if launched.Strategy.Kind() == launch.KindExecPlugin && launched.Strategy.Exec.ClasspathScopeOverride != "" {
		ui.PrintInfo("classpath widened to " + launched.Strategy.Exec.ClasspathScopeOverride + " scope for a web archive")
	}
	for _, f := range launched.Overrides.Files() {
		ui.PrintHighlight(string(f.Kind)+" overrides", f.Path)
	}
	if launched.Port > 0 {
		ui.PrintHighlight("Port", fmt.Sprint(launched.Port))
	}
	if c := launched.Conflict; c != nil {
		ui.PrintWarning(c.String())
	}
	ui.PrintDivider()
	fmt.Fprintln(cmd.OutOrStdout(), launched.Command.String())
	return nil
}

func pluginSummary(present bool, version string) string {
	if !present {
		return "not declared"
	}
	return strings.TrimSpace("declared " + version)
}
