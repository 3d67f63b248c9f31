package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Phreno/lazymvn-sub002/internal/doctor"
	"github.com/Phreno/lazymvn-sub002/internal/ui"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the JDK, Maven and project setup",
	Long: `The doctor command checks what builds and launches depend on: the
JDK, Maven or the project's wrapper, the configuration file, the Maven
settings file, the build thread count and the application port.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}

	d := doctor.Diagnose(cmd.Context(), root, doctor.Options{})

	ui.PrintHeader("lazymvn doctor")
	ui.PrintDivider()
	ui.PrintHighlight("Project", d.ProjectPath)
	ui.PrintHighlight("Hardware", d.Hardware)
	if d.Threads != "" {
		ui.PrintHighlight("Build threads", d.Threads)
	}
	ui.PrintDivider()

	for _, f := range d.Findings {
		line := fmt.Sprintf("%-9s %s", f.Name, f.Detail)
		switch f.Severity {
		case doctor.Problem:
			ui.PrintError(line)
		case doctor.Warning:
			ui.PrintWarning(line)
		default:
			ui.PrintSuccess(line)
		}
		if f.Fix != "" {
			ui.PrintHighlight("fix", f.Fix)
		}
	}

	ui.PrintDivider()
	if !d.Healthy {
		return fmt.Errorf("%d problem(s) found", countProblems(d))
	}
	ui.PrintSuccess("Ready to build and launch")
	return nil
}

func countProblems(d doctor.Diagnosis) int {
	n := 0
	for _, f := range d.Issues() {
		if f.Severity == doctor.Problem {
			n++
		}
	}
	return n
}
