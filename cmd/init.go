package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Phreno/lazymvn-sub002/internal/config"
	"github.com/Phreno/lazymvn-sub002/internal/envfile"
	"github.com/Phreno/lazymvn-sub002/internal/project"
	"github.com/Phreno/lazymvn-sub002/internal/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .lazymvn.yaml for the project",
	Long: `The init command writes a .lazymvn.yaml file in the project root
holding the default goals, flags, launch mode and kill settings, ready to
be edited.

With --env KEY=VALUE the variables are also merged into the project's
.env file, which 'lazymvn start' passes to the application.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	initCmd.Flags().String("launch-module", "", "Module started by 'lazymvn start' when none is given")
	initCmd.Flags().StringArray("env", nil, "Variable KEY=VALUE to add to .env (repeatable)")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}
	proj, err := project.Analyze(root)
	if err != nil {
		return err
	}

	path := config.Path(root)
	force, _ := cmd.Flags().GetBool("force")
	write := true
	if _, err := os.Stat(path); err == nil && !force {
		write = false
		if interactive() {
			write, err = ui.RunYesNoPrompt(
				config.FileName+" already exists. Overwrite it?",
				"The current settings will be replaced with the defaults.",
				false,
			)
			if err != nil {
				return err
			}
		}
		if !write {
			ui.PrintWarning(config.FileName + " already exists, use --force to overwrite")
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if write {
		cfg := config.Default()
		cfg.Launch.Module, _ = cmd.Flags().GetString("launch-module")
		if cfg.Launch.Module != "" {
			if !declares(proj, cfg.Launch.Module) {
				return fmt.Errorf("project %s has no module %q", proj.Name, cfg.Launch.Module)
			}
		}
		if err := config.Write(path, cfg); err != nil {
			return fmt.Errorf("write %s: %w", config.FileName, err)
		}
		ui.PrintSuccess("Wrote " + path)
	}

	vars, _ := cmd.Flags().GetStringArray("env")
	if len(vars) > 0 {
		values, err := parseProperties(vars)
		if err != nil {
			return err
		}
		envPath := filepath.Join(root, envfile.Names[0])
		if err := envfile.Write(envPath, values); err != nil {
			return fmt.Errorf("write %s: %w", envPath, err)
		}
		ui.PrintSuccess(fmt.Sprintf("Added %d variable(s) to %s", len(values), envPath))
	}

	ui.PrintDivider()
	ui.PrintHighlight("Project", proj.Name)
	ui.PrintHighlight("Modules", fmt.Sprint(len(proj.Modules)))
	if proj.Packaging != "" {
		ui.PrintHighlight("Packaging", proj.Packaging)
	}
	return nil
}

func declares(p project.Project, module string) bool {
	for _, m := range p.Modules {
		if m == module {
			return true
		}
	}
	return false
}
