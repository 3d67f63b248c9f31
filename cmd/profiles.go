package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Phreno/lazymvn-sub002/internal/profiles"
	"github.com/Phreno/lazymvn-sub002/internal/ui"
)

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List or toggle a module's profiles and flags",
	Long: `The profiles command shows the profiles and flags of a module and
changes them. Changes are remembered for the module and used by the next
'lazymvn run' and 'lazymvn start'.

Profiles have three states: default leaves activation to Maven, enabled
forces the profile on (-Pname) and disabled forces it off (-P!name).

Examples:
  lazymvn profiles -m web --apply '-Pdev,!jdk17'
  lazymvn profiles -m web --flag-on 'Skip tests'
  lazymvn profiles -m web -i`,
	RunE: runProfiles,
}

func init() {
	addModuleFlags(profilesCmd)
	profilesCmd.Flags().String("apply", "", "Set profile states from a -P list such as '-Pdev,!test'")
	profilesCmd.Flags().StringSlice("enable", nil, "Force profiles on")
	profilesCmd.Flags().StringSlice("disable", nil, "Force profiles off")
	profilesCmd.Flags().StringSlice("default", nil, "Return profiles to Maven's activation")
	profilesCmd.Flags().StringArray("flag-on", nil, "Enable a flag by name")
	profilesCmd.Flags().StringArray("flag-off", nil, "Disable a flag by name")
	profilesCmd.Flags().Bool("reset", false, "Forget every toggle of the module")
	profilesCmd.Flags().BoolP("interactive", "i", false, "Toggle profiles and flags in a prompt")
}

func runProfiles(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, false)
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

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		if err := s.orch.ResetModule(m); err != nil {
			return err
		}
		ui.PrintSuccess("Reset profiles and flags of " + m.ID)
	}

	changed := false
	if flag, _ := cmd.Flags().GetString("apply"); flag != "" {
		unknown, err := m.Profiles.Apply(flag)
		if err != nil {
			return err
		}
		for _, name := range unknown {
			ui.PrintWarning("unknown profile " + name)
		}
		changed = true
	}
	for _, st := range []struct {
		flag  string
		state profiles.State
	}{
		{"enable", profiles.Enabled},
		{"disable", profiles.Disabled},
		{"default", profiles.Default},
	} {
		names, _ := cmd.Flags().GetStringSlice(st.flag)
		for _, p := range names {
			if err := m.Profiles.SetState(p, st.state); err != nil {
				return err
			}
			changed = true
		}
	}
	for _, fl := range []struct {
		flag string
		on   bool
	}{
		{"flag-on", true},
		{"flag-off", false},
	} {
		names, _ := cmd.Flags().GetStringArray(fl.flag)
		for _, f := range names {
			if err := m.Flags.Enable(f, fl.on); err != nil {
				return err
			}
			changed = true
		}
	}

	if i, _ := cmd.Flags().GetBool("interactive"); i {
		if !interactive() {
			return fmt.Errorf("--interactive needs a terminal")
		}
		_, ok, err := ui.RunTogglePrompt("Profiles and flags for "+m.ID, m.Profiles, m.Flags, "")
		if err != nil {
			return err
		}
		changed = changed || ok
	}

	if changed {
		if err := s.orch.Save(m); err != nil {
			return fmt.Errorf("save module state: %w", err)
		}
	}
	printModuleState(s, m.ID)
	return nil
}

func printModuleState(s *session, id string) {
	m, err := s.orch.Module(s.ctx, id)
	if err != nil {
		ui.PrintError(err.Error())
		return
	}

	ui.PrintHeader("Module " + m.ID)
	ui.PrintDivider()
	if m.Profiles.Len() == 0 {
		ui.PrintInfo("no profiles declared")
	}
	for _, p := range m.Profiles.Profiles() {
		var notes []string
		if p.AutoActivated {
			notes = append(notes, "auto")
		}
		if p.IsActive() {
			notes = append(notes, "active")
		}
		value := p.State.String()
		if len(notes) > 0 {
			value += " (" + strings.Join(notes, ", ") + ")"
		}
		ui.PrintHighlight(p.Name, value)
	}
	for _, f := range m.Flags.Specs() {
		state := "off"
		if m.Flags.IsEnabled(f.Name) {
			state = "on"
		}
		ui.PrintHighlight(f.Name, state+"  "+strings.Join(f.Tokens, " "))
	}
	ui.PrintDivider()
	if flag := m.Profiles.Flag(); flag != "" {
		ui.PrintInfo(flag)
	}
}
