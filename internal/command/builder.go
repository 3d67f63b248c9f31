package command

import (
	"sort"
	"strings"

	"github.com/Phreno/lazymvn-sub002/internal/profiles"
)

// AlsoMake selects the reactor expansion around a scoped module.
type AlsoMake int

const (
	// AlsoMakeNone builds only the target.
	AlsoMakeNone AlsoMake = iota
	// AlsoMakeUpstream builds the modules the target depends on (-am).
	AlsoMakeUpstream
	// AlsoMakeDownstream builds the modules depending on the target (-amd).
	AlsoMakeDownstream
	// AlsoMakeBoth combines -am and -amd.
	AlsoMakeBoth
)

// Tokens returns the flags for the mode.
func (a AlsoMake) Tokens() []string {
	switch a {
	case AlsoMakeUpstream:
		return []string{"-am"}
	case AlsoMakeDownstream:
		return []string{"-amd"}
	case AlsoMakeBoth:
		return []string{"-am", "-amd"}
	default:
		return nil
	}
}

// Request is everything a command is built from.
type Request struct {
	Target   Target
	Goals    []string
	Profiles []profiles.Profile
	// Flags holds the enabled flags in configuration order.
	Flags        []FlagSpec
	SettingsPath string
	Threads      string
	AlsoMake     AlsoMake
	// Properties become -Dkey=value, sorted by key.
	Properties map[string]string
	// UserFlags is typed by the user as a shell fragment and is split on
	// whitespace. Goals are never split.
	UserFlags string
}

// Command is a resolved argument vector.
type Command struct {
	Executable string
	Args       []string
	Dir        string
}

// Argv returns the executable followed by the arguments.
func (c Command) Argv() []string {
	return append([]string{c.Executable}, c.Args...)
}

// String renders the command for display and history, quoting tokens
// that a shell would split.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = quote(a)
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`*?&|;<>()!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Build composes the command. Token order is fixed: settings, profiles,
// threads, module scope and also-make, enabled flags, properties, user
// flags, then goals.
func Build(req Request) Command {
	var args []string

	if req.SettingsPath != "" {
		args = append(args, "--settings", req.SettingsPath)
	}
	if flag := profiles.Flag(req.Profiles); flag != "" {
		args = append(args, flag)
	}
	if req.Threads != "" {
		args = append(args, "-T", req.Threads)
	}
	if !req.Target.IsRoot() {
		args = append(args, "-pl", req.Target.Module)
		args = append(args, req.AlsoMake.Tokens()...)
	}
	for _, f := range req.Flags {
		args = append(args, f.Tokens...)
	}
	args = append(args, PropertyArgs(req.Properties)...)
	args = append(args, strings.Fields(req.UserFlags)...)
	args = append(args, req.Goals...)

	exe := req.Target.Executable
	if exe == "" {
		exe = SystemExecutable
	}
	return Command{Executable: exe, Args: args, Dir: req.Target.Root}
}

// PropertyArgs renders properties as -Dkey=value sorted by key.
func PropertyArgs(props map[string]string) []string {
	if len(props) == 0 {
		return nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, "-D"+k+"="+props[k])
	}
	return out
}
