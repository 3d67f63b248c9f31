package launch

import (
	"strings"
)

// Options carry what the launched application should receive.
type Options struct {
	// JVMArgs are options for the application JVM, typically -D overrides.
	JVMArgs []string
	// AppArgs are program arguments.
	AppArgs []string
	// Profiles are Spring profiles to activate.
	Profiles []string
}

const (
	runGoal          = "spring-boot:run"
	qualifiedRunGoal = runPluginGroup + ":" + runPluginArtifact + ":run"
	execGoal         = "exec:java"
)

// Goals renders the strategy as goal tokens for the command builder. Each
// property is one token even when its value holds spaces; the builder
// passes goal tokens through untouched.
func (s Strategy) Goals(opts Options) []string {
	switch s.Kind() {
	case KindRunPlugin:
		return s.Run.goals(opts)
	case KindExecPlugin:
		return s.Exec.goals(opts)
	default:
		return nil
	}
}

func (r *RunPlugin) goals(opts Options) []string {
	goal := runGoal
	if !r.Declared {
		goal = qualifiedRunGoal
		if r.Version != "" {
			goal = runPluginGroup + ":" + runPluginArtifact + ":" + r.Version + ":run"
		}
	}
	out := []string{goal}
	if r.MainClassOverride != "" {
		out = append(out, prop(r.Scheme.MainClass, r.MainClassOverride))
	}
	if len(opts.JVMArgs) > 0 {
		out = append(out, prop(r.Scheme.JVMArguments, strings.Join(opts.JVMArgs, " ")))
	}
	if len(opts.AppArgs) > 0 {
		// The legacy scheme splits on commas, the modern one on spaces.
		sep := " "
		if r.Scheme.Name == LegacyScheme.Name {
			sep = ","
		}
		out = append(out, prop(r.Scheme.Arguments, strings.Join(opts.AppArgs, sep)))
	}
	if len(opts.Profiles) > 0 {
		out = append(out, prop(r.Scheme.Profiles, strings.Join(opts.Profiles, ",")))
	}
	return out
}

func (e *ExecPlugin) goals(opts Options) []string {
	out := []string{execGoal, prop("exec.mainClass", e.MainClass)}
	if e.ClasspathScopeOverride != "" {
		out = append(out, prop("exec.classpathScope", e.ClasspathScopeOverride))
	}
	if len(opts.AppArgs) > 0 {
		out = append(out, prop("exec.args", strings.Join(opts.AppArgs, " ")))
	}
	if len(opts.Profiles) > 0 {
		out = append(out, prop("spring.profiles.active", strings.Join(opts.Profiles, ",")))
	}
	// exec:java runs inside the Maven JVM, so only system properties can
	// reach the application; other JVM options are dropped.
	for _, a := range opts.JVMArgs {
		if strings.HasPrefix(a, "-D") {
			out = append(out, a)
		}
	}
	return out
}

func prop(key, value string) string {
	return "-D" + key + "=" + value
}
