// Package launch decides how to start an application module: through the
// Spring Boot run goal or through exec:java with a main class.
package launch

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the user's launch override.
type Mode int

const (
	ModeAuto Mode = iota
	ModeForceRun
	ModeForceExec
)

func (m Mode) String() string {
	switch m {
	case ModeForceRun:
		return "force-run"
	case ModeForceExec:
		return "force-exec"
	default:
		return "auto"
	}
}

// ParseMode accepts "auto", "force-run"/"run" and "force-exec"/"exec".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "force-run", "run":
		return ModeForceRun, nil
	case "force-exec", "exec":
		return ModeForceExec, nil
	}
	return ModeAuto, fmt.Errorf("unknown launch mode %q", s)
}

// Kind names the strategy variant.
type Kind int

const (
	KindRunPlugin Kind = iota + 1
	KindExecPlugin
)

func (k Kind) String() string {
	switch k {
	case KindRunPlugin:
		return "run-plugin"
	case KindExecPlugin:
		return "exec-plugin"
	default:
		return "none"
	}
}

// RunPlugin launches through spring-boot:run.
type RunPlugin struct {
	// MainClassOverride is set only when the user names a main class.
	MainClassOverride string
	// Version is the detected plugin version, empty when undeclared.
	Version string
	// Declared is false when the plugin was forced onto a module that does
	// not declare it, which requires the fully qualified goal.
	Declared bool
	Scheme   Scheme
}

// ExecPlugin launches through exec:java.
type ExecPlugin struct {
	MainClass string
	// ClasspathScopeOverride widens the classpath; set for web archives.
	ClasspathScopeOverride string
}

// Strategy holds exactly one of Run or Exec.
type Strategy struct {
	Run  *RunPlugin
	Exec *ExecPlugin
}

// Kind reports which variant is set.
func (s Strategy) Kind() Kind {
	switch {
	case s.Run != nil:
		return KindRunPlugin
	case s.Exec != nil:
		return KindExecPlugin
	default:
		return 0
	}
}

func (s Strategy) String() string {
	switch s.Kind() {
	case KindRunPlugin:
		out := "spring-boot:run (" + s.Run.Scheme.Name + " properties"
		if s.Run.Version != "" {
			out += ", plugin " + s.Run.Version
		}
		if s.Run.MainClassOverride != "" {
			out += ", main " + s.Run.MainClassOverride
		}
		return out + ")"
	case KindExecPlugin:
		out := "exec:java (main " + s.Exec.MainClass
		if s.Exec.ClasspathScopeOverride != "" {
			out += ", classpath scope " + s.Exec.ClasspathScopeOverride
		}
		return out + ")"
	default:
		return "none"
	}
}

// WidenedScope is the exec classpath scope that includes provided
// dependencies.
const WidenedScope = "compile"

// ErrUndetectable means neither launch path could be resolved.
var ErrUndetectable = errors.New("launch strategy undetectable")

// DetectionError explains why no strategy was selected.
type DetectionError struct {
	Module string
	Mode   Mode
	Reason string
	// Cause is the underlying failure (descriptor query, source scan), if
	// any.
	Cause error
}

func (e *DetectionError) Error() string {
	msg := fmt.Sprintf("cannot launch module %s (%s): %s", e.Module, e.Mode, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DetectionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUndetectable, e.Cause}
	}
	return []error{ErrUndetectable}
}

// Inputs are the facts a decision is made from.
type Inputs struct {
	Module       string
	Capabilities Capabilities
	Mode         Mode
	// MainClass is an explicit user choice; it wins over everything.
	MainClass string
	// Discover finds a main class in sources. Called only when needed.
	Discover func() (string, error)
	Cutoffs  CutoffTable
	// DescriptorErr is the descriptor query failure behind unknown
	// capabilities, reported if detection then fails.
	DescriptorErr error
}

// Decide selects the strategy. It performs no I/O beyond Discover.
func Decide(in Inputs) (Strategy, error) {
	caps := in.Capabilities
	cutoffs := in.Cutoffs
	if cutoffs == nil {
		cutoffs = DefaultCutoffs
	}

	switch in.Mode {
	case ModeForceRun:
		return runStrategy(in, cutoffs), nil
	case ModeForceExec:
		return execStrategy(in)
	}

	if caps.HasRunPlugin {
		return runStrategy(in, cutoffs), nil
	}
	return execStrategy(in)
}

func runStrategy(in Inputs, cutoffs CutoffTable) Strategy {
	caps := in.Capabilities
	return Strategy{Run: &RunPlugin{
		MainClassOverride: in.MainClass,
		Version:           caps.RunPluginVersion,
		Declared:          caps.HasRunPlugin,
		Scheme:            cutoffs.SchemeFor(caps.RunPluginVersion),
	}}
}

func execStrategy(in Inputs) (Strategy, error) {
	caps := in.Capabilities
	mainClass := in.MainClass
	if mainClass == "" {
		mainClass = caps.ConfiguredMainClass
	}

	var cause error
	if mainClass == "" && in.Discover != nil {
		mc, err := in.Discover()
		if err == nil {
			mainClass = mc
		} else {
			cause = err
		}
	}

	if mainClass == "" {
		if in.DescriptorErr != nil {
			cause = errors.Join(in.DescriptorErr, cause)
		}
		reason := "no run plugin and no main class found"
		switch {
		case in.Mode == ModeForceExec:
			reason = "exec launch forced but no main class found"
		case !caps.Known:
			reason = "build descriptor unavailable and no main class found in sources"
		case caps.HasExecPlugin:
			reason = "exec plugin declared without a mainClass and none found in sources"
		}
		return Strategy{}, &DetectionError{Module: in.Module, Mode: in.Mode, Reason: reason, Cause: cause}
	}

	exec := &ExecPlugin{MainClass: mainClass}
	if caps.Packaging == PackagingWar {
		exec.ClasspathScopeOverride = WidenedScope
	}
	return Strategy{Exec: exec}, nil
}
