// Package profiles models Maven profiles as tri-state toggles and
// serializes them into the -P command-line flag.
package profiles

import (
	"errors"
	"fmt"
	"strings"
)

// State is the user's explicit choice for a profile.
type State int

const (
	// Default leaves activation to Maven.
	Default State = iota
	// Enabled forces the profile on.
	Enabled
	// Disabled forces the profile off.
	Disabled
)

func (s State) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	default:
		return "default"
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "":
		return Default, nil
	case "enabled":
		return Enabled, nil
	case "disabled":
		return Disabled, nil
	}
	return Default, fmt.Errorf("unknown profile state %q", s)
}

// ErrEmptyArgument is returned when parsing an empty profile argument.
var ErrEmptyArgument = errors.New("empty profile argument")

// Profile is one profile of a module.
type Profile struct {
	Name  string
	State State
	// AutoActivated is true when Maven activates the profile on its own
	// (activeByDefault, property or JDK activation). It is metadata fetched
	// once per project and never changed by toggling.
	AutoActivated bool
}

// Toggle advances the profile by one step. Plain profiles go
// Default -> Enabled -> Default; auto-activated profiles go
// Default -> Disabled -> Default, since enabling an already active
// profile would be a no-op.
func (p *Profile) Toggle() {
	if p.AutoActivated {
		if p.State == Disabled {
			p.State = Default
		} else {
			p.State = Disabled
		}
		return
	}
	if p.State == Enabled {
		p.State = Default
	} else {
		p.State = Enabled
	}
}

// IsActive reports whether Maven will run with the profile active.
func (p Profile) IsActive() bool {
	switch p.State {
	case Enabled:
		return true
	case Disabled:
		return false
	default:
		return p.AutoActivated
	}
}

// MavenArgument returns the token for the -P list, or false when the
// profile is left to Maven.
func (p Profile) MavenArgument() (string, bool) {
	switch p.State {
	case Enabled:
		return p.Name, true
	case Disabled:
		return "!" + p.Name, true
	default:
		return "", false
	}
}

// ParseArgument parses a single -P list token. "name" is Enabled and
// "!name" (or "-name") is Disabled.
func ParseArgument(arg string) (string, State, error) {
	arg = strings.TrimSpace(arg)
	switch {
	case arg == "":
		return "", Default, ErrEmptyArgument
	case strings.HasPrefix(arg, "!"), strings.HasPrefix(arg, "-"):
		name := strings.TrimSpace(arg[1:])
		if name == "" {
			return "", Default, ErrEmptyArgument
		}
		return name, Disabled, nil
	default:
		return arg, Enabled, nil
	}
}
