package profiles

import (
	"fmt"
	"strings"
)

// FlagPrefix starts the aggregated profile flag.
const FlagPrefix = "-P"

// Set is the ordered list of profiles for one module.
type Set struct {
	profiles []Profile
}

// NewSet builds a set from profile names in declaration order. Duplicate
// names are dropped; auto holds names Maven activates on its own.
func NewSet(names []string, auto map[string]bool) *Set {
	s := &Set{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		s.profiles = append(s.profiles, Profile{Name: name, AutoActivated: auto[name]})
	}
	return s
}

// Len returns the number of profiles.
func (s *Set) Len() int {
	return len(s.profiles)
}

// Profiles returns a copy of the profiles.
func (s *Set) Profiles() []Profile {
	out := make([]Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Get returns the named profile.
func (s *Set) Get(name string) (Profile, bool) {
	if i := s.index(name); i >= 0 {
		return s.profiles[i], true
	}
	return Profile{}, false
}

// Toggle advances the named profile and returns its new state.
func (s *Set) Toggle(name string) (State, error) {
	i := s.index(name)
	if i < 0 {
		return Default, fmt.Errorf("unknown profile %q", name)
	}
	s.profiles[i].Toggle()
	return s.profiles[i].State, nil
}

// SetState sets the named profile's state directly.
func (s *Set) SetState(name string, state State) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("unknown profile %q", name)
	}
	s.profiles[i].State = state
	return nil
}

// Reset returns every profile to Default.
func (s *Set) Reset() {
	for i := range s.profiles {
		s.profiles[i].State = Default
	}
}

// Arguments returns the -P list tokens in declaration order.
func (s *Set) Arguments() []string {
	return Arguments(s.profiles)
}

// Flag returns the aggregated "-Pa,!b" token, or "" when no profile has an
// explicit state.
func (s *Set) Flag() string {
	return Flag(s.profiles)
}

// Arguments returns the -P list tokens of ps in order.
func Arguments(ps []Profile) []string {
	var args []string
	for _, p := range ps {
		if arg, ok := p.MavenArgument(); ok {
			args = append(args, arg)
		}
	}
	return args
}

// Flag joins the arguments of ps into one -P token. It returns "" when
// every profile is Default.
func Flag(ps []Profile) string {
	args := Arguments(ps)
	if len(args) == 0 {
		return ""
	}
	return FlagPrefix + strings.Join(args, ",")
}

// Active returns the names of profiles that will be active, in order.
func (s *Set) Active() []string {
	var names []string
	for _, p := range s.profiles {
		if p.IsActive() {
			names = append(names, p.Name)
		}
	}
	return names
}

// Apply sets states from an aggregated flag such as "-Pdev,!test" or a bare
// list "dev,!test". Names not in the set are ignored and returned.
func (s *Set) Apply(flag string) ([]string, error) {
	states, err := ParseFlag(flag)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, st := range states {
		if err := s.SetState(st.Name, st.State); err != nil {
			unknown = append(unknown, st.Name)
		}
	}
	return unknown, nil
}

// Snapshot returns the explicit (non-default) states keyed by name.
func (s *Set) Snapshot() map[string]string {
	out := make(map[string]string)
	for _, p := range s.profiles {
		if p.State != Default {
			out[p.Name] = p.State.String()
		}
	}
	return out
}

// Restore applies a snapshot. Names no longer present are skipped.
func (s *Set) Restore(snap map[string]string) error {
	for name, raw := range snap {
		state, err := ParseState(raw)
		if err != nil {
			return err
		}
		if i := s.index(name); i >= 0 {
			s.profiles[i].State = state
		}
	}
	return nil
}

func (s *Set) index(name string) int {
	for i, p := range s.profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// ParseFlag parses an aggregated profile flag into profiles with explicit
// states. The "-P" prefix is optional.
func ParseFlag(flag string) ([]Profile, error) {
	flag = strings.TrimSpace(flag)
	flag = strings.TrimPrefix(flag, FlagPrefix)
	if flag == "" {
		return nil, nil
	}
	var out []Profile
	for _, part := range strings.Split(flag, ",") {
		name, state, err := ParseArgument(part)
		if err != nil {
			return nil, fmt.Errorf("parse profile flag %q: %w", flag, err)
		}
		out = append(out, Profile{Name: name, State: state})
	}
	return out, nil
}
