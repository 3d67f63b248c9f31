package command

import (
	"fmt"
	"strings"
)

// FlagSpec is a named group of tokens the user switches on and off as one
// unit, such as "Skip tests" = ["-DskipTests"].
type FlagSpec struct {
	Name             string   `yaml:"name"`
	Tokens           []string `yaml:"tokens"`
	EnabledByDefault bool     `yaml:"enabled,omitempty"`
}

// DefaultFlags are offered when the project configures none.
var DefaultFlags = []FlagSpec{
	{Name: "Skip tests", Tokens: []string{"-DskipTests"}},
	{Name: "Offline", Tokens: []string{"--offline"}},
	{Name: "Update snapshots", Tokens: []string{"--update-snapshots"}},
	{Name: "Batch mode", Tokens: []string{"-B"}},
	{Name: "Show errors", Tokens: []string{"-e"}},
	{Name: "Fail at end", Tokens: []string{"-fae"}},
}

// FlagSet tracks which flags are enabled, keeping configuration order.
type FlagSet struct {
	specs   []FlagSpec
	enabled []bool
}

// NewFlagSet starts every flag at its EnabledByDefault value.
func NewFlagSet(specs []FlagSpec) *FlagSet {
	fs := &FlagSet{
		specs:   append([]FlagSpec(nil), specs...),
		enabled: make([]bool, len(specs)),
	}
	for i, s := range specs {
		fs.enabled[i] = s.EnabledByDefault
	}
	return fs
}

// Specs returns every flag.
func (fs *FlagSet) Specs() []FlagSpec {
	return append([]FlagSpec(nil), fs.specs...)
}

// IsEnabled reports whether the named flag is on.
func (fs *FlagSet) IsEnabled(name string) bool {
	i := fs.index(name)
	return i >= 0 && fs.enabled[i]
}

// Toggle flips the named flag and returns its new value.
func (fs *FlagSet) Toggle(name string) (bool, error) {
	i := fs.index(name)
	if i < 0 {
		return false, fmt.Errorf("unknown flag %q", name)
	}
	fs.enabled[i] = !fs.enabled[i]
	return fs.enabled[i], nil
}

// Enable sets the named flag.
func (fs *FlagSet) Enable(name string, on bool) error {
	i := fs.index(name)
	if i < 0 {
		return fmt.Errorf("unknown flag %q", name)
	}
	fs.enabled[i] = on
	return nil
}

// Reset restores defaults.
func (fs *FlagSet) Reset() {
	for i, s := range fs.specs {
		fs.enabled[i] = s.EnabledByDefault
	}
}

// Enabled returns the enabled flags in configuration order.
func (fs *FlagSet) Enabled() []FlagSpec {
	var out []FlagSpec
	for i, s := range fs.specs {
		if fs.enabled[i] {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot returns the names of enabled flags in configuration order.
func (fs *FlagSet) Snapshot() []string {
	var names []string
	for _, s := range fs.Enabled() {
		names = append(names, s.Name)
	}
	return names
}

// Restore enables exactly the named flags. Unknown names are ignored.
func (fs *FlagSet) Restore(names []string) {
	on := make(map[string]bool, len(names))
	for _, n := range names {
		on[n] = true
	}
	for i, s := range fs.specs {
		fs.enabled[i] = on[s.Name]
	}
}

func (fs *FlagSet) index(name string) int {
	for i, s := range fs.specs {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}
