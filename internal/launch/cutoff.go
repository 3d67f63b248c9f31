package launch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Scheme is the set of user-property names a run-plugin generation
// understands. Spring Boot renamed them in 2.0 (run.* -> spring-boot.run.*)
// and the two sets are not interchangeable.
type Scheme struct {
	Name         string
	JVMArguments string
	Arguments    string
	Profiles     string
	MainClass    string
}

var (
	// LegacyScheme is understood by 1.x plugins.
	LegacyScheme = Scheme{
		Name:         "legacy",
		JVMArguments: "run.jvmArguments",
		Arguments:    "run.arguments",
		Profiles:     "run.profiles",
		MainClass:    "start-class",
	}
	// ModernScheme is understood by 2.0 and later plugins.
	ModernScheme = Scheme{
		Name:         "modern",
		JVMArguments: "spring-boot.run.jvmArguments",
		Arguments:    "spring-boot.run.arguments",
		Profiles:     "spring-boot.run.profiles",
		MainClass:    "spring-boot.run.main-class",
	}
)

// SchemeByName looks up a built-in scheme.
func SchemeByName(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case LegacyScheme.Name:
		return LegacyScheme, nil
	case ModernScheme.Name:
		return ModernScheme, nil
	}
	return Scheme{}, fmt.Errorf("unknown property scheme %q", name)
}

// Cutoff selects Scheme for plugin versions at or above MinVersion.
type Cutoff struct {
	MinVersion string
	Scheme     Scheme
}

// CutoffTable maps run-plugin versions to property schemes. The boundary
// comes from observed plugin metadata, so it is configuration rather than
// code; see config.Config.RunPluginCutoffs.
type CutoffTable []Cutoff

// DefaultCutoffs: 1.x uses legacy names, 2.0.0 and later modern ones.
var DefaultCutoffs = CutoffTable{
	{MinVersion: "0", Scheme: LegacyScheme},
	{MinVersion: "2.0.0", Scheme: ModernScheme},
}

// SchemeFor returns the scheme of the highest cutoff not above version.
// A version below every cutoff gets LegacyScheme. An empty or unparseable
// version gets the newest scheme, since an undeclared version resolves to
// a current plugin release.
func (t CutoffTable) SchemeFor(version string) Scheme {
	if len(t) == 0 {
		return ModernScheme
	}
	sorted := t.sorted()
	v, ok := parseVersion(version)
	if !ok {
		return sorted[len(sorted)-1].Scheme
	}
	chosen := LegacyScheme
	for _, c := range sorted {
		min, _ := parseVersion(c.MinVersion)
		if compareVersions(v, min) >= 0 {
			chosen = c.Scheme
		}
	}
	return chosen
}

// Validate checks every cutoff version parses.
func (t CutoffTable) Validate() error {
	for _, c := range t {
		if _, ok := parseVersion(c.MinVersion); !ok {
			return fmt.Errorf("invalid cutoff version %q", c.MinVersion)
		}
	}
	return nil
}

func (t CutoffTable) sorted() CutoffTable {
	out := append(CutoffTable(nil), t...)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := parseVersion(out[i].MinVersion)
		b, _ := parseVersion(out[j].MinVersion)
		return compareVersions(a, b) < 0
	})
	return out
}

// parseVersion reads the leading numeric components of a version such as
// "2.7.18", "1.5.22.RELEASE" or "3.0.0-M1".
func parseVersion(s string) ([]int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var parts []int
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' }) {
		n, err := strconv.Atoi(field)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts, len(parts) > 0
}

func compareVersions(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}
