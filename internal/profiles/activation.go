package profiles

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"regexp"
	"sort"
	"strings"

	"github.com/Phreno/lazymvn-sub002/internal/cache"
	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
	"github.com/Phreno/lazymvn-sub002/internal/maven"
)

// activeLine matches " - dev (source: com.example:app:1.0)".
var activeLine = regexp.MustCompile(`^\s*-\s+(\S+)\s+\(source:`)

// ParseActiveProfiles extracts profile ids from help:active-profiles output.
// Multi-module output lists each project separately; the union is returned
// sorted.
func ParseActiveProfiles(out []byte) []string {
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), "[INFO] ")
		if m := activeLine.FindStringSubmatch(line); m != nil {
			seen[m[1]] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Activation resolves which profiles Maven activates on its own.
type Activation struct {
	Runner maven.Runner
	Store  cache.Store
}

type activationRecord struct {
	Auto []string `yaml:"auto"`
}

// AutoActivated returns the auto-activated profile names for the project,
// querying Maven at most once per project hash. A failed query yields an
// empty map so every profile behaves as a plain two-state toggle; it is
// not cached, so the next load retries.
func (a *Activation) AutoActivated(ctx context.Context, root, executable, projectHash string) map[string]bool {
	log := ctxlog.FromContext(ctx)
	key := cache.Key("profiles", "auto", projectHash)

	if a.Store != nil {
		var rec activationRecord
		ok, err := cache.GetYAML(a.Store, key, &rec)
		if err != nil {
			log.Warn("reading cached profile activation", "err", err)
		} else if ok {
			return toSet(rec.Auto)
		}
	}

	if a.Runner == nil {
		return map[string]bool{}
	}

	out, err := a.Runner.Output(ctx, root, executable, "help:active-profiles", "-B")
	if err != nil {
		log.Warn("active profile query failed, treating all profiles as manual", "root", root, "err", err)
		return map[string]bool{}
	}

	names := ParseActiveProfiles(out)
	if a.Store != nil {
		if err := cache.PutYAML(a.Store, key, activationRecord{Auto: names}); err != nil {
			log.Warn("caching profile activation", "err", err)
		}
	}
	return toSet(names)
}

// Invalidate drops the cached activation for a project.
func (a *Activation) Invalidate(projectHash string) error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Delete(cache.Key("profiles", "auto", projectHash))
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

type pomProfiles struct {
	Profiles []struct {
		ID string `xml:"id"`
	} `xml:"profiles>profile"`
}

// Discover returns the profile ids declared in a descriptor, in order.
func Discover(pom []byte) ([]string, error) {
	var doc pomProfiles
	if err := xml.Unmarshal(pom, &doc); err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range doc.Profiles {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

// Save persists the set's explicit states under key.
func Save(store cache.Store, key string, s *Set) error {
	return cache.PutYAML(store, key, s.Snapshot())
}

// Load restores explicit states saved under key. A missing entry is not an
// error.
func Load(store cache.Store, key string, s *Set) error {
	snap := map[string]string{}
	ok, err := cache.GetYAML(store, key, &snap)
	if err != nil || !ok {
		return err
	}
	return s.Restore(snap)
}
