package launch

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrNoMainClass is returned when no entry point is found in sources.
var ErrNoMainClass = errors.New("no main class found")

var (
	packageDecl = regexp.MustCompile(`^\s*package\s+([\w.]+)\s*;?`)
	mainMethod  = regexp.MustCompile(`\bstatic\s+(public\s+)?void\s+main\s*\(|\bfun\s+main\s*\(`)
)

// sourceRoots are scanned relative to a module directory.
var sourceRoots = []string{
	filepath.Join("src", "main", "java"),
	filepath.Join("src", "main", "kotlin"),
}

type candidate struct {
	class string
	score int
	depth int
}

// FindMainClass scans a module's sources for entry points and returns the
// most likely one: an @SpringBootApplication class first, then names
// ending in Application, then Main, then the shallowest package.
func FindMainClass(moduleDir string) (string, error) {
	var found []candidate

	for _, root := range sourceRoots {
		dir := filepath.Join(moduleDir, root)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if ext != ".java" && ext != ".kt" {
				return nil
			}
			if c, ok := inspectSource(path, ext); ok {
				found = append(found, c)
			}
			return nil
		})
		if err != nil {
			return "", err
		}
	}

	if len(found) == 0 {
		return "", ErrNoMainClass
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		if found[i].depth != found[j].depth {
			return found[i].depth < found[j].depth
		}
		return found[i].class < found[j].class
	})
	return found[0].class, nil
}

func inspectSource(path, ext string) (candidate, bool) {
	f, err := os.Open(path)
	if err != nil {
		return candidate{}, false
	}
	defer f.Close()

	var pkg string
	var hasMain, bootApp bool
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if pkg == "" {
			if m := packageDecl.FindStringSubmatch(line); m != nil {
				pkg = m[1]
			}
		}
		if strings.Contains(line, "@SpringBootApplication") {
			bootApp = true
		}
		if mainMethod.MatchString(line) {
			hasMain = true
		}
	}
	if !hasMain {
		return candidate{}, false
	}

	name := strings.TrimSuffix(filepath.Base(path), ext)
	// Kotlin top-level main compiles to <Name>Kt.
	if ext == ".kt" {
		name += "Kt"
	}
	class := name
	if pkg != "" {
		class = pkg + "." + name
	}

	c := candidate{class: class, depth: strings.Count(pkg, ".")}
	switch {
	case bootApp:
		c.score = 3
	case strings.HasSuffix(name, "Application"):
		c.score = 2
	case name == "Main" || strings.HasSuffix(name, "Main"):
		c.score = 1
	}
	return c, true
}
