// Package overrides writes the ephemeral configuration files that carry
// logging levels and Spring properties into a launched application without
// touching the project's own sources.
package overrides

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind identifies an override file.
type Kind string

const (
	KindLogging    Kind = "logging"
	KindProperties Kind = "properties"
)

// Kinds lists every kind in generation order.
var Kinds = []Kind{KindLogging, KindProperties}

// ErrInvalidEntry is returned for keys or values the target frameworks
// would misread (newlines, empty keys, separators in keys).
var ErrInvalidEntry = errors.New("invalid override entry")

// File is a generated override file.
type File struct {
	Kind        Kind
	Path        string
	HashKey     string
	GeneratedAt time.Time
}

// Request holds the overrides for one launch.
type Request struct {
	// ProjectHash keys the files; see project.Hash.
	ProjectHash string
	// LogLevels maps a logger name (package or class) to a level. The name
	// "root" sets the root logger level.
	LogLevels map[string]string
	// Properties are Spring properties written as key=value.
	Properties map[string]string
	// ActiveProfiles becomes one spring.profiles.active line.
	ActiveProfiles []string
}

// Result lists the files written for a request.
type Result struct {
	Logging    *File
	Properties *File
	logLevels  map[string]string
}

// Files returns the written files in kind order.
func (r Result) Files() []File {
	var out []File
	if r.Logging != nil {
		out = append(out, *r.Logging)
	}
	if r.Properties != nil {
		out = append(out, *r.Properties)
	}
	return out
}

// JVMArgs returns the system properties that point the application at the
// generated files. The log4j reference covers legacy logging; the
// logging.level.* properties, root included, cover Spring Boot's logging
// system, so both generations see the same levels. Levels are only passed
// when the logging file was written.
func (r Result) JVMArgs() []string {
	var args []string
	if r.Logging != nil {
		args = append(args, "-Dlog4j.configuration="+FileURL(r.Logging.Path))
	}
	for _, name := range sortedKeys(r.logLevels) {
		args = append(args, "-Dlogging.level."+name+"="+strings.ToUpper(r.logLevels[name]))
	}
	if r.Properties != nil {
		args = append(args, "-Dspring.config.additional-location="+FileURL(r.Properties.Path))
	}
	return args
}

// FileURL converts an absolute path to a file: URL.
func FileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}

const rootLogger = "root"

// Generator writes override files into Dir.
type Generator struct {
	Dir string
	Now func() time.Time
}

// New returns a generator for dir.
func New(dir string) *Generator {
	return &Generator{Dir: dir, Now: time.Now}
}

// DefaultDir is the per-user override directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "lazymvn", "overrides"), nil
}

// Path returns the file path for a kind and project hash.
func (g *Generator) Path(kind Kind, projectHash string) string {
	return filepath.Join(g.Dir, fmt.Sprintf("%s-%s.properties", kind, projectHash))
}

// Generate writes one file per non-empty kind, replacing any previous file
// for the same (kind, hash). A kind with nothing to write has its old file
// removed. Failures are per kind: the returned Result still lists the
// files that were written and the error joins what went wrong.
func (g *Generator) Generate(req Request) (Result, error) {
	if req.ProjectHash == "" {
		return Result{}, errors.New("overrides: empty project hash")
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	var res Result
	var errs []error

	if len(req.LogLevels) > 0 {
		content, err := renderLogging(req.ProjectHash, req.LogLevels)
		f, err := g.write(KindLogging, req.ProjectHash, now(), content, err)
		if err != nil {
			errs = append(errs, err)
		} else {
			res.Logging = f
			res.logLevels = copyMap(req.LogLevels)
		}
	} else if err := g.remove(KindLogging, req.ProjectHash); err != nil {
		errs = append(errs, err)
	}

	if len(req.Properties) > 0 || len(req.ActiveProfiles) > 0 {
		content, err := renderProperties(req.ProjectHash, req.Properties, req.ActiveProfiles)
		f, err := g.write(KindProperties, req.ProjectHash, now(), content, err)
		if err != nil {
			errs = append(errs, err)
		} else {
			res.Properties = f
		}
	} else if err := g.remove(KindProperties, req.ProjectHash); err != nil {
		errs = append(errs, err)
	}

	return res, errors.Join(errs...)
}

func (g *Generator) write(kind Kind, hash string, at time.Time, content string, renderErr error) (*File, error) {
	if renderErr != nil {
		return nil, fmt.Errorf("%s override: %w", kind, renderErr)
	}
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s override: create dir: %w", kind, err)
	}

	path := g.Path(kind, hash)
	// Write-then-rename keeps a launch that already opened the old file
	// reading consistent content.
	tmp, err := os.CreateTemp(g.Dir, "."+string(kind)+"-*")
	if err != nil {
		return nil, fmt.Errorf("%s override: %w", kind, err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%s override: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%s override: %w", kind, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%s override: %w", kind, err)
	}

	return &File{Kind: kind, Path: path, HashKey: hash, GeneratedAt: at}, nil
}

func (g *Generator) remove(kind Kind, hash string) error {
	err := os.Remove(g.Path(kind, hash))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s override: remove stale file: %w", kind, err)
	}
	return nil
}

// Log4j stanza: a complete file, since log4j 1.x ignores fragments.
const logHeader = `log4j.rootLogger=%s, CONSOLE
log4j.appender.CONSOLE=org.apache.log4j.ConsoleAppender
log4j.appender.CONSOLE.Target=System.out
log4j.appender.CONSOLE.layout=org.apache.log4j.PatternLayout
log4j.appender.CONSOLE.layout.ConversionPattern=%%d{HH:mm:ss.SSS} %%-5p [%%t] %%c - %%m%%n
`

func renderLogging(hash string, levels map[string]string) (string, error) {
	rootLevel := "INFO"
	for name, level := range levels {
		if err := checkEntry(name, level); err != nil {
			return "", err
		}
		if name == rootLogger {
			rootLevel = strings.ToUpper(level)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# lazymvn logging overrides for project %s\n", hash)
	fmt.Fprintf(&b, logHeader, rootLevel)
	for _, name := range sortedKeys(levels) {
		if name == rootLogger {
			continue
		}
		fmt.Fprintf(&b, "log4j.logger.%s=%s\n", name, strings.ToUpper(levels[name]))
	}
	return b.String(), nil
}

func renderProperties(hash string, props map[string]string, active []string) (string, error) {
	for k, v := range props {
		if err := checkEntry(k, v); err != nil {
			return "", err
		}
	}
	for _, p := range active {
		if err := checkEntry(p, ""); err != nil || strings.Contains(p, ",") {
			return "", fmt.Errorf("%w: profile %q", ErrInvalidEntry, p)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# lazymvn property overrides for project %s\n", hash)
	for _, k := range sortedKeys(props) {
		fmt.Fprintf(&b, "%s=%s\n", k, props[k])
	}
	if len(active) > 0 {
		fmt.Fprintf(&b, "spring.profiles.active=%s\n", strings.Join(active, ","))
	}
	return b.String(), nil
}

func checkEntry(key, value string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty key", ErrInvalidEntry)
	case strings.ContainsAny(key, "=: \t\r\n"):
		return fmt.Errorf("%w: key %q", ErrInvalidEntry, key)
	case strings.ContainsAny(value, "\r\n"):
		return fmt.Errorf("%w: value for %q spans lines", ErrInvalidEntry, key)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
