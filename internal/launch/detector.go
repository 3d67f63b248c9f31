package launch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Phreno/lazymvn-sub002/internal/cache"
	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
	"github.com/Phreno/lazymvn-sub002/internal/maven"
	"github.com/Phreno/lazymvn-sub002/internal/project"
)

// Request identifies the module to launch.
type Request struct {
	Root       string
	Module     string
	Executable string
	Mode       Mode
	MainClass  string
}

func (r Request) isRoot() bool {
	return r.Module == "" || r.Module == "."
}

// Detector queries the merged descriptor and decides a strategy. It only
// reads: the descriptor query, source files and the cache.
type Detector struct {
	Runner  maven.Runner
	Store   cache.Store
	Cutoffs CutoffTable
	// FindMainClass defaults to FindMainClass.
	FindMainClass func(moduleDir string) (string, error)
}

// Detect returns the strategy for the request together with the
// capabilities it was decided from.
func (d *Detector) Detect(ctx context.Context, req Request) (Strategy, Capabilities, error) {
	log := ctxlog.FromContext(ctx)

	var caps Capabilities
	var queryErr error
	if req.Mode == ModeAuto || req.Mode == ModeForceExec {
		caps, queryErr = d.Capabilities(ctx, req)
		if queryErr != nil {
			log.Warn("descriptor query failed, falling back to exec detection", "module", req.Module, "err", queryErr)
		}
	}
	if req.Mode == ModeForceRun {
		// The override skips plugin detection; the version is still read
		// when cached so the property scheme is right.
		caps, _ = d.cached(req)
	}

	find := d.FindMainClass
	if find == nil {
		find = FindMainClass
	}
	moduleDir := ModuleDir(req.Root, req.Module)

	strategy, err := Decide(Inputs{
		Module:        displayModule(req.Module),
		Capabilities:  caps,
		Mode:          req.Mode,
		MainClass:     req.MainClass,
		Discover:      func() (string, error) { return find(moduleDir) },
		Cutoffs:       d.Cutoffs,
		DescriptorErr: queryErr,
	})
	if err != nil {
		return Strategy{}, caps, err
	}
	log.Debug("launch strategy selected", "module", req.Module, "strategy", strategy.String())
	return strategy, caps, nil
}

// Capabilities returns the module's capabilities, from cache when the
// descriptor content is unchanged. On failure it returns
// UnknownCapabilities and the error.
func (d *Detector) Capabilities(ctx context.Context, req Request) (Capabilities, error) {
	log := ctxlog.FromContext(ctx)

	key, keyErr := d.cacheKey(req)
	if keyErr == nil && d.Store != nil {
		var caps Capabilities
		ok, err := cache.GetYAML(d.Store, key, &caps)
		if err != nil {
			log.Warn("reading cached capabilities", "err", err)
		} else if ok {
			return caps, nil
		}
	}

	if d.Runner == nil {
		return UnknownCapabilities(), fmt.Errorf("no maven runner configured")
	}

	args := []string{"help:effective-pom", "-B"}
	if !req.isRoot() {
		args = append(args, "-pl", req.Module)
	}
	exe := req.Executable
	if exe == "" {
		exe = "mvn"
	}
	out, err := d.Runner.Output(ctx, req.Root, exe, args...)
	if err != nil {
		return UnknownCapabilities(), err
	}
	descriptor, err := ExtractProject(out)
	if err != nil {
		return UnknownCapabilities(), err
	}
	caps, err := ParseCapabilities(descriptor)
	if err != nil {
		return UnknownCapabilities(), fmt.Errorf("parse effective pom: %w", err)
	}

	if keyErr == nil && d.Store != nil {
		if err := cache.PutYAML(d.Store, key, caps); err != nil {
			log.Warn("caching capabilities", "err", err)
		}
	}
	return caps, nil
}

func (d *Detector) cached(req Request) (Capabilities, bool) {
	if d.Store == nil {
		return UnknownCapabilities(), false
	}
	key, err := d.cacheKey(req)
	if err != nil {
		return UnknownCapabilities(), false
	}
	var caps Capabilities
	if ok, err := cache.GetYAML(d.Store, key, &caps); err != nil || !ok {
		return UnknownCapabilities(), false
	}
	return caps, true
}

// cacheKey hashes the module and root descriptors, so editing either
// one invalidates the entry. Parents outside the project are not tracked.
func (d *Detector) cacheKey(req Request) (string, error) {
	h := sha256.New()
	paths := []string{project.DescriptorPath(req.Root, ".")}
	if !req.isRoot() {
		paths = append(paths, project.DescriptorPath(req.Root, req.Module))
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write(data)
	}
	return cache.Key("launch", "capabilities", project.Hash(req.Root), hex.EncodeToString(h.Sum(nil))[:16]), nil
}

// ModuleDir returns the directory of a module.
func ModuleDir(root, module string) string {
	if module == "" || module == "." {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(module))
}

func displayModule(module string) string {
	if module == "" || module == "." {
		return "(root)"
	}
	return module
}
