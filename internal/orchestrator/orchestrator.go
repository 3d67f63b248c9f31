// Package orchestrator wires profiles, flags, launch detection, override
// files and execution slots into the operations the CLI and TUI invoke.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/Phreno/lazymvn-sub002/internal/cache"
	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/config"
	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
	"github.com/Phreno/lazymvn-sub002/internal/executor"
	"github.com/Phreno/lazymvn-sub002/internal/launch"
	"github.com/Phreno/lazymvn-sub002/internal/maven"
	"github.com/Phreno/lazymvn-sub002/internal/overrides"
	"github.com/Phreno/lazymvn-sub002/internal/profiles"
	"github.com/Phreno/lazymvn-sub002/internal/project"
	"github.com/Phreno/lazymvn-sub002/internal/thermal"
)

// Options controls how the orchestrator is wired.
type Options struct {
	Root   string
	Config config.Config
	// Runner answers Maven queries; maven.ExecRunner when nil.
	Runner maven.Runner
	// Store persists caches and module state; in-memory when nil.
	Store cache.Store
	// Supervisor owns the execution slots; built from Config when nil.
	Supervisor *executor.Supervisor
	// OverrideDir defaults to Config.OverrideDir, then overrides.DefaultDir.
	OverrideDir string
	// Stat and GOOS resolve the executable; os.Stat and runtime.GOOS by
	// default.
	Stat command.StatFunc
	GOOS string
	// Hardware sizes "threads: auto"; detected when zero.
	Hardware thermal.HardwareInfo
}

// Orchestrator is one project session.
type Orchestrator struct {
	project    project.Project
	hash       string
	cfg        config.Config
	executable string
	threads    string

	store      cache.Store
	activation *profiles.Activation
	detector   *launch.Detector
	overrides  *overrides.Generator
	supervisor *executor.Supervisor

	mu      sync.Mutex
	auto    map[string]bool
	modules map[string]*Module
}

// New analyzes the project at opts.Root and prepares a session.
func New(ctx context.Context, opts Options) (*Orchestrator, error) {
	log := ctxlog.FromContext(ctx)

	proj, err := project.Analyze(opts.Root)
	if err != nil {
		return nil, err
	}
	cfg := opts.Config

	hw := opts.Hardware
	if hw.NumCPU == 0 {
		hw = thermal.DetectHardware()
	}
	threads, err := thermal.ResolveThreads(cfg.Threads, hw)
	if err != nil {
		return nil, err
	}

	stat := opts.Stat
	if stat == nil {
		stat = os.Stat
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	runner := opts.Runner
	if runner == nil {
		runner = maven.ExecRunner{}
	}
	store := opts.Store
	if store == nil {
		store = cache.NewMemory()
	}

	dir := opts.OverrideDir
	if dir == "" {
		dir = cfg.OverrideDir
	}
	if dir == "" {
		if dir, err = overrides.DefaultDir(); err != nil {
			return nil, fmt.Errorf("override directory: %w", err)
		}
	}

	cutoffs, err := cfg.Cutoffs()
	if err != nil {
		return nil, err
	}

	sup := opts.Supervisor
	if sup == nil {
		killer, err := cfg.Killer()
		if err != nil {
			return nil, err
		}
		sup = executor.NewSupervisor(killer, cfg.Kill.Grace)
	}

	o := &Orchestrator{
		project:    proj,
		hash:       project.Hash(proj.Root),
		cfg:        cfg,
		executable: command.ResolveExecutable(proj.Root, stat, goos),
		threads:    threads,
		store:      store,
		activation: &profiles.Activation{Runner: runner, Store: store},
		detector:   &launch.Detector{Runner: runner, Store: store, Cutoffs: cutoffs},
		overrides:  overrides.New(dir),
		supervisor: sup,
		modules:    make(map[string]*Module),
	}
	o.auto = o.activation.AutoActivated(ctx, proj.Root, o.executable, o.hash)

	log.Debug("project loaded",
		"root", proj.Root,
		"modules", len(proj.Modules),
		"executable", o.executable,
		"auto_profiles", len(o.auto),
	)
	return o, nil
}

func (o *Orchestrator) Project() project.Project { return o.project }
func (o *Orchestrator) Hash() string { return o.hash }
func (o *Orchestrator) Config() config.Config { return o.cfg }
func (o *Orchestrator) Executable() string { return o.executable }
func (o *Orchestrator) Supervisor() *executor.Supervisor { return o.supervisor }
func (o *Orchestrator) OverrideGenerator() *overrides.Generator { return o.overrides }

// Target returns the build target for a module id.
func (o *Orchestrator) Target(module string) command.Target {
	if module == "" {
		module = command.RootModule
	}
	return command.Target{Root: o.project.Root, Module: module, Executable: o.executable}
}

// Reload drops cached profile activation and module state, so the next
// Module call rebuilds from the descriptors.
func (o *Orchestrator) Reload(ctx context.Context) error {
	if err := o.activation.Invalidate(o.hash); err != nil {
		return err
	}
	auto := o.activation.AutoActivated(ctx, o.project.Root, o.executable, o.hash)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.auto = auto
	o.modules = make(map[string]*Module)
	return nil
}

// ErrUnknownModule is returned for module ids the project does not declare.
var ErrUnknownModule = errors.New("unknown module")

func (o *Orchestrator) checkModule(id string) error {
	if id == "" || id == command.RootModule {
		return nil
	}
	for _, m := range o.project.Modules {
		if m == id {
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownModule, id)
}
