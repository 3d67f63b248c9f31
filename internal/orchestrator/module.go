package orchestrator

import (
	"context"
	"os"
	"sort"

	"github.com/Phreno/lazymvn-sub002/internal/cache"
	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
	"github.com/Phreno/lazymvn-sub002/internal/profiles"
	"github.com/Phreno/lazymvn-sub002/internal/project"
)

// Module is the toggle state of one module session.
type Module struct {
	ID       string
	Profiles *profiles.Set
	Flags    *command.FlagSet
}

// Module returns the session state for id, loading it on first use:
// profiles declared by the root and module descriptors, configured
// initial states, then whatever the user toggled last time.
func (o *Orchestrator) Module(ctx context.Context, id string) (*Module, error) {
	if id == "" {
		id = command.RootModule
	}
	if err := o.checkModule(id); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if m, ok := o.modules[id]; ok {
		return m, nil
	}

	log := ctxlog.FromContext(ctx)
	m := &Module{
		ID:       id,
		Profiles: profiles.NewSet(o.profileNames(ctx, id), o.auto),
		Flags:    command.NewFlagSet(o.cfg.Flags),
	}
	if err := m.Profiles.Restore(o.cfg.Profiles); err != nil {
		return nil, err
	}
	if err := profiles.Load(o.store, o.stateKey(id, "profiles"), m.Profiles); err != nil {
		log.Warn("restoring profile state", "module", id, "err", err)
	}
	var flags []string
	if ok, err := cache.GetYAML(o.store, o.stateKey(id, "flags"), &flags); err != nil {
		log.Warn("restoring flag state", "module", id, "err", err)
	} else if ok {
		m.Flags.Restore(flags)
	}

	o.modules[id] = m
	return m, nil
}

// Save persists the module's toggles.
func (o *Orchestrator) Save(m *Module) error {
	if err := profiles.Save(o.store, o.stateKey(m.ID, "profiles"), m.Profiles); err != nil {
		return err
	}
	return cache.PutYAML(o.store, o.stateKey(m.ID, "flags"), m.Flags.Snapshot())
}

// ResetModule returns every toggle to its default and forgets the saved
// state.
func (o *Orchestrator) ResetModule(m *Module) error {
	m.Profiles.Reset()
	m.Flags.Reset()
	if err := o.store.Delete(o.stateKey(m.ID, "profiles")); err != nil {
		return err
	}
	return o.store.Delete(o.stateKey(m.ID, "flags"))
}

func (o *Orchestrator) stateKey(module, kind string) string {
	return cache.Key("session", o.hash, module, kind)
}

func (o *Orchestrator) profileNames(ctx context.Context, module string) []string {
	paths := []string{project.DescriptorPath(o.project.Root, command.RootModule)}
	if module != command.RootModule {
		paths = append(paths, project.DescriptorPath(o.project.Root, module))
	}

	var names []string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		ids, err := profiles.Discover(data)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("reading profiles", "pom", p, "err", err)
			continue
		}
		names = append(names, ids...)
	}

	// Profiles activated from settings.xml are declared in no descriptor.
	var extra []string
	for name := range o.auto {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	return append(names, extra...)
}
