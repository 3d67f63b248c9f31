package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Killer terminates a process and everything it started. exited is closed
// when the process has been reaped, letting the killer skip the rest of
// the grace period.
type Killer interface {
	Kill(pid int, grace time.Duration, exited <-chan struct{}) error
}

// Kill backend names, as used in configuration.
const (
	BackendAuto   = "auto"
	BackendSignal = "signal"
	BackendTree   = "tree"
)

// NewKiller returns the backend named by name. "auto" picks the signal
// backend where process groups exist and the tree backend elsewhere.
func NewKiller(name string) (Killer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendAuto:
		return NewKiller(defaultBackend)
	case BackendSignal:
		return signalKiller()
	case BackendTree:
		return TreeKiller{}, nil
	}
	return nil, fmt.Errorf("unknown kill backend %q", name)
}

// NopKiller never signals anything.
type NopKiller struct{}

func (NopKiller) Kill(int, time.Duration, <-chan struct{}) error { return nil }

// TreeKiller walks the process tree, terminates it leaf-first, waits for
// the grace period and kills whatever survived.
type TreeKiller struct{}

func (TreeKiller) Kill(pid int, grace time.Duration, exited <-chan struct{}) error {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return fmt.Errorf("find process %d: %w", pid, err)
	}

	tree := append(descendants(root), root)
	var errs []error
	for _, p := range tree {
		if err := p.Terminate(); err != nil && alive(p) {
			errs = append(errs, fmt.Errorf("terminate %d: %w", p.Pid, err))
		}
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-exited:
	case <-timer.C:
	}

	for _, p := range tree {
		if !alive(p) {
			continue
		}
		if err := p.Kill(); err != nil && alive(p) {
			errs = append(errs, fmt.Errorf("kill %d: %w", p.Pid, err))
		}
	}
	return errors.Join(errs...)
}

// descendants lists the children of p depth-first, deepest first.
func descendants(p *process.Process) []*process.Process {
	children, err := p.Children()
	if err != nil {
		return nil
	}
	var out []*process.Process
	for _, c := range children {
		out = append(out, descendants(c)...)
		out = append(out, c)
	}
	return out
}

func alive(p *process.Process) bool {
	running, err := p.IsRunning()
	return err == nil && running
}
