package executor

import (
	"sort"
	"sync"
	"time"
)

// Entry is one running process in the registry.
type Entry struct {
	Slot      string
	PID       int
	StartedAt time.Time
	Command   string
}

// Registry tracks running processes by slot. It is the only structure
// shared between slots.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

func (r *Registry) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Slot] = e
}

func (r *Registry) remove(slot string, pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[slot]; ok && e.PID == pid {
		delete(r.entries, slot)
	}
}

// Get returns the process running in slot.
func (r *Registry) Get(slot string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[slot]
	return e, ok
}

// List returns all entries ordered by slot id.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// Supervisor owns the slots of a session.
type Supervisor struct {
	Killer   Killer
	Grace    time.Duration
	Registry *Registry

	mu    sync.Mutex
	slots map[string]*Slot
}

func NewSupervisor(killer Killer, grace time.Duration) *Supervisor {
	return &Supervisor{
		Killer:   killer,
		Grace:    grace,
		Registry: NewRegistry(),
		slots:    make(map[string]*Slot),
	}
}

// Slot returns the slot with id, creating it on first use.
func (s *Supervisor) Slot(id string) *Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[id]; ok {
		return sl
	}
	sl := NewSlot(id, s.Killer, s.Grace, s.Registry)
	s.slots[id] = sl
	return sl
}

// ShutdownAll kills every running slot in parallel and returns once all
// kills have resolved. Output of the killed processes is discarded.
func (s *Supervisor) ShutdownAll() {
	s.mu.Lock()
	slots := make([]*Slot, 0, len(s.slots))
	for _, sl := range s.slots {
		slots = append(slots, sl)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, sl := range slots {
		h := sl.Current()
		if h == nil || h.State() != StateRunning {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Output().Discard()
			h.Kill()
		}()
	}
	wg.Wait()
}
