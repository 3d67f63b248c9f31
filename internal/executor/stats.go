package executor

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a resource snapshot of a process tree.
type Stats struct {
	CPUPercent float64
	RSS        uint64
	Threads    int32
	// Children counts all descendants, e.g. the JVM forked by Maven.
	Children int
}

// ProcessStats samples pid and its descendants.
func ProcessStats(pid int) (Stats, error) {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return Stats{}, fmt.Errorf("process %d: %w", pid, err)
	}

	var stats Stats
	kids := descendants(root)
	stats.Children = len(kids)
	for _, p := range append(kids, root) {
		if cpu, err := p.CPUPercent(); err == nil {
			stats.CPUPercent += cpu
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			stats.RSS += mem.RSS
		}
		if n, err := p.NumThreads(); err == nil {
			stats.Threads += n
		}
	}
	return stats, nil
}

// Stats samples the handle's process tree.
func (h *Handle) Stats() (Stats, error) {
	return ProcessStats(h.pid)
}
