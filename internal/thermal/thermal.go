// Package thermal picks a Maven reactor thread count (-T) that suits the
// machine, backing off on passively cooled laptops.
package thermal

import (
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Auto asks for a hardware-derived thread count.
const Auto = "auto"

// HardwareInfo contains detected hardware information
type HardwareInfo struct {
	NumCPU int
	// PhysicalCores is 0 when unknown.
	PhysicalCores  int
	IsDarwin       bool
	IsMacBookAir   bool
	IsAppleSilicon bool
	ModelName      string
}

// DetectHardware detects the current hardware configuration
func DetectHardware() HardwareInfo {
	info := HardwareInfo{
		NumCPU:   runtime.NumCPU(),
		IsDarwin: runtime.GOOS == "darwin",
	}
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		info.PhysicalCores = n
	}

	if info.IsDarwin {
		info.ModelName = detectMacModel()
		info.IsMacBookAir = strings.Contains(strings.ToLower(info.ModelName), "macbook air")
		info.IsAppleSilicon = runtime.GOARCH == "arm64"
	}
	return info
}

func detectMacModel() string {
	output, err := exec.Command("sysctl", "-n", "hw.model").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// OptimalThreads returns the reactor thread count for hw. Maven modules
// build mostly CPU-bound, so physical cores are preferred over logical
// ones.
func OptimalThreads(hw HardwareInfo) int {
	cores := hw.PhysicalCores
	if cores <= 0 {
		cores = hw.NumCPU
	}

	optimal := cores
	if hw.IsMacBookAir {
		// Passive cooling throttles sustained builds.
		optimal = cores / 2
	} else if hw.IsDarwin && hw.IsAppleSilicon {
		optimal = (cores * 3) / 4
	}
	if optimal < 1 {
		optimal = 1
	}
	return optimal
}

var threadSpec = regexp.MustCompile(`^(\d+(\.\d+)?C|\d+)$`)

// ResolveThreads turns the configured -T value into the one passed to
// Maven. "auto" becomes a count for hw; counts and per-core values such as
// "1C" pass through; empty means no -T at all.
func ResolveThreads(configured string, hw HardwareInfo) (string, error) {
	v := strings.TrimSpace(configured)
	switch {
	case v == "":
		return "", nil
	case strings.EqualFold(v, Auto):
		return strconv.Itoa(OptimalThreads(hw)), nil
	case threadSpec.MatchString(strings.ToUpper(v)):
		return strings.ToUpper(v), nil
	}
	return "", fmt.Errorf("invalid thread count %q: use a number, a per-core value like 1C, or %q", configured, Auto)
}

// FormatHardwareInfo returns a human-readable hardware description
func FormatHardwareInfo(hw HardwareInfo) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%d cores", hw.NumCPU))
	if hw.PhysicalCores > 0 && hw.PhysicalCores != hw.NumCPU {
		parts = append(parts, fmt.Sprintf("%d physical", hw.PhysicalCores))
	}

	if hw.IsDarwin {
		if hw.ModelName != "" {
			parts = append(parts, hw.ModelName)
		}
		if hw.IsAppleSilicon {
			parts = append(parts, "Apple Silicon")
		}
	} else {
		parts = append(parts, runtime.GOOS)
	}

	return strings.Join(parts, ", ")
}
