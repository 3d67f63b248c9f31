// Package command composes the Maven argument vector for a build target.
package command

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// RootModule is the module id of the project root. Commands for the root
// carry no module-scope flag.
const RootModule = "."

// SystemExecutable is used when the project ships no wrapper.
const SystemExecutable = "mvn"

// StatFunc reports file info, like os.Stat.
type StatFunc func(path string) (fs.FileInfo, error)

// Target is one module of a project.
type Target struct {
	Root       string
	Module     string
	Executable string
}

// NewTarget resolves the executable for root and returns the target.
func NewTarget(root, module string) Target {
	if module == "" {
		module = RootModule
	}
	return Target{
		Root:       root,
		Module:     module,
		Executable: ResolveExecutable(root, os.Stat, runtime.GOOS),
	}
}

// IsRoot reports whether the target is the project root.
func (t Target) IsRoot() bool {
	return t.Module == "" || t.Module == RootModule
}

// WrapperName returns the wrapper script name for goos.
func WrapperName(goos string) string {
	if goos == "windows" {
		return "mvnw.cmd"
	}
	return "mvnw"
}

// ResolveExecutable returns the project wrapper when it exists and is
// executable, otherwise the system tool name. The result depends only on
// root and what stat reports for it.
func ResolveExecutable(root string, stat StatFunc, goos string) string {
	wrapper := filepath.Join(root, WrapperName(goos))
	info, err := stat(wrapper)
	if err != nil || info.IsDir() {
		return SystemExecutable
	}
	// Windows has no execute bit; the .cmd extension is enough.
	if goos != "windows" && info.Mode().Perm()&0o111 == 0 {
		return SystemExecutable
	}
	return wrapper
}
