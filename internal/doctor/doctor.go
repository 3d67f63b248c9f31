// Package doctor checks that a machine and project can build and launch:
// JDK, Maven or its wrapper, settings file, configuration, and the
// application port.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/config"
	"github.com/Phreno/lazymvn-sub002/internal/ports"
	"github.com/Phreno/lazymvn-sub002/internal/thermal"
)

// RuntimeStatus represents the status of a runtime check
type RuntimeStatus struct {
	Name      string
	Installed bool
	Version   string
	Path      string
}

// Severity grades a finding.
type Severity int

const (
	OK Severity = iota
	Warning
	Problem
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Problem:
		return "problem"
	default:
		return "ok"
	}
}

// Finding is one checked item.
type Finding struct {
	Name     string
	Severity Severity
	Detail   string
	// Fix is a command or action that resolves the finding.
	Fix string
}

// Diagnosis contains the full health check results
type Diagnosis struct {
	ProjectPath string
	Java        RuntimeStatus
	Maven       RuntimeStatus
	Hardware    string
	Threads     string
	Findings    []Finding
	Healthy     bool
}

// Issues returns the findings that are not OK.
func (d Diagnosis) Issues() []Finding {
	var out []Finding
	for _, f := range d.Findings {
		if f.Severity != OK {
			out = append(out, f)
		}
	}
	return out
}

// VersionFunc runs name with args in dir and returns its combined output.
type VersionFunc func(ctx context.Context, dir, name string, args ...string) (string, error)

// Options inject the probes Diagnose uses.
type Options struct {
	// Version defaults to running the command.
	Version VersionFunc
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	Stat     command.StatFunc
	GOOS     string
	// PortBusy defaults to ports.Check.
	PortBusy func(port int) (ports.Conflict, bool)
	Hardware thermal.HardwareInfo
}

func (o *Options) defaults() {
	if o.Version == nil {
		o.Version = runVersion
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.Stat == nil {
		o.Stat = os.Stat
	}
	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}
	if o.PortBusy == nil {
		o.PortBusy = ports.Check
	}
	if o.Hardware.NumCPU == 0 {
		o.Hardware = thermal.DetectHardware()
	}
}

func runVersion(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Diagnose checks the project rooted at root.
func Diagnose(ctx context.Context, root string, opts Options) Diagnosis {
	opts.defaults()
	d := Diagnosis{ProjectPath: root, Healthy: true}
	add := func(f Finding) {
		d.Findings = append(d.Findings, f)
		if f.Severity == Problem {
			d.Healthy = false
		}
	}

	d.Java = checkJava(ctx, root, opts)
	if d.Java.Installed {
		add(Finding{Name: "java", Detail: d.Java.Version})
	} else {
		add(Finding{Name: "java", Severity: Problem, Detail: "java not found on PATH", Fix: javaHint(opts.GOOS)})
	}

	add(checkWrapper(root, opts))

	exe := command.ResolveExecutable(root, opts.Stat, opts.GOOS)
	d.Maven = checkMaven(ctx, root, exe, opts)
	if d.Maven.Installed {
		add(Finding{Name: "maven", Detail: d.Maven.Version})
	} else {
		add(Finding{Name: "maven", Severity: Problem, Detail: exe + " not runnable", Fix: mavenHint(opts.GOOS)})
	}

	cfg, err := config.Load(root)
	if err != nil {
		add(Finding{Name: "config", Severity: Problem, Detail: err.Error(), Fix: "fix " + config.FileName + " or run `lazymvn init --force`"})
		cfg = config.Default()
	} else {
		add(Finding{Name: "config", Detail: configDetail(root, opts.Stat)})
	}

	if cfg.Settings != "" {
		if _, err := opts.Stat(settingsPath(root, cfg.Settings)); err != nil {
			add(Finding{Name: "settings", Severity: Problem, Detail: "settings file " + cfg.Settings + " not found"})
		} else {
			add(Finding{Name: "settings", Detail: cfg.Settings})
		}
	}

	d.Hardware = thermal.FormatHardwareInfo(opts.Hardware)
	if threads, err := thermal.ResolveThreads(cfg.Threads, opts.Hardware); err == nil {
		d.Threads = threads
	}

	port := ports.ServerPort(cfg.Properties, cfg.Launch.JVMArgs)
	if c, busy := opts.PortBusy(port); busy {
		f := Finding{Name: "port", Severity: Warning, Detail: c.String()}
		if c.Next > 0 {
			f.Fix = fmt.Sprintf("launch with --shift-port to use %d", c.Next)
		}
		add(f)
	} else if port > 0 {
		add(Finding{Name: "port", Detail: fmt.Sprintf("%d is free", port)})
	}

	return d
}

func checkJava(ctx context.Context, root string, opts Options) RuntimeStatus {
	status := RuntimeStatus{Name: "Java"}

	name := "java"
	if home := os.Getenv("JAVA_HOME"); home != "" {
		candidate := filepath.Join(home, "bin", "java")
		if opts.GOOS == "windows" {
			candidate += ".exe"
		}
		if _, err := opts.Stat(candidate); err == nil {
			name = candidate
		}
	}
	path, err := opts.LookPath(name)
	if err != nil {
		return status
	}
	status.Path = path

	// java -version writes to stderr.
	out, err := opts.Version(ctx, root, path, "-version")
	if err != nil {
		return status
	}
	status.Installed = true
	status.Version = firstLine(out)
	return status
}

func checkMaven(ctx context.Context, root, exe string, opts Options) RuntimeStatus {
	status := RuntimeStatus{Name: "Maven"}
	if exe == command.SystemExecutable {
		path, err := opts.LookPath(exe)
		if err != nil {
			return status
		}
		status.Path = path
	} else {
		status.Name = "Maven wrapper"
		status.Path = exe
	}

	out, err := opts.Version(ctx, root, status.Path, "--version")
	if err != nil {
		return status
	}
	status.Installed = true
	status.Version = firstLine(out)
	return status
}

// checkWrapper flags a wrapper script that exists but would be skipped
// for lacking the execute bit.
func checkWrapper(root string, opts Options) Finding {
	name := command.WrapperName(opts.GOOS)
	info, err := opts.Stat(filepath.Join(root, name))
	switch {
	case err != nil:
		return Finding{Name: "wrapper", Detail: "no " + name + ", using mvn from PATH"}
	case opts.GOOS != "windows" && info.Mode().Perm()&0o111 == 0:
		return Finding{Name: "wrapper", Severity: Warning, Detail: name + " is not executable, falling back to mvn", Fix: "chmod +x " + name}
	default:
		return Finding{Name: "wrapper", Detail: name}
	}
}

func configDetail(root string, stat command.StatFunc) string {
	if _, err := stat(config.Path(root)); err != nil {
		return "defaults (no " + config.FileName + ")"
	}
	return config.FileName
}

func settingsPath(root, p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func firstLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func javaHint(goos string) string {
	switch goos {
	case "darwin":
		return "brew install openjdk"
	case "windows":
		return "winget install EclipseAdoptium.Temurin.21.JDK"
	default:
		return "install a JDK (e.g. sudo apt install openjdk-21-jdk) or set JAVA_HOME"
	}
}

func mavenHint(goos string) string {
	switch goos {
	case "darwin":
		return "brew install maven"
	case "windows":
		return "winget install Apache.Maven"
	default:
		return "install Maven (e.g. sudo apt install maven) or add the Maven wrapper"
	}
}
