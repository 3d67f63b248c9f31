// Package config reads and writes the per-project .lazymvn.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/executor"
	"github.com/Phreno/lazymvn-sub002/internal/launch"
	"github.com/Phreno/lazymvn-sub002/internal/thermal"
)

// FileName is looked up in the project root.
const FileName = ".lazymvn.yaml"

// Config is the project configuration.
type Config struct {
	// Goals run when `lazymvn run` gets none.
	Goals []string `yaml:"goals,omitempty"`
	// Flags replace command.DefaultFlags when set.
	Flags    []command.FlagSpec `yaml:"flags,omitempty"`
	Settings string             `yaml:"settings,omitempty"`
	Threads  string             `yaml:"threads,omitempty"`
	// Profiles holds the initial state per profile name
	// (enabled/disabled/default).
	Profiles map[string]string `yaml:"profiles,omitempty"`

	Launch Launch `yaml:"launch,omitempty"`
	Kill   Kill   `yaml:"kill,omitempty"`

	// Logging maps logger names to levels for launched applications.
	Logging map[string]string `yaml:"logging,omitempty"`
	// Properties are Spring properties for launched applications.
	Properties map[string]string `yaml:"properties,omitempty"`

	// OverrideDir holds generated override files and the session log.
	OverrideDir string `yaml:"override_dir,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`
}

type Launch struct {
	Mode      string   `yaml:"mode,omitempty"`
	Module    string   `yaml:"module,omitempty"`
	MainClass string   `yaml:"main_class,omitempty"`
	JVMArgs   []string `yaml:"jvm_args,omitempty"`
	Args      []string `yaml:"args,omitempty"`

	// SpringProfiles are activated in the launched application.
	SpringProfiles []string `yaml:"spring_profiles,omitempty"`
	// RunPluginCutoffs override launch.DefaultCutoffs.
	RunPluginCutoffs []Cutoff `yaml:"run_plugin_cutoffs,omitempty"`
}

type Cutoff struct {
	MinVersion string `yaml:"min_version"`
	Scheme     string `yaml:"scheme"`
}

type Kill struct {
	Backend string        `yaml:"backend,omitempty"`
	Grace   time.Duration `yaml:"grace,omitempty"`
}

var logLevels = map[string]bool{
	"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true,
	"ERROR": true, "FATAL": true, "OFF": true,
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Goals) == 0 {
		c.Goals = []string{"clean", "install"}
	}
	if len(c.Flags) == 0 {
		c.Flags = append([]command.FlagSpec(nil), command.DefaultFlags...)
	}
	if c.Launch.Mode == "" {
		c.Launch.Mode = launch.ModeAuto.String()
	}
	if c.Kill.Backend == "" {
		c.Kill.Backend = executor.BackendAuto
	}
	if c.Kill.Grace == 0 {
		c.Kill.Grace = executor.DefaultGrace
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := launch.ParseMode(c.Launch.Mode); err != nil {
		return fmt.Errorf("launch.mode: %w", err)
	}
	if _, err := c.Cutoffs(); err != nil {
		return fmt.Errorf("launch.run_plugin_cutoffs: %w", err)
	}
	switch strings.ToLower(c.Kill.Backend) {
	case executor.BackendAuto, executor.BackendSignal, executor.BackendTree:
	default:
		return fmt.Errorf("kill.backend: unknown backend %q", c.Kill.Backend)
	}
	if _, err := thermal.ResolveThreads(c.Threads, thermal.HardwareInfo{NumCPU: 1}); err != nil {
		return fmt.Errorf("threads: %w", err)
	}
	if c.Kill.Grace < 0 {
		return fmt.Errorf("kill.grace: must not be negative")
	}
	for name, level := range c.Logging {
		if !logLevels[strings.ToUpper(level)] {
			return fmt.Errorf("logging.%s: unknown level %q", name, level)
		}
	}
	for _, f := range c.Flags {
		if f.Name == "" || len(f.Tokens) == 0 {
			return fmt.Errorf("flags: each flag needs a name and tokens")
		}
	}
	return nil
}

// Mode returns the parsed launch mode.
func (c Config) Mode() launch.Mode {
	m, _ := launch.ParseMode(c.Launch.Mode)
	return m
}

// Cutoffs returns the run-plugin cutoff table, or nil to use the
// defaults.
func (c Config) Cutoffs() (launch.CutoffTable, error) {
	if len(c.Launch.RunPluginCutoffs) == 0 {
		return nil, nil
	}
	table := make(launch.CutoffTable, 0, len(c.Launch.RunPluginCutoffs))
	for _, e := range c.Launch.RunPluginCutoffs {
		scheme, err := launch.SchemeByName(e.Scheme)
		if err != nil {
			return nil, err
		}
		table = append(table, launch.Cutoff{MinVersion: e.MinVersion, Scheme: scheme})
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Killer builds the configured kill backend.
func (c Config) Killer() (executor.Killer, error) {
	return executor.NewKiller(c.Kill.Backend)
}

// Path returns the configuration path for a project root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads the project's configuration, falling back to defaults when
// the file does not exist.
func Load(root string) (Config, error) {
	cfg, err := Read(Path(root))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Read parses path, applies defaults and validates the result.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// Write saves cfg as YAML.
func Write(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return err
	}
	return enc.Close()
}
