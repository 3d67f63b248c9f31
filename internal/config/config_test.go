package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/executor"
	"github.com/Phreno/lazymvn-sub002/internal/launch"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []string{"clean", "install"}, cfg.Goals)
	assert.Equal(t, command.DefaultFlags, cfg.Flags)
	assert.Equal(t, launch.ModeAuto, cfg.Mode())
	assert.Equal(t, executor.DefaultGrace, cfg.Kill.Grace)

	cutoffs, err := cfg.Cutoffs()
	require.NoError(t, err)
	assert.Nil(t, cutoffs)
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	content := `goals: [verify]
settings: ci/settings.xml
threads: 1C
flags:
  - name: Skip tests
    tokens: ["-DskipTests", "-Dmaven.test.skip=true"]
    enabled: true
launch:
  mode: force-exec
  module: web
  main_class: com.example.App
  run_plugin_cutoffs:
    - min_version: "0"
      scheme: legacy
    - min_version: "1.4"
      scheme: modern
kill:
  backend: tree
  grace: 10s
logging:
  com.example: debug
properties:
  server.port: "9090"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"verify"}, cfg.Goals)
	assert.Equal(t, "1C", cfg.Threads)
	require.Len(t, cfg.Flags, 1)
	assert.Equal(t, []string{"-DskipTests", "-Dmaven.test.skip=true"}, cfg.Flags[0].Tokens)
	assert.True(t, cfg.Flags[0].EnabledByDefault)
	assert.Equal(t, launch.ModeForceExec, cfg.Mode())
	assert.Equal(t, "web", cfg.Launch.Module)
	assert.Equal(t, 10*time.Second, cfg.Kill.Grace)
	assert.Equal(t, "9090", cfg.Properties["server.port"])

	cutoffs, err := cfg.Cutoffs()
	require.NoError(t, err)
	assert.Equal(t, launch.LegacyScheme, cutoffs.SchemeFor("1.3.8"))
	assert.Equal(t, launch.ModernScheme, cutoffs.SchemeFor("1.5.0"))

	killer, err := cfg.Killer()
	require.NoError(t, err)
	assert.IsType(t, executor.TreeKiller{}, killer)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"launch mode", func(c *Config) { c.Launch.Mode = "sometimes" }},
		{"cutoff scheme", func(c *Config) { c.Launch.RunPluginCutoffs = []Cutoff{{MinVersion: "2", Scheme: "ancient"}} }},
		{"cutoff version", func(c *Config) { c.Launch.RunPluginCutoffs = []Cutoff{{MinVersion: "two", Scheme: "modern"}} }},
		{"kill backend", func(c *Config) { c.Kill.Backend = "nuke" }},
		{"threads", func(c *Config) { c.Threads = "many" }},
		{"negative grace", func(c *Config) { c.Kill.Grace = -time.Second }},
		{"log level", func(c *Config) { c.Logging = map[string]string{"com.example": "LOUD"} }},
		{"flag without tokens", func(c *Config) { c.Flags = []command.FlagSpec{{Name: "Empty"}} }},
	}
	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestReadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("kill:\n  backend: nuke\n"), 0o644))
	_, err := Read(path)
	assert.ErrorContains(t, err, "kill.backend")

	require.NoError(t, os.WriteFile(path, []byte("goals: [unterminated\n"), 0o644))
	_, err = Read(path)
	assert.Error(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := Default()
	cfg.Settings = "settings.xml"
	cfg.Logging = map[string]string{"org.hibernate": "WARN"}
	cfg.Kill.Grace = 1500 * time.Millisecond

	require.NoError(t, Write(path, cfg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "grace: 1.5s")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
