package command

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phreno/lazymvn-sub002/internal/profiles"
)

type fakeInfo struct {
	mode fs.FileMode
}

func (f fakeInfo) Name() string       { return "mvnw" }
func (f fakeInfo) Size() int64        { return 0 }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeInfo) Sys() any           { return nil }

func statWith(files map[string]fs.FileMode) StatFunc {
	return func(path string) (fs.FileInfo, error) {
		if m, ok := files[path]; ok {
			return fakeInfo{mode: m}, nil
		}
		return nil, fs.ErrNotExist
	}
}

func TestResolveExecutable(t *testing.T) {
	root := filepath.FromSlash("/work/app")
	wrapper := filepath.Join(root, "mvnw")

	tests := []struct {
		name  string
		files map[string]fs.FileMode
		goos  string
		want  string
	}{
		{name: "executable wrapper", files: map[string]fs.FileMode{wrapper: 0o755}, goos: "linux", want: wrapper},
		{name: "wrapper without exec bit", files: map[string]fs.FileMode{wrapper: 0o644}, goos: "linux", want: "mvn"},
		{name: "no wrapper", files: nil, goos: "linux", want: "mvn"},
		{name: "wrapper is a directory", files: map[string]fs.FileMode{wrapper: fs.ModeDir | 0o755}, goos: "linux", want: "mvn"},
		{name: "windows cmd wrapper", files: map[string]fs.FileMode{filepath.Join(root, "mvnw.cmd"): 0o644}, goos: "windows", want: filepath.Join(root, "mvnw.cmd")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stat := statWith(tt.files)
			got := ResolveExecutable(root, stat, tt.goos)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ResolveExecutable(root, stat, tt.goos), "resolution must be deterministic")
		})
	}
}

func TestNewTargetFindsWrapper(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec bit check is unix only")
	}
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mvnw"), []byte("#!/bin/sh\n"), 0o755))

	target := NewTarget(root, "")
	assert.Equal(t, filepath.Join(root, "mvnw"), target.Executable)
	assert.True(t, target.IsRoot())
}

func TestBuildRootModule(t *testing.T) {
	req := Request{
		Target:   Target{Root: "/p", Module: RootModule, Executable: "/p/mvnw"},
		Profiles: []profiles.Profile{{Name: "dev", State: profiles.Enabled}},
		Flags:    []FlagSpec{{Name: "skip", Tokens: []string{"-DskipTests"}, EnabledByDefault: true}},
		Goals:    []string{"clean", "install"},
	}

	got := Build(req).Argv()
	want := []string{"/p/mvnw", "-Pdev", "-DskipTests", "clean", "install"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildScopedModuleWithDisabledAutoProfile(t *testing.T) {
	req := Request{
		Target:   Target{Root: "/p", Module: "app", Executable: "mvn"},
		Profiles: []profiles.Profile{{Name: "x", State: profiles.Disabled, AutoActivated: true}},
		Goals:    []string{"test"},
	}

	argv := Build(req).Argv()
	want := []string{"mvn", "-P!x", "-pl", "app", "test"}
	if diff := cmp.Diff(want, argv); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFullOrder(t *testing.T) {
	req := Request{
		Target: Target{Root: "/p", Module: "svc/api", Executable: "mvn"},
		Profiles: []profiles.Profile{
			{Name: "a", State: profiles.Enabled},
			{Name: "b"},
			{Name: "c", State: profiles.Disabled},
		},
		Flags: []FlagSpec{
			{Name: "skip", Tokens: []string{"-DskipTests", "-Dmaven.javadoc.skip=true"}},
			{Name: "offline", Tokens: []string{"--offline"}},
		},
		SettingsPath: "/home/u/.m2/custom.xml",
		Threads:      "1C",
		AlsoMake:     AlsoMakeBoth,
		Properties:   map[string]string{"z": "1", "a": "2"},
		UserFlags:    "  -X   -Dfoo=bar ",
		Goals:        []string{"spring-boot:run", "-Dspring-boot.run.arguments=--a --b"},
	}

	want := []string{
		"mvn",
		"--settings", "/home/u/.m2/custom.xml",
		"-Pa,!c",
		"-T", "1C",
		"-pl", "svc/api", "-am", "-amd",
		"-DskipTests", "-Dmaven.javadoc.skip=true", "--offline",
		"-Da=2", "-Dz=1",
		"-X", "-Dfoo=bar",
		"spring-boot:run", "-Dspring-boot.run.arguments=--a --b",
	}
	if diff := cmp.Diff(want, Build(req).Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	base := Request{
		Target: Target{Root: "/p", Module: "m", Executable: "mvn"},
		Goals:  []string{"verify"},
	}
	var first []string
	for i := 0; i < 50; i++ {
		req := base
		// A fresh map each round gets a fresh iteration order.
		req.Properties = map[string]string{}
		for _, k := range []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8"} {
			req.Properties[k] = "v-" + k
		}
		got := Build(req).Argv()
		if first == nil {
			first = got
			continue
		}
		require.Equal(t, first, got)
	}
}

func TestModuleScopeFlagPresence(t *testing.T) {
	for _, module := range []string{RootModule, "", "app", "a/b"} {
		argv := Build(Request{Target: Target{Module: module}, Goals: []string{"test"}}).Argv()
		hasScope := false
		for _, a := range argv {
			if a == "-pl" {
				hasScope = true
			}
		}
		isRoot := module == RootModule || module == ""
		assert.Equal(t, !isRoot, hasScope, "module %q", module)
	}
}

func TestAlsoMakeRequiresModule(t *testing.T) {
	argv := Build(Request{Target: Target{Module: RootModule}, AlsoMake: AlsoMakeUpstream}).Argv()
	assert.Equal(t, []string{"mvn"}, argv)
}

func TestCommandString(t *testing.T) {
	c := Command{Executable: "mvn", Args: []string{"-P!x", "-Dmsg=hello world", "it's", ""}}
	assert.Equal(t, `mvn '-P!x' '-Dmsg=hello world' 'it'\''s' ''`, c.String())
}
