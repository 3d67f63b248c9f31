package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phreno/lazymvn-sub002/internal/cache"
	"github.com/Phreno/lazymvn-sub002/internal/maven"
)

const bootPom = `[INFO] Scanning for projects...
[INFO] --- maven-help-plugin:3.4.0:effective-pom (default-cli) @ app ---
[INFO]
Effective POMs, after inheritance, interpolation, and profiles are applied:

<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <artifactId>app</artifactId>
  <packaging>%s</packaging>
  <properties>
    <java.version>17</java.version>
    <start-class>com.example.FromProperty</start-class>
  </properties>
  <build>
    <plugins>
      <plugin>
        <groupId>org.springframework.boot</groupId>
        <artifactId>spring-boot-maven-plugin</artifactId>
        <version>%s</version>
      </plugin>
    </plugins>
  </build>
</project>
[INFO] BUILD SUCCESS
`

const execPom = `<project>
  <packaging>%s</packaging>
  <build>
    <plugins>
      <plugin>
        <groupId>org.codehaus.mojo</groupId>
        <artifactId>exec-maven-plugin</artifactId>
        <version>3.1.0</version>
        <executions><execution><configuration><mainClass>com.example.Tool</mainClass></configuration></execution></executions>
      </plugin>
    </plugins>
  </build>
</project>`

func sprintf(format string, args ...any) []byte {
	return []byte(fmt.Sprintf(format, args...))
}

func TestParseCapabilitiesRunPlugin(t *testing.T) {
	descriptor, err := ExtractProject(sprintf(bootPom, "jar", "2.7.18"))
	require.NoError(t, err)

	caps, err := ParseCapabilities(descriptor)
	require.NoError(t, err)
	assert.Equal(t, Capabilities{
		Packaging:           "jar",
		HasRunPlugin:        true,
		RunPluginVersion:    "2.7.18",
		ConfiguredMainClass: "com.example.FromProperty",
		Known:               true,
	}, caps)
}

func TestParseCapabilitiesExecPlugin(t *testing.T) {
	caps, err := ParseCapabilities(sprintf(execPom, "war"))
	require.NoError(t, err)
	assert.True(t, caps.HasExecPlugin)
	assert.False(t, caps.HasRunPlugin)
	assert.Equal(t, "war", caps.Packaging)
	assert.Equal(t, "com.example.Tool", caps.ConfiguredMainClass)
}

func TestParseCapabilitiesDefaults(t *testing.T) {
	caps, err := ParseCapabilities([]byte(`<project><properties><exec.mainClass>${main}</exec.mainClass></properties></project>`))
	require.NoError(t, err)
	assert.Equal(t, PackagingJar, caps.Packaging)
	assert.Empty(t, caps.ConfiguredMainClass, "unresolved placeholders are ignored")
}

func TestExtractProjectSkipsWrapper(t *testing.T) {
	out := []byte("<projects>\n<project>\n<artifactId>a</artifactId>\n</project>\n<project><artifactId>b</artifactId></project></projects>")
	got, err := ExtractProject(out)
	require.NoError(t, err)
	assert.Equal(t, "<project>\n<artifactId>a</artifactId>\n</project>", string(got))

	_, err = ExtractProject([]byte("[ERROR] no pom"))
	assert.ErrorIs(t, err, ErrNoDescriptor)
}

func TestCutoffTable(t *testing.T) {
	tests := []struct {
		version string
		want    Scheme
	}{
		{"1.5.22.RELEASE", LegacyScheme},
		{"1.0.0", LegacyScheme},
		{"1.99", LegacyScheme},
		{"2.0.0", ModernScheme},
		{"2.0.0.M7", ModernScheme},
		{"3.2.1", ModernScheme},
		{"", ModernScheme},
		{"${spring-boot.version}", ModernScheme},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want.Name, DefaultCutoffs.SchemeFor(tt.version).Name)
		})
	}
}

func TestCutoffTableIsConfigurable(t *testing.T) {
	table := CutoffTable{
		{MinVersion: "3.0", Scheme: ModernScheme},
		{MinVersion: "0", Scheme: LegacyScheme},
	}
	require.NoError(t, table.Validate())
	assert.Equal(t, LegacyScheme, table.SchemeFor("2.7.0"))
	assert.Equal(t, ModernScheme, table.SchemeFor("3.0.0"))

	assert.Error(t, CutoffTable{{MinVersion: "abc"}}.Validate())
	assert.Equal(t, ModernScheme, CutoffTable(nil).SchemeFor("1.0"))
}

func TestCutoffTableBelowLowestIsLegacy(t *testing.T) {
	table := CutoffTable{{MinVersion: "2.0.0", Scheme: ModernScheme}}
	require.NoError(t, table.Validate())

	assert.Equal(t, LegacyScheme, table.SchemeFor("1.5.22.RELEASE"))
	assert.Equal(t, ModernScheme, table.SchemeFor("2.0.0"))
	assert.Equal(t, ModernScheme, table.SchemeFor(""))
}

func TestDecide(t *testing.T) {
	noDiscover := func() (string, error) { return "", ErrNoMainClass }
	discovered := func() (string, error) { return "com.example.Found", nil }

	tests := []struct {
		name     string
		in       Inputs
		wantKind Kind
		check    func(t *testing.T, s Strategy)
	}{
		{
			name:     "run plugin wins in auto",
			in:       Inputs{Capabilities: Capabilities{Known: true, Packaging: "jar", HasRunPlugin: true, RunPluginVersion: "1.5.9", HasExecPlugin: true, ConfiguredMainClass: "x.Y"}, Discover: noDiscover},
			wantKind: KindRunPlugin,
			check: func(t *testing.T, s Strategy) {
				assert.Equal(t, LegacyScheme, s.Run.Scheme)
				assert.True(t, s.Run.Declared)
				assert.Empty(t, s.Run.MainClassOverride)
			},
		},
		{
			name:     "force exec skips run plugin",
			in:       Inputs{Mode: ModeForceExec, Capabilities: Capabilities{Known: true, Packaging: "jar", HasRunPlugin: true, ConfiguredMainClass: "x.Y"}},
			wantKind: KindExecPlugin,
			check: func(t *testing.T, s Strategy) {
				assert.Equal(t, "x.Y", s.Exec.MainClass)
			},
		},
		{
			name:     "force run without plugin",
			in:       Inputs{Mode: ModeForceRun, MainClass: "a.B", Capabilities: UnknownCapabilities()},
			wantKind: KindRunPlugin,
			check: func(t *testing.T, s Strategy) {
				assert.False(t, s.Run.Declared)
				assert.Equal(t, "a.B", s.Run.MainClassOverride)
				assert.Equal(t, ModernScheme, s.Run.Scheme)
			},
		},
		{
			name:     "exec plugin with configured main",
			in:       Inputs{Capabilities: Capabilities{Known: true, Packaging: "jar", HasExecPlugin: true, ConfiguredMainClass: "x.Y"}, Discover: discovered},
			wantKind: KindExecPlugin,
			check: func(t *testing.T, s Strategy) {
				assert.Equal(t, "x.Y", s.Exec.MainClass)
			},
		},
		{
			name:     "discovered main class without plugins",
			in:       Inputs{Capabilities: Capabilities{Known: true, Packaging: "jar"}, Discover: discovered},
			wantKind: KindExecPlugin,
			check: func(t *testing.T, s Strategy) {
				assert.Equal(t, "com.example.Found", s.Exec.MainClass)
			},
		},
		{
			name:     "descriptor failure degrades to exec",
			in:       Inputs{Capabilities: UnknownCapabilities(), Discover: discovered, DescriptorErr: errors.New("boom")},
			wantKind: KindExecPlugin,
		},
		{
			name:     "explicit main class wins",
			in:       Inputs{MainClass: "user.Main", Capabilities: Capabilities{Known: true, Packaging: "jar", ConfiguredMainClass: "x.Y"}, Discover: discovered},
			wantKind: KindExecPlugin,
			check: func(t *testing.T, s Strategy) {
				assert.Equal(t, "user.Main", s.Exec.MainClass)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decide(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, s.Kind())
			assert.False(t, s.Run != nil && s.Exec != nil, "exactly one variant")
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestDecideWebArchiveScope(t *testing.T) {
	for _, packaging := range []string{"war", "jar", "pom", "ear"} {
		for _, mode := range []Mode{ModeAuto, ModeForceExec} {
			caps := Capabilities{Known: true, Packaging: packaging, HasExecPlugin: true, ConfiguredMainClass: "a.B"}
			s, err := Decide(Inputs{Capabilities: caps, Mode: mode})
			require.NoError(t, err)
			require.Equal(t, KindExecPlugin, s.Kind())
			if packaging == PackagingWar {
				assert.Equal(t, WidenedScope, s.Exec.ClasspathScopeOverride, packaging)
			} else {
				assert.Empty(t, s.Exec.ClasspathScopeOverride, packaging)
			}
		}
	}

	// The run plugin never gets the scope override.
	s, err := Decide(Inputs{Capabilities: Capabilities{Known: true, Packaging: "war", HasRunPlugin: true}})
	require.NoError(t, err)
	assert.NotContains(t, s.Goals(Options{}), "-Dexec.classpathScope=compile")
}

func TestDecideUndetectable(t *testing.T) {
	queryErr := errors.New("mvn: command not found")
	_, err := Decide(Inputs{
		Module:        "app",
		Capabilities:  UnknownCapabilities(),
		Discover:      func() (string, error) { return "", ErrNoMainClass },
		DescriptorErr: queryErr,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndetectable)
	assert.ErrorIs(t, err, queryErr)
	assert.ErrorIs(t, err, ErrNoMainClass)

	var de *DetectionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "app", de.Module)
	assert.Contains(t, de.Error(), "build descriptor unavailable")

	_, err = Decide(Inputs{Mode: ModeForceExec, Capabilities: Capabilities{Known: true, Packaging: "jar"}})
	assert.ErrorIs(t, err, ErrUndetectable)
}

func TestStrategyGoals(t *testing.T) {
	opts := Options{
		JVMArgs:  []string{"-Dlogging.level.com.example=DEBUG", "-Xmx512m"},
		AppArgs:  []string{"--port", "9000"},
		Profiles: []string{"dev", "local"},
	}

	modern := Strategy{Run: &RunPlugin{Declared: true, Scheme: ModernScheme, MainClassOverride: "a.B"}}
	want := []string{
		"spring-boot:run",
		"-Dspring-boot.run.main-class=a.B",
		"-Dspring-boot.run.jvmArguments=-Dlogging.level.com.example=DEBUG -Xmx512m",
		"-Dspring-boot.run.arguments=--port 9000",
		"-Dspring-boot.run.profiles=dev,local",
	}
	if diff := cmp.Diff(want, modern.Goals(opts)); diff != "" {
		t.Errorf("modern goals (-want +got):\n%s", diff)
	}

	legacy := Strategy{Run: &RunPlugin{Scheme: LegacyScheme, Version: "1.5.22.RELEASE"}}
	want = []string{
		"org.springframework.boot:spring-boot-maven-plugin:1.5.22.RELEASE:run",
		"-Drun.jvmArguments=-Dlogging.level.com.example=DEBUG -Xmx512m",
		"-Drun.arguments=--port,9000",
		"-Drun.profiles=dev,local",
	}
	if diff := cmp.Diff(want, legacy.Goals(opts)); diff != "" {
		t.Errorf("legacy goals (-want +got):\n%s", diff)
	}

	exec := Strategy{Exec: &ExecPlugin{MainClass: "a.B", ClasspathScopeOverride: WidenedScope}}
	want = []string{
		"exec:java",
		"-Dexec.mainClass=a.B",
		"-Dexec.classpathScope=compile",
		"-Dexec.args=--port 9000",
		"-Dspring.profiles.active=dev,local",
		"-Dlogging.level.com.example=DEBUG",
	}
	if diff := cmp.Diff(want, exec.Goals(opts)); diff != "" {
		t.Errorf("exec goals (-want +got):\n%s", diff)
	}

	assert.Nil(t, Strategy{}.Goals(opts))
}

func TestFindMainClass(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	_, err := FindMainClass(dir)
	assert.ErrorIs(t, err, ErrNoMainClass)

	write("src/main/java/com/example/tools/Cli.java", "package com.example.tools;\nclass Cli { public static void main(String[] a) {} }\n")
	got, err := FindMainClass(dir)
	require.NoError(t, err)
	assert.Equal(t, "com.example.tools.Cli", got)

	write("src/main/java/com/example/deep/x/Main.java", "package com.example.deep.x;\npublic class Main { public static void main(String... a) {} }\n")
	got, err = FindMainClass(dir)
	require.NoError(t, err)
	assert.Equal(t, "com.example.deep.x.Main", got)

	write("src/main/java/com/example/DemoApplication.java", "package com.example;\n@SpringBootApplication\npublic class DemoApplication {\n  public static void main(String[] args) {}\n}\n")
	got, err = FindMainClass(dir)
	require.NoError(t, err)
	assert.Equal(t, "com.example.DemoApplication", got)

	write("src/main/java/com/example/NoMain.java", "package com.example;\n@SpringBootApplication\nclass NoMain {}\n")
	got, err = FindMainClass(dir)
	require.NoError(t, err)
	assert.Equal(t, "com.example.DemoApplication", got)
}

func TestFindMainClassKotlin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src", "main", "kotlin", "demo", "App.kt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("package demo\n\nfun main(args: Array<String>) {}\n"), 0o644))

	got, err := FindMainClass(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo.AppKt", got)
}

func TestDetectorCachesByDescriptor(t *testing.T) {
	root := t.TempDir()
	pomPath := filepath.Join(root, "pom.xml")
	require.NoError(t, os.WriteFile(pomPath, []byte("<project/>"), 0o644))

	calls := 0
	d := &Detector{
		Store: cache.NewMemory(),
		Runner: maven.Func(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			calls++
			assert.Equal(t, root, dir)
			assert.Equal(t, []string{"help:effective-pom", "-B"}, args)
			return sprintf(bootPom, "jar", "3.1.0"), nil
		}),
	}

	req := Request{Root: root, Module: ".", Executable: "mvn"}
	s, caps, err := d.Detect(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, KindRunPlugin, s.Kind())
	assert.Equal(t, "3.1.0", caps.RunPluginVersion)

	_, _, err = d.Detect(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "unchanged descriptor is served from cache")

	require.NoError(t, os.WriteFile(pomPath, []byte("<project><!-- edited --></project>"), 0o644))
	_, _, err = d.Detect(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "edited descriptor invalidates the cache")
}

func TestDetectorScopesModuleQuery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project/>"), 0o644))

	var gotArgs []string
	d := &Detector{
		Runner: maven.Func(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			gotArgs = args
			return sprintf(execPom, "war"), nil
		}),
	}
	s, _, err := d.Detect(context.Background(), Request{Root: root, Module: "web"})
	require.NoError(t, err)
	assert.Equal(t, []string{"help:effective-pom", "-B", "-pl", "web"}, gotArgs)
	require.Equal(t, KindExecPlugin, s.Kind())
	assert.Equal(t, WidenedScope, s.Exec.ClasspathScopeOverride)
}

func TestDetectorQueryFailure(t *testing.T) {
	root := t.TempDir()
	failing := maven.Func(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})

	d := &Detector{
		Runner:        failing,
		FindMainClass: func(string) (string, error) { return "com.example.Main", nil },
	}
	s, caps, err := d.Detect(context.Background(), Request{Root: root})
	require.NoError(t, err)
	assert.False(t, caps.Known)
	assert.Equal(t, "com.example.Main", s.Exec.MainClass)

	d.FindMainClass = func(string) (string, error) { return "", ErrNoMainClass }
	_, _, err = d.Detect(context.Background(), Request{Root: root})
	assert.ErrorIs(t, err, ErrUndetectable)
}

func TestDetectorForceRunSkipsQuery(t *testing.T) {
	d := &Detector{
		Runner: maven.Func(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			t.Fatal("force-run must not query the descriptor")
			return nil, nil
		}),
	}
	s, _, err := d.Detect(context.Background(), Request{Root: t.TempDir(), Mode: ModeForceRun})
	require.NoError(t, err)
	assert.Equal(t, KindRunPlugin, s.Kind())
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "run": ModeForceRun, "Force-Exec": ModeForceExec} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("sideways")
	assert.Error(t, err)
}
