package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phreno/lazymvn-sub002/internal/cache"
	"github.com/Phreno/lazymvn-sub002/internal/maven"
)

func TestToggleHasPeriodTwo(t *testing.T) {
	for _, auto := range []bool{false, true} {
		for _, start := range []State{Default, Enabled, Disabled} {
			p := Profile{Name: "p", State: start, AutoActivated: auto}
			p.Toggle()
			first := p.State
			p.Toggle()
			second := p.State
			p.Toggle()
			assert.Equal(t, first, p.State, "auto=%v start=%v", auto, start)
			p.Toggle()
			assert.Equal(t, second, p.State, "auto=%v start=%v", auto, start)
		}
	}
}

func TestToggleCycles(t *testing.T) {
	tests := []struct {
		name string
		auto bool
		want []State
	}{
		{name: "manual profile", auto: false, want: []State{Enabled, Default, Enabled}},
		{name: "auto-activated profile", auto: true, want: []State{Disabled, Default, Disabled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profile{Name: "x", AutoActivated: tt.auto}
			for i, want := range tt.want {
				p.Toggle()
				assert.Equal(t, want, p.State, "step %d", i)
			}
		})
	}
}

func TestIsActive(t *testing.T) {
	assert.True(t, Profile{AutoActivated: true}.IsActive())
	assert.False(t, Profile{AutoActivated: true, State: Disabled}.IsActive())
	assert.False(t, Profile{}.IsActive())
	assert.True(t, Profile{State: Enabled}.IsActive())
}

func TestMavenArgumentRoundTrip(t *testing.T) {
	for _, state := range []State{Enabled, Disabled} {
		p := Profile{Name: "dev", State: state}
		arg, ok := p.MavenArgument()
		require.True(t, ok)

		name, got, err := ParseArgument(arg)
		require.NoError(t, err)
		assert.Equal(t, "dev", name)
		assert.Equal(t, state, got)
	}

	_, ok := Profile{Name: "dev"}.MavenArgument()
	assert.False(t, ok, "default state must be omitted")

	_, _, err := ParseArgument("")
	assert.ErrorIs(t, err, ErrEmptyArgument)
	_, _, err = ParseArgument("!")
	assert.ErrorIs(t, err, ErrEmptyArgument)
}

func TestSetFlag(t *testing.T) {
	s := NewSet([]string{"dev", "x", "prod", "dev"}, map[string]bool{"x": true})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "", s.Flag())

	_, err := s.Toggle("prod")
	require.NoError(t, err)
	_, err = s.Toggle("x")
	require.NoError(t, err)
	_, err = s.Toggle("dev")
	require.NoError(t, err)

	assert.Equal(t, "-Pdev,!x,prod", s.Flag())
	assert.Equal(t, []string{"dev", "prod"}, s.Active())

	_, err = s.Toggle("nope")
	assert.Error(t, err)

	s.Reset()
	assert.Equal(t, "", s.Flag())
	assert.Equal(t, []string{"x"}, s.Active())
}

func TestParseFlagAndApply(t *testing.T) {
	got, err := ParseFlag("-Pdev,!x")
	require.NoError(t, err)
	assert.Equal(t, []Profile{{Name: "dev", State: Enabled}, {Name: "x", State: Disabled}}, got)

	got, err = ParseFlag("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseFlag("-Pdev,,x")
	assert.ErrorIs(t, err, ErrEmptyArgument)

	s := NewSet([]string{"dev", "x"}, nil)
	unknown, err := s.Apply("dev,!x,ghost")
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, unknown)
	assert.Equal(t, "-Pdev,!x", s.Flag())
}

func TestSnapshotRestore(t *testing.T) {
	store := cache.NewMemory()
	s := NewSet([]string{"a", "b", "c"}, map[string]bool{"b": true})
	s.Toggle("a")
	s.Toggle("b")
	require.NoError(t, Save(store, "k", s))

	fresh := NewSet([]string{"a", "b", "c"}, map[string]bool{"b": true})
	require.NoError(t, Load(store, "k", fresh))
	assert.Equal(t, s.Flag(), fresh.Flag())

	empty := NewSet([]string{"a"}, nil)
	require.NoError(t, Load(store, "missing", empty))
	assert.Equal(t, "", empty.Flag())
}

const activeOutput = `[INFO] Scanning for projects...
[INFO]
Active Profiles for Project 'com.example:app:jar:1.0':

The following profiles are active:

 - dev (source: com.example:app:1.0)
 - jdk17 (source: external)

Active Profiles for Project 'com.example:lib:jar:1.0':

The following profiles are active:

 - dev (source: com.example:lib:1.0)
`

func TestParseActiveProfiles(t *testing.T) {
	assert.Equal(t, []string{"dev", "jdk17"}, ParseActiveProfiles([]byte(activeOutput)))
	assert.Empty(t, ParseActiveProfiles([]byte("no profiles here")))
}

func TestAutoActivatedQueriesOnce(t *testing.T) {
	calls := 0
	a := &Activation{
		Store: cache.NewMemory(),
		Runner: maven.Func(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			calls++
			assert.Equal(t, "/proj", dir)
			assert.Equal(t, "mvn", name)
			return []byte(activeOutput), nil
		}),
	}

	for i := 0; i < 3; i++ {
		auto := a.AutoActivated(context.Background(), "/proj", "mvn", "h1")
		assert.Equal(t, map[string]bool{"dev": true, "jdk17": true}, auto)
	}
	assert.Equal(t, 1, calls)

	require.NoError(t, a.Invalidate("h1"))
	a.AutoActivated(context.Background(), "/proj", "mvn", "h1")
	assert.Equal(t, 2, calls)
}

func TestAutoActivatedQueryFailureDegrades(t *testing.T) {
	a := &Activation{
		Store: cache.NewMemory(),
		Runner: maven.Func(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			return nil, errors.New("mvn not found")
		}),
	}

	auto := a.AutoActivated(context.Background(), "/proj", "mvn", "h1")
	assert.Empty(t, auto)

	s := NewSet([]string{"dev"}, auto)
	s.Toggle("dev")
	assert.Equal(t, "-Pdev", s.Flag())
}

func TestDiscover(t *testing.T) {
	pom := `<?xml version="1.0"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <artifactId>app</artifactId>
  <profiles>
    <profile><id>dev</id></profile>
    <profile><id>prod</id><activation><activeByDefault>true</activeByDefault></activation></profile>
  </profiles>
</project>`
	ids, err := Discover([]byte(pom))
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "prod"}, ids)

	_, err = Discover([]byte("<project"))
	assert.Error(t, err)
}
