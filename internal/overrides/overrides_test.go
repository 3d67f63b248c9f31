package overrides

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g := New(filepath.Join(t.TempDir(), "overrides"))
	g.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEmptyRequestWritesNothing(t *testing.T) {
	g := newTestGenerator(t)

	res, err := g.Generate(Request{ProjectHash: "abc"})
	require.NoError(t, err)
	assert.Nil(t, res.Logging)
	assert.Nil(t, res.Properties)
	assert.Empty(t, res.JVMArgs())

	_, err = os.Stat(g.Path(KindLogging, "abc"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoggingFile(t *testing.T) {
	g := newTestGenerator(t)

	res, err := g.Generate(Request{
		ProjectHash: "abc",
		LogLevels:   map[string]string{"org.hibernate": "warn", "com.example": "debug", "root": "error"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Logging)
	assert.Equal(t, g.Path(KindLogging, "abc"), res.Logging.Path)
	assert.Equal(t, "abc", res.Logging.HashKey)
	assert.Equal(t, KindLogging, res.Logging.Kind)

	content := read(t, res.Logging.Path)
	assert.True(t, strings.HasSuffix(content, "\n"))
	assert.Contains(t, content, "log4j.rootLogger=ERROR, CONSOLE\n")
	assert.Contains(t, content, "log4j.appender.CONSOLE=org.apache.log4j.ConsoleAppender\n")
	assert.Contains(t, content, "log4j.logger.com.example=DEBUG\nlog4j.logger.org.hibernate=WARN\n")
	assert.NotContains(t, content, "log4j.logger.root")

	assert.Equal(t, []string{
		"-Dlog4j.configuration=" + FileURL(res.Logging.Path),
		"-Dlogging.level.com.example=DEBUG",
		"-Dlogging.level.org.hibernate=WARN",
		"-Dlogging.level.root=ERROR",
	}, res.JVMArgs())
}

func TestRejectedLoggingPassesNoLevels(t *testing.T) {
	g := newTestGenerator(t)

	res, err := g.Generate(Request{
		ProjectHash: "abc",
		LogLevels:   map[string]string{"com.example": "debug\nFOO"},
		Properties:  map[string]string{"server.port": "8081"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.Nil(t, res.Logging)
	require.NotNil(t, res.Properties)

	assert.Equal(t, []string{"-Dspring.config.additional-location=" + FileURL(res.Properties.Path)}, res.JVMArgs())
	for _, arg := range res.JVMArgs() {
		assert.NotContains(t, arg, "logging.level")
	}
}

func TestPropertiesFile(t *testing.T) {
	g := newTestGenerator(t)

	res, err := g.Generate(Request{
		ProjectHash:    "abc",
		Properties:     map[string]string{"server.port": "8081", "app.name": "demo"},
		ActiveProfiles: []string{"dev", "local"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Properties)

	content := read(t, res.Properties.Path)
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Equal(t, []string{"app.name=demo", "server.port=8081", "spring.profiles.active=dev,local"}, lines[1:])

	assert.Equal(t, []string{"-Dspring.config.additional-location=" + FileURL(res.Properties.Path)}, res.JVMArgs())
}

func TestRegenerationOverwrites(t *testing.T) {
	g := newTestGenerator(t)

	_, err := g.Generate(Request{ProjectHash: "h", Properties: map[string]string{"first": "1", "shared": "a"}})
	require.NoError(t, err)
	res, err := g.Generate(Request{ProjectHash: "h", Properties: map[string]string{"second": "2", "shared": "b"}})
	require.NoError(t, err)

	content := read(t, res.Properties.Path)
	assert.NotContains(t, content, "first=1")
	assert.NotContains(t, content, "shared=a")
	assert.Contains(t, content, "second=2\n")
	assert.Contains(t, content, "shared=b\n")

	entries, err := os.ReadDir(g.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files or duplicates left behind")
}

func TestEmptyKindRemovesStaleFile(t *testing.T) {
	g := newTestGenerator(t)

	_, err := g.Generate(Request{ProjectHash: "h", LogLevels: map[string]string{"a": "DEBUG"}})
	require.NoError(t, err)
	_, err = g.Generate(Request{ProjectHash: "h"})
	require.NoError(t, err)

	_, err = os.Stat(g.Path(KindLogging, "h"))
	assert.True(t, os.IsNotExist(err))
}

func TestHashesAreIsolated(t *testing.T) {
	g := newTestGenerator(t)

	a, err := g.Generate(Request{ProjectHash: "one", Properties: map[string]string{"k": "1"}})
	require.NoError(t, err)
	b, err := g.Generate(Request{ProjectHash: "two", Properties: map[string]string{"k": "2"}})
	require.NoError(t, err)

	assert.NotEqual(t, a.Properties.Path, b.Properties.Path)
	assert.Contains(t, read(t, a.Properties.Path), "k=1\n")
}

func TestInvalidEntryFailsOnlyThatKind(t *testing.T) {
	g := newTestGenerator(t)

	res, err := g.Generate(Request{
		ProjectHash: "h",
		LogLevels:   map[string]string{"com.example": "DEBUG"},
		Properties:  map[string]string{"bad": "line1\nline2"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.NotNil(t, res.Logging)
	assert.Nil(t, res.Properties)
	assert.Equal(t, []File{*res.Logging}, res.Files())
}

func TestWriteFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	g := New(filepath.Join(blocker, "overrides"))
	res, err := g.Generate(Request{ProjectHash: "h", LogLevels: map[string]string{"x": "DEBUG"}})
	require.Error(t, err)
	assert.Nil(t, res.Logging)
	assert.Equal(t, []string{"-Dlogging.level.x=DEBUG"}, res.JVMArgs())
}

func TestMissingHash(t *testing.T) {
	_, err := newTestGenerator(t).Generate(Request{})
	assert.Error(t, err)
}
