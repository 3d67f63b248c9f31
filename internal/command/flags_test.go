package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSet(t *testing.T) {
	fs := NewFlagSet([]FlagSpec{
		{Name: "Skip tests", Tokens: []string{"-DskipTests"}, EnabledByDefault: true},
		{Name: "Offline", Tokens: []string{"--offline"}},
		{Name: "Debug", Tokens: []string{"-X"}},
	})

	assert.True(t, fs.IsEnabled("skip tests"))
	assert.Equal(t, []string{"Skip tests"}, fs.Snapshot())

	on, err := fs.Toggle("Debug")
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, fs.Enable("Skip tests", false))

	var tokens []string
	for _, f := range fs.Enabled() {
		tokens = append(tokens, f.Tokens...)
	}
	assert.Equal(t, []string{"-X"}, tokens)

	_, err = fs.Toggle("missing")
	assert.Error(t, err)

	fs.Restore([]string{"Offline", "Debug", "ghost"})
	assert.Equal(t, []string{"Offline", "Debug"}, fs.Snapshot())

	fs.Reset()
	assert.Equal(t, []string{"Skip tests"}, fs.Snapshot())
}
