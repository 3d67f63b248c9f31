package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# database
DB_URL=jdbc:postgresql://localhost/app
export SPRING_PROFILES_ACTIVE=dev
GREETING="hello world"
QUOTED='single'
EMPTY=
not a pair
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	vars, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"DB_URL":                 "jdbc:postgresql://localhost/app",
		"SPRING_PROFILES_ACTIVE": "dev",
		"GREETING":               "hello world",
		"QUOTED":                 "single",
		"EMPTY":                  "",
	}, vars)

	missing, err := Read(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLoadLocalOverrides(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("A=1\nB=2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.local"), []byte("B=local\n"), 0o644))

	vars, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"A=1", "B=local"}, Environ(vars))
}

func TestWriteMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEEP=yes\n"), 0o644))

	require.NoError(t, Write(path, map[string]string{"MSG": `say "hi" now`}))
	vars, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "yes", vars["KEEP"])
	assert.Equal(t, `say "hi" now`, vars["MSG"])
}
