// Package envfile reads the project's dotenv files so launched
// applications see the same environment the project documents.
package envfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Names are loaded in order; later files override earlier ones.
var Names = []string{".env", ".env.local"}

// Read parses KEY=value lines. A missing file yields an empty map.
func Read(path string) (map[string]string, error) {
	vars := make(map[string]string)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return vars, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = unquote(strings.TrimSpace(value))
	}
	return vars, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			inner := v[1 : len(v)-1]
			if v[0] == '"' {
				inner = strings.ReplaceAll(inner, `\"`, `"`)
			}
			return inner
		}
	}
	return v
}

// Load merges the dotenv files found in root.
func Load(root string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, name := range Names {
		vars, err := Read(filepath.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range vars {
			merged[k] = v
		}
	}
	return merged, nil
}

// Environ renders vars as sorted KEY=value entries for exec.Cmd.Env.
func Environ(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+vars[k])
	}
	return out
}

// Write merges values into the file at path, keeping existing entries.
func Write(path string, values map[string]string) error {
	existing, err := Read(path)
	if err != nil {
		return err
	}
	for k, v := range values {
		existing[k] = v
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintln(file, "# Environment for applications launched by lazymvn")
	for _, entry := range Environ(existing) {
		k, v, _ := strings.Cut(entry, "=")
		if strings.ContainsAny(v, " \t\"'#") {
			v = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
		}
		if _, err := fmt.Fprintf(file, "%s=%s\n", k, v); err != nil {
			return err
		}
	}
	return nil
}
