// Package project locates a Maven project on disk and lists its modules.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DescriptorName is the build descriptor file name.
const DescriptorName = "pom.xml"

// ErrNotMaven is returned when no descriptor is found.
var ErrNotMaven = errors.New("no pom.xml found")

// Project is a Maven project rooted at Root.
type Project struct {
	// Root is the absolute project directory.
	Root string
	// Name is the artifactId, or the directory name when absent.
	Name string
	// Packaging as declared in the root descriptor.
	Packaging string
	// Modules lists module paths relative to Root, depth first, in
	// declaration order. The root itself is not listed.
	Modules []string
}

type pom struct {
	ArtifactID string   `xml:"artifactId"`
	Packaging  string   `xml:"packaging"`
	Modules    []string `xml:"modules>module"`
	Profiles   []struct {
		Modules []string `xml:"modules>module"`
	} `xml:"profiles>profile"`
}

// Hash returns the stable key used for per-project caches and override
// files: the first 16 hex characters of the SHA-256 of the cleaned
// absolute root.
func Hash(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:])[:16]
}

// FindRoot walks up from dir to the outermost directory holding a
// descriptor, so starting inside a module still finds the aggregator.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	found := ""
	for cur := abs; ; cur = filepath.Dir(cur) {
		if _, err := os.Stat(filepath.Join(cur, DescriptorName)); err == nil {
			found = cur
		} else if found != "" {
			break
		}
		if parent := filepath.Dir(cur); parent == cur {
			break
		}
	}
	if found == "" {
		return "", fmt.Errorf("%w in %s or its parents", ErrNotMaven, abs)
	}
	return found, nil
}

// Analyze reads the descriptor at root and lists modules recursively.
// Modules declared only inside profiles are included too, since a user
// may enable that profile.
func Analyze(root string) (Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Project{}, err
	}
	doc, err := readPom(abs)
	if err != nil {
		return Project{}, err
	}

	p := Project{Root: abs, Name: doc.ArtifactID, Packaging: doc.Packaging}
	if p.Name == "" {
		p.Name = filepath.Base(abs)
	}
	if p.Packaging == "" {
		p.Packaging = "jar"
	}

	seen := map[string]bool{}
	var walk func(dir, rel string, doc pom)
	walk = func(dir, rel string, doc pom) {
		for _, m := range declaredModules(doc) {
			modRel := filepath.ToSlash(filepath.Join(rel, m))
			if seen[modRel] {
				continue
			}
			seen[modRel] = true
			p.Modules = append(p.Modules, modRel)

			modDir := filepath.Join(dir, m)
			// A module entry may point straight at a descriptor file.
			if strings.HasSuffix(m, ".xml") {
				continue
			}
			child, err := readPom(modDir)
			if err != nil {
				continue
			}
			walk(modDir, modRel, child)
		}
	}
	walk(abs, "", doc)
	return p, nil
}

// DescriptorPath returns the descriptor path of a module ("." for root).
func DescriptorPath(root, module string) string {
	if module == "" || module == "." {
		return filepath.Join(root, DescriptorName)
	}
	path := filepath.Join(root, filepath.FromSlash(module))
	if strings.HasSuffix(path, ".xml") {
		return path
	}
	return filepath.Join(path, DescriptorName)
}

func declaredModules(doc pom) []string {
	var out []string
	add := func(ms []string) {
		for _, m := range ms {
			if m = strings.TrimSpace(m); m != "" {
				out = append(out, m)
			}
		}
	}
	add(doc.Modules)
	for _, prof := range doc.Profiles {
		add(prof.Modules)
	}
	return out
}

func readPom(dir string) (pom, error) {
	path := filepath.Join(dir, DescriptorName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pom{}, fmt.Errorf("%w in %s", ErrNotMaven, dir)
		}
		return pom{}, err
	}
	var doc pom
	if err := xml.Unmarshal(data, &doc); err != nil {
		return pom{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
