package launch

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

const (
	// PackagingJar is assumed when a descriptor declares none.
	PackagingJar = "jar"
	// PackagingWar marks a web archive whose container-provided
	// dependencies are missing from the default runtime classpath.
	PackagingWar = "war"

	runPluginArtifact  = "spring-boot-maven-plugin"
	runPluginGroup     = "org.springframework.boot"
	execPluginArtifact = "exec-maven-plugin"
)

// Capabilities is what the merged descriptor says about launching a
// module.
type Capabilities struct {
	Packaging           string `yaml:"packaging"`
	HasRunPlugin        bool   `yaml:"has_run_plugin"`
	RunPluginVersion    string `yaml:"run_plugin_version,omitempty"`
	HasExecPlugin       bool   `yaml:"has_exec_plugin"`
	ConfiguredMainClass string `yaml:"configured_main_class,omitempty"`
	// Known is false when the descriptor query failed and the other fields
	// hold defaults.
	Known bool `yaml:"known"`
}

// UnknownCapabilities is used when the descriptor cannot be queried.
func UnknownCapabilities() Capabilities {
	return Capabilities{Packaging: PackagingJar}
}

// ErrNoDescriptor is returned when query output holds no <project>.
var ErrNoDescriptor = errors.New("no project descriptor in output")

type pluginConfig struct {
	MainClass string `xml:"mainClass"`
}

type pluginXML struct {
	GroupID       string       `xml:"groupId"`
	ArtifactID    string       `xml:"artifactId"`
	Version       string       `xml:"version"`
	Configuration pluginConfig `xml:"configuration"`
	Executions    []struct {
		Configuration pluginConfig `xml:"configuration"`
	} `xml:"executions>execution"`
}

func (p pluginXML) mainClass() string {
	if mc := strings.TrimSpace(p.Configuration.MainClass); mc != "" {
		return mc
	}
	for _, e := range p.Executions {
		if mc := strings.TrimSpace(e.Configuration.MainClass); mc != "" {
			return mc
		}
	}
	return ""
}

type property struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type effectivePom struct {
	Packaging  string `xml:"packaging"`
	Properties struct {
		Entries []property `xml:",any"`
	} `xml:"properties"`
	Plugins []pluginXML `xml:"build>plugins>plugin"`
}

// ExtractProject cuts the first <project>...</project> element out of
// help:effective-pom output, skipping log lines around it.
func ExtractProject(out []byte) ([]byte, error) {
	start := -1
	for off := 0; off < len(out); {
		i := bytes.Index(out[off:], []byte("<project"))
		if i < 0 {
			break
		}
		at := off + i
		next := at + len("<project")
		// Skip the <projects> wrapper of multi-module output.
		if next < len(out) && (out[next] == ' ' || out[next] == '>' || out[next] == '\n' || out[next] == '\t' || out[next] == '\r') {
			start = at
			break
		}
		off = next
	}
	if start < 0 {
		return nil, ErrNoDescriptor
	}
	rest := out[start:]
	end := bytes.Index(rest, []byte("</project>"))
	if end < 0 {
		return nil, ErrNoDescriptor
	}
	return rest[:end+len("</project>")], nil
}

// ParseCapabilities reads the fields the launch decision needs from a
// merged descriptor. Only targeted fields are extracted.
func ParseCapabilities(descriptor []byte) (Capabilities, error) {
	var doc effectivePom
	if err := xml.Unmarshal(descriptor, &doc); err != nil {
		return UnknownCapabilities(), err
	}

	caps := Capabilities{
		Packaging: strings.TrimSpace(doc.Packaging),
		Known:     true,
	}
	if caps.Packaging == "" {
		caps.Packaging = PackagingJar
	}

	var runMain, execMain string
	for _, p := range doc.Plugins {
		switch strings.TrimSpace(p.ArtifactID) {
		case runPluginArtifact:
			if g := strings.TrimSpace(p.GroupID); g != "" && g != runPluginGroup {
				continue
			}
			caps.HasRunPlugin = true
			caps.RunPluginVersion = strings.TrimSpace(p.Version)
			runMain = p.mainClass()
		case execPluginArtifact:
			caps.HasExecPlugin = true
			execMain = p.mainClass()
		}
	}

	props := make(map[string]string, len(doc.Properties.Entries))
	for _, p := range doc.Properties.Entries {
		props[p.XMLName.Local] = strings.TrimSpace(p.Value)
	}

	for _, mc := range []string{execMain, runMain, props["exec.mainClass"], props["start-class"]} {
		if mc != "" && !strings.Contains(mc, "${") {
			caps.ConfiguredMainClass = mc
			break
		}
	}
	return caps, nil
}
