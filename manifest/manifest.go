// Package manifest handles boruna.toml project configuration: project
// identity, the compiled entry module, an inline capability policy, and
// vendored module dependencies.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/boruna/pkg/capgw"
)

// Manifest represents a boruna.toml project configuration.
type Manifest struct {
	Project      Project               `toml:"project"`
	Source       Source                `toml:"source"`
	Policy       PolicyConfig          `toml:"policy"`
	Dependencies map[string]Dependency `toml:"dependencies"`
	Image        ImageConfig           `toml:"image"`

	// Dir is the directory containing the boruna.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Version   string `toml:"version"`
}

// Source configures the compiled entry module's location.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// PolicyConfig is boruna.toml's inline [policy] section: a TOML-friendly
// mirror of pkg/capgw.Policy (which is keyed/shaped for JSON), converted
// by CapabilityPolicy after load.
type PolicyConfig struct {
	DefaultAllow bool                   `toml:"default_allow"`
	Rules        map[string]RuleConfig  `toml:"rules"`
}

// RuleConfig is one [policy.rules.<capability>] entry.
type RuleConfig struct {
	Allow  bool   `toml:"allow"`
	Budget uint64 `toml:"budget"`
}

// Dependency represents a single project dependency.
type Dependency struct {
	Git       string `toml:"git"`
	Tag       string `toml:"tag"`
	Path      string `toml:"path"`
	Namespace string `toml:"namespace"`
}

// ImageConfig configures evidence/disassembly output.
type ImageConfig struct {
	Output        string `toml:"output"`
	IncludeSource bool   `toml:"include-source"`
}

// Load parses a boruna.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "boruna.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a boruna.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "boruna.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// CapabilityPolicy converts the manifest's [policy] section into a
// capgw.Policy, validating it against both the capability-name check
// (Policy.Validate) and the CUE schema (capgw.ValidateSchema) before
// handing it to a gateway — a malformed budget or typo'd capability name
// in boruna.toml is rejected at load time, not at first capability call.
func (m *Manifest) CapabilityPolicy() (capgw.Policy, error) {
	policy := capgw.Policy{
		Rules:        make(map[string]capgw.PolicyRule, len(m.Policy.Rules)),
		DefaultAllow: m.Policy.DefaultAllow,
		SchemaVersion: 1,
	}
	for name, rule := range m.Policy.Rules {
		policy.Rules[name] = capgw.PolicyRule{Allow: rule.Allow, Budget: rule.Budget}
	}

	if err := policy.Validate(); err != nil {
		return capgw.Policy{}, fmt.Errorf("manifest: %w", err)
	}
	if err := capgw.ValidateSchema(policy); err != nil {
		return capgw.Policy{}, fmt.Errorf("manifest: %w", err)
	}
	return policy, nil
}
