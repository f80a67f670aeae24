package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the per-project configuration file name
const ProjectFile = ".jjsast.yaml"

const projectFileAlt = ".jjsast.yml"

// ProjectConfig is a .jjsast.yaml file at the root of a Java project
type ProjectConfig struct {
	Version string `yaml:"version"`

	// Source roots relative to the project directory
	Sources []string `yaml:"sources,omitempty"`
	// Gitignore-style patterns excluded from discovery
	Exclude []string `yaml:"exclude,omitempty"`

	ClosedWorld bool `yaml:"closed_world,omitempty"`
	Workers     int  `yaml:"workers,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`
}

// SnapshotConfig says where snapshots of the project are written
type SnapshotConfig struct {
	Path string `yaml:"path,omitempty"`
	// yaml or json; empty picks by extension
	Format string `yaml:"format,omitempty"`
	Name   string `yaml:"name,omitempty"`
}

// DefaultProjectConfig returns the configuration used when no file exists
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Version: "1",
		Sources: []string{"src/main/java"},
		Exclude: []string{"**/test/**", "**/*Test.java"},
		Workers: 4,
		Snapshot: SnapshotConfig{
			Path: "build/jjsast/snapshot.yaml",
		},
		LogLevel: "info",
	}
}

// LoadProjectConfig reads .jjsast.yaml (or .jjsast.yml) from dir, falling
// back to defaults when neither exists. File values override defaults.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	var data []byte
	for _, name := range []string{ProjectFile, projectFileAlt} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data = b
		break
	}

	cfg := DefaultProjectConfig()
	if data == nil {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveProjectConfig writes cfg to dir/.jjsast.yaml
func SaveProjectConfig(dir string, cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ProjectFile), data, 0644)
}

// Merge applies the non-zero fields of other, typically command-line flags
func (c *ProjectConfig) Merge(other *ProjectConfig) {
	if other == nil {
		return
	}

	if len(other.Sources) > 0 {
		c.Sources = other.Sources
	}
	if len(other.Exclude) > 0 {
		c.Exclude = other.Exclude
	}
	if other.ClosedWorld {
		c.ClosedWorld = true
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.Snapshot.Path != "" {
		c.Snapshot.Path = other.Snapshot.Path
	}
	if other.Snapshot.Format != "" {
		c.Snapshot.Format = other.Snapshot.Format
	}
	if other.Snapshot.Name != "" {
		c.Snapshot.Name = other.Snapshot.Name
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// SourceRoots returns the source roots resolved against dir
func (c *ProjectConfig) SourceRoots(dir string) []string {
	if len(c.Sources) == 0 {
		return []string{dir}
	}
	roots := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		if filepath.IsAbs(s) {
			roots[i] = s
		} else {
			roots[i] = filepath.Join(dir, s)
		}
	}
	return roots
}
