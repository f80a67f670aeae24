package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a snapshot file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json"; empty means YAML
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown snapshot format %q", s)
}

// FormatFor picks the format from a file extension, defaulting to YAML
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Marshal renders s in format f
func Marshal(s *Snapshot, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return EncodeJSON(s)
	case FormatYAML, "":
		return yaml.Marshal(s)
	}
	return nil, fmt.Errorf("unknown snapshot format %q", f)
}

// Unmarshal parses a snapshot in format f
func Unmarshal(data []byte, f Format) (*Snapshot, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatYAML, "":
		var s Snapshot
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
		return &s, nil
	}
	return nil, fmt.Errorf("unknown snapshot format %q", f)
}

// EncodeJSON renders s as compact JSON, the form stored in the database
func EncodeJSON(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeJSON parses the JSON form of a snapshot
func DecodeJSON(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &s, nil
}

// WriteFile writes s to path. An empty format is chosen from the extension.
func WriteFile(path string, s *Snapshot, f Format) error {
	if f == "" {
		f = FormatFor(path)
	}
	data, err := Marshal(s, f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a snapshot from path. An empty format is chosen from the extension.
func ReadFile(path string, f Format) (*Snapshot, error) {
	if f == "" {
		f = FormatFor(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, f)
}
