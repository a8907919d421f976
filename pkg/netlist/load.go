package netlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatSpice
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatSpice:
		return "spice"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the input format from a file extension. Unknown
// extensions are read as SPICE text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatSpice
	}
}

func Load(path string) (*Netlist, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading circuit file: %w", err)
	}

	nl, err := Parse(content, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if nl.Title == "" {
		nl.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return nl, nil
}

func Parse(data []byte, format Format) (*Netlist, error) {
	nl := &Netlist{}

	switch format {
	case FormatJSON:
		// Editor project files carry layout fields (label, x, y, rotation)
		// the engine has no use for; unknown fields are ignored.
		if err := json.Unmarshal(data, nl); err != nil {
			return nil, fmt.Errorf("invalid json circuit: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, nl); err != nil {
			return nil, fmt.Errorf("invalid yaml circuit: %w", err)
		}
	case FormatSpice:
		return ParseSpice(string(data))
	default:
		return nil, fmt.Errorf("unsupported circuit format: %v", format)
	}

	return nl, nil
}
