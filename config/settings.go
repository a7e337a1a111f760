package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Setting is a single named parameter assignment from a configuration file.
type Setting struct {
	Name  string
	Value any
}

// Settings is an ordered list of parameter assignments.
//
// It decodes from a YAML mapping while preserving document order, so a
// configuration author controls the order parameters reach the hardware:
//
//	settings:
//	  f_min: 1.0e9
//	  f_max: 9.0e9
//	  sweep_points: 401
type Settings []Setting

// UnmarshalYAML decodes a mapping node into ordered Setting pairs.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("settings must be a mapping, got %s at line %d", nodeKind(node.Kind), node.Line)
	}

	out := make(Settings, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("decoding setting %q: %w", key.Value, err)
		}
		out = append(out, Setting{Name: key.Value, Value: value})
	}

	*s = out
	return nil
}

// Names returns the setting names in document order.
func (s Settings) Names() []string {
	names := make([]string, len(s))
	for i, entry := range s {
		names[i] = entry.Name
	}
	return names
}

func nodeKind(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
