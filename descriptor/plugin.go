package descriptor

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

/*
Plugin selects a plugin factory by Module and carries its arguments. Kwargs
stays a YAML node so each plugin decodes it into its own types.
*/
type Plugin struct {
	Module string    `yaml:"module"`
	Args   []any     `yaml:"args"`
	Kwargs yaml.Node `yaml:"kwargs"`
}

// DecodeKwargs decodes the plugin's kwargs into v. Missing kwargs leave v untouched.
func (p *Plugin) DecodeKwargs(v any) error {
	if p.Kwargs.Kind == 0 {
		return nil
	}
	if p.Kwargs.Kind == yaml.ScalarNode && p.Kwargs.ShortTag() == "!!null" {
		return nil
	}
	return p.Kwargs.Decode(v)
}

// NamedPlugin is one entry of plugins_config.
type NamedPlugin struct {
	Name string
	Plugin
}

// PluginSet is plugins_config in document order.
type PluginSet []NamedPlugin

func (ps *PluginSet) UnmarshalYAML(node *yaml.Node) error {
	*ps = nil

	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: plugins_config must be a mapping", ErrInvalidDescriptor, node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		p := Plugin{}
		if err := val.Decode(&p); err != nil {
			return fmt.Errorf("plugins_config.%s: %w", key.Value, err)
		}
		if p.Module == "" {
			return fmt.Errorf("%w: plugins_config.%s: module is empty", ErrInvalidDescriptor, key.Value)
		}
		*ps = append(*ps, NamedPlugin{Name: key.Value, Plugin: p})
	}
	return nil
}
