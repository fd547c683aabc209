package adaptive

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hugr-lab/adaptive-filter/widget"
)

// overrideSpec is the mapping form of an override entry.
type overrideSpec struct {
	Kind   string         `yaml:"kind"`
	Label  string         `yaml:"label"`
	Params map[string]any `yaml:"params"`
}

// LoadOverrides reads overrides from a YAML document mapping column names
// to directives. Kind names are looked up in reg (widget.NewRegistry() if nil).
//
//	total_bill: disable
//	sex: default
//	day: "Day of Week"
//	size: {kind: checkbox, label: Party Size}
//	tip: {kind: slider, params: {step: 0.5}}
func LoadOverrides(r io.Reader, reg *widget.Registry) (Overrides, error) {
	if reg == nil {
		reg = widget.NewRegistry()
	}

	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("%w: parse overrides: %v", ErrInvalidConfig, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return Overrides{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: overrides must be a mapping of column names (line %d)", ErrInvalidConfig, root.Line)
	}

	b := NewOverrides()
	for i := 0; i+1 < len(root.Content); i += 2 {
		column, value := root.Content[i].Value, root.Content[i+1]
		if err := addOverride(b, reg, column, value); err != nil {
			return nil, fmt.Errorf("%w: column %s (line %d): %v", ErrInvalidConfig, column, value.Line, err)
		}
	}
	return b.Build()
}

func addOverride(b *OverridesBuilder, reg *widget.Registry, column string, value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return errors.New("empty override")
		}
		switch value.Value {
		case "disable":
			b.Disable(column)
		case "default":
			b.Default(column)
		default:
			b.Relabel(column, value.Value)
		}
		return nil

	case yaml.MappingNode:
		var spec overrideSpec
		if err := value.Decode(&spec); err != nil {
			return err
		}
		if spec.Kind == "" && spec.Label == "" {
			return errors.New("override needs a kind or a label")
		}
		if spec.Kind != "" {
			kind, err := reg.Lookup(spec.Kind, spec.Params)
			if err != nil {
				return err
			}
			b.Replace(column, kind)
		}
		if spec.Label != "" {
			b.Relabel(column, spec.Label)
		}
		return nil
	}
	return fmt.Errorf("unsupported override of YAML kind %d", value.Kind)
}
