package config

import (
	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

// Domain is the enumerated value set of one hyperparameter. Three YAML forms
// are accepted:
//
//	explicit list:  [0.05, 0.1, 0.2]  (also a bare scalar for a singleton)
//	float range:    {low: 0.05, high: 1.01, step: 0.05}   half-open [low, high)
//	integer range:  {min: 1, max: 100, step: 2}           inclusive [min, max]
//
// Ranges expand eagerly at parse time; the search only ever sees finite
// enumerations.
type Domain struct {
	Values []interface{}
}

func (d *Domain) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		value, err := scalarValue(node)
		if err != nil {
			return err
		}
		d.Values = []interface{}{value}
		return nil

	case yaml.SequenceNode:
		d.Values = make([]interface{}, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := scalarValue(item)
			if err != nil {
				return err
			}
			d.Values = append(d.Values, value)
		}
		return nil

	case yaml.MappingNode:
		return d.unmarshalRange(node)

	default:
		return errors.New(errors.InvalidConfig, "hyperparameter domain must be a list, a range mapping, or a scalar")
	}
}

func (d *Domain) unmarshalRange(node *yaml.Node) error {
	var spec struct {
		Low  *float64 `yaml:"low"`
		High *float64 `yaml:"high"`
		Min  *int     `yaml:"min"`
		Max  *int     `yaml:"max"`
		Step *float64 `yaml:"step"`
	}
	if err := node.Decode(&spec); err != nil {
		return errors.Wrap(err, errors.InvalidConfig, "malformed hyperparameter range")
	}

	switch {
	case spec.Low != nil && spec.High != nil:
		if spec.Min != nil || spec.Max != nil {
			return errors.New(errors.InvalidConfig, "hyperparameter range mixes low/high with min/max")
		}
		if spec.Step == nil || *spec.Step <= 0 {
			return errors.New(errors.InvalidConfig, "float range requires a positive step")
		}
		if *spec.Low >= *spec.High {
			return errors.New(errors.InvalidConfig, "float range requires low < high")
		}
		d.Values = expandFloatRange(*spec.Low, *spec.High, *spec.Step)
		return nil

	case spec.Min != nil && spec.Max != nil:
		if spec.Low != nil || spec.High != nil {
			return errors.New(errors.InvalidConfig, "hyperparameter range mixes low/high with min/max")
		}
		step := 1
		if spec.Step != nil {
			step = int(*spec.Step)
			if float64(step) != *spec.Step || step <= 0 {
				return errors.New(errors.InvalidConfig, "integer range requires a positive integer step")
			}
		}
		if *spec.Min > *spec.Max {
			return errors.New(errors.InvalidConfig, "integer range requires min <= max")
		}
		d.Values = expandIntRange(*spec.Min, *spec.Max, step)
		return nil

	default:
		return errors.New(errors.InvalidConfig, "hyperparameter range requires low/high or min/max")
	}
}

// expandFloatRange enumerates [low, high) stepping by step. The epsilon keeps
// accumulated floating point drift from admitting a value at or past high.
func expandFloatRange(low, high, step float64) []interface{} {
	values := make([]interface{}, 0, int((high-low)/step)+1)
	eps := step * 1e-9
	for i := 0; ; i++ {
		v := low + float64(i)*step
		if v >= high-eps {
			break
		}
		values = append(values, v)
	}
	return values
}

func expandIntRange(min, max, step int) []interface{} {
	values := make([]interface{}, 0, (max-min)/step+1)
	for v := min; v <= max; v += step {
		values = append(values, v)
	}
	return values
}

// scalarValue decodes one YAML scalar into the value kinds the registry
// accepts: bool, int, float64 or string.
func scalarValue(node *yaml.Node) (interface{}, error) {
	var value interface{}
	if err := node.Decode(&value); err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfig, "malformed hyperparameter value")
	}
	switch value.(type) {
	case bool, int, float64, string:
		return value, nil
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfig, "hyperparameter values must be booleans, numbers or strings"),
			errors.Fields{"value": value})
	}
}
