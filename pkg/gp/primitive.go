package gp

import (
	"fmt"
	"strings"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

// Node is one element of a prefix-encoded pipeline tree: either a *Primitive
// or a *Terminal.
type Node interface {
	// OutputType is the type this node produces for its parent slot.
	OutputType() Type
	// NodeArity is the number of typed child slots (0 for terminals).
	NodeArity() int
	// Label is the canonical rendering of the node itself.
	Label() string
}

// Primitive identifies one operator usable as an internal or root tree node.
// Immutable once constructed by the registry.
type Primitive struct {
	Name       string
	Capability Capability

	// InputTypes maps child slot to required output type. Slot 0 is always
	// TypePipeline, the upstream data; the remaining slots are the synthetic
	// per-hyperparameter types in lexicographic parameter order.
	InputTypes []Type
	Output     Type

	// Root marks operators valid as the final pipeline stage. A pipeline
	// must end in an estimator, not a transformer.
	Root bool

	// ParamNames is aligned with InputTypes[1:].
	ParamNames []string

	// Import is the module path the exporter emits for this operator.
	Import string
}

func (p *Primitive) OutputType() Type { return p.Output }
func (p *Primitive) NodeArity() int   { return len(p.InputTypes) }
func (p *Primitive) Label() string    { return p.Name }

// StepSpec is the constructible form of one pipeline operator with resolved
// hyperparameter values, produced by a primitive's export rule.
type StepSpec struct {
	Operator   string
	Import     string
	Capability Capability
	ParamNames []string
	Params     map[string]interface{}
}

// Export resolves hyperparameter values into a pipeline-step descriptor.
// args must carry one value per declared parameter, in ParamNames order.
func (p *Primitive) Export(args []interface{}) (StepSpec, error) {
	if len(args) != len(p.ParamNames) {
		return StepSpec{}, errors.WithFields(
			errors.New(errors.InvalidInput, "wrong number of hyperparameter values"),
			errors.Fields{"operator": p.Name, "want": len(p.ParamNames), "got": len(args)})
	}
	params := make(map[string]interface{}, len(args))
	for i, name := range p.ParamNames {
		params[name] = args[i]
	}
	return StepSpec{
		Operator:   p.Name,
		Import:     p.Import,
		Capability: p.Capability,
		ParamNames: append([]string(nil), p.ParamNames...),
		Params:     params,
	}, nil
}

// Terminal identifies one concrete hyperparameter value, or the distinguished
// input-data placeholder when Primitive is empty.
type Terminal struct {
	Primitive string
	Param     string
	Type      Type
	Value     interface{}
}

func (t *Terminal) OutputType() Type { return t.Type }
func (t *Terminal) NodeArity() int   { return 0 }

func (t *Terminal) Label() string {
	if t.Primitive == "" {
		return InputTerminalName
	}
	return fmt.Sprintf("%s__%s=%s", t.Primitive, t.Param, FormatValue(t.Value))
}

// FormatValue renders a hyperparameter value deterministically for canonical
// strings and exported code.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return "'" + val + "'"
	case float64:
		s := fmt.Sprintf("%g", val)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case int:
		return fmt.Sprintf("%d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
