package gp

import (
	"sort"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

const (
	// CombineName is the two-input primitive concatenating the features of
	// two upstream branches.
	CombineName = "CombineDFs"

	// InputTerminalName is the distinguished input-data terminal consumed as
	// slot-0 input by every first-level operator.
	InputTerminalName = "input_matrix"
)

// OperatorDef describes one operator from configuration: its capability
// class, the module the exporter should import it from, and the enumerated
// domain of every hyperparameter.
type OperatorDef struct {
	Capability Capability
	Import     string
	Params     map[string][]interface{}
}

// Registry holds the typed primitives and terminals built once from a
// declarative operator configuration. Immutable after construction; all
// lookup slices are in deterministic order so seeded searches reproduce
// bit-for-bit.
type Registry struct {
	primitives    map[string]*Primitive
	primsByOutput map[Type][]*Primitive
	termsByType   map[Type][]*Terminal
	typeNames     map[Type]string
	inputTerminal *Terminal
	combine       *Primitive
	names         []string
}

// NewRegistry builds a registry from an operator configuration. Configuration
// errors (empty config, no estimator, empty or malformed domains) fail here,
// before any search starts.
func NewRegistry(defs map[string]OperatorDef) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New(errors.InvalidConfig, "operator configuration is empty")
	}

	r := &Registry{
		primitives:    make(map[string]*Primitive),
		primsByOutput: make(map[Type][]*Primitive),
		termsByType:   make(map[Type][]*Terminal),
		typeNames: map[Type]string{
			TypePipeline: "pipeline_input",
			TypeOutput:   "pipeline_output",
		},
	}

	r.names = make([]string, 0, len(defs))
	for name := range defs {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	next := typeSyntheticBase
	hasEstimator := false

	for _, name := range r.names {
		def := defs[name]
		if def.Capability == CapabilityCombiner {
			return nil, errors.WithFields(
				errors.New(errors.InvalidConfig, "combiner operators are built in and cannot be configured"),
				errors.Fields{"operator": name})
		}

		params := make([]string, 0, len(def.Params))
		for p := range def.Params {
			params = append(params, p)
		}
		sort.Strings(params)

		prim := &Primitive{
			Name:       name,
			Capability: def.Capability,
			InputTypes: []Type{TypePipeline},
			Output:     TypePipeline,
			ParamNames: params,
			Import:     def.Import,
		}
		if def.Capability.IsEstimator() {
			prim.Output = TypeOutput
			prim.Root = true
		}

		for _, param := range params {
			domain := def.Params[param]
			if len(domain) == 0 {
				return nil, errors.WithFields(
					errors.New(errors.InvalidConfig, "hyperparameter domain is empty"),
					errors.Fields{"operator": name, "param": param})
			}

			t := next
			next++
			r.typeNames[t] = name + "__" + param
			prim.InputTypes = append(prim.InputTypes, t)

			for _, value := range domain {
				switch value.(type) {
				case int, float64, bool, string:
				default:
					return nil, errors.WithFields(
						errors.New(errors.InvalidConfig, "unsupported hyperparameter value kind"),
						errors.Fields{"operator": name, "param": param, "value": value})
				}
				r.termsByType[t] = append(r.termsByType[t], &Terminal{
					Primitive: name,
					Param:     param,
					Type:      t,
					Value:     value,
				})
			}
		}

		r.primitives[name] = prim
		r.primsByOutput[prim.Output] = append(r.primsByOutput[prim.Output], prim)
		hasEstimator = hasEstimator || prim.Root
	}

	if !hasEstimator {
		return nil, errors.New(errors.InvalidConfig,
			"operator configuration contains no classifier or regressor; a pipeline must end in an estimator")
	}

	r.inputTerminal = &Terminal{Type: TypePipeline}
	r.termsByType[TypePipeline] = []*Terminal{r.inputTerminal}

	r.combine = &Primitive{
		Name:       CombineName,
		Capability: CapabilityCombiner,
		InputTypes: []Type{TypePipeline, TypePipeline},
		Output:     TypePipeline,
	}
	r.primitives[CombineName] = r.combine
	r.primsByOutput[TypePipeline] = append(r.primsByOutput[TypePipeline], r.combine)

	return r, nil
}

// Primitive looks up an operator by name.
func (r *Registry) Primitive(name string) (*Primitive, bool) {
	p, ok := r.primitives[name]
	return p, ok
}

// PrimitivesFor returns all primitives producing the given type, in a stable
// order. The returned slice must not be modified.
func (r *Registry) PrimitivesFor(t Type) []*Primitive {
	return r.primsByOutput[t]
}

// TerminalsFor returns all terminals of the given type, in a stable order.
// The returned slice must not be modified.
func (r *Registry) TerminalsFor(t Type) []*Terminal {
	return r.termsByType[t]
}

// InputTerminal returns the distinguished input-data terminal.
func (r *Registry) InputTerminal() *Terminal { return r.inputTerminal }

// Combine returns the built-in feature-union primitive.
func (r *Registry) Combine() *Primitive { return r.combine }

// TypeName returns a human-readable name for a type tag.
func (r *Registry) TypeName(t Type) string {
	if name, ok := r.typeNames[t]; ok {
		return name
	}
	return "invalid"
}

// Operators returns the configured operator names in sorted order, excluding
// the built-in combine primitive.
func (r *Registry) Operators() []string {
	return append([]string(nil), r.names...)
}
