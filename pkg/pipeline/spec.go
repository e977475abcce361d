// Package pipeline turns optimized trees into executable pipeline objects.
//
// A compiled Spec is the structural form of a candidate: a linear sequence of
// operator steps ending in one estimator, with nested feature unions where
// the tree contained combine nodes. Concrete estimator behaviour stays behind
// the Estimator/Transformer interfaces; a Factory collaborator materializes
// steps.
package pipeline

import (
	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

// SpecKind discriminates the nodes of a compiled pipeline specification.
type SpecKind int

const (
	// KindStep is a single operator with resolved hyperparameters.
	KindStep SpecKind = iota
	// KindSequence is an ordered chain of stages; the last is the estimator
	// when the sequence is a whole pipeline.
	KindSequence
	// KindUnion concatenates the features of two branches. A nil branch is
	// the raw input passed through unchanged.
	KindUnion
)

// Spec is a compiled pipeline specification.
type Spec struct {
	Kind SpecKind

	// Step holds the operator for KindStep.
	Step *gp.StepSpec

	// Steps holds the ordered stages for KindSequence.
	Steps []*Spec

	// Left and Right are the branches for KindUnion; nil means identity.
	Left, Right *Spec
}

// Flatten returns the ordered stages of a sequence, or the spec itself.
func (s *Spec) Flatten() []*Spec {
	if s.Kind == KindSequence {
		return s.Steps
	}
	return []*Spec{s}
}

// Compile walks the tree bottom-up and produces its spec: terminals resolve
// to values, operators to export steps, combine nodes to unions.
func Compile(ind *gp.Individual) (*Spec, error) {
	spec, end, err := compileSubtree(ind.Nodes, 0)
	if err != nil {
		return nil, err
	}
	if end != len(ind.Nodes) {
		return nil, errors.New(errors.ValidationFailed, "trailing nodes after complete tree")
	}
	if spec == nil {
		return nil, errors.New(errors.ValidationFailed, "tree compiles to an empty pipeline")
	}
	return spec, nil
}

func compileSubtree(nodes []gp.Node, i int) (*Spec, int, error) {
	if i >= len(nodes) {
		return nil, 0, errors.New(errors.ValidationFailed, "truncated tree")
	}

	switch node := nodes[i].(type) {
	case *gp.Terminal:
		// Only the input-data terminal appears in pipeline position; it
		// contributes no step.
		return nil, i + 1, nil

	case *gp.Primitive:
		if node.Capability == gp.CapabilityCombiner {
			left, next, err := compileSubtree(nodes, i+1)
			if err != nil {
				return nil, 0, err
			}
			right, next, err := compileSubtree(nodes, next)
			if err != nil {
				return nil, 0, err
			}
			return &Spec{Kind: KindUnion, Left: left, Right: right}, next, nil
		}

		upstream, next, err := compileSubtree(nodes, i+1)
		if err != nil {
			return nil, 0, err
		}

		args := make([]interface{}, 0, len(node.ParamNames))
		for range node.ParamNames {
			term, ok := nodes[next].(*gp.Terminal)
			if !ok {
				return nil, 0, errors.WithFields(
					errors.New(errors.ValidationFailed, "hyperparameter slot holds a non-terminal node"),
					errors.Fields{"operator": node.Name, "position": next})
			}
			args = append(args, term.Value)
			next++
		}

		step, err := node.Export(args)
		if err != nil {
			return nil, 0, err
		}
		self := &Spec{Kind: KindStep, Step: &step}
		if upstream == nil {
			return self, next, nil
		}
		return &Spec{Kind: KindSequence, Steps: append(upstream.Flatten(), self)}, next, nil
	}

	return nil, 0, errors.New(errors.ValidationFailed, "unknown node kind")
}
