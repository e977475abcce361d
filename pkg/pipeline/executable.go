package pipeline

import (
	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

// Estimator is the contract for a final pipeline stage.
type Estimator interface {
	Fit(features [][]float64, labels []float64) error
	Predict(features [][]float64) ([]float64, error)
}

// Transformer is the contract for an intermediate pipeline stage.
type Transformer interface {
	Fit(features [][]float64, labels []float64) error
	Transform(features [][]float64) ([][]float64, error)
}

// Factory materializes a concrete step from its descriptor. The returned
// value must implement Estimator or Transformer as the step's capability
// demands.
type Factory interface {
	NewStep(step gp.StepSpec) (interface{}, error)
}

// Pipeline is an executable compiled pipeline: zero or more transform stages
// followed by exactly one estimator.
type Pipeline struct {
	stages    []stage
	estimator Estimator
	fitted    bool
}

type stage interface {
	// fitTransform fits the stage on the given data and returns the
	// transformed features.
	fitTransform(features [][]float64, labels []float64) ([][]float64, error)
	transform(features [][]float64) ([][]float64, error)
}

type transformStage struct {
	t Transformer
}

func (s *transformStage) fitTransform(features [][]float64, labels []float64) ([][]float64, error) {
	if err := s.t.Fit(features, labels); err != nil {
		return nil, err
	}
	return s.t.Transform(features)
}

func (s *transformStage) transform(features [][]float64) ([][]float64, error) {
	return s.t.Transform(features)
}

// unionStage runs two stage chains on the same input and concatenates their
// feature columns. An empty chain is the identity pass-through.
type unionStage struct {
	left, right []stage
}

func (s *unionStage) fitTransform(features [][]float64, labels []float64) ([][]float64, error) {
	leftOut, err := runChain(s.left, features, labels, true)
	if err != nil {
		return nil, err
	}
	rightOut, err := runChain(s.right, features, labels, true)
	if err != nil {
		return nil, err
	}
	return hstack(leftOut, rightOut), nil
}

func (s *unionStage) transform(features [][]float64) ([][]float64, error) {
	leftOut, err := runChain(s.left, features, nil, false)
	if err != nil {
		return nil, err
	}
	rightOut, err := runChain(s.right, features, nil, false)
	if err != nil {
		return nil, err
	}
	return hstack(leftOut, rightOut), nil
}

func runChain(stages []stage, features [][]float64, labels []float64, fit bool) ([][]float64, error) {
	out := features
	var err error
	for _, s := range stages {
		if fit {
			out, err = s.fitTransform(out, labels)
		} else {
			out, err = s.transform(out)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Build materializes a compiled spec into an executable pipeline. All stages
// before the last must be transformers or unions; the last must resolve to an
// estimator.
func Build(spec *Spec, factory Factory) (*Pipeline, error) {
	steps := spec.Flatten()
	if len(steps) == 0 {
		return nil, errors.New(errors.ValidationFailed, "pipeline has no steps")
	}

	last := steps[len(steps)-1]
	if last.Kind != KindStep || !last.Step.Capability.IsEstimator() {
		return nil, errors.New(errors.ValidationFailed, "pipeline must end in an estimator")
	}

	stages, err := buildChain(steps[:len(steps)-1], factory)
	if err != nil {
		return nil, err
	}

	built, err := factory.NewStep(*last.Step)
	if err != nil {
		return nil, err
	}
	estimator, ok := built.(Estimator)
	if !ok {
		return nil, errors.WithFields(
			errors.New(errors.ValidationFailed, "factory returned a non-estimator for the final stage"),
			errors.Fields{"operator": last.Step.Operator})
	}

	return &Pipeline{stages: stages, estimator: estimator}, nil
}

func buildChain(specs []*Spec, factory Factory) ([]stage, error) {
	stages := make([]stage, 0, len(specs))
	for _, s := range specs {
		switch s.Kind {
		case KindUnion:
			left, err := buildBranch(s.Left, factory)
			if err != nil {
				return nil, err
			}
			right, err := buildBranch(s.Right, factory)
			if err != nil {
				return nil, err
			}
			stages = append(stages, &unionStage{left: left, right: right})

		case KindStep:
			if s.Step.Capability.IsEstimator() {
				return nil, errors.WithFields(
					errors.New(errors.ValidationFailed, "estimator in intermediate position"),
					errors.Fields{"operator": s.Step.Operator})
			}
			built, err := factory.NewStep(*s.Step)
			if err != nil {
				return nil, err
			}
			transformer, ok := built.(Transformer)
			if !ok {
				return nil, errors.WithFields(
					errors.New(errors.ValidationFailed, "factory returned a non-transformer for an intermediate stage"),
					errors.Fields{"operator": s.Step.Operator})
			}
			stages = append(stages, &transformStage{t: transformer})

		default:
			return nil, errors.New(errors.ValidationFailed, "nested sequence in pipeline chain")
		}
	}
	return stages, nil
}

// buildBranch builds one arm of a union. A nil spec is the identity
// pass-through: the raw input joins the concatenation unchanged.
func buildBranch(spec *Spec, factory Factory) ([]stage, error) {
	if spec == nil {
		return nil, nil
	}
	return buildChain(spec.Flatten(), factory)
}

// Fit fits every stage in order, feeding each stage the transformed output of
// the previous one, then fits the estimator.
func (p *Pipeline) Fit(features [][]float64, labels []float64) error {
	out, err := runChain(p.stages, features, labels, true)
	if err != nil {
		return err
	}
	if err := p.estimator.Fit(out, labels); err != nil {
		return err
	}
	p.fitted = true
	return nil
}

// Predict transforms the features through the fitted stages and delegates to
// the estimator.
func (p *Pipeline) Predict(features [][]float64) ([]float64, error) {
	if !p.fitted {
		return nil, errors.New(errors.InvalidInput, "pipeline has not been fitted")
	}
	out, err := runChain(p.stages, features, nil, false)
	if err != nil {
		return nil, err
	}
	return p.estimator.Predict(out)
}

func hstack(a, b [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for i := range a {
		row := make([]float64, 0, len(a[i])+len(b[i]))
		row = append(row, a[i]...)
		row = append(row, b[i]...)
		out[i] = row
	}
	return out
}
