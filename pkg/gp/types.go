package gp

// Type is an opaque tag used for structural compatibility checks between tree
// nodes. Synthetic types are allocated per (operator, hyperparameter) pair at
// registry construction time, so a hyperparameter value can only ever be
// substituted for another value of the same hyperparameter on the same
// operator.
type Type int

const (
	TypeInvalid Type = iota

	// TypePipeline is the universal array-like data type flowing between
	// pipeline stages. Every operator consumes it as its first input.
	TypePipeline

	// TypeOutput is the designated root type. Only estimator-capable
	// operators produce it, so every well-formed tree ends in an estimator.
	TypeOutput

	// typeSyntheticBase is the first tag handed out for hyperparameter types.
	typeSyntheticBase
)

// Capability classifies the role an operator can play in a pipeline.
type Capability int

const (
	CapabilityClassifier Capability = iota
	CapabilityRegressor
	CapabilityPreprocessor
	CapabilitySelector
	CapabilityCombiner
)

func (c Capability) String() string {
	switch c {
	case CapabilityClassifier:
		return "classifier"
	case CapabilityRegressor:
		return "regressor"
	case CapabilityPreprocessor:
		return "preprocessor"
	case CapabilitySelector:
		return "selector"
	case CapabilityCombiner:
		return "combiner"
	default:
		return "unknown"
	}
}

// IsEstimator reports whether operators with this capability may terminate a
// pipeline. Transformers and the combine primitive may not.
func (c Capability) IsEstimator() bool {
	return c == CapabilityClassifier || c == CapabilityRegressor
}
