// Package config loads declarative search and operator configuration from
// YAML. An operator file names each operator, its capability class, the
// module the exporter imports it from, and the enumerated domain of every
// hyperparameter; the search section tunes the evolutionary loop. Parsed
// configuration is validated structurally before it is handed to the
// registry, so malformed files fail fast with a field-level message.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

// Search tunes one evolution run. Zero values fall back to defaults via
// ApplyDefaults, after which the validate tags must hold.
type Search struct {
	PopulationSize int     `yaml:"population_size" validate:"min=1"`
	OffspringSize  int     `yaml:"offspring_size" validate:"min=1"`
	Generations    int     `yaml:"generations" validate:"min=1"`
	CrossoverRate  float64 `yaml:"crossover_rate" validate:"min=0,max=1"`
	MutationRate   float64 `yaml:"mutation_rate" validate:"min=0,max=1"`
	MinDepth       int     `yaml:"min_depth" validate:"min=1"`
	MaxDepth       int     `yaml:"max_depth" validate:"min=1,gtefield=MinDepth"`

	// MaxRunSeconds bounds wall-clock time; zero disables the budget.
	MaxRunSeconds int `yaml:"max_run_seconds" validate:"min=0"`

	// EvalTimeoutSeconds bounds a single candidate evaluation; zero disables.
	EvalTimeoutSeconds int `yaml:"eval_timeout_seconds" validate:"min=0"`

	Workers int    `yaml:"workers" validate:"min=1"`
	Folds   int    `yaml:"folds" validate:"min=2"`
	Scoring string `yaml:"scoring" validate:"oneof=accuracy neg_mean_squared_error r2"`
	Seed    int64  `yaml:"seed"`
}

// DefaultSearch mirrors the conventional defaults: heavy mutation, light
// crossover, depth 1-3 trees, five-fold cross validation.
func DefaultSearch() Search {
	return Search{
		PopulationSize: 50,
		OffspringSize:  50,
		Generations:    10,
		CrossoverRate:  0.1,
		MutationRate:   0.9,
		MinDepth:       1,
		MaxDepth:       3,
		Workers:        4,
		Folds:          5,
		Scoring:        "accuracy",
		Seed:           42,
	}
}

// ApplyDefaults fills unset fields from DefaultSearch. Rates are only
// defaulted together: a file that sets one of them keeps the other at zero.
func (s *Search) ApplyDefaults() {
	d := DefaultSearch()
	if s.PopulationSize == 0 {
		s.PopulationSize = d.PopulationSize
	}
	if s.OffspringSize == 0 {
		s.OffspringSize = d.OffspringSize
	}
	if s.Generations == 0 {
		s.Generations = d.Generations
	}
	if s.CrossoverRate == 0 && s.MutationRate == 0 {
		s.CrossoverRate = d.CrossoverRate
		s.MutationRate = d.MutationRate
	}
	if s.MinDepth == 0 {
		s.MinDepth = d.MinDepth
	}
	if s.MaxDepth == 0 {
		s.MaxDepth = d.MaxDepth
	}
	if s.Workers == 0 {
		s.Workers = d.Workers
	}
	if s.Folds == 0 {
		s.Folds = d.Folds
	}
	if s.Scoring == "" {
		s.Scoring = d.Scoring
	}
	if s.Seed == 0 {
		s.Seed = d.Seed
	}
}

// Operator is the YAML form of one search-space operator.
type Operator struct {
	Capability string            `yaml:"capability" validate:"required,oneof=classifier regressor preprocessor selector"`
	Import     string            `yaml:"import"`
	Params     map[string]Domain `yaml:"params"`
}

// File is a full configuration document: the operator search space plus an
// optional search section.
type File struct {
	Operators map[string]Operator `yaml:"operators" validate:"required,min=1,dive"`
	Search    Search              `yaml:"search"`
}

var validate = validator.New()

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfig, "failed to parse configuration YAML")
	}
	f.Search.ApplyDefaults()

	if err := validate.Struct(&f); err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfig, validationMessage(err))
	}
	if f.Search.CrossoverRate+f.Search.MutationRate > 1 {
		return nil, errors.New(errors.InvalidConfig, "crossover_rate and mutation_rate must sum to at most 1")
	}
	return &f, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfig, "failed to read configuration file")
	}
	return Parse(data)
}

// OperatorDefs converts the YAML operator section to registry input.
func (f *File) OperatorDefs() (map[string]gp.OperatorDef, error) {
	defs := make(map[string]gp.OperatorDef, len(f.Operators))
	for name, op := range f.Operators {
		capability, err := ParseCapability(op.Capability)
		if err != nil {
			return nil, errors.WithFields(err, errors.Fields{"operator": name})
		}
		def := gp.OperatorDef{Capability: capability, Import: op.Import}
		if len(op.Params) > 0 {
			def.Params = make(map[string][]interface{}, len(op.Params))
			for param, domain := range op.Params {
				if len(domain.Values) == 0 {
					return nil, errors.WithFields(
						errors.New(errors.InvalidConfig, "hyperparameter domain is empty"),
						errors.Fields{"operator": name, "param": param})
				}
				def.Params[param] = domain.Values
			}
		}
		defs[name] = def
	}
	return defs, nil
}

// ParseCapability maps the YAML capability name to its enum value.
func ParseCapability(name string) (gp.Capability, error) {
	switch strings.ToLower(name) {
	case "classifier":
		return gp.CapabilityClassifier, nil
	case "regressor":
		return gp.CapabilityRegressor, nil
	case "preprocessor":
		return gp.CapabilityPreprocessor, nil
	case "selector":
		return gp.CapabilitySelector, nil
	default:
		return 0, errors.WithFields(
			errors.New(errors.InvalidConfig, "unknown operator capability"),
			errors.Fields{"capability": name})
	}
}

func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "configuration failed validation"
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, fmt.Sprintf("%s (%s)", e.Namespace(), e.Tag()))
	}
	return "configuration failed validation: " + strings.Join(fields, ", ")
}
