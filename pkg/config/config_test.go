package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

const sampleYAML = `
operators:
  GaussianNB:
    capability: classifier
    import: sklearn.naive_bayes
  SelectPercentile:
    capability: selector
    import: sklearn.feature_selection
    params:
      percentile: {min: 10, max: 90, step: 10}
  Binarizer:
    capability: preprocessor
    import: sklearn.preprocessing
    params:
      threshold: {low: 0.0, high: 0.3, step: 0.1}
      copy: true
  Normalizer:
    capability: preprocessor
    import: sklearn.preprocessing
    params:
      norm: [l1, l2, max]
search:
  generations: 5
  population_size: 20
  seed: 7
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	t.Run("Search merges defaults", func(t *testing.T) {
		assert.Equal(t, 5, f.Search.Generations)
		assert.Equal(t, 20, f.Search.PopulationSize)
		assert.Equal(t, int64(7), f.Search.Seed)
		assert.Equal(t, 50, f.Search.OffspringSize, "unset fields come from defaults")
		assert.Equal(t, 0.9, f.Search.MutationRate)
		assert.Equal(t, "accuracy", f.Search.Scoring)
	})

	t.Run("Operator defs convert for the registry", func(t *testing.T) {
		defs, err := f.OperatorDefs()
		require.NoError(t, err)
		require.Len(t, defs, 4)

		assert.Equal(t, gp.CapabilityClassifier, defs["GaussianNB"].Capability)
		assert.Equal(t, "sklearn.naive_bayes", defs["GaussianNB"].Import)
		assert.Empty(t, defs["GaussianNB"].Params)

		assert.Equal(t,
			[]interface{}{10, 20, 30, 40, 50, 60, 70, 80, 90},
			defs["SelectPercentile"].Params["percentile"])

		thresholds := defs["Binarizer"].Params["threshold"]
		require.Len(t, thresholds, 3)
		assert.InDelta(t, 0.0, thresholds[0].(float64), 1e-12)
		assert.InDelta(t, 0.1, thresholds[1].(float64), 1e-12)
		assert.InDelta(t, 0.2, thresholds[2].(float64), 1e-12)

		assert.Equal(t, []interface{}{true}, defs["Binarizer"].Params["copy"],
			"a bare scalar is a singleton domain")
		assert.Equal(t, []interface{}{"l1", "l2", "max"}, defs["Normalizer"].Params["norm"])
	})

	t.Run("Defs build a working registry", func(t *testing.T) {
		defs, err := f.OperatorDefs()
		require.NoError(t, err)
		reg, err := gp.NewRegistry(defs)
		require.NoError(t, err)
		assert.Len(t, reg.Operators(), 4)
	})
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"empty document":         ``,
		"no operators":           `search: {generations: 3}`,
		"unknown capability":     "operators:\n  X:\n    capability: clusterer",
		"missing capability":     "operators:\n  X:\n    import: sklearn.tree",
		"bad scoring":            sampleYAML + "\n", // placeholder, replaced below
		"rates above one":        "operators:\n  X:\n    capability: classifier\nsearch:\n  crossover_rate: 0.6\n  mutation_rate: 0.6",
		"negative step":          "operators:\n  X:\n    capability: classifier\n    params:\n      p: {min: 1, max: 5, step: -1}",
		"float range no step":    "operators:\n  X:\n    capability: classifier\n    params:\n      p: {low: 0.1, high: 0.5}",
		"inverted float range":   "operators:\n  X:\n    capability: classifier\n    params:\n      p: {low: 0.5, high: 0.1, step: 0.1}",
		"mixed range keys":       "operators:\n  X:\n    capability: classifier\n    params:\n      p: {low: 0.1, high: 0.5, min: 1, max: 2, step: 0.1}",
		"range missing both":     "operators:\n  X:\n    capability: classifier\n    params:\n      p: {step: 0.1}",
		"null domain value":      "operators:\n  X:\n    capability: classifier\n    params:\n      p: [1, null]",
		"fractional int step":    "operators:\n  X:\n    capability: classifier\n    params:\n      p: {min: 1, max: 5, step: 0.5}",
		"not yaml":               `{{{`,
	}
	cases["bad scoring"] = "operators:\n  X:\n    capability: classifier\nsearch:\n  scoring: f1"

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, errors.InvalidConfig, e.Code())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operators.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Operators, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuiltinSpaces(t *testing.T) {
	t.Run("Classifier light builds", func(t *testing.T) {
		reg, err := gp.NewRegistry(ClassifierConfigLight())
		require.NoError(t, err)
		names := reg.Operators()
		assert.Contains(t, names, "GaussianNB")
		assert.Contains(t, names, "StandardScaler")
		assert.Contains(t, names, "SelectPercentile")
	})

	t.Run("Regressor light builds", func(t *testing.T) {
		reg, err := gp.NewRegistry(RegressorConfigLight())
		require.NoError(t, err)
		assert.Contains(t, reg.Operators(), "RidgeCV")
	})

	t.Run("Float range is half open", func(t *testing.T) {
		values := expandFloatRange(0.0, 1.01, 0.05)
		require.Len(t, values, 21)
		assert.InDelta(t, 1.0, values[20].(float64), 1e-9)
	})
}
