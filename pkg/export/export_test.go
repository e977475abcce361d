package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evopipe/pkg/gp"
	"github.com/XiaoConstantine/evopipe/pkg/pipeline"
)

func exportRegistry(t *testing.T) *gp.Registry {
	t.Helper()
	reg, err := gp.NewRegistry(map[string]gp.OperatorDef{
		"GaussianNB": {Capability: gp.CapabilityClassifier, Import: "sklearn.naive_bayes"},
		"LogisticRegression": {
			Capability: gp.CapabilityClassifier,
			Import:     "sklearn.linear_model",
			Params: map[string][]interface{}{
				"C":       {0.5, 1.0},
				"dual":    {true, false},
				"penalty": {"l1", "l2"},
			},
		},
		"StandardScaler": {Capability: gp.CapabilityPreprocessor, Import: "sklearn.preprocessing"},
		"SelectPercentile": {
			Capability: gp.CapabilitySelector,
			Import:     "sklearn.feature_selection",
			Params:     map[string][]interface{}{"percentile": {10, 20}},
		},
	})
	require.NoError(t, err)
	return reg
}

func prim(t *testing.T, reg *gp.Registry, name string) *gp.Primitive {
	t.Helper()
	p, ok := reg.Primitive(name)
	require.True(t, ok, "missing operator %s", name)
	return p
}

// singleTree: GaussianNB(input_matrix)
func singleTree(t *testing.T, reg *gp.Registry) *gp.Individual {
	return gp.NewIndividual([]gp.Node{prim(t, reg, "GaussianNB"), reg.InputTerminal()})
}

// chainTree: LogisticRegression(SelectPercentile(input_matrix, percentile=20), C=0.5, dual=True, penalty='l1')
func chainTree(t *testing.T, reg *gp.Registry) *gp.Individual {
	return gp.NewIndividual([]gp.Node{
		prim(t, reg, "LogisticRegression"),
		prim(t, reg, "SelectPercentile"),
		reg.InputTerminal(),
		&gp.Terminal{Primitive: "SelectPercentile", Param: "percentile", Value: 20},
		&gp.Terminal{Primitive: "LogisticRegression", Param: "C", Value: 0.5},
		&gp.Terminal{Primitive: "LogisticRegression", Param: "dual", Value: true},
		&gp.Terminal{Primitive: "LogisticRegression", Param: "penalty", Value: "l1"},
	})
}

// unionTree: GaussianNB(CombineDFs(StandardScaler(input_matrix), input_matrix))
func unionTree(t *testing.T, reg *gp.Registry) *gp.Individual {
	return gp.NewIndividual([]gp.Node{
		prim(t, reg, "GaussianNB"),
		reg.Combine(),
		prim(t, reg, "StandardScaler"),
		reg.InputTerminal(),
		reg.InputTerminal(),
	})
}

func compile(t *testing.T, ind *gp.Individual) *pipeline.Spec {
	t.Helper()
	spec, err := pipeline.Compile(ind)
	require.NoError(t, err)
	return spec
}

func TestExpression(t *testing.T) {
	reg := exportRegistry(t)

	t.Run("Single estimator", func(t *testing.T) {
		assert.Equal(t, "GaussianNB()", Expression(compile(t, singleTree(t, reg))))
	})

	t.Run("Linear chain", func(t *testing.T) {
		want := strings.Join([]string{
			"make_pipeline(",
			"    SelectPercentile(percentile=20),",
			"    LogisticRegression(C=0.5, dual=True, penalty='l1')",
			")",
		}, "\n")
		assert.Equal(t, want, Expression(compile(t, chainTree(t, reg))))
	})

	t.Run("Union wraps the raw branch in a pass-through", func(t *testing.T) {
		want := strings.Join([]string{
			"make_pipeline(",
			"    make_union(",
			"        StandardScaler(),",
			"        FunctionTransformer(copy)",
			"    ),",
			"    GaussianNB()",
			")",
		}, "\n")
		assert.Equal(t, want, Expression(compile(t, unionTree(t, reg))))
	})
}

func TestImports(t *testing.T) {
	reg := exportRegistry(t)

	t.Run("Single estimator needs no constructors", func(t *testing.T) {
		lines := Imports(compile(t, singleTree(t, reg)))
		joined := strings.Join(lines, "\n")
		assert.Contains(t, joined, "from sklearn.naive_bayes import GaussianNB")
		assert.NotContains(t, joined, "make_pipeline")
		assert.NotContains(t, joined, "FunctionTransformer")
	})

	t.Run("Chain pulls make_pipeline and both modules", func(t *testing.T) {
		joined := strings.Join(Imports(compile(t, chainTree(t, reg))), "\n")
		assert.Contains(t, joined, "from sklearn.pipeline import make_pipeline")
		assert.Contains(t, joined, "from sklearn.feature_selection import SelectPercentile")
		assert.Contains(t, joined, "from sklearn.linear_model import LogisticRegression")
		assert.NotContains(t, joined, "make_union")
	})

	t.Run("Union pulls the pass-through machinery", func(t *testing.T) {
		joined := strings.Join(Imports(compile(t, unionTree(t, reg))), "\n")
		assert.Contains(t, joined, "from sklearn.pipeline import make_pipeline, make_union")
		assert.Contains(t, joined, "from sklearn.preprocessing import FunctionTransformer")
		assert.Contains(t, joined, "from copy import copy")
	})

	t.Run("Module lines are grouped and sorted", func(t *testing.T) {
		lines := Imports(compile(t, chainTree(t, reg)))
		var modules []string
		for _, line := range lines {
			if strings.HasPrefix(line, "from sklearn.feature_selection") ||
				strings.HasPrefix(line, "from sklearn.linear_model") {
				modules = append(modules, line)
			}
		}
		require.Len(t, modules, 2)
		assert.True(t, modules[0] < modules[1])
	})
}

func TestScript(t *testing.T) {
	reg := exportRegistry(t)
	script, err := Script(chainTree(t, reg))
	require.NoError(t, err)

	assert.Contains(t, script, "import numpy as np")
	assert.Contains(t, script, "train_test_split(features, data['target'], random_state=42)")
	assert.Contains(t, script, "exported_pipeline = make_pipeline(")
	assert.Contains(t, script, "exported_pipeline.fit(training_features, training_target)")
	assert.Contains(t, script, "results = exported_pipeline.predict(testing_features)")
}

func TestRoundTrip(t *testing.T) {
	reg := exportRegistry(t)
	trees := map[string]*gp.Individual{
		"single estimator": singleTree(t, reg),
		"linear chain":     chainTree(t, reg),
		"feature union":    unionTree(t, reg),
	}

	for name, ind := range trees {
		t.Run(name, func(t *testing.T) {
			spec := compile(t, ind)
			script, err := Script(ind)
			require.NoError(t, err)

			expr, err := ExtractExpression(script)
			require.NoError(t, err)
			node, err := Parse(expr)
			require.NoError(t, err)

			assert.True(t, Matches(node, spec),
				"re-parsed expression diverges from the compiled pipeline:\n%s", expr)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for name, src := range map[string]string{
		"empty":              "",
		"unbalanced":         "make_pipeline(GaussianNB()",
		"trailing":           "GaussianNB() extra",
		"missing value":      "LogisticRegression(C=)",
		"unterminated quote": "Normalizer(norm='l1)",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src)
			assert.Error(t, err)
		})
	}
}

func TestMatchesDetectsDivergence(t *testing.T) {
	reg := exportRegistry(t)
	spec := compile(t, chainTree(t, reg))

	node, err := Parse("make_pipeline(\n    SelectPercentile(percentile=10),\n    LogisticRegression(C=0.5, dual=True, penalty='l1')\n)")
	require.NoError(t, err)
	assert.False(t, Matches(node, spec), "a changed hyperparameter value must not match")
}
