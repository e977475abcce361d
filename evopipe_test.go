package evopipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evopipe/internal/testutil"
	"github.com/XiaoConstantine/evopipe/pkg/cache"
	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

func fakeOperators() map[string]gp.OperatorDef {
	return map[string]gp.OperatorDef{
		"GoodTree": {Capability: gp.CapabilityClassifier, Import: "fakes.models"},
		"Scale": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "fakes.transforms",
			Params:     map[string][]interface{}{"factor": {0.5, 1.0, 2.0}},
		},
	}
}

func smallOptions(extra ...Option) []Option {
	opts := []Option{
		WithFactory(&testutil.Factory{}),
		WithOperators(fakeOperators()),
		WithPopulationSize(10),
		WithGenerations(2),
		WithFolds(4),
		WithSeed(3),
	}
	return append(opts, extra...)
}

func TestClassifierFitPredict(t *testing.T) {
	clf, err := NewClassifier(smallOptions()...)
	require.NoError(t, err)

	features, labels := testutil.Blobs()
	require.NoError(t, clf.Fit(context.Background(), features, labels))

	predictions, err := clf.Predict(features)
	require.NoError(t, err)
	require.Len(t, predictions, len(labels))

	score, err := clf.Score(features, labels)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score, "the threshold fake separates the blobs exactly")

	best, err := clf.Best()
	require.NoError(t, err)
	assert.True(t, best.Evaluated)
	assert.NotEmpty(t, clf.ParetoFront())
}

func TestClassifierExport(t *testing.T) {
	clf, err := NewClassifier(smallOptions()...)
	require.NoError(t, err)
	features, labels := testutil.Blobs()
	require.NoError(t, clf.Fit(context.Background(), features, labels))

	script, err := clf.Export()
	require.NoError(t, err)
	assert.Contains(t, script, "exported_pipeline = ")
	assert.Contains(t, script, "GoodTree")
}

func TestPredictBeforeFit(t *testing.T) {
	clf, err := NewClassifier(smallOptions()...)
	require.NoError(t, err)

	_, err = clf.Predict([][]float64{{1, 2}})
	require.Error(t, err)
	_, err = clf.Export()
	require.Error(t, err)
	_, err = clf.Best()
	require.Error(t, err)
}

func TestFactoryRequired(t *testing.T) {
	_, err := NewClassifier(WithOperators(fakeOperators()))
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.InvalidConfig, e.Code())
}

func TestBadScoringName(t *testing.T) {
	_, err := NewClassifier(smallOptions(WithScoring("f1_macro"))...)
	assert.Error(t, err)
}

func TestWarmStartContinues(t *testing.T) {
	clf, err := NewClassifier(smallOptions(WithWarmStart())...)
	require.NoError(t, err)
	features, labels := testutil.Blobs()

	require.NoError(t, clf.Fit(context.Background(), features, labels))
	assert.Equal(t, 2, clf.search.eng.Generation())

	require.NoError(t, clf.Fit(context.Background(), features, labels))
	assert.Equal(t, 4, clf.search.eng.Generation(), "warm start continues the lineage")
}

func TestColdStartRestarts(t *testing.T) {
	clf, err := NewClassifier(smallOptions()...)
	require.NoError(t, err)
	features, labels := testutil.Blobs()

	require.NoError(t, clf.Fit(context.Background(), features, labels))
	require.NoError(t, clf.Fit(context.Background(), features, labels))
	assert.Equal(t, 2, clf.search.eng.Generation(), "a cold Fit rebuilds the engine")
}

func TestSharedCacheAcrossSearches(t *testing.T) {
	store := cache.NewMemoryStore()
	features, labels := testutil.Blobs()

	first, err := NewClassifier(smallOptions(WithCache(store))...)
	require.NoError(t, err)
	require.NoError(t, first.Fit(context.Background(), features, labels))
	cached, err := store.Len(context.Background())
	require.NoError(t, err)
	require.Greater(t, cached, 0)

	second, err := NewClassifier(smallOptions(WithCache(store))...)
	require.NoError(t, err)
	require.NoError(t, second.Fit(context.Background(), features, labels))
	after, err := store.Len(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after, cached,
		"a second search reuses and extends the shared evaluation cache")
}

func TestRegressor(t *testing.T) {
	defs := map[string]gp.OperatorDef{
		"MeanTree": {Capability: gp.CapabilityRegressor, Import: "fakes.models"},
	}
	reg, err := NewRegressor(
		WithFactory(&testutil.Factory{}),
		WithOperators(defs),
		WithPopulationSize(6),
		WithGenerations(1),
		WithFolds(4),
		WithSeed(5),
	)
	require.NoError(t, err)

	features, labels := testutil.Blobs()
	require.NoError(t, reg.Fit(context.Background(), features, labels))

	predictions, err := reg.Predict(features)
	require.NoError(t, err)
	require.Len(t, predictions, len(labels))

	best, err := reg.Best()
	require.NoError(t, err)
	assert.Equal(t, "MeanTree(input_matrix)", best.Key())
}
