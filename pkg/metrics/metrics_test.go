package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evopipe/internal/testutil"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
	"github.com/XiaoConstantine/evopipe/pkg/pipeline"
)

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 1.0, Accuracy([]float64{0, 1, 1}, []float64{0, 1, 1}))
	assert.Equal(t, 0.5, Accuracy([]float64{0, 1, 0, 1}, []float64{0, 1, 1, 0}))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestNegMeanSquaredError(t *testing.T) {
	assert.Equal(t, 0.0, NegMeanSquaredError([]float64{1, 2}, []float64{1, 2}))
	assert.Equal(t, -1.0, NegMeanSquaredError([]float64{1, 2}, []float64{2, 3}))
}

func TestR2(t *testing.T) {
	assert.Equal(t, 1.0, R2([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.Less(t, R2([]float64{1, 2, 3}, []float64{3, 2, 1}), 0.0)
}

func TestCrossValidator(t *testing.T) {
	reg, err := gp.NewRegistry(map[string]gp.OperatorDef{
		"Good": {Capability: gp.CapabilityClassifier},
	})
	require.NoError(t, err)
	good, _ := reg.Primitive("Good")
	ind := gp.NewIndividual([]gp.Node{good, reg.InputTerminal()})
	spec, err := pipeline.Compile(ind)
	require.NoError(t, err)

	features, labels := testutil.Blobs()
	cv := &CrossValidator{Factory: &testutil.Factory{}, Folds: 4, Scoring: Accuracy}

	t.Run("Deterministic mean fold score", func(t *testing.T) {
		s1, err := cv.Score(context.Background(), spec, features, labels)
		require.NoError(t, err)
		s2, err := cv.Score(context.Background(), spec, features, labels)
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
		assert.GreaterOrEqual(t, s1, 0.0)
		assert.LessOrEqual(t, s1, 1.0)
	})

	t.Run("Fewer samples than folds", func(t *testing.T) {
		_, err := cv.Score(context.Background(), spec, features[:2], labels[:2])
		assert.Error(t, err)
	})

	t.Run("Canceled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := cv.Score(ctx, spec, features, labels)
		assert.Error(t, err)
	})
}
