package estimators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

func TestFactoryDispatch(t *testing.T) {
	f := Factory{}

	model, err := f.NewStep(gp.StepSpec{Operator: "AnyClassifier", Capability: gp.CapabilityClassifier})
	require.NoError(t, err)
	assert.IsType(t, &NearestCentroid{}, model)

	model, err = f.NewStep(gp.StepSpec{Operator: "AnyRegressor", Capability: gp.CapabilityRegressor})
	require.NoError(t, err)
	assert.IsType(t, &LeastSquares{}, model)

	model, err = f.NewStep(gp.StepSpec{Operator: "AnyScaler", Capability: gp.CapabilityPreprocessor})
	require.NoError(t, err)
	assert.IsType(t, &StandardScaler{}, model)

	model, err = f.NewStep(gp.StepSpec{Operator: "AnySelector", Capability: gp.CapabilitySelector})
	require.NoError(t, err)
	assert.IsType(t, &VarianceSelector{}, model)

	_, err = f.NewStep(gp.StepSpec{Operator: "CombineDFs", Capability: gp.CapabilityCombiner})
	assert.Error(t, err)
}

func TestNearestCentroid(t *testing.T) {
	features := [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}}
	labels := []float64{0, 0, 1, 1}

	clf := &NearestCentroid{}
	require.NoError(t, clf.Fit(features, labels))

	predictions, err := clf.Predict([][]float64{{0.5, 0.5}, {9, 10}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, predictions)

	_, err = (&NearestCentroid{}).Predict(features)
	assert.Error(t, err, "predict before fit")
}

func TestLeastSquares(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []float64{2, 4, 6, 8}

	reg := &LeastSquares{}
	require.NoError(t, reg.Fit(features, labels))

	predictions, err := reg.Predict([][]float64{{5}})
	require.NoError(t, err)
	assert.InDelta(t, 10, predictions[0], 1e-9)
}

func TestStandardScaler(t *testing.T) {
	s := &StandardScaler{}
	require.NoError(t, s.Fit([][]float64{{0, 5}, {2, 5}}, nil))

	out, err := s.Transform([][]float64{{0, 5}, {2, 5}})
	require.NoError(t, err)
	assert.InDelta(t, -1, out[0][0], 1e-9)
	assert.InDelta(t, 1, out[1][0], 1e-9)
	assert.Equal(t, 0.0, out[0][1], "constant columns center to zero with unit fallback scale")
}

func TestVarianceSelector(t *testing.T) {
	v := &VarianceSelector{}
	require.NoError(t, v.Fit([][]float64{{1, 7, 3}, {2, 7, 3}, {3, 7, 9}}, nil))

	out, err := v.Transform([][]float64{{1, 7, 3}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 3}}, out, "the constant middle column is dropped")

	constant := &VarianceSelector{}
	assert.Error(t, constant.Fit([][]float64{{1, 1}, {1, 1}}, nil))
}
