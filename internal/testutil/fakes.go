// Package testutil provides deterministic estimator and transformer fakes
// shared by the engine, evaluator and façade tests. None of them learn
// anything interesting; they exist so pipelines can be fitted and scored
// without a real modeling library.
package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

// MajorityClassifier predicts the most frequent training label.
type MajorityClassifier struct {
	majority float64
}

func (c *MajorityClassifier) Fit(features [][]float64, labels []float64) error {
	counts := map[float64]int{}
	best, bestCount := 0.0, -1
	for _, label := range labels {
		counts[label]++
		if counts[label] > bestCount || (counts[label] == bestCount && label < best) {
			best, bestCount = label, counts[label]
		}
	}
	c.majority = best
	return nil
}

func (c *MajorityClassifier) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i := range out {
		out[i] = c.majority
	}
	return out, nil
}

// FirstFeatureClassifier thresholds the first feature column at the training
// mean. Slightly better than majority voting on separable data, which gives
// the engine a reason to prefer some pipelines over others.
type FirstFeatureClassifier struct {
	threshold float64
	low, high float64
}

func (c *FirstFeatureClassifier) Fit(features [][]float64, labels []float64) error {
	if len(features) == 0 || len(features[0]) == 0 {
		return fmt.Errorf("empty feature matrix")
	}
	var sum float64
	for _, row := range features {
		sum += row[0]
	}
	c.threshold = sum / float64(len(features))

	var lowSum, highSum, lowN, highN float64
	for i, row := range features {
		if row[0] < c.threshold {
			lowSum += labels[i]
			lowN++
		} else {
			highSum += labels[i]
			highN++
		}
	}
	c.low, c.high = 0, 1
	if lowN > 0 {
		c.low = roundHalf(lowSum / lowN)
	}
	if highN > 0 {
		c.high = roundHalf(highSum / highN)
	}
	return nil
}

func roundHalf(v float64) float64 {
	if v >= 0.5 {
		return 1
	}
	return 0
}

func (c *FirstFeatureClassifier) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		if row[0] < c.threshold {
			out[i] = c.low
		} else {
			out[i] = c.high
		}
	}
	return out, nil
}

// MeanRegressor predicts the training label mean.
type MeanRegressor struct {
	mean float64
}

func (r *MeanRegressor) Fit(features [][]float64, labels []float64) error {
	var sum float64
	for _, label := range labels {
		sum += label
	}
	if len(labels) > 0 {
		r.mean = sum / float64(len(labels))
	}
	return nil
}

func (r *MeanRegressor) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i := range out {
		out[i] = r.mean
	}
	return out, nil
}

// FailingEstimator always errors at fit time.
type FailingEstimator struct{}

func (FailingEstimator) Fit(features [][]float64, labels []float64) error {
	return fmt.Errorf("estimator cannot fit this data")
}

func (FailingEstimator) Predict(features [][]float64) ([]float64, error) {
	return nil, fmt.Errorf("estimator was never fitted")
}

// PanicEstimator panics at fit time, modeling a third-party crash.
type PanicEstimator struct{}

func (PanicEstimator) Fit(features [][]float64, labels []float64) error {
	panic("third-party estimator blew up")
}

func (PanicEstimator) Predict(features [][]float64) ([]float64, error) {
	panic("third-party estimator blew up")
}

// SlowEstimator sleeps before delegating, for timeout tests.
type SlowEstimator struct {
	Delay time.Duration
	Inner MajorityClassifier
}

func (s *SlowEstimator) Fit(features [][]float64, labels []float64) error {
	time.Sleep(s.Delay)
	return s.Inner.Fit(features, labels)
}

func (s *SlowEstimator) Predict(features [][]float64) ([]float64, error) {
	return s.Inner.Predict(features)
}

// IdentityTransformer passes features through unchanged.
type IdentityTransformer struct{}

func (IdentityTransformer) Fit(features [][]float64, labels []float64) error { return nil }

func (IdentityTransformer) Transform(features [][]float64) ([][]float64, error) {
	return features, nil
}

// ScaleTransformer multiplies every feature by a fixed factor.
type ScaleTransformer struct {
	Factor float64
}

func (t ScaleTransformer) Fit(features [][]float64, labels []float64) error { return nil }

func (t ScaleTransformer) Transform(features [][]float64) ([][]float64, error) {
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = v * t.Factor
		}
		out[i] = scaled
	}
	return out, nil
}

// Factory builds fakes by operator name, with sensible defaults by
// capability. Operators named AlwaysFail, AlwaysPanic and AlwaysSlow map to
// the corresponding misbehaving estimators. Builds is incremented on every
// NewStep call.
type Factory struct {
	Delay  time.Duration
	Builds atomic.Int64
}

func (f *Factory) NewStep(step gp.StepSpec) (interface{}, error) {
	f.Builds.Add(1)
	switch step.Operator {
	case "AlwaysFail":
		return FailingEstimator{}, nil
	case "AlwaysPanic":
		return PanicEstimator{}, nil
	case "AlwaysSlow":
		return &SlowEstimator{Delay: f.Delay}, nil
	}
	switch step.Capability {
	case gp.CapabilityClassifier:
		return &FirstFeatureClassifier{}, nil
	case gp.CapabilityRegressor:
		return &MeanRegressor{}, nil
	case gp.CapabilityPreprocessor, gp.CapabilitySelector:
		if factor, ok := step.Params["factor"].(float64); ok {
			return ScaleTransformer{Factor: factor}, nil
		}
		return IdentityTransformer{}, nil
	}
	return nil, fmt.Errorf("no fake for operator %s", step.Operator)
}

// Blobs returns a tiny linearly separable two-class dataset.
func Blobs() (features [][]float64, labels []float64) {
	for i := 0; i < 20; i++ {
		v := float64(i)
		if i < 10 {
			features = append(features, []float64{v * 0.1, 1})
			labels = append(labels, 0)
		} else {
			features = append(features, []float64{10 + v*0.1, 1})
			labels = append(labels, 1)
		}
	}
	return features, labels
}
