// Package estimators provides the CLI's built-in stand-in estimator library:
// small, dependency-free models dispatched by operator capability. They let a
// search run end to end from the command line; real modeling libraries plug
// in through the same Factory contract when evopipe is used as a library.
package estimators

import (
	"fmt"
	"math"

	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

// Factory materializes pipeline steps by capability class.
type Factory struct{}

func (Factory) NewStep(step gp.StepSpec) (interface{}, error) {
	switch step.Capability {
	case gp.CapabilityClassifier:
		return &NearestCentroid{}, nil
	case gp.CapabilityRegressor:
		return &LeastSquares{}, nil
	case gp.CapabilityPreprocessor:
		return &StandardScaler{}, nil
	case gp.CapabilitySelector:
		return &VarianceSelector{}, nil
	default:
		return nil, fmt.Errorf("no built-in model for operator %s", step.Operator)
	}
}

// NearestCentroid predicts the label whose per-class feature centroid is
// closest in Euclidean distance.
type NearestCentroid struct {
	labels    []float64
	centroids [][]float64
}

func (c *NearestCentroid) Fit(features [][]float64, labels []float64) error {
	if len(features) == 0 {
		return fmt.Errorf("no training rows")
	}
	sums := map[float64][]float64{}
	counts := map[float64]int{}
	for i, row := range features {
		label := labels[i]
		if sums[label] == nil {
			sums[label] = make([]float64, len(row))
		}
		for j, v := range row {
			sums[label][j] += v
		}
		counts[label]++
	}

	c.labels = c.labels[:0]
	c.centroids = c.centroids[:0]
	for label, sum := range sums {
		centroid := make([]float64, len(sum))
		for j, v := range sum {
			centroid[j] = v / float64(counts[label])
		}
		c.labels = append(c.labels, label)
		c.centroids = append(c.centroids, centroid)
	}
	return nil
}

func (c *NearestCentroid) Predict(features [][]float64) ([]float64, error) {
	if len(c.centroids) == 0 {
		return nil, fmt.Errorf("classifier was never fitted")
	}
	out := make([]float64, len(features))
	for i, row := range features {
		bestDist := math.Inf(1)
		for k, centroid := range c.centroids {
			var dist float64
			for j := range centroid {
				if j < len(row) {
					d := row[j] - centroid[j]
					dist += d * d
				}
			}
			if dist < bestDist || (dist == bestDist && c.labels[k] < out[i]) {
				bestDist = dist
				out[i] = c.labels[k]
			}
		}
	}
	return out, nil
}

// LeastSquares fits a univariate regression on the first feature, falling
// back to the label mean for degenerate inputs.
type LeastSquares struct {
	slope, intercept float64
	fitted           bool
}

func (r *LeastSquares) Fit(features [][]float64, labels []float64) error {
	if len(features) == 0 || len(features[0]) == 0 {
		return fmt.Errorf("no training data")
	}
	var sumX, sumY, sumXX, sumXY float64
	n := float64(len(features))
	for i, row := range features {
		x, y := row[0], labels[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}
	denom := n*sumXX - sumX*sumX
	if denom != 0 {
		r.slope = (n*sumXY - sumX*sumY) / denom
	}
	r.intercept = (sumY - r.slope*sumX) / n
	r.fitted = true
	return nil
}

func (r *LeastSquares) Predict(features [][]float64) ([]float64, error) {
	if !r.fitted {
		return nil, fmt.Errorf("regressor was never fitted")
	}
	out := make([]float64, len(features))
	for i, row := range features {
		out[i] = r.intercept
		if len(row) > 0 {
			out[i] += r.slope * row[0]
		}
	}
	return out, nil
}

// StandardScaler centers each feature and scales to unit variance.
type StandardScaler struct {
	mean, scale []float64
}

func (s *StandardScaler) Fit(features [][]float64, labels []float64) error {
	if len(features) == 0 {
		return fmt.Errorf("no training rows")
	}
	width := len(features[0])
	s.mean = make([]float64, width)
	s.scale = make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			s.mean[j] += v
		}
	}
	n := float64(len(features))
	for j := range s.mean {
		s.mean[j] /= n
	}
	for _, row := range features {
		for j, v := range row {
			d := v - s.mean[j]
			s.scale[j] += d * d
		}
	}
	for j := range s.scale {
		s.scale[j] = math.Sqrt(s.scale[j] / n)
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}
	return nil
}

func (s *StandardScaler) Transform(features [][]float64) ([][]float64, error) {
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.mean) {
				scaled[j] = (v - s.mean[j]) / s.scale[j]
			} else {
				scaled[j] = v
			}
		}
		out[i] = scaled
	}
	return out, nil
}

// VarianceSelector drops constant feature columns.
type VarianceSelector struct {
	keep []int
}

func (v *VarianceSelector) Fit(features [][]float64, labels []float64) error {
	if len(features) == 0 {
		return fmt.Errorf("no training rows")
	}
	width := len(features[0])
	v.keep = v.keep[:0]
	for j := 0; j < width; j++ {
		first := features[0][j]
		for _, row := range features {
			if row[j] != first {
				v.keep = append(v.keep, j)
				break
			}
		}
	}
	if len(v.keep) == 0 {
		return fmt.Errorf("every feature column is constant")
	}
	return nil
}

func (v *VarianceSelector) Transform(features [][]float64) ([][]float64, error) {
	out := make([][]float64, len(features))
	for i, row := range features {
		selected := make([]float64, 0, len(v.keep))
		for _, j := range v.keep {
			if j < len(row) {
				selected = append(selected, row[j])
			}
		}
		out[i] = selected
	}
	return out, nil
}
