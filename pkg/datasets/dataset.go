// Package datasets loads tabular training data for the search: CSV and
// Parquet files with one designated target column, plus the structural
// validation and splitting the engine expects.
package datasets

import (
	"math"
	"math/rand"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

// Dataset is a dense numeric feature matrix with aligned labels.
type Dataset struct {
	FeatureNames []string
	Features     [][]float64
	Labels       []float64
}

// Validate checks the structural invariants the engine relies on: a
// non-empty rectangular matrix, aligned labels, and finite values.
func (d *Dataset) Validate() error {
	if len(d.Features) == 0 {
		return errors.New(errors.InvalidDataset, "dataset has no rows")
	}
	if len(d.Features) != len(d.Labels) {
		return errors.WithFields(
			errors.New(errors.InvalidDataset, "feature and label cardinality mismatch"),
			errors.Fields{"rows": len(d.Features), "labels": len(d.Labels)})
	}
	width := len(d.Features[0])
	if width == 0 {
		return errors.New(errors.InvalidDataset, "dataset has no feature columns")
	}
	for i, row := range d.Features {
		if len(row) != width {
			return errors.WithFields(
				errors.New(errors.InvalidDataset, "ragged feature matrix"),
				errors.Fields{"row": i, "want": width, "got": len(row)})
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.WithFields(
					errors.New(errors.InvalidDataset, "dataset contains a non-finite value"),
					errors.Fields{"row": i, "column": j})
			}
		}
	}
	for i, v := range d.Labels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.WithFields(
				errors.New(errors.InvalidDataset, "dataset contains a non-finite label"),
				errors.Fields{"row": i})
		}
	}
	return nil
}

// Rows returns the sample count.
func (d *Dataset) Rows() int { return len(d.Features) }

// Split shuffles the rows with the provided source of randomness and
// partitions them into train and test sets. testFraction must be in (0, 1)
// and both partitions must end up non-empty.
func (d *Dataset) Split(rng *rand.Rand, testFraction float64) (train, test *Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.New(errors.InvalidInput, "test fraction must be in (0, 1)")
	}
	n := len(d.Features)
	testSize := int(math.Round(float64(n) * testFraction))
	if testSize == 0 || testSize == n {
		return nil, nil, errors.WithFields(
			errors.New(errors.InvalidDataset, "dataset is too small to split"),
			errors.Fields{"rows": n, "test_fraction": testFraction})
	}

	order := rng.Perm(n)
	pick := func(indices []int) *Dataset {
		out := &Dataset{
			FeatureNames: d.FeatureNames,
			Features:     make([][]float64, 0, len(indices)),
			Labels:       make([]float64, 0, len(indices)),
		}
		for _, i := range indices {
			out.Features = append(out.Features, d.Features[i])
			out.Labels = append(out.Labels, d.Labels[i])
		}
		return out
	}
	return pick(order[testSize:]), pick(order[:testSize]), nil
}
