package metrics

import (
	"context"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/pipeline"
)

// CrossValidator scores a compiled pipeline spec by deterministic k-fold
// cross-validation: a fresh pipeline is built and fitted per fold, and the
// mean fold score is returned. Folds are contiguous index ranges so repeated
// evaluation of the same spec reproduces the same score.
type CrossValidator struct {
	Factory pipeline.Factory
	Folds   int
	Scoring ScoringFunc
}

func (cv *CrossValidator) Score(ctx context.Context, spec *pipeline.Spec, features [][]float64, labels []float64) (float64, error) {
	folds := cv.Folds
	if folds < 2 {
		folds = 2
	}
	if len(features) < folds {
		return 0, errors.WithFields(
			errors.New(errors.InvalidInput, "fewer samples than folds"),
			errors.Fields{"samples": len(features), "folds": folds})
	}

	var total float64
	for fold := 0; fold < folds; fold++ {
		if err := errors.CheckContext(ctx, "cross-validation"); err != nil {
			return 0, err
		}

		lo := fold * len(features) / folds
		hi := (fold + 1) * len(features) / folds

		trainX := make([][]float64, 0, len(features)-(hi-lo))
		trainY := make([]float64, 0, len(labels)-(hi-lo))
		trainX = append(trainX, features[:lo]...)
		trainX = append(trainX, features[hi:]...)
		trainY = append(trainY, labels[:lo]...)
		trainY = append(trainY, labels[hi:]...)

		p, err := pipeline.Build(spec, cv.Factory)
		if err != nil {
			return 0, err
		}
		if err := p.Fit(trainX, trainY); err != nil {
			return 0, err
		}
		preds, err := p.Predict(features[lo:hi])
		if err != nil {
			return 0, err
		}
		total += cv.Scoring(labels[lo:hi], preds)
	}
	return total / float64(folds), nil
}
