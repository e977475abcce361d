// Package metrics provides scoring functions and a k-fold cross-validation
// scorer for compiled pipelines. Every function follows the higher-is-better
// convention the search maximizes.
package metrics

// ScoringFunc scores predictions against true labels; higher is better.
type ScoringFunc func(yTrue, yPred []float64) float64

// Accuracy is the fraction of exactly matching predictions.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// NegMeanSquaredError is the negated mean squared error, so that regression
// scores are also maximized.
func NegMeanSquaredError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return -sum / float64(len(yTrue))
}

// R2 is the coefficient of determination.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var mean float64
	for _, y := range yTrue {
		mean += y
	}
	mean /= float64(len(yTrue))

	var residual, total float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		residual += d * d
		t := yTrue[i] - mean
		total += t * t
	}
	if total == 0 {
		if residual == 0 {
			return 1
		}
		return 0
	}
	return 1 - residual/total
}
