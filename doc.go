// Package evopipe discovers data-processing-and-modeling pipelines with
// evolutionary search over a strongly typed tree representation.
//
// A pipeline candidate is a typed expression tree: preprocessing and feature
// selection operators feeding a final estimator, with optional feature-union
// branches. The search evolves a population of such trees under two
// objectives, fewer operators and a higher cross-validated score, and keeps
// the Pareto frontier of that trade-off in a bounded archive.
//
// Key Components:
//
//   - gp: the typed tree model: operator registry, random tree generation,
//     and type-preserving mutation and crossover.
//
//   - pipeline: compiles an optimized tree into an executable pipeline of
//     fit/transform/predict stages supplied by an external estimator library.
//
//   - evaluate: memoized, parallel, failure-absorbing fitness evaluation.
//
//   - engine: the NSGA-II style evolution loop with warm start across runs.
//
//   - metrics: k-fold cross validation and the built-in scoring functions.
//
//   - config: YAML operator and search configuration plus the built-in
//     scikit-learn style search spaces.
//
//   - datasets: CSV and Parquet loading with structural validation.
//
//   - export: renders the winning pipeline as a standalone scikit-learn
//     style script with a minimal import block.
//
// The Classifier and Regressor types in this package tie those pieces
// together behind a fit/predict façade:
//
//	clf, err := evopipe.NewClassifier(
//		evopipe.WithFactory(myEstimators),
//		evopipe.WithGenerations(20),
//		evopipe.WithSeed(7),
//	)
//	if err != nil { ... }
//	if err := clf.Fit(ctx, features, labels); err != nil { ... }
//	predictions, err := clf.Predict(testFeatures)
//	script, err := clf.Export()
//
// Estimator implementations are deliberately out of scope: the search only
// needs the Factory, Estimator and Transformer contracts in the pipeline
// package, so any modeling library can be plugged in.
package evopipe
