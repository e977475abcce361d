package evopipe

import (
	"context"
	"time"

	"github.com/XiaoConstantine/evopipe/pkg/cache"
	"github.com/XiaoConstantine/evopipe/pkg/config"
	"github.com/XiaoConstantine/evopipe/pkg/engine"
	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/evaluate"
	"github.com/XiaoConstantine/evopipe/pkg/export"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
	"github.com/XiaoConstantine/evopipe/pkg/metrics"
	"github.com/XiaoConstantine/evopipe/pkg/pipeline"
)

type options struct {
	search    config.Search
	operators map[string]gp.OperatorDef
	factory   pipeline.Factory
	scorer    evaluate.Scorer
	store     cache.Store
	warmStart bool
}

// Option configures a Classifier or Regressor.
type Option func(*options)

// WithFactory supplies the estimator library that materializes pipeline
// steps. Required.
func WithFactory(factory pipeline.Factory) Option {
	return func(o *options) { o.factory = factory }
}

// WithOperators replaces the built-in operator search space.
func WithOperators(defs map[string]gp.OperatorDef) Option {
	return func(o *options) { o.operators = defs }
}

// WithSearch replaces the whole search configuration at once; later options
// still override individual fields.
func WithSearch(s config.Search) Option {
	return func(o *options) { o.search = s }
}

// WithGenerations sets the generation budget.
func WithGenerations(n int) Option {
	return func(o *options) { o.search.Generations = n }
}

// WithPopulationSize sets population and offspring sizes together.
func WithPopulationSize(n int) Option {
	return func(o *options) {
		o.search.PopulationSize = n
		o.search.OffspringSize = n
	}
}

// WithRates sets the crossover and mutation probability split.
func WithRates(crossover, mutation float64) Option {
	return func(o *options) {
		o.search.CrossoverRate = crossover
		o.search.MutationRate = mutation
	}
}

// WithFolds sets the cross-validation fold count.
func WithFolds(n int) Option {
	return func(o *options) { o.search.Folds = n }
}

// WithScoring selects a built-in scoring function by name: accuracy,
// neg_mean_squared_error or r2.
func WithScoring(name string) Option {
	return func(o *options) { o.search.Scoring = name }
}

// WithScorer replaces cross validation entirely with a custom scorer.
func WithScorer(s evaluate.Scorer) Option {
	return func(o *options) { o.scorer = s }
}

// WithSeed fixes the random source for reproducible searches.
func WithSeed(seed int64) Option {
	return func(o *options) { o.search.Seed = seed }
}

// WithWorkers bounds parallel fitness evaluation.
func WithWorkers(n int) Option {
	return func(o *options) { o.search.Workers = n }
}

// WithEvalTimeout bounds a single candidate evaluation.
func WithEvalTimeout(d time.Duration) Option {
	return func(o *options) { o.search.EvalTimeoutSeconds = int(d.Seconds()) }
}

// WithMaxRunTime bounds the whole search wall clock, checked at generation
// boundaries.
func WithMaxRunTime(d time.Duration) Option {
	return func(o *options) { o.search.MaxRunSeconds = int(d.Seconds()) }
}

// WithWarmStart makes repeated Fit calls continue the same lineage instead
// of restarting the search.
func WithWarmStart() Option {
	return func(o *options) { o.warmStart = true }
}

// WithCache persists evaluation results in the given store, surviving
// process restarts when the store does.
func WithCache(store cache.Store) Option {
	return func(o *options) { o.store = store }
}

// search is the shared fit/predict machinery behind Classifier and
// Regressor.
type search struct {
	opts   options
	reg    *gp.Registry
	eng    *engine.Engine
	eval   *evaluate.Evaluator
	best   *gp.Individual
	fitted *pipeline.Pipeline
}

func newSearch(defaults map[string]gp.OperatorDef, defaultScoring string, opts []Option) (*search, error) {
	o := options{search: config.DefaultSearch(), operators: defaults}
	o.search.Scoring = defaultScoring
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		return nil, errors.New(errors.InvalidConfig, "an estimator factory is required; use WithFactory")
	}

	reg, err := gp.NewRegistry(o.operators)
	if err != nil {
		return nil, err
	}
	s := &search{opts: o, reg: reg}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// rebuild constructs a fresh evaluator and engine; a non-warm-start Fit does
// this on every call so each search starts from scratch.
func (s *search) rebuild() error {
	scorer := s.opts.scorer
	if scorer == nil {
		scoring, err := scoringFunc(s.opts.search.Scoring)
		if err != nil {
			return err
		}
		scorer = &metrics.CrossValidator{
			Factory: s.opts.factory,
			Folds:   s.opts.search.Folds,
			Scoring: scoring,
		}
	}
	s.eval = evaluate.New(scorer, s.opts.store, evaluate.Config{
		Workers: s.opts.search.Workers,
		Timeout: time.Duration(s.opts.search.EvalTimeoutSeconds) * time.Second,
	})

	eng, err := engine.New(s.reg, s.eval, engine.Config{
		PopulationSize: s.opts.search.PopulationSize,
		OffspringSize:  s.opts.search.OffspringSize,
		Generations:    s.opts.search.Generations,
		CrossoverRate:  s.opts.search.CrossoverRate,
		MutationRate:   s.opts.search.MutationRate,
		MinDepth:       s.opts.search.MinDepth,
		MaxDepth:       s.opts.search.MaxDepth,
		MaxRunDuration: time.Duration(s.opts.search.MaxRunSeconds) * time.Second,
		Seed:           s.opts.search.Seed,
	})
	if err != nil {
		return err
	}
	s.eng = eng
	return nil
}

func (s *search) fit(ctx context.Context, features [][]float64, labels []float64) error {
	if !s.opts.warmStart && s.best != nil {
		if err := s.rebuild(); err != nil {
			return err
		}
	}
	if err := s.eng.Run(ctx, features, labels); err != nil {
		return err
	}
	best, err := s.eng.Best()
	if err != nil {
		return err
	}

	spec, err := pipeline.Compile(best)
	if err != nil {
		return err
	}
	fitted, err := pipeline.Build(spec, s.opts.factory)
	if err != nil {
		return err
	}
	if err := fitted.Fit(features, labels); err != nil {
		return errors.Wrap(err, errors.EvaluationFailed, "winning pipeline failed to refit on the full dataset")
	}
	s.best = best
	s.fitted = fitted
	return nil
}

func (s *search) predict(features [][]float64) ([]float64, error) {
	if s.fitted == nil {
		return nil, errors.New(errors.InvalidInput, "predict called before a successful Fit")
	}
	return s.fitted.Predict(features)
}

func (s *search) score(features [][]float64, labels []float64, scoring metrics.ScoringFunc) (float64, error) {
	predictions, err := s.predict(features)
	if err != nil {
		return 0, err
	}
	return scoring(labels, predictions), nil
}

func (s *search) export() (string, error) {
	if s.best == nil {
		return "", errors.New(errors.NoValidPipeline, "export called before a successful Fit")
	}
	return export.Script(s.best)
}

func scoringFunc(name string) (metrics.ScoringFunc, error) {
	switch name {
	case "accuracy":
		return metrics.Accuracy, nil
	case "neg_mean_squared_error":
		return metrics.NegMeanSquaredError, nil
	case "r2":
		return metrics.R2, nil
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfig, "unknown scoring function"),
			errors.Fields{"scoring": name})
	}
}

// Classifier searches for a classification pipeline.
type Classifier struct {
	search *search
}

// NewClassifier builds a classifier with the light classification search
// space unless WithOperators overrides it.
func NewClassifier(opts ...Option) (*Classifier, error) {
	s, err := newSearch(config.ClassifierConfigLight(), "accuracy", opts)
	if err != nil {
		return nil, err
	}
	return &Classifier{search: s}, nil
}

// Fit evolves pipelines against the training data and refits the winner on
// the full dataset. With WithWarmStart, repeated calls continue the same
// lineage.
func (c *Classifier) Fit(ctx context.Context, features [][]float64, labels []float64) error {
	return c.search.fit(ctx, features, labels)
}

// Predict runs the fitted winning pipeline.
func (c *Classifier) Predict(features [][]float64) ([]float64, error) {
	return c.search.predict(features)
}

// Score reports the accuracy of the fitted pipeline on held-out data.
func (c *Classifier) Score(features [][]float64, labels []float64) (float64, error) {
	return c.search.score(features, labels, metrics.Accuracy)
}

// Export renders the winning pipeline as a standalone script.
func (c *Classifier) Export() (string, error) {
	return c.search.export()
}

// Best returns the winning individual of the last Fit.
func (c *Classifier) Best() (*gp.Individual, error) {
	if c.search.best == nil {
		return nil, errors.New(errors.NoValidPipeline, "no search has completed")
	}
	return c.search.best, nil
}

// ParetoFront returns the archive of score/complexity trade-offs after Fit.
func (c *Classifier) ParetoFront() []*gp.Individual {
	return c.search.eng.ParetoFront()
}

// Regressor searches for a regression pipeline.
type Regressor struct {
	search *search
}

// NewRegressor builds a regressor with the light regression search space
// unless WithOperators overrides it.
func NewRegressor(opts ...Option) (*Regressor, error) {
	s, err := newSearch(config.RegressorConfigLight(), "neg_mean_squared_error", opts)
	if err != nil {
		return nil, err
	}
	return &Regressor{search: s}, nil
}

// Fit evolves pipelines against the training data and refits the winner on
// the full dataset.
func (r *Regressor) Fit(ctx context.Context, features [][]float64, labels []float64) error {
	return r.search.fit(ctx, features, labels)
}

// Predict runs the fitted winning pipeline.
func (r *Regressor) Predict(features [][]float64) ([]float64, error) {
	return r.search.predict(features)
}

// Score reports the R2 of the fitted pipeline on held-out data.
func (r *Regressor) Score(features [][]float64, labels []float64) (float64, error) {
	return r.search.score(features, labels, metrics.R2)
}

// Export renders the winning pipeline as a standalone script.
func (r *Regressor) Export() (string, error) {
	return r.search.export()
}

// Best returns the winning individual of the last Fit.
func (r *Regressor) Best() (*gp.Individual, error) {
	if r.search.best == nil {
		return nil, errors.New(errors.NoValidPipeline, "no search has completed")
	}
	return r.search.best, nil
}

// ParetoFront returns the archive of score/complexity trade-offs after Fit.
func (r *Regressor) ParetoFront() []*gp.Individual {
	return r.search.eng.ParetoFront()
}
