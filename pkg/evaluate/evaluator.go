// Package evaluate turns candidate trees into fitness values.
//
// Evaluation is the expensive step of the search: each new canonical pipeline
// is compiled and handed to the cross-validation collaborator. Results are
// memoized by canonical string, failures of any kind are absorbed as a score
// of negative infinity, and the per-generation batch is fanned out over a
// bounded worker pool.
package evaluate

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/evopipe/pkg/cache"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
	"github.com/XiaoConstantine/evopipe/pkg/logging"
	"github.com/XiaoConstantine/evopipe/pkg/pipeline"
)

// Fitness is the two-objective result of one evaluation: operator count is
// minimized, score maximized.
type Fitness struct {
	OperatorCount int
	Score         float64
}

// Scorer is the cross-validation/scoring collaborator. Higher is better. It
// must tolerate pipelines ending in arbitrary estimator types; any error it
// returns marks the candidate as failed rather than aborting the search.
type Scorer interface {
	Score(ctx context.Context, spec *pipeline.Spec, features [][]float64, labels []float64) (float64, error)
}

// Config tunes the evaluator.
type Config struct {
	// Workers bounds the parallel batch evaluation. Values below 1 mean
	// sequential evaluation.
	Workers int
	// Timeout is the per-individual evaluation budget; zero disables it.
	Timeout time.Duration
}

// Evaluator memoizes fitness evaluation by canonical pipeline key.
type Evaluator struct {
	scorer  Scorer
	store   cache.Store
	workers int
	timeout time.Duration

	evaluations atomic.Int64
}

func New(scorer Scorer, store cache.Store, cfg Config) *Evaluator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}
	return &Evaluator{
		scorer:  scorer,
		store:   store,
		workers: workers,
		timeout: cfg.Timeout,
	}
}

// Evaluate computes (or recalls) the fitness of one individual and attaches
// it. Never fails: compile errors, scorer errors, panics and timeouts all
// become a score of negative infinity.
func (e *Evaluator) Evaluate(ctx context.Context, ind *gp.Individual, features [][]float64, labels []float64) Fitness {
	logger := logging.GetLogger()
	key := ind.Key()
	ctx = logging.WithPipeline(ctx, key)

	if entry, ok, err := e.store.Get(ctx, key); err == nil && ok {
		ind.SetFitness(entry.OperatorCount, entry.Score)
		return Fitness{OperatorCount: entry.OperatorCount, Score: entry.Score}
	} else if err != nil {
		logger.Warn(ctx, "evaluation cache read failed: %v", err)
	}

	fitness := Fitness{
		OperatorCount: ind.CountOperators(),
		Score:         math.Inf(-1),
	}

	spec, err := pipeline.Compile(ind)
	if err != nil {
		logger.Debug(ctx, "pipeline failed to compile: %v", err)
	} else {
		fitness.Score = e.score(ctx, spec, features, labels)
	}
	e.evaluations.Add(1)

	if err := e.store.Put(ctx, key, cache.Entry{OperatorCount: fitness.OperatorCount, Score: fitness.Score}); err != nil {
		logger.Warn(ctx, "evaluation cache write failed: %v", err)
	}
	ind.SetFitness(fitness.OperatorCount, fitness.Score)
	return fitness
}

// EvaluatePopulation evaluates every individual lacking fitness, in parallel
// across the worker pool, and returns the fitness list aligned with the
// input. The whole batch completes before it returns.
func (e *Evaluator) EvaluatePopulation(ctx context.Context, individuals []*gp.Individual, features [][]float64, labels []float64) []Fitness {
	results := make([]Fitness, len(individuals))

	p := pool.New().WithMaxGoroutines(e.workers)
	for i, ind := range individuals {
		i, ind := i, ind
		if ind.Evaluated {
			results[i] = Fitness{OperatorCount: ind.OperatorCount, Score: ind.Score}
			continue
		}
		p.Go(func() {
			results[i] = e.Evaluate(ctx, ind, features, labels)
		})
	}
	p.Wait()

	return results
}

// Evaluations reports how many scorer invocations have happened (cache hits
// excluded), for progress display.
func (e *Evaluator) Evaluations() int64 {
	return e.evaluations.Load()
}

// score runs the scorer with panic isolation and the per-individual timeout.
// A timed-out evaluation is abandoned, not interrupted: its goroutine may
// linger until the scorer honors the canceled context.
func (e *Evaluator) score(ctx context.Context, spec *pipeline.Spec, features [][]float64, labels []float64) float64 {
	logger := logging.GetLogger()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type outcome struct {
		score float64
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("scorer panicked: %v", r)}
			}
		}()
		score, err := e.scorer.Score(ctx, spec, features, labels)
		done <- outcome{score: score, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.Debug(ctx, "evaluation abandoned: %v", ctx.Err())
		return math.Inf(-1)
	case out := <-done:
		if out.err != nil {
			logger.Debug(ctx, "pipeline failed evaluation: %v", out.err)
			return math.Inf(-1)
		}
		return out.score
	}
}
