// Package engine drives the evolutionary search: population initialization,
// batch fitness evaluation, Pareto-archive maintenance, variation, and budget
// enforcement. The engine object is externally held state: a second Run call
// on the same engine warm-starts from the previous population, archive and
// evaluation cache instead of restarting from scratch.
package engine

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/evaluate"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
	"github.com/XiaoConstantine/evopipe/pkg/logging"
)

// State tracks the engine lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateRunning
	StateTimeExpired
	StateGenerationsExhausted
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateTimeExpired:
		return "time_expired"
	case StateGenerationsExhausted:
		return "generations_exhausted"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Config tunes one evolution run.
type Config struct {
	PopulationSize int
	OffspringSize  int
	Generations    int

	// CrossoverRate and MutationRate split the offspring probability mass;
	// the remainder reproduces an individual unchanged. Their sum must not
	// exceed 1.
	CrossoverRate float64
	MutationRate  float64

	// MinDepth and MaxDepth bound initial tree generation.
	MinDepth int
	MaxDepth int

	// MaxRunDuration is the wall-clock budget, checked at generation
	// boundaries only; zero disables it.
	MaxRunDuration time.Duration

	Seed int64
}

// DefaultConfig mirrors the conventional search defaults: heavy mutation,
// light crossover, depth 1-3 trees.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		OffspringSize:  50,
		Generations:    10,
		CrossoverRate:  0.1,
		MutationRate:   0.9,
		MinDepth:       1,
		MaxDepth:       3,
		Seed:           42,
	}
}

// Engine evolves a population of pipeline trees against a dataset.
type Engine struct {
	cfg  Config
	reg  *gp.Registry
	gen  *gp.Generator
	vari *gp.Variator
	eval *evaluate.Evaluator
	rng  *rand.Rand

	state      State
	stopReason State
	generation int
	population []*gp.Individual
	archive    *Archive

	best           *gp.Individual
	bestGeneration int
}

// New validates the configuration and builds an engine around a registry and
// an evaluator.
func New(reg *gp.Registry, eval *evaluate.Evaluator, cfg Config) (*Engine, error) {
	if cfg.PopulationSize < 1 || cfg.OffspringSize < 1 {
		return nil, errors.New(errors.InvalidConfig, "population and offspring sizes must be positive")
	}
	if cfg.Generations < 1 {
		return nil, errors.New(errors.InvalidConfig, "generation count must be positive")
	}
	if cfg.CrossoverRate < 0 || cfg.MutationRate < 0 || cfg.CrossoverRate+cfg.MutationRate > 1 {
		return nil, errors.New(errors.InvalidConfig, "crossover and mutation rates must be non-negative and sum to at most 1")
	}
	if cfg.MinDepth < 1 || cfg.MaxDepth < cfg.MinDepth {
		return nil, errors.New(errors.InvalidConfig, "tree depth window is invalid")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	gen := gp.NewGenerator(reg, rng)
	return &Engine{
		cfg:     cfg,
		reg:     reg,
		gen:     gen,
		vari:    gp.NewVariator(reg, gen, rng),
		eval:    eval,
		rng:     rng,
		state:   StateUninitialized,
		archive: NewArchive(cfg.PopulationSize),
	}, nil
}

// Run evolves for the configured number of generations or until the time
// budget elapses. On the first call the population is generated; later calls
// warm-start from the surviving population and archive. An evaluation
// failure never halts the run; a run in which every candidate failed is a
// legitimate low-quality outcome surfaced only by Best.
func (e *Engine) Run(ctx context.Context, features [][]float64, labels []float64) error {
	if err := validateInputs(features, labels); err != nil {
		return err
	}
	logger := logging.GetLogger()
	start := time.Now()

	if e.population == nil {
		if err := e.initPopulation(); err != nil {
			return err
		}
		logger.Info(ctx, "initialized population of %d pipelines", len(e.population))
	} else {
		logger.Info(ctx, "warm start: continuing lineage at generation %d with %d pipelines",
			e.generation, len(e.population))
	}

	e.state = StateRunning
	e.stopReason = StateGenerationsExhausted

	for g := 0; g < e.cfg.Generations; g++ {
		if err := errors.CheckContext(ctx, "evolution"); err != nil {
			e.finalize()
			return err
		}
		if e.cfg.MaxRunDuration > 0 && time.Since(start) >= e.cfg.MaxRunDuration {
			e.stopReason = StateTimeExpired
			logger.Info(ctx, "time budget elapsed after %d generations", g)
			break
		}

		genCtx := logging.WithGeneration(ctx, e.generation)

		e.eval.EvaluatePopulation(genCtx, e.population, features, labels)
		e.trackBest(e.population)
		e.archive.Update(e.population)

		offspring, err := e.breed()
		if err != nil {
			e.finalize()
			return err
		}
		e.eval.EvaluatePopulation(genCtx, offspring, features, labels)
		e.trackBest(offspring)
		e.archive.Update(offspring)

		e.population = environmentalSelect(append(e.population, offspring...), e.cfg.PopulationSize)
		e.generation++

		logger.Info(genCtx, "generation complete: archive=%d best_score=%s evaluations=%d",
			len(e.archive.Members()), e.bestScoreString(), e.eval.Evaluations())
	}

	e.finalize()
	return nil
}

func (e *Engine) initPopulation() error {
	e.population = make([]*gp.Individual, 0, e.cfg.PopulationSize)
	for i := 0; i < e.cfg.PopulationSize; i++ {
		ind, err := e.gen.Generate(gp.TypeOutput, e.cfg.MinDepth, e.cfg.MaxDepth)
		if err != nil {
			return err
		}
		ind.Generation = e.generation
		e.population = append(e.population, ind)
	}
	return nil
}

// breed produces the offspring set: crossover with probability CrossoverRate,
// mutation with probability MutationRate, unchanged reproduction otherwise.
// Parents come from a binary tournament over the archive plus population.
func (e *Engine) breed() ([]*gp.Individual, error) {
	mating := e.matingPool()
	ranks, distances := rankAndCrowd(mating)

	offspring := make([]*gp.Individual, 0, e.cfg.OffspringSize)
	for len(offspring) < e.cfg.OffspringSize {
		var child *gp.Individual
		r := e.rng.Float64()
		switch {
		case r < e.cfg.CrossoverRate:
			p1 := tournamentSelect(mating, ranks, distances, e.rng)
			p2 := tournamentSelect(mating, ranks, distances, e.rng)
			child, _ = e.vari.Crossover(p1, p2)
		case r < e.cfg.CrossoverRate+e.cfg.MutationRate:
			parent := tournamentSelect(mating, ranks, distances, e.rng)
			mutant, err := e.vari.Mutate(parent)
			if err != nil {
				return nil, err
			}
			child = mutant
		default:
			child = tournamentSelect(mating, ranks, distances, e.rng).Clone()
		}
		child.Generation = e.generation + 1
		offspring = append(offspring, child)
	}
	return offspring, nil
}

// matingPool merges the archive and the population, deduplicated by
// canonical key with the earlier individual kept.
func (e *Engine) matingPool() []*gp.Individual {
	seen := make(map[string]bool)
	pool := make([]*gp.Individual, 0, e.cfg.PopulationSize*2)
	for _, ind := range e.archive.Members() {
		if !seen[ind.Key()] {
			seen[ind.Key()] = true
			pool = append(pool, ind)
		}
	}
	for _, ind := range e.population {
		if !seen[ind.Key()] {
			seen[ind.Key()] = true
			pool = append(pool, ind)
		}
	}
	return pool
}

// trackBest records the best-accuracy individual: highest score, ties broken
// by fewer operators, then by the earliest-found rule.
func (e *Engine) trackBest(individuals []*gp.Individual) {
	for _, ind := range individuals {
		if !ind.Evaluated || math.IsInf(ind.Score, -1) {
			continue
		}
		if e.best == nil || betterBest(ind, e.best) {
			e.best = ind
			e.bestGeneration = ind.Generation
		}
	}
}

func betterBest(a, b *gp.Individual) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.OperatorCount != b.OperatorCount {
		return a.OperatorCount < b.OperatorCount
	}
	return earlier(a, b)
}

func (e *Engine) finalize() {
	e.state = StateFinalized
}

func (e *Engine) bestScoreString() string {
	if e.best == nil {
		return "none"
	}
	return strconv.FormatFloat(e.best.Score, 'g', 6, 64)
}

// Best returns the winning individual of all runs so far. It errors when
// every candidate across the whole run failed evaluation.
func (e *Engine) Best() (*gp.Individual, error) {
	if e.best == nil {
		return nil, errors.New(errors.NoValidPipeline,
			"no pipeline evaluated successfully; every candidate failed or the search has not run")
	}
	return e.best, nil
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// StopReason reports why the last run ended.
func (e *Engine) StopReason() State { return e.stopReason }

// Generation returns the number of completed generations across all runs.
func (e *Engine) Generation() int { return e.generation }

// Population returns a copy of the current population.
func (e *Engine) Population() []*gp.Individual {
	return append([]*gp.Individual(nil), e.population...)
}

// ParetoFront returns a read-only view of the archive.
func (e *Engine) ParetoFront() []*gp.Individual {
	return e.archive.Members()
}

func validateInputs(features [][]float64, labels []float64) error {
	if len(features) == 0 {
		return errors.New(errors.InvalidDataset, "feature matrix is empty")
	}
	if len(features) != len(labels) {
		return errors.WithFields(
			errors.New(errors.InvalidDataset, "feature and label cardinality mismatch"),
			errors.Fields{"rows": len(features), "labels": len(labels)})
	}
	width := len(features[0])
	if width == 0 {
		return errors.New(errors.InvalidDataset, "feature rows are empty")
	}
	for i, row := range features {
		if len(row) != width {
			return errors.WithFields(
				errors.New(errors.InvalidDataset, "ragged feature matrix"),
				errors.Fields{"row": i, "want": width, "got": len(row)})
		}
	}
	return nil
}
