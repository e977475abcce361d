package commands

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/evopipe"
	"github.com/XiaoConstantine/evopipe/cmd/evopipe-cli/internal/estimators"
	"github.com/XiaoConstantine/evopipe/pkg/cache"
	"github.com/XiaoConstantine/evopipe/pkg/config"
	"github.com/XiaoConstantine/evopipe/pkg/datasets"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

type runOptions struct {
	data        string
	target      string
	task        string
	configPath  string
	generations int
	population  int
	folds       int
	workers     int
	crossover   float64
	mutation    float64
	seed        int64
	testSplit   float64
	maxMinutes  int
	output      string
	cachePath   string
}

func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an evolutionary pipeline search against a dataset",
		Long: `Load a CSV or Parquet dataset, evolve pipelines against it with the
built-in stand-in estimator library, and report the best pipeline found along
with the Pareto frontier of score/complexity trade-offs.

The search space defaults to the built-in light configuration for the chosen
task; pass --config to use a custom YAML operator file.`,
		Example: `  # Classify with the default search space
  evopipe-cli run --data iris.csv --target species

  # Regression with a custom operator file and a persistent evaluation cache
  evopipe-cli run --data housing.parquet --target price --task regressor \
      --config operators.yaml --cache evals.db

  # Export the winner as a standalone script
  evopipe-cli run --data iris.csv --target species --output pipeline.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRunOptions(opts); err != nil {
				return err
			}
			return runSearch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "dataset path (.csv or .parquet)")
	cmd.Flags().StringVar(&opts.target, "target", "target", "name of the label column")
	cmd.Flags().StringVar(&opts.task, "task", "classifier", "task type: classifier or regressor")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML operator configuration file")
	cmd.Flags().IntVar(&opts.generations, "generations", 10, "generation budget")
	cmd.Flags().IntVar(&opts.population, "population", 50, "population and offspring size")
	cmd.Flags().IntVar(&opts.folds, "folds", 5, "cross-validation folds")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "parallel evaluation workers")
	cmd.Flags().Float64Var(&opts.crossover, "crossover-rate", 0.1, "crossover probability")
	cmd.Flags().Float64Var(&opts.mutation, "mutation-rate", 0.9, "mutation probability")
	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "random seed")
	cmd.Flags().Float64Var(&opts.testSplit, "test-split", 0.25, "held-out test fraction")
	cmd.Flags().IntVar(&opts.maxMinutes, "max-minutes", 0, "wall-clock budget in minutes (0 = unlimited)")
	cmd.Flags().StringVar(&opts.output, "output", "", "write the exported pipeline script here")
	cmd.Flags().StringVar(&opts.cachePath, "cache", "", "SQLite evaluation cache path")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func validateRunOptions(opts *runOptions) error {
	if err := positiveInteger("generations", opts.generations); err != nil {
		return err
	}
	if err := positiveInteger("population", opts.population); err != nil {
		return err
	}
	if err := positiveInteger("workers", opts.workers); err != nil {
		return err
	}
	if opts.folds < 2 {
		return fmt.Errorf("--folds must be at least 2, got %d", opts.folds)
	}
	if err := floatRange("crossover-rate", opts.crossover, 0, 1); err != nil {
		return err
	}
	if err := floatRange("mutation-rate", opts.mutation, 0, 1); err != nil {
		return err
	}
	if opts.crossover+opts.mutation > 1 {
		return fmt.Errorf("--crossover-rate and --mutation-rate must sum to at most 1")
	}
	if err := floatRange("test-split", opts.testSplit, 0.01, 0.99); err != nil {
		return err
	}
	if opts.task != "classifier" && opts.task != "regressor" {
		return fmt.Errorf("--task must be classifier or regressor, got %q", opts.task)
	}
	if opts.maxMinutes < 0 {
		return fmt.Errorf("--max-minutes must not be negative, got %d", opts.maxMinutes)
	}
	return nil
}

func runSearch(cmd *cobra.Command, opts *runOptions) error {
	ds, err := loadDataset(cmd, opts)
	if err != nil {
		return err
	}

	train, test, err := ds.Split(rand.New(rand.NewSource(opts.seed)), opts.testSplit)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d rows x %d features; %d train / %d test\n",
		ds.Rows(), len(ds.FeatureNames), train.Rows(), test.Rows())

	searchOpts := []evopipe.Option{
		evopipe.WithFactory(estimators.Factory{}),
		evopipe.WithGenerations(opts.generations),
		evopipe.WithPopulationSize(opts.population),
		evopipe.WithFolds(opts.folds),
		evopipe.WithWorkers(opts.workers),
		evopipe.WithRates(opts.crossover, opts.mutation),
		evopipe.WithSeed(opts.seed),
	}
	if opts.maxMinutes > 0 {
		searchOpts = append(searchOpts, evopipe.WithMaxRunTime(time.Duration(opts.maxMinutes)*time.Minute))
	}
	if opts.configPath != "" {
		defs, err := loadOperatorDefs(opts.configPath)
		if err != nil {
			return err
		}
		searchOpts = append(searchOpts, evopipe.WithOperators(defs))
	}
	if opts.cachePath != "" {
		store, err := cache.NewSQLiteStore(opts.cachePath)
		if err != nil {
			return err
		}
		defer store.Close()
		searchOpts = append(searchOpts, evopipe.WithCache(store))
	}

	if opts.task == "regressor" {
		return runRegression(cmd, opts, searchOpts, train, test)
	}
	return runClassification(cmd, opts, searchOpts, train, test)
}

func runClassification(cmd *cobra.Command, opts *runOptions, searchOpts []evopipe.Option, train, test *datasets.Dataset) error {
	clf, err := evopipe.NewClassifier(searchOpts...)
	if err != nil {
		return err
	}
	if err := clf.Fit(cmd.Context(), train.Features, train.Labels); err != nil {
		return err
	}
	score, err := clf.Score(test.Features, test.Labels)
	if err != nil {
		return err
	}
	best, err := clf.Best()
	if err != nil {
		return err
	}
	printResult(best, clf.ParetoFront(), "accuracy", score)
	return writeExport(opts.output, clf.Export)
}

func runRegression(cmd *cobra.Command, opts *runOptions, searchOpts []evopipe.Option, train, test *datasets.Dataset) error {
	reg, err := evopipe.NewRegressor(searchOpts...)
	if err != nil {
		return err
	}
	if err := reg.Fit(cmd.Context(), train.Features, train.Labels); err != nil {
		return err
	}
	score, err := reg.Score(test.Features, test.Labels)
	if err != nil {
		return err
	}
	best, err := reg.Best()
	if err != nil {
		return err
	}
	printResult(best, reg.ParetoFront(), "r2", score)
	return writeExport(opts.output, reg.Export)
}

func printResult(best *gp.Individual, front []*gp.Individual, metric string, score float64) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	fmt.Println()
	bold.Println("Best pipeline:")
	fmt.Printf("  %s\n", best.Key())
	fmt.Printf("  operators=%d cv_score=%.4f\n", best.OperatorCount, best.Score)
	green.Printf("  held-out %s: %.4f\n", metric, score)

	fmt.Println()
	bold.Printf("Pareto frontier (%d):\n", len(front))
	for _, member := range front {
		fmt.Printf("  [%d ops, %.4f] %s\n", member.OperatorCount, member.Score, member.Key())
	}
}

func loadDataset(cmd *cobra.Command, opts *runOptions) (*datasets.Dataset, error) {
	switch strings.ToLower(filepath.Ext(opts.data)) {
	case ".csv":
		return datasets.LoadCSV(opts.data, opts.target)
	case ".parquet":
		return datasets.LoadParquet(cmd.Context(), opts.data, opts.target)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q: use .csv or .parquet", filepath.Ext(opts.data))
	}
}

func loadOperatorDefs(path string) (map[string]gp.OperatorDef, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return file.OperatorDefs()
}

func writeExport(path string, export func() (string, error)) error {
	if path == "" {
		return nil
	}
	script, err := export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return err
	}
	fmt.Printf("\nExported pipeline script to %s\n", path)
	return nil
}
