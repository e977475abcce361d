package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositiveInteger(t *testing.T) {
	assert.NoError(t, positiveInteger("generations", 1))
	assert.NoError(t, positiveInteger("generations", 100))
	assert.Error(t, positiveInteger("generations", 0))
	assert.Error(t, positiveInteger("generations", -5))
}

func TestFloatRange(t *testing.T) {
	assert.NoError(t, floatRange("mutation-rate", 0, 0, 1))
	assert.NoError(t, floatRange("mutation-rate", 1, 0, 1))
	assert.Error(t, floatRange("mutation-rate", -0.1, 0, 1))
	assert.Error(t, floatRange("mutation-rate", 1.1, 0, 1))
}

func TestValidateRunOptions(t *testing.T) {
	good := func() *runOptions {
		return &runOptions{
			data:        "data.csv",
			task:        "classifier",
			generations: 10,
			population:  50,
			folds:       5,
			workers:     4,
			crossover:   0.1,
			mutation:    0.9,
			testSplit:   0.25,
		}
	}
	assert.NoError(t, validateRunOptions(good()))

	cases := map[string]func(*runOptions){
		"zero generations": func(o *runOptions) { o.generations = 0 },
		"one fold":         func(o *runOptions) { o.folds = 1 },
		"rates above one":  func(o *runOptions) { o.crossover = 0.5; o.mutation = 0.6 },
		"bad task":         func(o *runOptions) { o.task = "clusterer" },
		"full test split":  func(o *runOptions) { o.testSplit = 1.0 },
		"negative minutes": func(o *runOptions) { o.maxMinutes = -1 },
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			opts := good()
			corrupt(opts)
			assert.Error(t, validateRunOptions(opts))
		})
	}
}
