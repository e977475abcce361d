package gp

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVariator(t *testing.T, defs map[string]OperatorDef, seed int64) (*Registry, *Variator) {
	t.Helper()
	reg, err := NewRegistry(defs)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	return reg, NewVariator(reg, NewGenerator(reg, rng), rng)
}

func TestMutateScenario(t *testing.T) {
	// Mutating A(input_matrix) must yield either A unchanged or a larger
	// tree with B (or a combine) as an intermediate step; never a tree
	// rooted in B.
	reg, v := newVariator(t, testDefs(), 1)

	for i := 0; i < 200; i++ {
		ind := chainlessA(t, reg)
		mutant, err := v.Mutate(ind)
		require.NoError(t, err)
		require.NoError(t, mutant.Validate(TypeOutput))
		assert.True(t, strings.HasPrefix(mutant.Key(), "A("), "root must stay an estimator: %s", mutant.Key())
		assert.False(t, mutant.Evaluated)
	}
}

func chainlessA(t *testing.T, reg *Registry) *Individual {
	t.Helper()
	a, _ := reg.Primitive("A")
	return NewIndividual([]Node{a, reg.InputTerminal()})
}

func TestMutateReplacementTerminal(t *testing.T) {
	reg, v := newVariator(t, testDefs(), 2)
	ind := chainTree(t, reg) // A(B(input_matrix, B__p=1))

	sawOther := false
	for i := 0; i < 100; i++ {
		mutant, err := v.MutateReplacement(ind)
		require.NoError(t, err)
		require.NoError(t, mutant.Validate(TypeOutput))
		if strings.Contains(mutant.Key(), "B__p=2") {
			sawOther = true
		}
		// The replacement value must stay within B's own domain: the
		// synthetic type prevents cross-wiring.
		assert.NotContains(t, mutant.Key(), "A__")
	}
	assert.True(t, sawOther, "terminal replacement should eventually pick the other domain value")
}

func TestMutateReplacementPrimitive(t *testing.T) {
	reg, v := newVariator(t, richDefs(), 3)
	gen := NewGenerator(reg, rand.New(rand.NewSource(9)))

	for i := 0; i < 200; i++ {
		ind, err := gen.Generate(TypeOutput, 1, 3)
		require.NoError(t, err)
		mutant, err := v.MutateReplacement(ind)
		require.NoError(t, err)
		assert.NoError(t, mutant.Validate(TypeOutput), "from %s to %s", ind.Key(), mutant.Key())
	}
}

func TestMutateInsert(t *testing.T) {
	reg, v := newVariator(t, testDefs(), 4)

	grew := false
	for i := 0; i < 100; i++ {
		ind := chainlessA(t, reg)
		mutant, err := v.MutateInsert(ind)
		require.NoError(t, err)
		require.NoError(t, mutant.Validate(TypeOutput))
		if len(mutant.Nodes) > len(ind.Nodes) {
			grew = true
		}
	}
	assert.True(t, grew, "insertion should eventually add an intermediate step")
}

func TestMutateShrink(t *testing.T) {
	reg, v := newVariator(t, testDefs(), 5)

	t.Run("Simplifies a transformer chain", func(t *testing.T) {
		ind := chainTree(t, reg) // A(B(input_matrix, B__p=1))
		shrunk := false
		for i := 0; i < 50; i++ {
			mutant := v.MutateShrink(ind)
			require.NoError(t, mutant.Validate(TypeOutput))
			if mutant.Key() == "A(input_matrix)" {
				shrunk = true
			}
		}
		assert.True(t, shrunk)
	})

	t.Run("No candidate leaves tree unchanged", func(t *testing.T) {
		ind := chainlessA(t, reg)
		mutant := v.MutateShrink(ind)
		assert.Equal(t, ind.Key(), mutant.Key())
	})
}

func TestCrossover(t *testing.T) {
	reg, v := newVariator(t, richDefs(), 6)
	gen := NewGenerator(reg, rand.New(rand.NewSource(13)))

	t.Run("Children remain type correct", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			a, err := gen.Generate(TypeOutput, 1, 3)
			require.NoError(t, err)
			b, err := gen.Generate(TypeOutput, 1, 3)
			require.NoError(t, err)

			c1, c2 := v.Crossover(a, b)
			assert.NoError(t, c1.Validate(TypeOutput))
			assert.NoError(t, c2.Validate(TypeOutput))
		}
	})

	t.Run("Swapped subtrees clear fitness", func(t *testing.T) {
		a, err := gen.Generate(TypeOutput, 2, 3)
		require.NoError(t, err)
		b, err := gen.Generate(TypeOutput, 2, 3)
		require.NoError(t, err)
		a.SetFitness(2, 0.8)
		b.SetFitness(3, 0.6)

		c1, c2 := v.Crossover(a, b)
		if c1.Key() != a.Key() || c2.Key() != b.Key() {
			assert.False(t, c1.Evaluated)
			assert.False(t, c2.Evaluated)
		}
	})

	t.Run("Parents untouched", func(t *testing.T) {
		a, err := gen.Generate(TypeOutput, 1, 3)
		require.NoError(t, err)
		b, err := gen.Generate(TypeOutput, 1, 3)
		require.NoError(t, err)
		aKey, bKey := a.Key(), b.Key()

		v.Crossover(a, b)
		assert.Equal(t, aKey, a.Key())
		assert.Equal(t, bKey, b.Key())
	})
}

func TestVariationDeterminism(t *testing.T) {
	run := func() []string {
		reg, v := newVariator(t, richDefs(), 99)
		gen := NewGenerator(reg, rand.New(rand.NewSource(99)))
		keys := []string{}
		for i := 0; i < 30; i++ {
			ind, err := gen.Generate(TypeOutput, 1, 3)
			require.NoError(t, err)
			mutant, err := v.Mutate(ind)
			require.NoError(t, err)
			keys = append(keys, mutant.Key())
		}
		return keys
	}
	assert.Equal(t, run(), run())
}
