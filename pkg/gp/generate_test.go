package gp

import (
	stderrors "errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/XiaoConstantine/evopipe/pkg/errors"
)

func TestGenerateScenario(t *testing.T) {
	// With only root-eligible A and intermediate B, a depth-1 window must
	// always produce the single-operator tree A.
	reg, err := NewRegistry(testDefs())
	require.NoError(t, err)

	for seed := int64(0); seed < 20; seed++ {
		gen := NewGenerator(reg, rand.New(rand.NewSource(seed)))
		ind, err := gen.Generate(TypeOutput, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, "A(input_matrix)", ind.Key())
	}
}

func TestGenerateTypeSafety(t *testing.T) {
	reg, err := NewRegistry(richDefs())
	require.NoError(t, err)
	gen := NewGenerator(reg, rand.New(rand.NewSource(7)))

	for i := 0; i < 200; i++ {
		ind, err := gen.Generate(TypeOutput, 1, 3)
		require.NoError(t, err)
		assert.NoError(t, ind.Validate(TypeOutput))
		assert.False(t, ind.Evaluated)
	}
}

func TestGenerateDepthBounds(t *testing.T) {
	reg, err := NewRegistry(richDefs())
	require.NoError(t, err)
	gen := NewGenerator(reg, rand.New(rand.NewSource(11)))

	for i := 0; i < 100; i++ {
		ind, err := gen.Generate(TypeOutput, 1, 3)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ind.Depth(), 1)
		// Hyperparameter terminals hang one level under their operator, so a
		// height-3 tree is at most 4 levels deep.
		assert.LessOrEqual(t, ind.Depth(), 4)
	}
}

func TestGenerateDeterminism(t *testing.T) {
	reg, err := NewRegistry(richDefs())
	require.NoError(t, err)

	run := func(seed int64) []string {
		gen := NewGenerator(reg, rand.New(rand.NewSource(seed)))
		keys := make([]string, 0, 50)
		for i := 0; i < 50; i++ {
			ind, err := gen.Generate(TypeOutput, 1, 3)
			require.NoError(t, err)
			keys = append(keys, ind.Key())
		}
		return keys
	}

	assert.Equal(t, run(42), run(42), "same seed must reproduce the population bit-for-bit")
	assert.NotEqual(t, run(42), run(43), "different seeds should diverge")
}

func TestGenerateDegenerateConfig(t *testing.T) {
	// A type nothing can produce: reachable only through a hand-built
	// registry, since NewRegistry rejects empty domains. Exercise the
	// attempt ceiling through the generator directly.
	reg, err := NewRegistry(testDefs())
	require.NoError(t, err)
	gen := NewGenerator(reg, rand.New(rand.NewSource(3)))

	_, genErr := gen.Subtree(Type(9999), 1, 3)
	require.Error(t, genErr)
	assert.True(t, stderrors.Is(genErr, pkgerrors.New(pkgerrors.GenerationFailed, "")))
}

func TestGenerateMinDepthRelaxation(t *testing.T) {
	// minDepth larger than what the type configuration can sustain must
	// relax rather than loop forever.
	reg, err := NewRegistry(testDefs())
	require.NoError(t, err)
	gen := NewGenerator(reg, rand.New(rand.NewSource(5)))

	ind, err := gen.Generate(TypeOutput, 1, 2)
	require.NoError(t, err)
	assert.NoError(t, ind.Validate(TypeOutput))
}
