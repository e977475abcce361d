package gp

import (
	"math/rand"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

const (
	// maxGenerateAttempts bounds retries before a degenerate type
	// configuration is reported instead of recursing forever.
	maxGenerateAttempts = 50

	// depthSlack is how far past the requested maximum depth a blocked
	// expansion may continue before the attempt is abandoned.
	depthSlack = 8
)

// Generator builds random, type-correct, depth-bounded trees. Given a seeded
// random source, generation is reproducible bit-for-bit.
type Generator struct {
	reg *Registry
	rng *rand.Rand
}

func NewGenerator(reg *Registry, rng *rand.Rand) *Generator {
	return &Generator{reg: reg, rng: rng}
}

// Generate builds a random individual rooted at rootType with depth in
// [minDepth, maxDepth], grow-style: terminals become more likely as depth
// approaches the height drawn for this tree, and are avoided below minDepth.
func (g *Generator) Generate(rootType Type, minDepth, maxDepth int) (*Individual, error) {
	nodes, err := g.Subtree(rootType, minDepth, maxDepth)
	if err != nil {
		return nil, err
	}
	return NewIndividual(nodes), nil
}

// Subtree builds the raw node sequence for a random subtree of the given
// type. Used by Generate and by the structural operators when a mutation must
// regenerate part of a tree.
func (g *Generator) Subtree(rootType Type, minDepth, maxDepth int) ([]Node, error) {
	if minDepth > maxDepth {
		minDepth = maxDepth
	}

	min := minDepth
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		height := min + g.rng.Intn(maxDepth-min+1)
		nodes := make([]Node, 0, 8)
		if err := g.grow(rootType, 0, min, height, &nodes); err == nil {
			return nodes, nil
		}
		// Relax the minimum before the next attempt: a required type may
		// have no terminal reachable within the depth window.
		if min > 0 {
			min--
		}
	}
	return nil, errors.WithFields(
		errors.New(errors.GenerationFailed, "could not generate a type-correct tree; operator configuration is degenerate"),
		errors.Fields{"root_type": g.reg.TypeName(rootType), "attempts": maxGenerateAttempts})
}

func (g *Generator) grow(t Type, depth, minDepth, height int, out *[]Node) error {
	if depth > height+depthSlack {
		return errors.New(errors.GenerationFailed, "expansion exceeded depth bound")
	}

	prims := g.reg.PrimitivesFor(t)
	terms := g.reg.TerminalsFor(t)

	if len(prims) == 0 && len(terms) == 0 {
		return errors.WithFields(
			errors.New(errors.GenerationFailed, "no primitive or terminal produces required type"),
			errors.Fields{"type": g.reg.TypeName(t)})
	}

	if g.pickTerminal(depth, minDepth, height, len(prims), len(terms)) {
		*out = append(*out, terms[g.rng.Intn(len(terms))])
		return nil
	}

	prim := prims[g.rng.Intn(len(prims))]
	*out = append(*out, prim)
	for _, childType := range prim.InputTypes {
		if err := g.grow(childType, depth+1, minDepth, height, out); err != nil {
			return err
		}
	}
	return nil
}

// pickTerminal decides whether to close the current slot with a terminal.
// At or past the drawn height a terminal is forced when one exists; below the
// minimum depth terminals are avoided when expansion is possible; in between,
// the chance of a terminal follows its share of the candidate set.
func (g *Generator) pickTerminal(depth, minDepth, height, prims, terms int) bool {
	if terms == 0 {
		return false
	}
	if prims == 0 {
		return true
	}
	if depth >= height {
		return true
	}
	if depth < minDepth {
		return false
	}
	ratio := float64(terms) / float64(terms+prims)
	return g.rng.Float64() < ratio
}
