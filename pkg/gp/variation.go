package gp

import (
	"math/rand"
)

const (
	// maxCrossoverRetries bounds the search for a type-matching crossover
	// point before the parents are returned unchanged.
	maxCrossoverRetries = 10

	// mutationSubtreeDepth bounds subtrees regenerated during mutation.
	mutationSubtreeDepth = 3
)

// Variator applies the type-preserving structural operators. Every operator
// returns fresh individuals; any individual whose structure changed has its
// fitness cleared.
type Variator struct {
	reg *Registry
	gen *Generator
	rng *rand.Rand
}

func NewVariator(reg *Registry, gen *Generator, rng *rand.Rand) *Variator {
	return &Variator{reg: reg, gen: gen, rng: rng}
}

// Mutate applies one of the three structural mutations, chosen uniformly.
func (v *Variator) Mutate(ind *Individual) (*Individual, error) {
	switch v.rng.Intn(3) {
	case 0:
		return v.MutateReplacement(ind)
	case 1:
		return v.MutateInsert(ind)
	default:
		return v.MutateShrink(ind), nil
	}
}

// MutateReplacement picks a uniformly random node. A terminal is replaced
// with a uniformly random terminal of the same type. A primitive is replaced
// with a uniformly random primitive of the same output type; when the chosen
// replacement declares a different input-type tuple, the whole subtree is
// regenerated instead, restoring type correctness. The root's output type is
// preserved either way.
func (v *Variator) MutateReplacement(ind *Individual) (*Individual, error) {
	idx := v.rng.Intn(len(ind.Nodes))

	switch node := ind.Nodes[idx].(type) {
	case *Terminal:
		terms := v.reg.TerminalsFor(node.Type)
		replacement := terms[v.rng.Intn(len(terms))]
		return v.spliced(ind, idx, idx+1, []Node{replacement}), nil

	case *Primitive:
		prims := v.reg.PrimitivesFor(node.Output)
		replacement := prims[v.rng.Intn(len(prims))]
		if sameInputTuple(node, replacement) {
			return v.spliced(ind, idx, idx+1, []Node{replacement}), nil
		}
		subtree, err := v.gen.Subtree(node.Output, 0, mutationSubtreeDepth)
		if err != nil {
			return nil, err
		}
		return v.spliced(ind, idx, SubtreeEnd(ind.Nodes, idx), subtree), nil
	}
	return ind.Clone(), nil
}

// MutateInsert picks a node and inserts a new primitive above it: the old
// subtree becomes one child slot of matching type and the remaining slots are
// filled with freshly generated subtrees. When no primitive can sit above the
// chosen node the individual is returned unchanged.
func (v *Variator) MutateInsert(ind *Individual) (*Individual, error) {
	idx := v.rng.Intn(len(ind.Nodes))
	t := ind.Nodes[idx].OutputType()

	// Primitives that both produce t and consume it in some slot.
	type choice struct {
		prim *Primitive
		slot int
	}
	choices := make([]choice, 0, 4)
	for _, prim := range v.reg.PrimitivesFor(t) {
		for slot, in := range prim.InputTypes {
			if in == t {
				choices = append(choices, choice{prim, slot})
			}
		}
	}
	if len(choices) == 0 {
		return ind.Clone(), nil
	}
	picked := choices[v.rng.Intn(len(choices))]

	end := SubtreeEnd(ind.Nodes, idx)
	subtree := make([]Node, 0, end-idx+4)
	subtree = append(subtree, picked.prim)
	for slot, in := range picked.prim.InputTypes {
		if slot == picked.slot {
			subtree = append(subtree, ind.Nodes[idx:end]...)
			continue
		}
		fresh, err := v.gen.Subtree(in, 0, mutationSubtreeDepth-1)
		if err != nil {
			return nil, err
		}
		subtree = append(subtree, fresh...)
	}
	return v.spliced(ind, idx, end, subtree), nil
}

// MutateShrink picks a primitive node with a child subtree of the same output
// type and replaces the node's subtree with that child's: pipeline
// simplification. Unchanged when no node qualifies.
func (v *Variator) MutateShrink(ind *Individual) *Individual {
	type candidate struct {
		start, end           int
		childStart, childEnd int
	}
	candidates := make([]candidate, 0, 4)

	for i, node := range ind.Nodes {
		prim, ok := node.(*Primitive)
		if !ok {
			continue
		}
		child := i + 1
		for _, in := range prim.InputTypes {
			childEnd := SubtreeEnd(ind.Nodes, child)
			if in == prim.Output {
				candidates = append(candidates, candidate{
					start: i, end: SubtreeEnd(ind.Nodes, i),
					childStart: child, childEnd: childEnd,
				})
			}
			child = childEnd
		}
	}
	if len(candidates) == 0 {
		return ind.Clone()
	}

	c := candidates[v.rng.Intn(len(candidates))]
	return v.spliced(ind, c.start, c.end, ind.Nodes[c.childStart:c.childEnd])
}

// Crossover swaps a random subtree of a with a random subtree of matching
// output type in b. After a bounded number of attempts without a type match
// the parents are returned unchanged (fitness intact, nothing moved).
func (v *Variator) Crossover(a, b *Individual) (*Individual, *Individual) {
	for attempt := 0; attempt < maxCrossoverRetries; attempt++ {
		i := v.rng.Intn(len(a.Nodes))
		t := a.Nodes[i].OutputType()

		matches := make([]int, 0, len(b.Nodes))
		for j, node := range b.Nodes {
			if node.OutputType() == t {
				matches = append(matches, j)
			}
		}
		if len(matches) == 0 {
			continue
		}
		j := matches[v.rng.Intn(len(matches))]

		iEnd := SubtreeEnd(a.Nodes, i)
		jEnd := SubtreeEnd(b.Nodes, j)

		childA := splice(a.Nodes, i, iEnd, b.Nodes[j:jEnd])
		childB := splice(b.Nodes, j, jEnd, a.Nodes[i:iEnd])
		return NewIndividual(childA, a.ID, b.ID), NewIndividual(childB, b.ID, a.ID)
	}
	return a.Clone(), b.Clone()
}

func (v *Variator) spliced(ind *Individual, start, end int, replacement []Node) *Individual {
	return NewIndividual(splice(ind.Nodes, start, end, replacement), ind.ID)
}

func splice(nodes []Node, start, end int, replacement []Node) []Node {
	out := make([]Node, 0, len(nodes)-(end-start)+len(replacement))
	out = append(out, nodes[:start]...)
	out = append(out, replacement...)
	out = append(out, nodes[end:]...)
	return out
}

func sameInputTuple(a, b *Primitive) bool {
	if len(a.InputTypes) != len(b.InputTypes) {
		return false
	}
	for i := range a.InputTypes {
		if a.InputTypes[i] != b.InputTypes[i] {
			return false
		}
	}
	return true
}
