package gp

import (
	"math"
	"strings"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/google/uuid"
)

// Individual is one candidate pipeline: a prefix traversal of a typed tree.
// Each primitive node's children are the next arity-worth of complete
// subtrees immediately following it, and each child's output type matches the
// corresponding declared input slot.
//
// Individuals are immutable after construction; variation operators build new
// node slices rather than editing in place, so the cached canonical key stays
// valid for the individual's lifetime.
type Individual struct {
	ID         string
	Nodes      []Node
	Generation int
	ParentIDs  []string

	// Fitness attributes, valid only once Evaluated is set. OperatorCount is
	// minimized, Score maximized.
	Evaluated     bool
	OperatorCount int
	Score         float64

	key string
}

// NewIndividual wraps a prefix node sequence into a fresh, unevaluated
// individual.
func NewIndividual(nodes []Node, parentIDs ...string) *Individual {
	return &Individual{
		ID:        uuid.NewString(),
		Nodes:     nodes,
		ParentIDs: parentIDs,
		Score:     math.Inf(-1),
	}
}

// Clone returns a copy with a new identity but the same structure. Fitness is
// preserved: the structure is unchanged, so re-evaluation would reproduce it.
func (ind *Individual) Clone() *Individual {
	c := &Individual{
		ID:            uuid.NewString(),
		Nodes:         append([]Node(nil), ind.Nodes...),
		Generation:    ind.Generation,
		ParentIDs:     []string{ind.ID},
		Evaluated:     ind.Evaluated,
		OperatorCount: ind.OperatorCount,
		Score:         ind.Score,
		key:           ind.key,
	}
	return c
}

// SetFitness attaches the two objective values.
func (ind *Individual) SetFitness(operatorCount int, score float64) {
	ind.OperatorCount = operatorCount
	ind.Score = score
	ind.Evaluated = true
}

// ClearFitness marks the individual as unevaluated.
func (ind *Individual) ClearFitness() {
	ind.OperatorCount = 0
	ind.Score = math.Inf(-1)
	ind.Evaluated = false
}

// Key returns the canonical string rendering, the individual's equality and
// cache identity. Computed once and cached.
func (ind *Individual) Key() string {
	if ind.key == "" {
		var b strings.Builder
		renderSubtree(ind.Nodes, 0, &b)
		ind.key = b.String()
	}
	return ind.key
}

func (ind *Individual) String() string { return ind.Key() }

func renderSubtree(nodes []Node, i int, b *strings.Builder) int {
	node := nodes[i]
	b.WriteString(node.Label())
	i++
	if node.NodeArity() == 0 {
		return i
	}
	b.WriteString("(")
	for child := 0; child < node.NodeArity(); child++ {
		if child > 0 {
			b.WriteString(", ")
		}
		i = renderSubtree(nodes, i, b)
	}
	b.WriteString(")")
	return i
}

// SubtreeEnd returns the index one past the complete subtree rooted at start.
func SubtreeEnd(nodes []Node, start int) int {
	end := start + 1
	pending := nodes[start].NodeArity()
	for pending > 0 {
		pending += nodes[end].NodeArity() - 1
		end++
	}
	return end
}

// CountOperators counts the non-terminal, non-combine nodes: the pipeline
// complexity objective.
func (ind *Individual) CountOperators() int {
	count := 0
	for _, node := range ind.Nodes {
		if prim, ok := node.(*Primitive); ok && prim.Capability != CapabilityCombiner {
			count++
		}
	}
	return count
}

// Depth returns the maximum node depth of the tree, with the root at depth 0.
func (ind *Individual) Depth() int {
	depth, max := 0, 0
	stack := []int{}
	for _, node := range ind.Nodes {
		if depth > max {
			max = depth
		}
		if node.NodeArity() > 0 {
			stack = append(stack, node.NodeArity())
			depth++
			continue
		}
		for len(stack) > 0 {
			stack[len(stack)-1]--
			if stack[len(stack)-1] > 0 {
				break
			}
			stack = stack[:len(stack)-1]
			depth--
		}
	}
	return max
}

// Validate confirms the structural invariant: every primitive's children
// match its declared input types, the root produces rootType, and the
// sequence encodes exactly one tree.
func (ind *Individual) Validate(rootType Type) error {
	if len(ind.Nodes) == 0 {
		return errors.New(errors.ValidationFailed, "individual has no nodes")
	}
	end, err := checkSubtree(ind.Nodes, 0, rootType)
	if err != nil {
		return err
	}
	if end != len(ind.Nodes) {
		return errors.WithFields(
			errors.New(errors.ValidationFailed, "trailing nodes after complete tree"),
			errors.Fields{"tree_end": end, "nodes": len(ind.Nodes)})
	}
	return nil
}

func checkSubtree(nodes []Node, i int, want Type) (int, error) {
	if i >= len(nodes) {
		return 0, errors.New(errors.ValidationFailed, "truncated tree: missing child subtree")
	}
	node := nodes[i]
	if node.OutputType() != want {
		return 0, errors.WithFields(
			errors.New(errors.ValidationFailed, "node output type does not match required slot type"),
			errors.Fields{"position": i, "node": node.Label(), "want": int(want), "got": int(node.OutputType())})
	}
	i++
	if prim, ok := node.(*Primitive); ok {
		var err error
		for _, childType := range prim.InputTypes {
			if i, err = checkSubtree(nodes, i, childType); err != nil {
				return 0, err
			}
		}
	}
	return i, nil
}
