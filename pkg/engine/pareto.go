package engine

import (
	"math"
	"sort"

	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

// dominates reports whether a dominates b under the two objectives: fewer
// operators and higher score. a dominates when it is no worse on both and
// strictly better on at least one.
func dominates(a, b *gp.Individual) bool {
	noWorse := a.OperatorCount <= b.OperatorCount && a.Score >= b.Score
	strictlyBetter := a.OperatorCount < b.OperatorCount || a.Score > b.Score
	return noWorse && strictlyBetter
}

// earlier is the documented deterministic tiebreak: lower generation first,
// then lexicographically smaller canonical string.
func earlier(a, b *gp.Individual) bool {
	if a.Generation != b.Generation {
		return a.Generation < b.Generation
	}
	return a.Key() < b.Key()
}

// Archive maintains the bounded Pareto frontier of evaluated individuals.
// It is mutated only by the engine thread between generations.
type Archive struct {
	capacity int
	members  []*gp.Individual
}

func NewArchive(capacity int) *Archive {
	return &Archive{capacity: capacity}
}

// Update recomputes non-domination over the current members plus the newly
// evaluated candidates, then prunes to capacity by crowding distance. An
// individual already archived is never displaced by a later duplicate of the
// same canonical string.
func (a *Archive) Update(candidates []*gp.Individual) {
	pool := make([]*gp.Individual, 0, len(a.members)+len(candidates))
	seen := make(map[string]bool, len(a.members)+len(candidates))

	for _, ind := range a.members {
		if !seen[ind.Key()] {
			seen[ind.Key()] = true
			pool = append(pool, ind)
		}
	}
	for _, ind := range candidates {
		if ind.Evaluated && !seen[ind.Key()] {
			seen[ind.Key()] = true
			pool = append(pool, ind)
		}
	}

	nonDominated := make([]*gp.Individual, 0, len(pool))
	for i, ind := range pool {
		dominated := false
		for j, other := range pool {
			if i != j && dominates(other, ind) {
				dominated = true
				break
			}
		}
		if !dominated {
			nonDominated = append(nonDominated, ind)
		}
	}

	sort.Slice(nonDominated, func(i, j int) bool {
		return earlier(nonDominated[i], nonDominated[j])
	})

	if len(nonDominated) > a.capacity {
		distances := crowdingDistance(nonDominated)
		sort.SliceStable(nonDominated, func(i, j int) bool {
			return distances[nonDominated[i].ID] > distances[nonDominated[j].ID]
		})
		nonDominated = nonDominated[:a.capacity]
		sort.Slice(nonDominated, func(i, j int) bool {
			return earlier(nonDominated[i], nonDominated[j])
		})
	}

	a.members = nonDominated
}

// Members returns a copy of the frontier in deterministic order.
func (a *Archive) Members() []*gp.Individual {
	return append([]*gp.Individual(nil), a.members...)
}

// crowdingDistance computes the NSGA-II diversity measure for one front,
// keyed by individual ID. Boundary points on either objective get an
// effectively infinite distance so they are always retained.
func crowdingDistance(front []*gp.Individual) map[string]float64 {
	distances := make(map[string]float64, len(front))
	if len(front) <= 2 {
		for _, ind := range front {
			distances[ind.ID] = math.Inf(1)
		}
		return distances
	}
	for _, ind := range front {
		distances[ind.ID] = 0
	}

	objectives := []func(*gp.Individual) float64{
		func(ind *gp.Individual) float64 { return -float64(ind.OperatorCount) },
		func(ind *gp.Individual) float64 { return ind.Score },
	}

	sorted := append([]*gp.Individual(nil), front...)
	for _, objective := range objectives {
		sort.SliceStable(sorted, func(i, j int) bool {
			if objective(sorted[i]) != objective(sorted[j]) {
				return objective(sorted[i]) < objective(sorted[j])
			}
			return sorted[i].Key() < sorted[j].Key()
		})

		distances[sorted[0].ID] = math.Inf(1)
		distances[sorted[len(sorted)-1].ID] = math.Inf(1)

		// Failed individuals carry -Inf scores; a span involving them is
		// infinite or NaN and contributes nothing.
		span := objective(sorted[len(sorted)-1]) - objective(sorted[0])
		if span == 0 || math.IsInf(span, 0) || math.IsNaN(span) {
			continue
		}
		for i := 1; i < len(sorted)-1; i++ {
			distances[sorted[i].ID] += (objective(sorted[i+1]) - objective(sorted[i-1])) / span
		}
	}
	return distances
}
