package engine

import (
	"math"
	"math/rand"
	"sort"

	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

// nonDominatedSort partitions evaluated individuals into Pareto fronts:
// front 0 is non-dominated, front 1 is non-dominated once front 0 is removed,
// and so on.
func nonDominatedSort(pool []*gp.Individual) [][]*gp.Individual {
	fronts := make([][]*gp.Individual, 0, 4)
	remaining := append([]*gp.Individual(nil), pool...)

	for len(remaining) > 0 {
		front := make([]*gp.Individual, 0, len(remaining))
		rest := make([]*gp.Individual, 0, len(remaining))

		for i, ind := range remaining {
			dominated := false
			for j, other := range remaining {
				if i != j && dominates(other, ind) {
					dominated = true
					break
				}
			}
			if dominated {
				rest = append(rest, ind)
			} else {
				front = append(front, ind)
			}
		}

		sort.Slice(front, func(i, j int) bool { return earlier(front[i], front[j]) })
		fronts = append(fronts, front)
		remaining = rest
	}
	return fronts
}

// environmentalSelect reduces parents plus offspring to the next generation:
// whole fronts are taken in rank order, and the front that overflows the
// target size is truncated by descending crowding distance.
func environmentalSelect(pool []*gp.Individual, size int) []*gp.Individual {
	if len(pool) <= size {
		return append([]*gp.Individual(nil), pool...)
	}

	selected := make([]*gp.Individual, 0, size)
	for _, front := range nonDominatedSort(pool) {
		if len(selected)+len(front) <= size {
			selected = append(selected, front...)
			if len(selected) == size {
				break
			}
			continue
		}

		distances := crowdingDistance(front)
		truncated := append([]*gp.Individual(nil), front...)
		sort.SliceStable(truncated, func(i, j int) bool {
			return distances[truncated[i].ID] > distances[truncated[j].ID]
		})
		selected = append(selected, truncated[:size-len(selected)]...)
		break
	}
	return selected
}

// tournamentSelect picks one individual by binary tournament on (front rank,
// crowding distance): the standard NSGA-II mating selection.
func tournamentSelect(pool []*gp.Individual, ranks map[string]int, distances map[string]float64, rng *rand.Rand) *gp.Individual {
	a := pool[rng.Intn(len(pool))]
	b := pool[rng.Intn(len(pool))]

	if ranks[a.ID] != ranks[b.ID] {
		if ranks[a.ID] < ranks[b.ID] {
			return a
		}
		return b
	}
	if distances[a.ID] != distances[b.ID] {
		if distances[a.ID] > distances[b.ID] {
			return a
		}
		return b
	}
	return a
}

// rankAndCrowd computes front ranks and per-front crowding distances for a
// mating pool.
func rankAndCrowd(pool []*gp.Individual) (map[string]int, map[string]float64) {
	ranks := make(map[string]int, len(pool))
	distances := make(map[string]float64, len(pool))

	for rank, front := range nonDominatedSort(pool) {
		frontDistances := crowdingDistance(front)
		for _, ind := range front {
			ranks[ind.ID] = rank
			distances[ind.ID] = frontDistances[ind.ID]
		}
	}

	// Guard against NaN creeping into comparisons.
	for id, d := range distances {
		if math.IsNaN(d) {
			distances[id] = 0
		}
	}
	return ranks, distances
}
