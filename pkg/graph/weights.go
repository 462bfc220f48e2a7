package graph

import (
	"cmp"
	"fmt"
	"slices"
)

// Weight returns the weight of a -> b: the explicit table entry when one
// exists, else 1.0 when an edge joins the visible endpoints in either
// direction, else 0.0. Unknown endpoints are an invalid-state error.
func (g *Graph) Weight(a, b string) (float64, error) {
	if !g.HasNode(a) || !g.HasNode(b) {
		return 0, NewError("Weight").Edge(EdgeKey{From: a, To: b}).
			Context(fmt.Sprintf("one of %q or %q is missing", a, b)).
			Cause(ErrUnknownNode).Err()
	}
	if w, ok := g.weights[EdgeKey{From: a, To: b}]; ok {
		return w, nil
	}
	if (g.HasEdge(a, b) || g.HasEdge(b, a)) && !g.IsHidden(a) && !g.IsHidden(b) {
		return 1.0, nil
	}
	return 0.0, nil
}

// Weights returns the live weight table. Do not modify it.
func (g *Graph) Weights() map[EdgeKey]float64 {
	return g.weights
}

// EdgesOfWeight returns the keys whose stored weight equals weight and whose
// edge is still present in the adjacency.
func (g *Graph) EdgesOfWeight(weight float64) []EdgeKey {
	var edges []EdgeKey
	for key, w := range g.weights {
		if w == weight && g.HasNode(key.From) && g.HasNode(key.To) && g.HasEdge(key.From, key.To) {
			edges = append(edges, key)
		}
	}
	slices.SortFunc(edges, compareEdgeKeys)
	return edges
}

// SetSortWeights toggles maintenance of the ascending weight lists by
// SetWeights.
func (g *Graph) SetSortWeights(enabled bool) {
	g.sortWeights = enabled
}

// SetWeights replaces the weight table. With recalculate, out-weights of
// every visible node are recomputed and, when sorting is enabled, the
// ascending weight and out-weight lists are rebuilt.
func (g *Graph) SetWeights(weights map[EdgeKey]float64, recalculate bool) error {
	if weights == nil {
		weights = make(map[EdgeKey]float64)
	}
	g.weights = weights
	if !recalculate {
		return nil
	}

	g.outWeights = make(map[string]float64)
	g.sortedOutWeights = nil
	for _, node := range g.Nodes() {
		outWeight, err := g.ComputeOutWeight(node)
		if err != nil {
			return err
		}
		g.outWeights[node] = outWeight
		if g.sortWeights {
			g.sortedOutWeights = insertSorted(g.sortedOutWeights, outWeight)
		}
	}

	if g.sortWeights {
		g.sortedWeights = nil
		keys := make([]EdgeKey, 0, len(weights))
		for k := range weights {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareEdgeKeys)
		for _, k := range keys {
			g.sortedWeights = insertSorted(g.sortedWeights, weights[k])
		}
	}
	return nil
}

// ComputeOutWeight sums the weights from id to its visible successors,
// bypassing the cache.
func (g *Graph) ComputeOutWeight(id string) (float64, error) {
	sum := 0.0
	for _, s := range g.Successors(id) {
		w, err := g.Weight(id, s)
		if err != nil {
			return 0, err
		}
		sum += w
	}
	return sum, nil
}

// OutWeight returns the cached out-weight of id (0 when never computed).
func (g *Graph) OutWeight(id string) float64 {
	return g.outWeights[id]
}

// OutWeights returns the live out-weight cache. Do not modify it.
func (g *Graph) OutWeights() map[string]float64 {
	return g.outWeights
}

// SortedOutWeights returns the distinct out-weights in ascending order.
// Only maintained when sorting is enabled.
func (g *Graph) SortedOutWeights() []float64 {
	return g.sortedOutWeights
}

// SortedWeights returns the distinct edge weights in ascending order.
// Only maintained when sorting is enabled.
func (g *Graph) SortedWeights() []float64 {
	return g.sortedWeights
}

// MinOutWeight returns the smallest out-weight. Requires sorting enabled.
func (g *Graph) MinOutWeight() (float64, bool) {
	if len(g.sortedOutWeights) == 0 {
		return 0, false
	}
	return g.sortedOutWeights[0], true
}

// SetOptionalWeights installs the auxiliary weight side table.
func (g *Graph) SetOptionalWeights(weights map[EdgeKey]float64) {
	g.optionalWeights = weights
}

// OptionalWeight returns the side-table weight of a -> b, or 1.0.
func (g *Graph) OptionalWeight(a, b string) float64 {
	if w, ok := g.optionalWeights[EdgeKey{From: a, To: b}]; ok {
		return w
	}
	return 1.0
}

// insertSorted inserts v into the ascending list unless it is already there.
func insertSorted(list []float64, v float64) []float64 {
	i, found := slices.BinarySearch(list, v)
	if found {
		return list
	}
	return slices.Insert(list, i, v)
}

func compareEdgeKeys(a, b EdgeKey) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	return cmp.Compare(a.To, b.To)
}
