package algorithms

import (
	"github.com/dd0wney/cluso-coreexp/pkg/graph"
)

// LinkCounts splits a node's links into those landing inside a community
// and those landing outside it.
type LinkCounts struct {
	Internal int
	External int
}

// Delta returns Internal - External.
func (c LinkCounts) Delta() int {
	return c.Internal - c.External
}

// CountLinks counts node's successor links (or predecessor links when
// useSuccessors is false) inside and outside c.
func CountLinks(g *graph.Graph, c *Community, node string, useSuccessors bool) LinkCounts {
	if useSuccessors {
		return countLinks(g.Successors(node), c)
	}
	return countLinks(g.Predecessors(node), c)
}

func countLinks(neighbors []string, c *Community) LinkCounts {
	var counts LinkCounts
	for _, n := range neighbors {
		if c.Contains(n) {
			counts.Internal++
		} else {
			counts.External++
		}
	}
	return counts
}

// InternalWeight sums weight(node, s) over the successors s of node that
// are members of c.
func InternalWeight(g *graph.Graph, c *Community, node string) (float64, error) {
	return internalWeight(g, node, g.Successors(node), c)
}

func internalWeight(g *graph.Graph, node string, successors []string, c *Community) (float64, error) {
	sum := 0.0
	for _, s := range successors {
		if !c.Contains(s) {
			continue
		}
		w, err := g.Weight(node, s)
		if err != nil {
			return 0, err
		}
		sum += w
	}
	return sum, nil
}
