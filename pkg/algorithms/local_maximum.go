package algorithms

import (
	"math"

	"github.com/dd0wney/cluso-coreexp/pkg/graph"
)

// outWeightTolerance is the slack used when comparing out-weights.
const outWeightTolerance = 1e-9

// TieBreak decides what happens when a node and one of its neighbors have
// equal out-weight.
type TieBreak int

const (
	// TieBreakFirstSeen keeps only the node that comes first in node
	// enumeration order among equal neighbors.
	TieBreakFirstSeen TieBreak = iota
	// TieBreakKeepAll never lets an equal neighbor disqualify a node.
	TieBreakKeepAll
)

// String returns the policy name.
func (t TieBreak) String() string {
	switch t {
	case TieBreakFirstSeen:
		return "first-seen"
	case TieBreakKeepAll:
		return "keep-all"
	default:
		return "unknown"
	}
}

// ParseTieBreak maps a policy name back to its TieBreak.
func ParseTieBreak(s string) (TieBreak, bool) {
	switch s {
	case "first-seen", "":
		return TieBreakFirstSeen, true
	case "keep-all":
		return TieBreakKeepAll, true
	default:
		return TieBreakFirstSeen, false
	}
}

// Seed is a local-maximum node and its out-weight.
type Seed struct {
	Node      string
	OutWeight float64
}

// FindLocalMaximumNodes returns, in node enumeration order, every visible
// node whose out-weight is not exceeded by any visible successor.
func FindLocalMaximumNodes(g *graph.Graph, policy TieBreak) []Seed {
	nodes := g.Nodes()
	position := make(map[string]int, len(nodes))
	for i, n := range nodes {
		position[n] = i
	}

	seeds := make([]Seed, 0)
	for i, node := range nodes {
		own := g.OutWeight(node)
		isMax := true
		for _, s := range g.Successors(node) {
			other := g.OutWeight(s)
			if other > own+outWeightTolerance {
				isMax = false
				break
			}
			if policy == TieBreakFirstSeen && math.Abs(other-own) <= outWeightTolerance && position[s] < i {
				isMax = false
				break
			}
		}
		if isMax {
			seeds = append(seeds, Seed{Node: node, OutWeight: own})
		}
	}
	return seeds
}

// SeedMap returns the node -> out-weight mapping of seeds.
func SeedMap(seeds []Seed) map[string]float64 {
	m := make(map[string]float64, len(seeds))
	for _, s := range seeds {
		m[s.Node] = s.OutWeight
	}
	return m
}
