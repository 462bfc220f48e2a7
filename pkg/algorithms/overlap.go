package algorithms

import (
	"math/big"
	"slices"

	"github.com/dd0wney/cluso-coreexp/pkg/graph"
	"github.com/dd0wney/cluso-coreexp/pkg/logging"
)

// overlapScale is the number of decimals overlap weights are rounded to.
const overlapScale = 4

// CalculateOverlap scores every visible edge (a, b) by the neighborhood
// overlap of its endpoints, installs the scores as the graph's weight table
// (recomputing out-weights) and as its optional-weights table, and returns
// them.
func CalculateOverlap(g *graph.Graph, logger logging.Logger) (map[graph.EdgeKey]float64, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	weights := make(map[graph.EdgeKey]float64)
	for _, a := range g.Nodes() {
		for _, b := range g.Successors(a) {
			w := Overlap(g, a, b)
			if logger.Enabled(logging.TraceLevel) {
				logger.Trace("edge weight", logging.Node(a), logging.String("target", b), logging.Score(w))
			}
			weights[graph.EdgeKey{From: a, To: b}] = w
		}
	}

	if err := g.SetWeights(weights, true); err != nil {
		return nil, err
	}
	g.SetOptionalWeights(weights)
	return weights, nil
}

// Overlap returns the neighborhood overlap of the edge a -> b.
//
// With Sa = succ(a) - {b} and Sb = succ(b) - {a}, the intersection I and
// union U = |Sa| + |Sb| - I are counted; U grows by 2 when the edge is not
// present in both directions. The score is I / (U - 2), or 0 when U <= 2,
// rounded half-up to four decimals.
func Overlap(g *graph.Graph, a, b string) float64 {
	sa := g.Successors(a)
	sb := g.Successors(b)
	reciprocal := slices.Contains(sa, b) && slices.Contains(sb, a)

	sa = slices.DeleteFunc(sa, func(n string) bool { return n == b })
	sb = slices.DeleteFunc(sb, func(n string) bool { return n == a })

	inB := make(map[string]struct{}, len(sb))
	for _, n := range sb {
		inB[n] = struct{}{}
	}
	intersection := 0
	for _, n := range sa {
		if _, ok := inB[n]; ok {
			intersection++
		}
	}

	union := len(sa) + len(sb) - intersection
	if !reciprocal {
		union += 2
	}
	if union <= 2 {
		return 0
	}
	return roundHalfUp(float64(intersection)/float64(union-2), overlapScale)
}

// roundHalfUp rounds the exact binary value of x to the given number of
// decimals, ties away from zero.
func roundHalfUp(x float64, decimals int) float64 {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	r := new(big.Rat).SetFloat64(x)
	if r == nil {
		return x
	}
	neg := r.Sign() < 0
	r.Abs(r)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))

	n := new(big.Int).Quo(r.Num(), r.Denom())
	if neg {
		n.Neg(n)
	}
	f, _ := new(big.Rat).SetFrac(n, scale).Float64()
	return f
}
