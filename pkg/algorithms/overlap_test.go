package algorithms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-coreexp/pkg/graph"
)

// newTestGraph builds an undirected graph from "a-b" edge strings
func newTestGraph(t *testing.T, edges ...string) *graph.Graph {
	t.Helper()
	return buildGraph(t, false, edges...)
}

func buildGraph(t *testing.T, directed bool, edges ...string) *graph.Graph {
	t.Helper()
	g := graph.New(directed)
	for _, e := range edges {
		src, dst, ok := strings.Cut(e, "-")
		require.True(t, ok, "bad edge %q", e)
		g.AddEdge(src, dst)
	}
	return g
}

func key(a, b string) graph.EdgeKey {
	return graph.EdgeKey{From: a, To: b}
}

func TestCalculateOverlap_SingleEdge(t *testing.T) {
	g := newTestGraph(t, "A-B")

	weights, err := CalculateOverlap(g, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, weights[key("A", "B")])
	assert.Equal(t, 0.0, weights[key("B", "A")])
	assert.Equal(t, 0.0, g.OutWeight("A"))
	assert.Equal(t, 0.0, g.OutWeight("B"))
}

func TestCalculateOverlap_PathIsZero(t *testing.T) {
	g := newTestGraph(t, "A-B", "B-C", "C-D")

	weights, err := CalculateOverlap(g, nil)
	require.NoError(t, err)

	require.Len(t, weights, 6)
	for k, w := range weights {
		assert.Equal(t, 0.0, w, "edge %s", k)
	}
}

func TestCalculateOverlap_TriangleClamps(t *testing.T) {
	g := newTestGraph(t, "A-B", "B-C", "A-C")

	weights, err := CalculateOverlap(g, nil)
	require.NoError(t, err)

	require.Len(t, weights, 6)
	for k, w := range weights {
		assert.Equal(t, 0.0, w, "edge %s", k)
	}
}

func TestCalculateOverlap_SharedNeighborhoods(t *testing.T) {
	// A: C D E, B: C F G -> I=1, U=5 -> 1/3
	// P: R S T, Q: R S U V -> I=2, U=5 -> 2/3
	// K: M N O, L: M N W -> I=2, U=4 -> 1
	g := newTestGraph(t,
		"A-B", "A-C", "A-D", "A-E", "B-C", "B-F", "B-G",
		"P-Q", "P-R", "P-S", "P-T", "Q-R", "Q-S", "Q-U", "Q-V",
		"K-L", "K-M", "K-N", "K-O", "L-M", "L-N", "L-W",
	)

	weights, err := CalculateOverlap(g, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.3333, weights[key("A", "B")])
	assert.Equal(t, 0.6667, weights[key("P", "Q")])
	assert.Equal(t, 1.0, weights[key("K", "L")])

	// installed as both weight tables
	w, err := g.Weight("A", "B")
	require.NoError(t, err)
	assert.Equal(t, 0.3333, w)
	assert.Equal(t, 0.3333, g.OptionalWeight("A", "B"))
	assert.Equal(t, weights, g.Weights())
}

func TestCalculateOverlap_Symmetric(t *testing.T) {
	g := newTestGraph(t, "1-2", "1-3", "1-4", "2-3", "2-5", "3-4", "4-5", "5-6", "2-6")

	weights, err := CalculateOverlap(g, nil)
	require.NoError(t, err)

	for k, w := range weights {
		assert.Equal(t, w, weights[key(k.To, k.From)], "overlap(%s) != overlap of reverse", k)
	}
}

func TestCalculateOverlap_OutWeightsRecomputed(t *testing.T) {
	g := newTestGraph(t, "K-L", "K-M", "K-N", "K-O", "L-M", "L-N", "L-W")

	_, err := CalculateOverlap(g, nil)
	require.NoError(t, err)

	sum := 0.0
	for _, s := range g.Successors("K") {
		w, err := g.Weight("K", s)
		require.NoError(t, err)
		sum += w
	}
	assert.Equal(t, sum, g.OutWeight("K"))
	assert.Greater(t, g.OutWeight("K"), 0.0)
}

func TestOverlap_NonReciprocalEdge(t *testing.T) {
	// a->b is one-way, so the union grows by 2
	g := buildGraph(t, true, "a-b", "a-c", "b-c")

	assert.Equal(t, 1.0, Overlap(g, "a", "b"))
}

func TestOverlap_IgnoresHiddenNeighbors(t *testing.T) {
	g := newTestGraph(t, "A-B", "A-C", "A-D", "A-E", "B-C", "B-F", "B-G")
	g.HideNode("C")

	assert.Equal(t, 0.0, Overlap(g, "A", "B"))

	weights, err := CalculateOverlap(g, nil)
	require.NoError(t, err)
	_, ok := weights[key("A", "C")]
	assert.False(t, ok, "hidden endpoint must not be weighted")
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"exact tie rounds up", 0.03125, 0.0313},
		{"negative tie rounds away from zero", -0.03125, -0.0313},
		{"one third", 1.0 / 3, 0.3333},
		{"two thirds", 2.0 / 3, 0.6667},
		{"already short", 0.5, 0.5},
		{"zero", 0, 0},
		{"integer", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roundHalfUp(tt.in, overlapScale))
		})
	}
}
