package algorithms

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-coreexp/pkg/graph"
	"github.com/dd0wney/cluso-coreexp/pkg/logging"
)

// twoCliques returns two K4s joined by the bridge d-e. After overlap
// weighting d and e have out-weight 6, every other node 2.
func twoCliques(t *testing.T) *graph.Graph {
	t.Helper()
	g := newTestGraph(t,
		"a-b", "a-c", "a-d", "b-c", "b-d", "c-d",
		"d-e",
		"e-f", "e-g", "e-h", "f-g", "f-h", "g-h",
	)
	_, err := CalculateOverlap(g, nil)
	require.NoError(t, err)
	return g
}

// bridgedCliques returns two K4s joined through x, which ends up equally
// attached to both communities.
func bridgedCliques(t *testing.T) *graph.Graph {
	t.Helper()
	g := newTestGraph(t,
		"a-b", "a-c", "a-d", "b-c", "b-d", "c-d",
		"d-x", "x-e",
		"e-f", "e-g", "e-h", "f-g", "f-h", "g-h",
	)
	_, err := CalculateOverlap(g, nil)
	require.NoError(t, err)
	return g
}

// recordingSink keeps every report it sees
type recordingSink struct {
	reports []PassReport
}

func (s *recordingSink) ObservePass(r PassReport) error {
	s.reports = append(s.reports, r)
	return nil
}

func TestBuildCores_SingleAttachment(t *testing.T) {
	g := newTestGraph(t, "S-M", "M-Q")
	e := NewCoreExpansion(g, DefaultExpansionOptions(), nil, nil)

	p := e.BuildCores([]Seed{{Node: "M"}, {Node: "S"}})

	require.Equal(t, 1, p.Len())
	c, ok := p.Get(0)
	require.True(t, ok)
	assert.Equal(t, []string{"M", "S"}, c.Members)
	assert.False(t, p.IsRemoved(0))
	assert.Equal(t, 1, p.NextID())
}

func TestBuildCores_MergeOnMultiTouch(t *testing.T) {
	g := newTestGraph(t, "M1-S", "S-M2")
	e := NewCoreExpansion(g, DefaultExpansionOptions(), nil, nil)

	p := e.BuildCores([]Seed{{Node: "M1"}, {Node: "M2"}, {Node: "S"}})

	require.Equal(t, 1, p.Len())
	c, ok := p.Get(0)
	require.True(t, ok)
	assert.Equal(t, []string{"M1", "S", "M2"}, c.Members)

	_, ok = p.Get(1)
	assert.False(t, ok, "merged community must be gone")
	assert.True(t, p.IsRemoved(1))

	id, ok := p.CommunityOf("M2")
	require.True(t, ok)
	assert.Equal(t, 0, id)

	// ids are never reused
	assert.Equal(t, 2, p.NewCommunity("other"))
}

func TestBuildCores_DuplicateMembers(t *testing.T) {
	g := newTestGraph(t, "M1-M2", "S-M1", "S-M2")
	seeds := []Seed{{Node: "M1"}, {Node: "M2"}, {Node: "S"}}

	t.Run("appends once per adjacent member", func(t *testing.T) {
		e := NewCoreExpansion(g, DefaultExpansionOptions(), nil, nil)
		p := e.BuildCores(seeds)

		c, ok := p.Get(0)
		require.True(t, ok)
		assert.Equal(t, []string{"M1", "M2", "S", "S"}, c.Members)
		assert.Equal(t, 4, c.Size())
		assert.Equal(t, 3, p.AssignedCount())
	})

	t.Run("deduplicated", func(t *testing.T) {
		opts := DefaultExpansionOptions()
		opts.DeduplicateMembers = true
		e := NewCoreExpansion(g, opts, nil, nil)
		p := e.BuildCores(seeds)

		c, ok := p.Get(0)
		require.True(t, ok)
		assert.Equal(t, []string{"M1", "M2", "S"}, c.Members)
	})
}

func TestCoreExpansion_Run(t *testing.T) {
	sink := &recordingSink{}
	e := NewCoreExpansion(twoCliques(t), DefaultExpansionOptions(), nil, sink)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Seed{{Node: "d", OutWeight: 6}}, result.Seeds)
	assert.Equal(t, 1, result.Cores)
	assert.Equal(t, 2, result.WeightedPasses)
	assert.Equal(t, 3, result.UnweightedPasses)
	assert.Empty(t, result.Unclassified)

	require.Equal(t, 1, result.Partition.Len())
	c, _ := result.Partition.Get(0)
	assert.Equal(t, []string{"d", "a", "b", "c", "e", "f", "g", "h"}, c.Members)

	// both weighted passes are reported, extra passes only when they assign
	require.Len(t, sink.reports, 4)
	assert.Equal(t, ModeWeighted, sink.reports[0].Mode)
	assert.Equal(t, []Assignment{{"a", 0}, {"b", 0}, {"c", 0}}, sink.reports[0].Assigned)
	assert.Empty(t, sink.reports[1].Assigned)
	assert.Equal(t, 2, sink.reports[1].Iteration)

	assert.Equal(t, ModeUnweighted, sink.reports[2].Mode)
	assert.True(t, sink.reports[2].Extra)
	assert.Equal(t, 1, sink.reports[2].Iteration)
	assert.Equal(t, []Assignment{{"e", 0}}, sink.reports[2].Assigned)
	assert.Equal(t, []Assignment{{"f", 0}, {"g", 0}, {"h", 0}}, sink.reports[3].Assigned)
	assert.Equal(t, 8, sink.reports[3].AssignedTotal)
}

func TestCoreExpansion_RunKeepAllSeeds(t *testing.T) {
	opts := DefaultExpansionOptions()
	opts.SeedTieBreak = TieBreakKeepAll
	e := NewCoreExpansion(twoCliques(t), opts, nil, nil)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"d", "e"}, seedNodes(result.Seeds))
	assert.Equal(t, 1, result.Cores)
	assert.Equal(t, 2, result.WeightedPasses)
	assert.Equal(t, 1, result.UnweightedPasses)

	c, _ := result.Partition.Get(0)
	assert.Equal(t, []string{"d", "e", "a", "b", "c", "f", "g", "h"}, c.Members)
}

func TestCoreExpansion_AmbiguousNodeStaysUnclassified(t *testing.T) {
	sink := &recordingSink{}
	e := NewCoreExpansion(bridgedCliques(t), DefaultExpansionOptions(), nil, sink)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"d", "e"}, seedNodes(result.Seeds))
	assert.Equal(t, map[int][]string{
		0: {"d", "a", "b", "c"},
		1: {"e", "f", "g", "h"},
	}, result.Partition.Snapshot())
	assert.Equal(t, []string{"x"}, result.Unclassified)
	assert.Equal(t, 1, result.UnweightedPasses)
	assert.Len(t, sink.reports, 2, "empty extra pass must not be reported")
}

func TestCoreExpansion_UnweightedOnly(t *testing.T) {
	sink := &recordingSink{}
	opts := DefaultExpansionOptions()
	opts.UseWeights = false
	e := NewCoreExpansion(twoCliques(t), opts, nil, sink)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.WeightedPasses)
	assert.Equal(t, 3, result.UnweightedPasses)
	require.Len(t, sink.reports, 3)
	for _, r := range sink.reports {
		assert.False(t, r.Extra)
		assert.Equal(t, ModeUnweighted, r.Mode)
	}
	assert.Equal(t, []Assignment{{"a", 0}, {"b", 0}, {"c", 0}, {"e", 0}}, sink.reports[0].Assigned)
	assert.Equal(t, 8, result.Partition.AssignedCount())
}

func TestCoreExpansion_IdempotentAfterConvergence(t *testing.T) {
	for name, g := range map[string]*graph.Graph{
		"two cliques":     twoCliques(t),
		"bridged cliques": bridgedCliques(t),
	} {
		t.Run(name, func(t *testing.T) {
			e := NewCoreExpansion(g, DefaultExpansionOptions(), nil, nil)
			result, err := e.Run(context.Background())
			require.NoError(t, err)

			before := result.Partition.Snapshot()
			assigned, err := e.AssignPass(result.Partition, false)
			require.NoError(t, err)
			assert.Empty(t, assigned)
			assert.Equal(t, before, result.Partition.Snapshot())
		})
	}
}

func TestAssignPass_CountExternalLinks(t *testing.T) {
	g := newTestGraph(t, "x-m1", "x-n1", "x-n2", "x-o1", "x-o2", "x-o3")
	newPartition := func() *Partition {
		p := NewPartition()
		p.NewCommunity("m1")
		p.NewCommunity("n1", "n2")
		return p
	}

	t.Run("internal only", func(t *testing.T) {
		e := NewCoreExpansion(g, ExpansionOptions{}, nil, nil)
		assigned, err := e.AssignPass(newPartition(), false)
		require.NoError(t, err)
		assert.Equal(t, []Assignment{{"x", 1}}, assigned)
	})

	t.Run("internal minus external", func(t *testing.T) {
		e := NewCoreExpansion(g, ExpansionOptions{CountExternalLinks: true}, nil, nil)
		assigned, err := e.AssignPass(newPartition(), false)
		require.NoError(t, err)
		assert.Empty(t, assigned, "negative deltas never beat the initial best of 0")
	})
}

func TestAssignPass_UsePredecessors(t *testing.T) {
	g := buildGraph(t, true, "a-z")
	newPartition := func() *Partition {
		p := NewPartition()
		p.NewCommunity("a")
		return p
	}

	e := NewCoreExpansion(g, ExpansionOptions{}, nil, nil)
	assigned, err := e.AssignPass(newPartition(), false)
	require.NoError(t, err)
	assert.Empty(t, assigned, "a node without successors is skipped")

	e = NewCoreExpansion(g, ExpansionOptions{UsePredecessors: true}, nil, nil)
	for _, weighted := range []bool{false, true} {
		assigned, err := e.AssignPass(newPartition(), weighted)
		require.NoError(t, err)
		assert.Equal(t, []Assignment{{"z", 0}}, assigned, "weighted=%v", weighted)
	}
}

func TestAssignPass_AppliesAfterScoring(t *testing.T) {
	// c only touches b, which is itself unassigned until the pass ends
	g := newTestGraph(t, "a-b", "b-c")
	p := NewPartition()
	p.NewCommunity("a")

	e := NewCoreExpansion(g, ExpansionOptions{}, nil, nil)
	assigned, err := e.AssignPass(p, false)
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{"b", 0}}, assigned)
	assert.False(t, p.IsAssigned("c"))

	assigned, err = e.AssignPass(p, false)
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{"c", 0}}, assigned)
}

func TestCheckScoreConsistency(t *testing.T) {
	assert.NoError(t, checkScoreConsistency(1, 1))
	assert.NoError(t, checkScoreConsistency(-3, 0))

	err := checkScoreConsistency(2, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentScore)
}

func TestCoreExpansion_SinkErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.WarnLevel)
	sink := PassSinkFunc(func(PassReport) error {
		return errors.New("disk full")
	})

	e := NewCoreExpansion(twoCliques(t), DefaultExpansionOptions(), logger, sink)
	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, result.Partition.AssignedCount())
	assert.Contains(t, buf.String(), "pass sink failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestCoreExpansion_SinkCannotAlterState(t *testing.T) {
	sink := PassSinkFunc(func(r PassReport) error {
		for id := range r.Snapshot {
			r.Snapshot[id] = nil
		}
		return nil
	})

	e := NewCoreExpansion(twoCliques(t), DefaultExpansionOptions(), nil, sink)
	result, err := e.Run(context.Background())
	require.NoError(t, err)

	c, _ := result.Partition.Get(0)
	assert.Len(t, c.Members, 8)
}

func TestCoreExpansion_Cancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := NewCoreExpansion(twoCliques(t), DefaultExpansionOptions(), nil, nil)
		_, err := e.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("between passes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sink := PassSinkFunc(func(PassReport) error {
			cancel()
			return nil
		})

		e := NewCoreExpansion(twoCliques(t), DefaultExpansionOptions(), nil, sink)
		result, err := e.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Equal(t, 1, result.WeightedPasses)
		assert.Equal(t, 4, result.Partition.AssignedCount())
	})
}
