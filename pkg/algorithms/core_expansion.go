package algorithms

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-coreexp/pkg/graph"
	"github.com/dd0wney/cluso-coreexp/pkg/logging"
)

// ErrInconsistentScore is returned when a count-based link delta exceeds the
// best score tracked for the same node, which can only happen on a corrupted
// graph.
var ErrInconsistentScore = errors.New("inconsistent assignment score")

// ScoringMode names how Phase B scores a node against a community.
type ScoringMode string

const (
	ModeWeighted   ScoringMode = "weighted"
	ModeUnweighted ScoringMode = "unweighted"
)

func modeOf(weighted bool) ScoringMode {
	if weighted {
		return ModeWeighted
	}
	return ModeUnweighted
}

// ExpansionOptions configures a CoreExpansion run.
type ExpansionOptions struct {
	// UseWeights scores nodes by internal edge weight first, then rescues
	// the rest with count-based passes.
	UseWeights bool
	// CountExternalLinks scores count-based passes as internal - external.
	CountExternalLinks bool
	// UsePredecessors scores nodes without successors by their incoming
	// links.
	UsePredecessors bool
	// DeduplicateMembers stops Phase A from appending a seed to the same
	// community once per adjacent member.
	DeduplicateMembers bool
	SeedTieBreak       TieBreak
}

// DefaultExpansionOptions returns the options used by the coreexp binary.
func DefaultExpansionOptions() ExpansionOptions {
	return ExpansionOptions{
		UseWeights:   true,
		SeedTieBreak: TieBreakFirstSeen,
	}
}

// Assignment is one node scheduled into a community during a pass.
type Assignment struct {
	Node  string
	Group int
}

// PassReport describes one finished Phase B pass.
type PassReport struct {
	Mode ScoringMode
	// Extra marks the count-based rescue passes that follow weighted ones.
	Extra         bool
	Iteration     int
	Assigned      []Assignment
	AssignedTotal int
	// Snapshot is a copy of the partition after the pass.
	Snapshot map[int][]string
}

// PassSink observes finished passes. Errors are logged by the caller and
// never alter the run.
type PassSink interface {
	ObservePass(report PassReport) error
}

// PassSinkFunc adapts a function to PassSink.
type PassSinkFunc func(report PassReport) error

// ObservePass calls f(report).
func (f PassSinkFunc) ObservePass(report PassReport) error {
	return f(report)
}

// ExpansionResult is the outcome of CoreExpansion.Run.
type ExpansionResult struct {
	Partition        *Partition
	Seeds            []Seed
	Cores            int
	WeightedPasses   int
	UnweightedPasses int
	// Unclassified lists visible nodes left outside every community, in
	// node enumeration order.
	Unclassified []string
}

// CoreExpansion grows communities around local-maximum seeds.
type CoreExpansion struct {
	graph  *graph.Graph
	opts   ExpansionOptions
	logger logging.Logger
	sink   PassSink
}

// NewCoreExpansion creates a run over g. logger and sink may be nil.
func NewCoreExpansion(g *graph.Graph, opts ExpansionOptions, logger logging.Logger, sink PassSink) *CoreExpansion {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CoreExpansion{
		graph:  g,
		opts:   opts,
		logger: logger.With(logging.Component("expansion")),
		sink:   sink,
	}
}

// Run selects seeds, builds cores and assigns the remaining nodes until no
// pass makes progress. The graph must already carry overlap weights.
func (e *CoreExpansion) Run(ctx context.Context) (*ExpansionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seeds := FindLocalMaximumNodes(e.graph, e.opts.SeedTieBreak)
	e.logger.Info("local maximums found",
		logging.Count(len(seeds)),
		logging.String("tie_break", e.opts.SeedTieBreak.String()))

	p := e.BuildCores(seeds)
	result := &ExpansionResult{
		Partition: p,
		Seeds:     seeds,
		Cores:     p.Len(),
	}

	passes, err := e.Converge(ctx, p, e.opts.UseWeights)
	if e.opts.UseWeights {
		result.WeightedPasses = passes
	} else {
		result.UnweightedPasses = passes
	}
	if err != nil {
		return result, err
	}

	if e.opts.UseWeights {
		// nodes with zero out-weight score 0 everywhere under weighted
		// scoring and can only be placed by counting links
		result.UnweightedPasses, err = e.Converge(ctx, p, false)
		if err != nil {
			return result, err
		}
	}

	for _, n := range e.graph.Nodes() {
		if !p.IsAssigned(n) {
			result.Unclassified = append(result.Unclassified, n)
		}
	}
	return result, nil
}

// BuildCores runs Phase A. Each seed joins every community one of its
// successors already belongs to, once per such successor unless
// DeduplicateMembers is set. A seed touching no community starts a new one;
// a seed touching several merges them into the first one touched.
func (e *CoreExpansion) BuildCores(seeds []Seed) *Partition {
	p := NewPartition()

	for _, seed := range seeds {
		touched := make([]int, 0, 2)
		for _, s := range e.graph.Successors(seed.Node) {
			id, ok := p.CommunityOf(s)
			if !ok {
				continue
			}
			c, _ := p.Get(id)
			if !e.opts.DeduplicateMembers || !c.Contains(seed.Node) {
				p.Append(id, seed.Node)
			}
			if !slices.Contains(touched, id) {
				touched = append(touched, id)
			}
		}

		switch {
		case len(touched) == 0:
			id := p.NewCommunity(seed.Node)
			e.logger.Debug("core created", logging.Node(seed.Node), logging.Group(id))
		case len(touched) > 1:
			for _, id := range touched[1:] {
				p.Merge(touched[0], id)
			}
			e.logger.Debug("cores merged",
				logging.Node(seed.Node),
				logging.Group(touched[0]),
				logging.Any("merged", touched[1:]))
		}
	}

	e.logger.Info("cores constructed", logging.Count(p.Len()))
	return p
}

// Converge repeats AssignPass until a pass assigns nothing and returns the
// number of passes run. Unweighted passes run after weighted ones are
// reported as extra and only when they assign something.
func (e *CoreExpansion) Converge(ctx context.Context, p *Partition, weighted bool) (int, error) {
	mode := modeOf(weighted)
	extra := !weighted && e.opts.UseWeights

	passes := 0
	for {
		if err := ctx.Err(); err != nil {
			return passes, err
		}

		assigned, err := e.AssignPass(p, weighted)
		if err != nil {
			return passes, err
		}
		passes++

		e.logger.Debug("addition pass completed",
			logging.Mode(string(mode)),
			logging.Pass(passes),
			logging.Bool("extra", extra),
			logging.Count(len(assigned)),
			logging.Int("assigned_total", p.AssignedCount()))

		if !extra || len(assigned) > 0 {
			e.report(PassReport{
				Mode:          mode,
				Extra:         extra,
				Iteration:     passes,
				Assigned:      assigned,
				AssignedTotal: p.AssignedCount(),
				Snapshot:      p.Snapshot(),
			})
		}

		if len(assigned) == 0 {
			return passes, nil
		}
	}
}

// AssignPass runs one Phase B pass: every unassigned visible node is scored
// against every live community, and nodes with a single strictly best
// community are appended to it once the whole pass has been scored.
func (e *CoreExpansion) AssignPass(p *Partition, weighted bool) ([]Assignment, error) {
	communities := p.Communities()
	trace := e.logger.Enabled(logging.TraceLevel)

	scheduled := make([]Assignment, 0)
	slot := make(map[string]int)

	for _, node := range e.graph.Nodes() {
		if p.IsAssigned(node) {
			continue
		}
		if trace {
			e.logger.Trace("checking node", logging.Node(node))
		}

		neighbors := e.graph.Successors(node)
		byPredecessors := false
		if len(neighbors) == 0 {
			if !e.opts.UsePredecessors {
				continue
			}
			neighbors = e.graph.Predecessors(node)
			byPredecessors = true
		}

		candidate := -1
		best := 0.0
		ambiguous := false

		for _, c := range communities {
			counts := countLinks(neighbors, c)
			delta := counts.Internal
			if e.opts.CountExternalLinks {
				delta = counts.Delta()
			}

			score := float64(delta)
			if weighted && !byPredecessors {
				w, err := internalWeight(e.graph, node, neighbors, c)
				if err != nil {
					return nil, err
				}
				score = w
			}

			if score >= best {
				if score == best {
					ambiguous = true
				} else {
					ambiguous = false
					best = score
					candidate = c.ID
				}
			}

			if !weighted {
				if err := checkScoreConsistency(delta, best); err != nil {
					return nil, fmt.Errorf("%w: node %s, group %d, internal %d, external %d",
						err, node, c.ID, counts.Internal, counts.External)
				}
			}

			if trace {
				e.logger.Trace("group score",
					logging.Node(node),
					logging.Group(c.ID),
					logging.Int("internal", counts.Internal),
					logging.Int("external", counts.External),
					logging.Score(score),
					logging.Float64("best", best))
			}
		}

		if candidate == -1 || ambiguous {
			if trace {
				e.logger.Trace("no community to add to", logging.Node(node))
			}
			continue
		}

		if i, ok := slot[node]; ok {
			e.logger.Error("node already scheduled for assignment",
				logging.Node(node),
				logging.Group(candidate),
				logging.Int("scheduled_group", scheduled[i].Group))
			scheduled[i].Group = candidate
			continue
		}
		slot[node] = len(scheduled)
		scheduled = append(scheduled, Assignment{Node: node, Group: candidate})
	}

	for _, a := range scheduled {
		p.Append(a.Group, a.Node)
		if trace {
			e.logger.Trace("node assigned", logging.Node(a.Node), logging.Group(a.Group))
		}
	}
	return scheduled, nil
}

// checkScoreConsistency fails when a count-based delta is larger than the
// best score recorded after it was considered.
func checkScoreConsistency(delta int, best float64) error {
	if float64(delta) > best {
		return fmt.Errorf("%w: delta %d exceeds best %v", ErrInconsistentScore, delta, best)
	}
	return nil
}

func (e *CoreExpansion) report(r PassReport) {
	if e.sink == nil {
		return
	}
	if err := e.sink.ObservePass(r); err != nil {
		e.logger.Warn("pass sink failed",
			logging.Mode(string(r.Mode)),
			logging.Pass(r.Iteration),
			logging.Error(err))
	}
}
