// Package pipeline runs core-expansion community detection end to end:
// load, weight, seed, expand, emit.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-coreexp/pkg/algorithms"
	"github.com/dd0wney/cluso-coreexp/pkg/config"
	"github.com/dd0wney/cluso-coreexp/pkg/graph"
	"github.com/dd0wney/cluso-coreexp/pkg/logging"
	"github.com/dd0wney/cluso-coreexp/pkg/metrics"
	"github.com/dd0wney/cluso-coreexp/pkg/output"
)

// Phase names used in logs and metrics.
const (
	PhaseLoad      = "load"
	PhaseWeighting = "weighting"
	PhaseExpansion = "expansion"
	PhaseOutput    = "output"
)

// CommunitySize is the member count of one final community.
type CommunitySize struct {
	ID   int
	Size int
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Nodes       int
	Edges       int
	Seeds       int
	Cores       int
	Communities []CommunitySize
	// Classified counts distinct nodes placed in a community.
	Classified       int
	Unclassified     int
	WeightedPasses   int
	UnweightedPasses int
	Files            []string
	Elapsed          time.Duration
}

// Runner executes runs with a shared logger and metrics registry.
type Runner struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewRunner creates a runner. A nil logger discards logs; a nil registry
// gets a fresh one.
func NewRunner(logger logging.Logger, reg *metrics.Registry) *Runner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Runner{logger: logger, metrics: reg}
}

// Metrics returns the registry the runner records into.
func (r *Runner) Metrics() *metrics.Registry {
	return r.metrics
}

// Run detects communities in cfg.Input and writes the results.
func (r *Runner) Run(ctx context.Context, cfg config.Config) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	logger := r.logger.With(logging.RunID(summary.RunID))
	r.metrics.MarkRunStart(start)

	logger.Info("run started",
		logging.Path(cfg.Input),
		logging.String("communities_file", cfg.CommunitiesFile),
		logging.String("log_dir", cfg.LogDir))

	if cfg.WriteIntermediate || cfg.MetricsTextfile {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	g, err := r.load(cfg, logger)
	if err != nil {
		return nil, err
	}
	summary.Nodes = g.NumberNodes()
	summary.Edges = g.NumberEdges(false)
	r.metrics.SetGraphSize(summary.Nodes, summary.Edges)

	if err := r.weight(ctx, cfg, g, logger, summary); err != nil {
		return nil, err
	}

	result, err := r.expand(ctx, cfg, g, logger)
	if err != nil {
		return nil, err
	}
	summary.Seeds = len(result.Seeds)
	summary.Cores = result.Cores
	summary.WeightedPasses = result.WeightedPasses
	summary.UnweightedPasses = result.UnweightedPasses
	summary.Classified = result.Partition.AssignedCount()
	summary.Unclassified = len(result.Unclassified)

	if err := r.emit(ctx, cfg, result, logger, summary); err != nil {
		return nil, err
	}

	sizes := make([]int, 0, result.Partition.Len())
	for _, c := range result.Partition.Communities() {
		summary.Communities = append(summary.Communities, CommunitySize{ID: c.ID, Size: c.Size()})
		sizes = append(sizes, c.Size())
	}
	r.metrics.RecordExpansion(summary.Seeds, summary.Cores, sizes, summary.Unclassified)
	summary.Elapsed = time.Since(start)

	logSummary(logger, summary)

	if cfg.MetricsTextfile {
		r.metrics.UpdateSystemMetrics()
		path := filepath.Join(cfg.LogDir, metrics.TextfileName)
		if err := r.metrics.WriteTextfile(path); err != nil {
			logger.Warn("metrics textfile not written", logging.Error(err))
		} else {
			summary.Files = append(summary.Files, path)
		}
	}
	return summary, nil
}

func (r *Runner) load(cfg config.Config, logger logging.Logger) (*graph.Graph, error) {
	timer := logging.StartTimer(logger, "graph loaded", logging.Phase(PhaseLoad))
	g, err := graph.Load(cfg.Input, graph.LoadOptions{
		LoadWeights: cfg.LoadWeights,
		Logger:      logger,
	})
	if err != nil {
		timer.EndError(err)
		return nil, err
	}

	report := g.LoadReport()
	elapsed := timer.End(logging.Count(g.NumberNodes()))
	r.metrics.RecordLoad(report.EdgeRows, report.HeaderLines, report.SelfLoops, report.SkippedRows, elapsed)
	r.metrics.RecordPhase(PhaseLoad, elapsed)
	return g, nil
}

func (r *Runner) weight(ctx context.Context, cfg config.Config, g *graph.Graph, logger logging.Logger, summary *Summary) error {
	timer := logging.StartTimer(logger, "edges weighted", logging.Phase(PhaseWeighting))
	weights, err := algorithms.CalculateOverlap(g, logger)
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("overlap weighting failed: %w", err)
	}
	r.metrics.RecordPhase(PhaseWeighting, timer.End(logging.Count(len(weights))))
	r.metrics.RecordWeights(len(weights), g.OutWeights())

	if !cfg.WriteIntermediate {
		return nil
	}

	// the weight tables are final from here on
	files := []fileJob{
		{kind: "weights", path: filepath.Join(cfg.LogDir, output.WeightsFile), write: func(w io.Writer) error {
			return output.WriteEdgeValues(w, output.WeightsAttr, weights)
		}},
		{kind: "out_weights", path: filepath.Join(cfg.LogDir, output.OutWeightsFile), write: func(w io.Writer) error {
			return output.WriteNodeValues(w, output.OutWeightsAttr, g.OutWeights())
		}},
	}
	written, err := r.writeAll(ctx, files, logger)
	if err != nil {
		return err
	}
	summary.Files = append(summary.Files, written...)
	return nil
}

func (r *Runner) expand(ctx context.Context, cfg config.Config, g *graph.Graph, logger logging.Logger) (*algorithms.ExpansionResult, error) {
	var sinks []algorithms.PassSink
	if cfg.WriteIntermediate {
		sinks = append(sinks, output.NewSnapshotSink(cfg.LogDir, cfg.CompressSnapshots, logger))
	}
	sink := newMetricsSink(r.metrics, sinks...)

	timer := logging.StartTimer(logger, "communities expanded", logging.Phase(PhaseExpansion))
	result, err := algorithms.NewCoreExpansion(g, cfg.ExpansionOptions(), logger, sink).Run(ctx)
	if err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("core expansion failed: %w", err)
	}
	r.metrics.RecordPhase(PhaseExpansion, timer.End(
		logging.Count(result.Partition.Len()),
		logging.Int("weighted_passes", result.WeightedPasses),
		logging.Int("unweighted_passes", result.UnweightedPasses)))
	return result, nil
}

func (r *Runner) emit(ctx context.Context, cfg config.Config, result *algorithms.ExpansionResult, logger logging.Logger, summary *Summary) error {
	timer := logging.StartTimer(logger, "results written", logging.Phase(PhaseOutput))

	partition := result.Partition.Snapshot()
	files := []fileJob{
		{kind: "partition", path: cfg.CommunitiesFile, write: func(w io.Writer) error {
			return output.WritePartition(w, output.PartitionAttr, partition)
		}},
	}
	if cfg.WriteIntermediate {
		seeds := algorithms.SeedMap(result.Seeds)
		files = append(files, fileJob{kind: "seeds", path: filepath.Join(cfg.LogDir, output.SeedsFile), write: func(w io.Writer) error {
			return output.WriteNodeValues(w, output.SeedsAttr, seeds)
		}})
	}

	written, err := r.writeAll(ctx, files, logger)
	if err != nil {
		timer.EndError(err)
		return err
	}
	summary.Files = append(summary.Files, written...)
	r.metrics.RecordPhase(PhaseOutput, timer.End(logging.Count(len(written))))
	return nil
}

type fileJob struct {
	kind  string
	path  string
	write func(io.Writer) error
}

// writeAll writes every job concurrently and returns the paths written, in
// job order.
func (r *Runner) writeAll(ctx context.Context, jobs []fileJob, logger logging.Logger) ([]string, error) {
	eg, gctx := errgroup.WithContext(ctx)
	written := make([]string, len(jobs))
	for i, job := range jobs {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := output.WriteFile(job.path, false, job.write)
			r.metrics.RecordOutput(job.kind, err)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", job.kind, err)
			}
			logger.Debug("result file written", logging.Path(path), logging.String("kind", job.kind))
			written[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

func logSummary(logger logging.Logger, s *Summary) {
	logger.Info("communities detected", logging.Count(len(s.Communities)))
	for _, c := range s.Communities {
		logger.Debug("community size", logging.Group(c.ID), logging.Count(c.Size))
	}
	logger.Info(fmt.Sprintf("%d nodes classified out of %d", s.Classified, s.Nodes),
		logging.Int("classified", s.Classified),
		logging.Int("unclassified", s.Unclassified),
		logging.Int("nodes", s.Nodes))
	logger.Info("run finished", logging.Latency(s.Elapsed))
}
