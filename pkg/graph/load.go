package graph

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-coreexp/pkg/logging"
)

// DefaultWeightColumn is the weight field index used when no header names one.
const DefaultWeightColumn = 2

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// LoadOptions controls how an edge file is interpreted.
type LoadOptions struct {
	Directed    bool
	LoadWeights bool
	Logger      logging.Logger
}

// LoadReport summarises one ingestion.
type LoadReport struct {
	Path         string
	Lines        int
	HeaderLines  int
	EdgeRows     int
	SelfLoops    int
	SkippedRows  int
	WeightColumn int
}

// Load reads a tab-separated edge file (source, target, optional weight
// columns) through a memory map.
//
// Lines starting with '#', "Id" or "Source", or without a tab, are headers
// or comments; a header naming a "weight" column (case-insensitive) moves
// the weight field. Self-loops are dropped. Rows with a missing or
// non-numeric weight are skipped with a warning.
func Load(path string, opts LoadOptions) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewError("Load").File(path).Cause(ErrInputNotFound).Err()
		}
		return nil, NewError("Load").File(path).Cause(errors.Join(ErrInputRead, err)).Err()
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, NewError("Load").File(path).Cause(errors.Join(ErrInputRead, err)).Err()
	}
	defer reader.Close()

	g, err := parseEdges(io.NewSectionReader(reader, 0, int64(reader.Len())), opts, logger)
	if err != nil {
		return nil, NewError("Load").File(path).Cause(errors.Join(ErrInputRead, err)).Err()
	}
	g.sourceFile = path
	g.report.Path = path

	logger.Info("graph loaded",
		logging.Path(path),
		logging.Int("nodes", g.NumberNodes()),
		logging.Int("rows", g.report.EdgeRows),
		logging.Int("skipped_rows", g.report.SkippedRows),
		logging.Bool("directed", opts.Directed),
	)
	return g, nil
}

// Parse builds a graph from an edge list held in r, using the same rules
// as Load.
func Parse(r io.Reader, opts LoadOptions) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return parseEdges(r, opts, logger)
}

func parseEdges(r io.Reader, opts LoadOptions, logger logging.Logger) (*Graph, error) {
	g := New(opts.Directed)
	weights := make(map[EdgeKey]float64)
	weightIndex := DefaultWeightColumn

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")

		if isHeaderLine(raw) {
			g.report.HeaderLines++
			lower := strings.ToLower(raw)
			if strings.Contains(lower, "weight") {
				for i, col := range strings.Split(lower, "\t") {
					if col == "weight" {
						weightIndex = i
						break
					}
				}
			}
			continue
		}

		fields := strings.Split(raw, "\t")
		src, dst := fields[0], fields[1]
		if src == dst {
			g.report.SelfLoops++
			continue
		}

		var weight float64
		if opts.LoadWeights {
			if weightIndex >= len(fields) {
				g.report.SkippedRows++
				logger.Warn("missing weight field, row skipped",
					logging.Int("line", lineNo), logging.String("row", raw))
				continue
			}
			w, err := strconv.ParseFloat(strings.TrimSpace(fields[weightIndex]), 64)
			if err != nil {
				g.report.SkippedRows++
				logger.Warn("unparsable weight field, row skipped",
					logging.Int("line", lineNo), logging.String("row", raw), logging.Error(err))
				continue
			}
			weight = w
		}

		g.AddEdge(src, dst)
		g.report.EdgeRows++
		if opts.LoadWeights {
			weights[EdgeKey{From: src, To: dst}] = weight
			if !opts.Directed {
				weights[EdgeKey{From: dst, To: src}] = weight
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	g.report.Lines = lineNo
	g.report.WeightColumn = weightIndex
	if err := g.SetWeights(weights, true); err != nil {
		return nil, err
	}
	return g, nil
}

func isHeaderLine(line string) bool {
	return strings.HasPrefix(line, "#") ||
		!strings.Contains(line, "\t") ||
		strings.HasPrefix(line, "Id") ||
		strings.HasPrefix(line, "Source")
}
