// Package output writes partitions and node or edge attribute maps as
// tab-separated files.
package output

import (
	"bufio"
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-coreexp/pkg/graph"
)

// Result file names written next to the run log.
const (
	WeightsFile    = "weights-initial.csv"
	OutWeightsFile = "outWeights_initial.csv"
	SeedsFile      = "localOutWeightMax.csv"

	// SnappyExt is appended to the name of snappy-framed files.
	SnappyExt = ".sz"
)

// Attribute names used in file headers.
const (
	PartitionAttr  = "class"
	WeightsAttr    = "weight-initial"
	OutWeightsAttr = "outWeights"
	SeedsAttr      = "localOutWeightMax"
)

func newTSVWriter(w io.Writer) *csv.Writer {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	return tw
}

// flushTSV flushes tw and folds its error into retErr
func flushTSV(tw *csv.Writer, retErr *error) {
	tw.Flush()
	if err := tw.Error(); err != nil && *retErr == nil {
		*retErr = fmt.Errorf("TSV writer flush error: %w", err)
	}
}

// FormatValue renders an attribute value.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WritePartition writes "Id<TAB>attr" followed by one "node<TAB>groupId" row
// per member, by ascending group id and in member order.
func WritePartition(w io.Writer, attr string, partition map[int][]string) (retErr error) {
	tw := newTSVWriter(w)
	defer flushTSV(tw, &retErr)

	if err := tw.Write([]string{"Id", attr}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, id := range slices.Sorted(maps.Keys(partition)) {
		group := strconv.Itoa(id)
		for _, node := range partition[id] {
			if err := tw.Write([]string{node, group}); err != nil {
				return fmt.Errorf("failed to write member of group %d: %w", id, err)
			}
		}
	}
	return nil
}

// WriteNodeValues writes "Id<TAB>attr" followed by "node<TAB>value" rows
// sorted by node.
func WriteNodeValues(w io.Writer, attr string, values map[string]float64) (retErr error) {
	tw := newTSVWriter(w)
	defer flushTSV(tw, &retErr)

	if err := tw.Write([]string{"Id", attr}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, node := range slices.Sorted(maps.Keys(values)) {
		if err := tw.Write([]string{node, FormatValue(values[node])}); err != nil {
			return fmt.Errorf("failed to write value of %s: %w", node, err)
		}
	}
	return nil
}

// WriteEdgeValues writes "Source<TAB>Target<TAB>attr" followed by
// "src<TAB>trg<TAB>value" rows sorted by edge.
func WriteEdgeValues(w io.Writer, attr string, values map[graph.EdgeKey]float64) (retErr error) {
	tw := newTSVWriter(w)
	defer flushTSV(tw, &retErr)

	if err := tw.Write([]string{"Source", "Target", attr}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	keys := slices.SortedFunc(maps.Keys(values), func(a, b graph.EdgeKey) int {
		return cmp.Or(strings.Compare(a.From, b.From), strings.Compare(a.To, b.To))
	})
	for _, k := range keys {
		if err := tw.Write([]string{k.From, k.To, FormatValue(values[k])}); err != nil {
			return fmt.Errorf("failed to write value of %s: %w", k, err)
		}
	}
	return nil
}

// WriteFile creates path (with SnappyExt appended when compress is set) and
// hands a buffered writer to fn. It returns the path actually written.
func WriteFile(path string, compress bool, fn func(io.Writer) error) (written string, retErr error) {
	if compress {
		path += SnappyExt
	}

	f, err := os.Create(path)
	if err != nil {
		return path, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close %s: %w", path, err)
		}
	}()

	var (
		w     io.Writer
		flush func() error
	)
	if compress {
		sw := snappy.NewBufferedWriter(f)
		w, flush = sw, sw.Close
	} else {
		bw := bufio.NewWriter(f)
		w, flush = bw, bw.Flush
	}

	if err := fn(w); err != nil {
		return path, errors.Join(err, flush())
	}
	if err := flush(); err != nil {
		return path, fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return path, nil
}

// OpenFile opens a file written by WriteFile, decompressing it when its name
// ends in SnappyExt.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, SnappyExt) {
		return f, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{snappy.NewReader(f), f}, nil
}

// ReadPartition parses a file produced by WritePartition.
func ReadPartition(r io.Reader) (map[int][]string, error) {
	tr := csv.NewReader(r)
	tr.Comma = '\t'
	tr.FieldsPerRecord = 2

	records, err := tr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read partition: %w", err)
	}

	partition := make(map[int][]string)
	for i, rec := range records {
		if i == 0 {
			continue
		}
		id, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("bad group id on row %d: %w", i+1, err)
		}
		partition[id] = append(partition[id], rec[0])
	}
	return partition, nil
}
