package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dd0wney/cluso-coreexp/pkg/algorithms"
	"github.com/dd0wney/cluso-coreexp/pkg/logging"
)

// SnapshotSink writes the partition after every assignment pass into a
// directory, one file per pass.
type SnapshotSink struct {
	dir      string
	compress bool
	logger   logging.Logger
	written  []string
}

// NewSnapshotSink creates a sink writing into dir. compress switches to
// snappy-framed files.
func NewSnapshotSink(dir string, compress bool, logger logging.Logger) *SnapshotSink {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SnapshotSink{
		dir:      dir,
		compress: compress,
		logger:   logger.With(logging.Component("snapshots")),
	}
}

// SnapshotName returns the file name of a pass snapshot.
func SnapshotName(r algorithms.PassReport) string {
	if r.Extra {
		return fmt.Sprintf("coresAtExtraIteration-%d.csv", r.Iteration)
	}
	return fmt.Sprintf("coresAtIteration-%d.csv", r.Iteration)
}

// ObservePass writes the snapshot carried by r.
func (s *SnapshotSink) ObservePass(r algorithms.PassReport) error {
	attr := fmt.Sprintf("classes-it-%d", r.Iteration)
	path, err := WriteFile(filepath.Join(s.dir, SnapshotName(r)), s.compress, func(w io.Writer) error {
		return WritePartition(w, attr, r.Snapshot)
	})
	if err != nil {
		return err
	}
	s.written = append(s.written, path)
	s.logger.Debug("snapshot written",
		logging.Path(path),
		logging.Mode(string(r.Mode)),
		logging.Pass(r.Iteration))
	return nil
}

// Written returns the paths written so far, in pass order.
func (s *SnapshotSink) Written() []string {
	return s.written
}
