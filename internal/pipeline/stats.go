package pipeline

import (
	"os"

	"github.com/backmassage/supermin/internal/compress"
)

// SizeTotals holds the byte totals the summary reports.
type SizeTotals struct {
	Origin     int64
	Compressed int64
}

// RunStats tracks per-status counters and byte totals across a batch run.
type RunStats struct {
	Total       int
	Current     int
	Compressed  int
	Copied      int
	Skipped     int
	Failed      int
	Sizes       SizeTotals
	Interrupted bool
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.Sizes.Origin - s.Sizes.Compressed
}

func (s *RunStats) record(res compress.Result) {
	switch res.Status {
	case compress.Compressed:
		s.Compressed++
	case compress.Copied:
		s.Copied++
	case compress.Skipped:
		s.Skipped++
	case compress.Failed:
		s.Failed++
	}
}

// sumSizes adds up the sizes of paths. Missing files count as zero.
func sumSizes(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil {
			total += fi.Size()
		}
	}
	return total
}
