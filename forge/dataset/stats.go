package dataset

import (
	roaring "github.com/RoaringBitmap/roaring"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes an encoded dataset.
type Stats struct {
	Examples         int     `json:"examples"`
	SupervisedTokens int     `json:"supervised_tokens"`
	FullyMasked      int     `json:"fully_masked"`
	MeanSupervised   float64 `json:"mean_supervised"`
	StdDevSupervised float64 `json:"stddev_supervised"`
	DistinctTokens   uint64  `json:"distinct_tokens"`
}

// Collect computes summary statistics over encoded examples: how many
// positions contribute to the loss, how many examples carry zero training
// signal (prompt filled the whole budget), and vocabulary coverage over all
// real (non-padding) positions.
func Collect(encoded []EncodedExample) Stats {
	s := Stats{Examples: len(encoded)}
	if len(encoded) == 0 {
		return s
	}

	counts := make([]float64, len(encoded))
	seen := roaring.New()
	for i := range encoded {
		ex := &encoded[i]
		n := 0
		for j, l := range ex.Labels {
			if l != IgnoreIndex {
				n++
			}
			if ex.AttentionMask[j] == 1 {
				seen.Add(uint32(ex.InputIDs[j]))
			}
		}
		counts[i] = float64(n)
		s.SupervisedTokens += n
		if n == 0 {
			s.FullyMasked++
		}
	}

	s.MeanSupervised = stat.Mean(counts, nil)
	if len(counts) > 1 {
		s.StdDevSupervised = stat.StdDev(counts, nil)
	}
	s.DistinctTokens = seen.GetCardinality()
	return s
}
