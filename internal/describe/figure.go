package describe

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Histogram holds binned counts for one column. Edges has one more
// entry than Counts; bin i covers [Edges[i], Edges[i+1]).
type Histogram struct {
	Edges  []float64
	Counts []int
}

// Boxplot holds the five-number geometry for one column. Whiskers reach
// the furthest observations within 1.5 IQR of the box; everything
// beyond is an outlier.
type Boxplot struct {
	Q1          float64
	Median      float64
	Q3          float64
	WhiskerLow  float64
	WhiskerHigh float64
	Outliers    []float64
}

// maxAutoBins bounds pathological spreads (one far outlier with a tiny
// IQR would otherwise request millions of bins)
const maxAutoBins = 512

// AutoBins picks a bin count as the larger of the Sturges and
// Freedman-Diaconis estimates, the same heuristic the usual "auto"
// histogram setting applies.
func AutoBins(values []float64) int {
	n := len(values)
	if n < 2 {
		return 1
	}

	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	spread := max - min
	if spread <= 0 {
		return 1
	}

	sturges := int(math.Ceil(math.Log2(float64(n)))) + 1

	bins := sturges
	iqr := percentileOrClamp(values, 75) - percentileOrClamp(values, 25)
	if iqr > 0 {
		h := 2 * iqr / math.Cbrt(float64(n))
		if fd := int(math.Ceil(spread / h)); fd > bins {
			bins = fd
		}
	}

	if bins > maxAutoBins {
		bins = maxAutoBins
	}
	if bins < 1 {
		bins = 1
	}
	return bins
}

// BuildHistogram bins the values across equally spaced edges
func BuildHistogram(values []float64) Histogram {
	if len(values) == 0 {
		return Histogram{}
	}

	min, _ := stats.Min(values)
	max, _ := stats.Max(values)

	if max == min {
		// single spike: one unit-wide bin centered on the value
		return Histogram{
			Edges:  []float64{min - 0.5, min + 0.5},
			Counts: []int{len(values)},
		}
	}

	k := AutoBins(values)
	width := (max - min) / float64(k)

	edges := make([]float64, k+1)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[k] = max

	counts := make([]int, k)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= k {
			idx = k - 1
		}
		counts[idx]++
	}

	return Histogram{Edges: edges, Counts: counts}
}

// BuildBoxplot computes box, whisker, and outlier geometry
func BuildBoxplot(values []float64) Boxplot {
	if len(values) == 0 {
		return Boxplot{}
	}

	q1 := percentileOrClamp(values, 25)
	q3 := percentileOrClamp(values, 75)
	median, _ := stats.Median(values)
	iqr := q3 - q1

	loFence := q1 - 1.5*iqr
	hiFence := q3 + 1.5*iqr

	box := Boxplot{Q1: q1, Median: median, Q3: q3}
	box.WhiskerLow = math.Inf(1)
	box.WhiskerHigh = math.Inf(-1)

	for _, v := range values {
		if v < loFence || v > hiFence {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		if v < box.WhiskerLow {
			box.WhiskerLow = v
		}
		if v > box.WhiskerHigh {
			box.WhiskerHigh = v
		}
	}

	// all values outside the fences collapses the whiskers onto the box
	if math.IsInf(box.WhiskerLow, 1) {
		box.WhiskerLow = q1
	}
	if math.IsInf(box.WhiskerHigh, -1) {
		box.WhiskerHigh = q3
	}

	return box
}
