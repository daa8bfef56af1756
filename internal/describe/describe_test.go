package describe

import (
	"math"
	"testing"

	"gostat/domain/dataset"

	"github.com/stretchr/testify/assert"
)

func numericColumn(values ...float64) *dataset.Column {
	return &dataset.Column{Name: "v", Kind: dataset.KindNumeric, Floats: values}
}

func sequence(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func TestSummarizeSequence(t *testing.T) {
	col := numericColumn(sequence(1, 20)...)

	summary, err := Summarize(col)
	assert.NoError(t, err)

	assert.Equal(t, 20, summary.Count)
	assert.Equal(t, 0, summary.Missing)
	assert.InDelta(t, 10.5, summary.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(35), summary.StdDev, 1e-12)
	assert.InDelta(t, 1, summary.Min, 1e-12)
	assert.InDelta(t, 1, summary.P5, 1e-12)
	assert.InDelta(t, 5, summary.P25, 1e-12)
	assert.InDelta(t, 10.5, summary.Median, 1e-12)
	assert.InDelta(t, 15, summary.P75, 1e-12)
	assert.InDelta(t, 19, summary.P95, 1e-12)
	assert.InDelta(t, 20, summary.Max, 1e-12)
	assert.InDelta(t, 0, summary.Skewness, 1e-12, "symmetric data has zero skew")
	assert.InDelta(t, -1.2, summary.Kurtosis, 1e-4, "discrete uniform is platykurtic")
}

func TestSummarizeMissingArithmetic(t *testing.T) {
	nan := math.NaN()
	col := numericColumn(1, nan, 3, nan, 5, 6, nan, 8)

	summary, err := Summarize(col)
	assert.NoError(t, err)

	assert.Equal(t, 5, summary.Count)
	assert.Equal(t, 3, summary.Missing)
	assert.Equal(t, len(col.Floats), summary.Count+summary.Missing)
}

func TestSummarizeSkewedData(t *testing.T) {
	col := numericColumn(1, 2, 3, 4, 10)

	summary, err := Summarize(col)
	assert.NoError(t, err)
	assert.InDelta(t, 1.6970, summary.Skewness, 1e-3)
}

func TestSummarizeAllMissingIsDegenerate(t *testing.T) {
	nan := math.NaN()
	col := numericColumn(nan, nan, nan)

	summary, err := Summarize(col)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, 3, summary.Missing)
	assert.True(t, math.IsNaN(summary.Mean))
	assert.True(t, math.IsNaN(summary.Median))
}

func TestSummarizeRejectsTextColumn(t *testing.T) {
	col := &dataset.Column{Name: "city", Kind: dataset.KindText, Texts: []string{"a", "b"}}

	_, err := Summarize(col)
	assert.Error(t, err)
}

func TestSummarizeSingleValue(t *testing.T) {
	col := numericColumn(42)

	summary, err := Summarize(col)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 42, summary.Mean, 1e-12)
	assert.True(t, math.IsNaN(summary.StdDev), "sample std undefined for n=1")
	assert.True(t, math.IsNaN(summary.Skewness))
}

func TestAutoBins(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected int
	}{
		{"sequence of 20", sequence(1, 20), 6}, // Sturges wins over FD
		{"single value", []float64{5}, 1},
		{"constant values", []float64{3, 3, 3, 3}, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, AutoBins(test.values))
		})
	}
}

func TestBuildHistogram(t *testing.T) {
	values := sequence(1, 20)
	h := BuildHistogram(values)

	assert.Len(t, h.Edges, len(h.Counts)+1)

	total := 0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, len(values), total, "every value lands in a bin")
	assert.InDelta(t, 1, h.Edges[0], 1e-12)
	assert.InDelta(t, 20, h.Edges[len(h.Edges)-1], 1e-12)
}

func TestBuildHistogramConstant(t *testing.T) {
	h := BuildHistogram([]float64{7, 7, 7})

	assert.Equal(t, []int{3}, h.Counts)
	assert.InDelta(t, 6.5, h.Edges[0], 1e-12)
	assert.InDelta(t, 7.5, h.Edges[1], 1e-12)
}

func TestBuildBoxplot(t *testing.T) {
	box := BuildBoxplot(sequence(1, 20))

	assert.InDelta(t, 5, box.Q1, 1e-12)
	assert.InDelta(t, 10.5, box.Median, 1e-12)
	assert.InDelta(t, 15, box.Q3, 1e-12)
	assert.InDelta(t, 1, box.WhiskerLow, 1e-12)
	assert.InDelta(t, 20, box.WhiskerHigh, 1e-12)
	assert.Empty(t, box.Outliers)
}

func TestBuildBoxplotFlagsOutliers(t *testing.T) {
	values := append(sequence(1, 20), 100)
	box := BuildBoxplot(values)

	assert.Equal(t, []float64{100}, box.Outliers)
	assert.InDelta(t, 20, box.WhiskerHigh, 1e-12, "whisker stops at the furthest inlier")
}
