package regress

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"gostat/internal/analysis"
)

// QQPlot holds ordered residuals against the normal quantiles they
// would have under normality, plus the probability-plot reference line
// fitted through the points.
type QQPlot struct {
	Theoretical []float64
	Sample      []float64
	Slope       float64
	Intercept   float64
}

// NormalQQ computes normal quantile-quantile data for a residual
// vector using Filliben's plotting positions.
func NormalQQ(residuals []float64) QQPlot {
	n := len(residuals)
	if n == 0 {
		return QQPlot{}
	}

	sample := make([]float64, n)
	copy(sample, residuals)
	sort.Float64s(sample)

	dist := analysis.NewDistributions()
	theoretical := make([]float64, n)
	for i := 0; i < n; i++ {
		theoretical[i] = dist.NormalQuantile(fillibenPosition(i+1, n))
	}

	qq := QQPlot{Theoretical: theoretical, Sample: sample}
	if n < 2 {
		qq.Intercept = sample[0]
		return qq
	}
	qq.Intercept, qq.Slope = stat.LinearRegression(theoretical, sample, nil, false)
	return qq
}

// fillibenPosition returns the i-th of n plotting positions (1-based)
func fillibenPosition(i, n int) float64 {
	switch {
	case i == 1:
		return 1 - math.Pow(0.5, 1/float64(n))
	case i == n:
		return math.Pow(0.5, 1/float64(n))
	default:
		return (float64(i) - 0.3175) / (float64(n) + 0.365)
	}
}
