package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"gostat/domain/dataset"
	domainstats "gostat/domain/stats"
	"gostat/internal/errors"
)

// minPairs is the smallest sample a correlation is reported for; below
// this the t transform has no degrees of freedom to work with
const minPairs = 3

// Correlate computes Pearson correlation for one X/Y pairing after
// listwise deletion. Too few complete pairs or a constant input yields
// a warning-carrying result, not an error; errors are reserved for
// references to columns that cannot be correlated at all.
func Correlate(ds *dataset.Dataset, xName, yName string) (domainstats.CorrelationResult, error) {
	xs, err := numericValues(ds, xName)
	if err != nil {
		return domainstats.CorrelationResult{}, err
	}
	ys, err := numericValues(ds, yName)
	if err != nil {
		return domainstats.CorrelationResult{}, err
	}

	x, y := CompletePairs(xs, ys)
	result := domainstats.CorrelationResult{X: xName, Y: yName, N: len(x)}

	if len(x) < minPairs {
		result.Warning = fmt.Sprintf("not enough complete observations for %s vs %s (need at least %d, have %d)",
			xName, yName, minPairs, len(x))
		return result, nil
	}
	if isConstant(x) || isConstant(y) {
		result.Warning = fmt.Sprintf("correlation for %s vs %s is undefined: one of the columns is constant", xName, yName)
		return result, nil
	}

	result.R = stat.Correlation(x, y, nil)
	result.PValue = NewDistributions().CorrelationPValue(result.R, len(x))
	return result, nil
}

// CompletePairs drops every row where either side is missing
func CompletePairs(xs, ys []float64) ([]float64, []float64) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	x := make([]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		x = append(x, xs[i])
		y = append(y, ys[i])
	}
	return x, y
}

// TrendBand carries a least-squares trend line and its 95% confidence
// band evaluated on an even grid across the observed X range. The band
// is narrowest at the mean of X and widens toward the extremes.
type TrendBand struct {
	Slope     float64
	Intercept float64
	Grid      []float64
	Fit       []float64
	Lower     []float64
	Upper     []float64
}

// ConfidenceBand fits y = a + bx and evaluates the analytic confidence
// band for the regression mean on a grid of the given size.
func ConfidenceBand(x, y []float64, points int) (TrendBand, error) {
	n := len(x)
	if n < minPairs || len(y) != n {
		return TrendBand{}, errors.InsufficientData("confidence band needs at least 3 complete observations")
	}
	if points < 2 {
		points = 2
	}

	xMin, xMax := x[0], x[0]
	for _, v := range x {
		if v < xMin {
			xMin = v
		}
		if v > xMax {
			xMax = v
		}
	}
	if xMax == xMin {
		return TrendBand{}, errors.InsufficientData("confidence band needs spread in the X column")
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	xMean := stat.Mean(x, nil)
	sxx := 0.0
	for _, v := range x {
		d := v - xMean
		sxx += d * d
	}

	rss := 0.0
	for i := range x {
		r := y[i] - (alpha + beta*x[i])
		rss += r * r
	}
	s := math.Sqrt(rss / float64(n-2))
	tCrit := NewDistributions().TCritical(0.95, n-2)

	band := TrendBand{
		Slope:     beta,
		Intercept: alpha,
		Grid:      make([]float64, points),
		Fit:       make([]float64, points),
		Lower:     make([]float64, points),
		Upper:     make([]float64, points),
	}

	step := (xMax - xMin) / float64(points-1)
	for i := 0; i < points; i++ {
		g := xMin + float64(i)*step
		fit := alpha + beta*g
		margin := tCrit * s * math.Sqrt(1/float64(n)+(g-xMean)*(g-xMean)/sxx)
		band.Grid[i] = g
		band.Fit[i] = fit
		band.Lower[i] = fit - margin
		band.Upper[i] = fit + margin
	}

	return band, nil
}

func numericValues(ds *dataset.Dataset, name string) ([]float64, error) {
	col, ok := ds.Column(name)
	if !ok {
		return nil, errors.UnknownColumn(name)
	}
	if !col.IsNumeric() {
		return nil, errors.InvalidInput("column " + name + " is not numeric")
	}
	return col.Floats, nil
}

func isConstant(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}
	return true
}
