package describe

import (
	"math"

	"github.com/montanaflynn/stats"

	"gostat/domain/dataset"
	domainstats "gostat/domain/stats"
	"gostat/internal/errors"
)

// Summarize computes the univariate summary for one numeric column.
// Missing cells are dropped first; a column with no usable values yields
// a degenerate summary (count 0, NaN statistics) rather than an error.
func Summarize(col *dataset.Column) (domainstats.SummaryStatistics, error) {
	if !col.IsNumeric() {
		return domainstats.SummaryStatistics{}, errors.InvalidInput("column " + col.Name + " is not numeric")
	}

	values := col.NonMissing()
	summary := domainstats.SummaryStatistics{
		Column:  col.Name,
		Count:   len(values),
		Missing: len(col.Floats) - len(values),
	}

	if len(values) == 0 {
		nan := math.NaN()
		summary.Mean, summary.StdDev = nan, nan
		summary.Min, summary.Max, summary.Median = nan, nan, nan
		summary.P5, summary.P25, summary.P75, summary.P95 = nan, nan, nan, nan
		summary.Skewness, summary.Kurtosis = nan, nan
		return summary, nil
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return summary, errors.Wrap(err, "mean failed")
	}
	summary.Mean = mean

	// Sample standard deviation (n-1 denominator) for display; the
	// moment helpers below use the population deviation internally.
	if len(values) > 1 {
		sd, err := stats.StandardDeviationSample(values)
		if err != nil {
			return summary, errors.Wrap(err, "std dev failed")
		}
		summary.StdDev = sd
	} else {
		summary.StdDev = math.NaN()
	}

	summary.Min, _ = stats.Min(values)
	summary.Max, _ = stats.Max(values)
	summary.Median, _ = stats.Median(values)
	summary.P5 = percentileOrClamp(values, 5)
	summary.P25 = percentileOrClamp(values, 25)
	summary.P75 = percentileOrClamp(values, 75)
	summary.P95 = percentileOrClamp(values, 95)

	popStd := populationStdDev(values, mean)
	summary.Skewness = sampleSkewness(values, mean, popStd)
	summary.Kurtosis = sampleExcessKurtosis(values, mean, popStd)

	return summary, nil
}

// percentileOrClamp wraps the percentile estimator, clamping to the
// sample extremes where the estimator refuses small-n tail requests.
func percentileOrClamp(values []float64, percent float64) float64 {
	p, err := stats.Percentile(values, percent)
	if err == nil {
		return p
	}
	if percent < 50 {
		min, _ := stats.Min(values)
		return min
	}
	max, _ := stats.Max(values)
	return max
}

func populationStdDev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, x := range values {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// sampleSkewness computes the adjusted Fisher-Pearson coefficient,
// the convention the usual dataframe libraries report.
func sampleSkewness(values []float64, mean, popStd float64) float64 {
	n := float64(len(values))
	if n < 3 || popStd == 0 {
		return math.NaN()
	}

	sumCubedDeviations := 0.0
	for _, x := range values {
		deviation := (x - mean) / popStd
		sumCubedDeviations += deviation * deviation * deviation
	}
	skewness := sumCubedDeviations / n

	// Bias correction for sample skewness
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// sampleExcessKurtosis computes bias-adjusted excess kurtosis G2;
// a normal distribution comes out near zero.
func sampleExcessKurtosis(values []float64, mean, popStd float64) float64 {
	n := float64(len(values))
	if n < 4 || popStd == 0 {
		return math.NaN()
	}

	sumFourthDeviations := 0.0
	for _, x := range values {
		deviation := (x - mean) / popStd
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}
	g2 := sumFourthDeviations/n - 3

	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
}
