package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides unified access to the statistical distributions
// the analysis stages need
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// TTestPValue computes the two-sided p-value for a t statistic
func (d *Distributions) TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	df := float64(degreesOfFreedom)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	// Two-tailed test
	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// CorrelationPValue computes the two-sided p-value for a Pearson
// correlation via the t transform with n-2 degrees of freedom
func (d *Distributions) CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 {
		return 1.0
	}

	rr := 1 - correlation*correlation
	if rr <= 0 {
		// |r| = 1, the t statistic diverges
		return 0
	}

	df := float64(sampleSize - 2)
	tStatistic := correlation * math.Sqrt(df/rr)

	return d.TTestPValue(tStatistic, int(df))
}

// FTestPValue computes the p-value for an F statistic (regression ANOVA)
func (d *Distributions) FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 {
		return 1.0
	}
	if math.IsNaN(fStatistic) {
		return math.NaN()
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return 1 - fDist.CDF(fStatistic)
}

// TCritical returns the two-sided critical value of Student's t for the
// given confidence level, e.g. 0.95 for a 95% interval
func (d *Distributions) TCritical(confidenceLevel float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return math.NaN()
	}
	alpha := 1 - confidenceLevel
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(degreesOfFreedom)}
	return tDist.Quantile(1 - alpha/2)
}

// NormalQuantile computes the standard normal inverse CDF
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
