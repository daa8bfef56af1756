package regress

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"

	domainstats "gostat/domain/stats"
	"gostat/internal/analysis"
	"gostat/internal/errors"
	"gostat/internal/formula"
)

// collinearityTol is the relative residual-norm threshold below which a
// design column counts as linearly dependent on the columns before it
const collinearityTol = 1e-8

// Fit estimates an ordinary least squares model for a realized design.
// Perfectly collinear columns are swept out first, later-declared
// columns losing to earlier ones, and their names are reported on the
// model rather than treated as an error.
func Fit(design *formula.Design) (*domainstats.RegressionModel, error) {
	keep, dropped := rankSweep(design.X)
	droppedNames := make([]string, 0, len(dropped))
	for _, idx := range dropped {
		droppedNames = append(droppedNames, design.TermNames[idx])
	}
	if len(droppedNames) > 0 {
		log.Printf("[regress] dropping collinear terms: %v", droppedNames)
	}

	x := reduceColumns(design.X, keep)
	names := make([]string, len(keep))
	for i, idx := range keep {
		names[i] = design.TermNames[idx]
	}

	n, k := x.Dims()
	df := n - k
	if df < 1 {
		return nil, errors.FitFailed(
			fmt.Sprintf("not enough observations to fit %d parameters (have %d rows after dropping missing values)", k, n), nil)
	}

	y := mat.NewVecDense(n, design.Y)

	// Normal equations: beta = (X'X)^-1 X'y, with an SVD pseudo-inverse
	// fallback when the inverse is numerically unavailable.
	var xt mat.Dense
	xt.CloneFrom(x.T())

	var xtx mat.Dense
	xtx.Mul(&xt, x)

	var invXTX mat.Dense
	if err := invXTX.Inverse(&xtx); err != nil {
		log.Printf("[regress] X'X inverse failed, falling back to pseudo-inverse: %v", err)
		pinv, svdErr := pseudoInverse(&xtx)
		if svdErr != nil {
			return nil, errors.FitFailed("could not solve the normal equations", svdErr)
		}
		invXTX.CloneFrom(pinv)
	}

	var xty mat.VecDense
	xty.MulVec(&xt, y)

	var beta mat.VecDense
	beta.MulVec(&invXTX, &xty)

	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(x, &beta)

	resid := mat.NewVecDense(n, nil)
	resid.SubVec(y, fitted)

	rss := mat.Dot(resid, resid)
	sigma2 := rss / float64(df)

	dist := analysis.NewDistributions()
	tCrit := dist.TCritical(0.95, df)

	coefficients := make([]domainstats.Coefficient, k)
	for i := 0; i < k; i++ {
		se := math.Sqrt(sigma2 * invXTX.At(i, i))
		estimate := beta.AtVec(i)
		tStat := estimate / se
		pValue := dist.TTestPValue(tStat, df)
		coefficients[i] = domainstats.Coefficient{
			Term:        names[i],
			Estimate:    estimate,
			StdErr:      se,
			TValue:      tStat,
			PValue:      pValue,
			CILower:     estimate - tCrit*se,
			CIUpper:     estimate + tCrit*se,
			Significant: pValue < 0.05,
		}
	}

	metrics := fitMetrics(design.Y, rss, n, k, dist)

	model := &domainstats.RegressionModel{
		Formula:      design.Source,
		Response:     design.Response,
		Metrics:      metrics,
		Coefficients: coefficients,
		Dropped:      droppedNames,
		Fitted:       vectorSlice(fitted),
		Residuals:    vectorSlice(resid),
	}
	return model, nil
}

func fitMetrics(y []float64, rss float64, n, k int, dist *analysis.Distributions) domainstats.FitMetrics {
	fn := float64(n)
	fk := float64(k)

	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= fn

	tss := 0.0
	for _, v := range y {
		d := v - yMean
		tss += d * d
	}

	metrics := domainstats.FitMetrics{NObs: n, DfResid: n - k}

	if tss > 0 {
		metrics.RSquared = 1 - rss/tss
		metrics.AdjRSquared = 1 - (1-metrics.RSquared)*(fn-1)/(fn-fk)
	} else {
		metrics.RSquared = math.NaN()
		metrics.AdjRSquared = math.NaN()
	}

	dfModel := k - 1
	if dfModel > 0 && tss > 0 {
		r2 := metrics.RSquared
		if r2 >= 1 {
			metrics.FStatistic = math.Inf(1)
			metrics.FPValue = 0
		} else {
			metrics.FStatistic = (r2 / float64(dfModel)) / ((1 - r2) / (fn - fk))
			metrics.FPValue = dist.FTestPValue(metrics.FStatistic, dfModel, n-k)
		}
	} else {
		metrics.FStatistic = math.NaN()
		metrics.FPValue = math.NaN()
	}

	// Gaussian log-likelihood at the MLE variance RSS/n
	if rss > 0 {
		logLik := -0.5 * fn * (1 + math.Log(2*math.Pi*rss/fn))
		metrics.AIC = -2*logLik + 2*fk
		metrics.BIC = -2*logLik + fk*math.Log(fn)
	} else {
		metrics.AIC = math.Inf(-1)
		metrics.BIC = math.Inf(-1)
	}

	return metrics
}

// rankSweep runs a modified Gram-Schmidt pass over the design columns
// in declaration order, reporting every column whose residual after
// projection onto the earlier ones is numerically zero
func rankSweep(x *mat.Dense) (keep []int, dropped []int) {
	n, k := x.Dims()

	basis := make([][]float64, 0, k)
	for j := 0; j < k; j++ {
		v := make([]float64, n)
		mat.Col(v, j, x)

		orig := norm(v)
		if orig == 0 {
			dropped = append(dropped, j)
			continue
		}

		for _, b := range basis {
			proj := dot(b, v)
			for i := range v {
				v[i] -= proj * b[i]
			}
		}

		if norm(v) <= collinearityTol*orig {
			dropped = append(dropped, j)
			continue
		}

		scale := 1 / norm(v)
		for i := range v {
			v[i] *= scale
		}
		basis = append(basis, v)
		keep = append(keep, j)
	}
	return keep, dropped
}

func reduceColumns(x *mat.Dense, keep []int) *mat.Dense {
	n, _ := x.Dims()
	out := mat.NewDense(n, len(keep), nil)
	col := make([]float64, n)
	for dst, src := range keep {
		mat.Col(col, src, x)
		out.SetCol(dst, col)
	}
	return out
}

// pseudoInverse computes the Moore-Penrose inverse through an SVD,
// truncating singular values near zero
func pseudoInverse(a *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	sigma := svd.Values(nil)
	m, n := a.Dims()
	sInv := mat.NewDense(n, m, nil)

	const tol = 1e-12
	for i, val := range sigma {
		if val > tol {
			sInv.Set(i, i, 1/val)
		}
	}

	var tmp mat.Dense
	tmp.Mul(&v, sInv)
	var ut mat.Dense
	ut.CloneFrom(u.T())

	var pinv mat.Dense
	pinv.Mul(&tmp, &ut)
	return &pinv, nil
}

func vectorSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	copy(out, v.RawVector().Data)
	return out
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
