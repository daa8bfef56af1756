package regress

import (
	"fmt"
	"math"
	"strings"

	domainstats "gostat/domain/stats"
)

const summaryWidth = 82

// Summary renders a fixed-width text report for a fitted model, in the
// spirit of the classic OLS summary tables.
func Summary(m *domainstats.RegressionModel) string {
	var b strings.Builder

	title := "OLS Regression Results"
	pad := (summaryWidth - len(title)) / 2
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(strings.Repeat("=", summaryWidth) + "\n")

	left := []string{
		fmt.Sprintf("Dep. Variable: %s", m.Response),
		fmt.Sprintf("Observations: %d", m.Metrics.NObs),
		fmt.Sprintf("Df Residuals: %d", m.Metrics.DfResid),
		fmt.Sprintf("Df Model: %d", len(m.Coefficients)-1),
	}
	right := []string{
		fmt.Sprintf("R-squared: %s", fnum(m.Metrics.RSquared)),
		fmt.Sprintf("Adj. R-squared: %s", fnum(m.Metrics.AdjRSquared)),
		fmt.Sprintf("F-statistic: %s", fnum(m.Metrics.FStatistic)),
		fmt.Sprintf("Prob (F-statistic): %s", fnum(m.Metrics.FPValue)),
	}
	right = append(right,
		fmt.Sprintf("AIC: %s", fnum(m.Metrics.AIC)),
		fmt.Sprintf("BIC: %s", fnum(m.Metrics.BIC)),
	)
	for i := 0; i < len(left) || i < len(right); i++ {
		l, r := "", ""
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		b.WriteString(fmt.Sprintf("%-*s%s\n", summaryWidth/2, l, r))
	}

	b.WriteString(strings.Repeat("-", summaryWidth) + "\n")
	b.WriteString(fmt.Sprintf("%-24s %10s %10s %8s %8s %8s %8s\n",
		"", "coef", "std err", "t", "P>|t|", "[0.025", "0.975]"))
	b.WriteString(strings.Repeat("-", summaryWidth) + "\n")
	for _, c := range m.Coefficients {
		b.WriteString(fmt.Sprintf("%-24s %10s %10s %8s %8s %8s %8s\n",
			clip(c.Term, 24), fnum(c.Estimate), fnum(c.StdErr),
			fnum(c.TValue), fnum(c.PValue), fnum(c.CILower), fnum(c.CIUpper)))
	}
	b.WriteString(strings.Repeat("=", summaryWidth) + "\n")

	if len(m.Dropped) > 0 {
		b.WriteString(fmt.Sprintf("Dropped (collinear): %s\n", strings.Join(m.Dropped, ", ")))
	}
	return b.String()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// fnum formats statistics compactly, switching to scientific notation
// for very large or very small magnitudes
func fnum(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e6 || abs < 1e-4) {
		return fmt.Sprintf("%.3e", v)
	}
	return fmt.Sprintf("%.4f", v)
}
