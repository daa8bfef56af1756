package regress

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gostat/domain/dataset"
	"gostat/internal/errors"
	"gostat/internal/formula"
)

func fitFormula(t *testing.T, source string, header []string, rows [][]string) (*formula.Design, error) {
	t.Helper()
	ds := dataset.New("test", header, rows)
	return formula.BuildDesign(ds, source)
}

func TestFitPerfectLine(t *testing.T) {
	design, err := fitFormula(t, "income ~ age",
		[]string{"age", "income"},
		[][]string{
			{"25", "30000"},
			{"30", "40000"},
			{"35", "50000"},
			{"40", "60000"},
		})
	assert.NoError(t, err)

	model, err := Fit(design)
	assert.NoError(t, err)

	intercept, ok := model.Term("Intercept")
	assert.True(t, ok)
	assert.InDelta(t, -20000.0, intercept.Estimate, 1e-6)

	slope, ok := model.Term("age")
	assert.True(t, ok)
	assert.InDelta(t, 2000.0, slope.Estimate, 1e-6)

	assert.InDelta(t, 1.0, model.Metrics.RSquared, 1e-9)
	assert.Equal(t, 4, model.Metrics.NObs)
	assert.Equal(t, 2, model.Metrics.DfResid)
	assert.Empty(t, model.Dropped)

	for i, want := range []float64{30000, 40000, 50000, 60000} {
		assert.InDelta(t, want, model.Fitted[i], 1e-6)
		assert.InDelta(t, 0.0, model.Residuals[i], 1e-6)
	}
}

func TestFitNoisyLine(t *testing.T) {
	design, err := fitFormula(t, "y ~ x",
		[]string{"x", "y"},
		[][]string{
			{"1", "5.1"},
			{"2", "6.9"},
			{"3", "9.2"},
			{"4", "10.8"},
			{"5", "13.0"},
		})
	assert.NoError(t, err)

	model, err := Fit(design)
	assert.NoError(t, err)

	// Closed-form simple regression: slope = Sxy/Sxx = 19.7/10
	slope, _ := model.Term("x")
	assert.InDelta(t, 1.97, slope.Estimate, 1e-9)
	assert.InDelta(t, 0.0550757, slope.StdErr, 1e-6)
	assert.InDelta(t, 35.769, slope.TValue, 1e-3)
	assert.Less(t, slope.PValue, 1e-4)
	assert.Greater(t, slope.PValue, 0.0)
	assert.True(t, slope.Significant)

	intercept, _ := model.Term("Intercept")
	assert.InDelta(t, 3.09, intercept.Estimate, 1e-9)

	assert.InDelta(t, 0.9976607, model.Metrics.RSquared, 1e-6)
	assert.InDelta(t, 0.9968809, model.Metrics.AdjRSquared, 1e-6)

	// With one predictor the overall F equals the slope t squared
	assert.InDelta(t, slope.TValue*slope.TValue, model.Metrics.FStatistic, 1e-6)
	assert.InDelta(t, slope.PValue, model.Metrics.FPValue, 1e-9)

	assert.InDelta(t, -1.8423, model.Metrics.AIC, 1e-2)
	assert.InDelta(t, 2*2.0-2.0*math.Log(5), model.Metrics.AIC-model.Metrics.BIC, 1e-9)
}

func TestFitDropsCollinearColumn(t *testing.T) {
	design, err := fitFormula(t, "y ~ x1 + x2",
		[]string{"x1", "x2", "y"},
		[][]string{
			{"1", "2", "3"},
			{"2", "4", "5"},
			{"3", "6", "7"},
			{"4", "8", "9"},
			{"5", "10", "11"},
		})
	assert.NoError(t, err)

	model, err := Fit(design)
	assert.NoError(t, err)
	assert.Equal(t, []string{"x2"}, model.Dropped)
	assert.Len(t, model.Coefficients, 2)

	_, ok := model.Term("x2")
	assert.False(t, ok)

	slope, ok := model.Term("x1")
	assert.True(t, ok)
	assert.InDelta(t, 2.0, slope.Estimate, 1e-9)
	assert.InDelta(t, 1.0, model.Metrics.RSquared, 1e-9)
}

func TestFitCategoricalGroupMeans(t *testing.T) {
	design, err := fitFormula(t, "y ~ C(group)",
		[]string{"group", "y"},
		[][]string{
			{"a", "1"},
			{"a", "3"},
			{"b", "5"},
			{"b", "7"},
		})
	assert.NoError(t, err)

	model, err := Fit(design)
	assert.NoError(t, err)

	intercept, _ := model.Term("Intercept")
	assert.InDelta(t, 2.0, intercept.Estimate, 1e-9)

	diff, ok := model.Term("C(group)[T.b]")
	assert.True(t, ok)
	assert.InDelta(t, 4.0, diff.Estimate, 1e-9)
	assert.InDelta(t, math.Sqrt(2.0), diff.StdErr, 1e-9)
	assert.InDelta(t, 0.1055728, diff.PValue, 1e-4)
	assert.False(t, diff.Significant)

	// 95% CI at df=2 uses t = 4.302653
	assert.InDelta(t, 4.0-4.302653*math.Sqrt(2.0), diff.CILower, 1e-3)
	assert.InDelta(t, 4.0+4.302653*math.Sqrt(2.0), diff.CIUpper, 1e-3)

	assert.InDelta(t, 0.8, model.Metrics.RSquared, 1e-9)
}

func TestFitInsufficientObservations(t *testing.T) {
	design, err := fitFormula(t, "y ~ x1 + x2",
		[]string{"x1", "x2", "y"},
		[][]string{
			{"1", "1", "1"},
			{"2", "4", "2"},
			{"3", "9", "5"},
		})
	assert.NoError(t, err)

	_, err = Fit(design)
	assert.Error(t, err)
	assert.Equal(t, errors.CodeFitFailed, errors.GetCode(err))
}

func TestFitConstantResponse(t *testing.T) {
	design, err := fitFormula(t, "y ~ x",
		[]string{"x", "y"},
		[][]string{
			{"1", "5"},
			{"2", "5"},
			{"3", "5"},
			{"4", "5"},
		})
	assert.NoError(t, err)

	model, err := Fit(design)
	assert.NoError(t, err)

	intercept, _ := model.Term("Intercept")
	assert.InDelta(t, 5.0, intercept.Estimate, 1e-9)
	assert.True(t, math.IsNaN(model.Metrics.RSquared))
	assert.True(t, math.IsNaN(model.Metrics.FStatistic))
}

func TestNormalQQ(t *testing.T) {
	qq := NormalQQ([]float64{3, 1, 2})

	assert.Equal(t, []float64{1, 2, 3}, qq.Sample)
	assert.Len(t, qq.Theoretical, 3)
	assert.InDelta(t, 0.0, qq.Theoretical[1], 1e-12)
	assert.InDelta(t, -qq.Theoretical[0], qq.Theoretical[2], 1e-12)
	assert.InDelta(t, -0.8193, qq.Theoretical[0], 1e-3)

	// With symmetric positions the line passes through the means
	assert.InDelta(t, 2.0, qq.Intercept, 1e-9)
	assert.InDelta(t, 1.0/qq.Theoretical[2], qq.Slope, 1e-9)
}

func TestNormalQQMonotone(t *testing.T) {
	qq := NormalQQ([]float64{0.5, -1.2, 3.4, 0.1, -0.7, 2.2, 1.1})
	for i := 1; i < len(qq.Theoretical); i++ {
		assert.Greater(t, qq.Theoretical[i], qq.Theoretical[i-1])
		assert.GreaterOrEqual(t, qq.Sample[i], qq.Sample[i-1])
	}
}

func TestNormalQQEmpty(t *testing.T) {
	qq := NormalQQ(nil)
	assert.Empty(t, qq.Theoretical)
	assert.Empty(t, qq.Sample)
}

func TestSummaryText(t *testing.T) {
	design, err := fitFormula(t, "y ~ x1 + x2",
		[]string{"x1", "x2", "y"},
		[][]string{
			{"1", "2", "3"},
			{"2", "4", "5"},
			{"3", "6", "7"},
			{"4", "8", "9"},
			{"5", "10", "11"},
		})
	assert.NoError(t, err)

	model, err := Fit(design)
	assert.NoError(t, err)

	text := Summary(model)
	assert.Contains(t, text, "OLS Regression Results")
	assert.Contains(t, text, "Dep. Variable: y")
	assert.Contains(t, text, "Intercept")
	assert.Contains(t, text, "x1")
	assert.Contains(t, text, "Dropped (collinear): x2")
	assert.Contains(t, text, "R-squared:")

	for _, line := range strings.Split(text, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), summaryWidth+12)
	}
}
