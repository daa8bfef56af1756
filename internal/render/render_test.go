package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"gostat/internal/analysis"
	"gostat/internal/describe"
	"gostat/internal/errors"
	"gostat/internal/regress"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestDistributionPNG(t *testing.T) {
	values := sequence(40)
	hist := describe.BuildHistogram(values)
	box := describe.BuildBoxplot(values)

	png, err := NewRenderer().Distribution("income", hist, box)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
	assert.Greater(t, len(png), 1000)
}

func TestDistributionConstantColumn(t *testing.T) {
	values := []float64{7, 7, 7, 7}
	hist := describe.BuildHistogram(values)
	box := describe.BuildBoxplot(values)

	png, err := NewRenderer().Distribution("flat", hist, box)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestDistributionWithOutliers(t *testing.T) {
	values := append(sequence(20), 500)
	hist := describe.BuildHistogram(values)
	box := describe.BuildBoxplot(values)
	assert.NotEmpty(t, box.Outliers)

	png, err := NewRenderer().Distribution("spiky", hist, box)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestDistributionEmpty(t *testing.T) {
	_, err := NewRenderer().Distribution("empty", describe.Histogram{}, describe.Boxplot{})
	assert.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestScatterWithBand(t *testing.T) {
	xs := sequence(10)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 2*x + 3
	}
	band, err := analysis.ConfidenceBand(xs, ys, 50)
	assert.NoError(t, err)

	png, err := NewRenderer().Scatter("age", "income", xs, ys, &band)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestScatterWithoutBand(t *testing.T) {
	png, err := NewRenderer().Scatter("x", "y", []float64{1, 2}, []float64{3, 4}, nil)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestScatterSinglePoint(t *testing.T) {
	png, err := NewRenderer().Scatter("x", "y", []float64{5}, []float64{5}, nil)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestScatterMismatchedLengths(t *testing.T) {
	_, err := NewRenderer().Scatter("x", "y", []float64{1, 2}, []float64{3}, nil)
	assert.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestResidualsVsFitted(t *testing.T) {
	fitted := sequence(8)
	residuals := []float64{0.1, -0.2, 0.3, -0.1, 0.05, -0.3, 0.2, 0}

	png, err := NewRenderer().ResidualsVsFitted(fitted, residuals)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestResidualsVsFittedEmpty(t *testing.T) {
	_, err := NewRenderer().ResidualsVsFitted(nil, nil)
	assert.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestNormalQQFigure(t *testing.T) {
	qq := regress.NormalQQ([]float64{0.5, -1.2, 3.4, 0.1, -0.7, 2.2, 1.1})

	png, err := NewRenderer().NormalQQ(qq)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestNormalQQEmptyFigure(t *testing.T) {
	_, err := NewRenderer().NormalQQ(regress.QQPlot{})
	assert.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
