// Package render turns computed statistics into PNG figures.
package render

import (
	"bytes"
	"log"
	"math"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"gostat/internal/analysis"
	"gostat/internal/describe"
	"gostat/internal/errors"
	"gostat/internal/regress"
)

var (
	steelBlue     = drawing.Color{R: 70, G: 130, B: 180, A: 255}
	steelBlueFill = drawing.Color{R: 70, G: 130, B: 180, A: 110}
	crimson       = drawing.Color{R: 220, G: 20, B: 60, A: 255}
	softGray      = drawing.Color{R: 130, G: 130, B: 130, A: 255}
)

type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: 760, Height: 420}
}

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: width,
		StrokeColor: col,
	}
}

func dashedStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth:     1.2,
		StrokeColor:     col,
		StrokeDashArray: []float64{5, 5},
	}
}

// Distribution draws a filled histogram with a boxplot strip below it,
// both on the same value axis.
func (r *Renderer) Distribution(column string, hist describe.Histogram, box describe.Boxplot) ([]byte, error) {
	if len(hist.Counts) == 0 {
		return nil, errors.InvalidInput("no data to plot for " + column)
	}

	maxCount := 0
	for _, c := range hist.Counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return nil, errors.InvalidInput("no data to plot for " + column)
	}
	top := float64(maxCount)

	// Histogram outline traced as a step polygon so the fill covers
	// each bin rectangle.
	xs := make([]float64, 0, 2*len(hist.Counts)+2)
	ys := make([]float64, 0, 2*len(hist.Counts)+2)
	xs = append(xs, hist.Edges[0])
	ys = append(ys, 0)
	for i, c := range hist.Counts {
		xs = append(xs, hist.Edges[i], hist.Edges[i+1])
		ys = append(ys, float64(c), float64(c))
	}
	xs = append(xs, hist.Edges[len(hist.Edges)-1])
	ys = append(ys, 0)

	series := []chart.Series{
		chart.ContinuousSeries{
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: 1.4,
				StrokeColor: steelBlue,
				FillColor:   steelBlueFill,
			},
		},
	}

	// Boxplot strip occupies a band below zero on the count axis.
	bandHigh := -0.05 * top
	bandLow := -0.17 * top
	mid := (bandHigh + bandLow) / 2
	capHalf := (bandHigh - bandLow) / 4

	boxStyle := lineStyle(crimson, 1.6)
	series = append(series,
		chart.ContinuousSeries{
			XValues: []float64{box.Q1, box.Q1, box.Q3, box.Q3, box.Q1},
			YValues: []float64{bandLow, bandHigh, bandHigh, bandLow, bandLow},
			Style:   boxStyle,
		},
		chart.ContinuousSeries{
			XValues: []float64{box.Median, box.Median},
			YValues: []float64{bandLow, bandHigh},
			Style:   boxStyle,
		},
		chart.ContinuousSeries{
			XValues: []float64{box.WhiskerLow, box.Q1},
			YValues: []float64{mid, mid},
			Style:   boxStyle,
		},
		chart.ContinuousSeries{
			XValues: []float64{box.Q3, box.WhiskerHigh},
			YValues: []float64{mid, mid},
			Style:   boxStyle,
		},
		chart.ContinuousSeries{
			XValues: []float64{box.WhiskerLow, box.WhiskerLow},
			YValues: []float64{mid - capHalf, mid + capHalf},
			Style:   boxStyle,
		},
		chart.ContinuousSeries{
			XValues: []float64{box.WhiskerHigh, box.WhiskerHigh},
			YValues: []float64{mid - capHalf, mid + capHalf},
			Style:   boxStyle,
		},
	)
	if len(box.Outliers) > 0 {
		flat := make([]float64, len(box.Outliers))
		for i := range flat {
			flat[i] = mid
		}
		series = append(series, chart.ContinuousSeries{
			XValues: box.Outliers,
			YValues: flat,
			Style:   pointStyle(crimson),
		})
	}

	lo := math.Min(hist.Edges[0], box.WhiskerLow)
	hi := math.Max(hist.Edges[len(hist.Edges)-1], box.WhiskerHigh)
	for _, v := range box.Outliers {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	ch := chart.Chart{
		Title:      "Distribution of " + column,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  column,
			Range: paddedRange(lo, hi),
		},
		YAxis: chart.YAxis{
			Name:  "count",
			Range: &chart.ContinuousRange{Min: bandLow * 1.35, Max: top * 1.08},
			Ticks: countTicks(maxCount),
		},
		Series: series,
	}
	return r.render(&ch, "distribution")
}

// Scatter draws observation points with an optional trend line and
// confidence band boundaries.
func (r *Renderer) Scatter(xName, yName string, xs, ys []float64, band *analysis.TrendBand) ([]byte, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil, errors.InvalidInput("no paired observations to plot")
	}

	series := []chart.Series{
		chart.ContinuousSeries{XValues: xs, YValues: ys, Style: pointStyle(steelBlue)},
	}
	if band != nil {
		series = append(series,
			chart.ContinuousSeries{XValues: band.Grid, YValues: band.Fit, Style: lineStyle(crimson, 2)},
			chart.ContinuousSeries{XValues: band.Grid, YValues: band.Upper, Style: dashedStyle(crimson)},
			chart.ContinuousSeries{XValues: band.Grid, YValues: band.Lower, Style: dashedStyle(crimson)},
		)
	}

	xlo, xhi := extent(xs)
	ylo, yhi := extent(ys)
	if band != nil {
		blo, bhi := extent(band.Lower)
		ylo = math.Min(ylo, blo)
		yhi = math.Max(yhi, bhi)
		blo, bhi = extent(band.Upper)
		ylo = math.Min(ylo, blo)
		yhi = math.Max(yhi, bhi)
	}

	ch := chart.Chart{
		Title:      yName + " vs " + xName,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xName, Range: paddedRange(xlo, xhi)},
		YAxis:      chart.YAxis{Name: yName, Range: paddedRange(ylo, yhi)},
		Series:     series,
	}
	return r.render(&ch, "scatter")
}

// ResidualsVsFitted draws model residuals against fitted values with a
// dashed reference line at zero.
func (r *Renderer) ResidualsVsFitted(fitted, residuals []float64) ([]byte, error) {
	if len(fitted) == 0 || len(fitted) != len(residuals) {
		return nil, errors.InvalidInput("no residuals to plot")
	}

	xlo, xhi := extent(fitted)
	ylo, yhi := extent(residuals)
	ylo = math.Min(ylo, 0)
	yhi = math.Max(yhi, 0)

	xRange := paddedRange(xlo, xhi)
	ch := chart.Chart{
		Title:      "Residuals vs Fitted",
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "fitted values", Range: xRange},
		YAxis:      chart.YAxis{Name: "residuals", Range: paddedRange(ylo, yhi)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{xRange.Min, xRange.Max},
				YValues: []float64{0, 0},
				Style:   dashedStyle(softGray),
			},
			chart.ContinuousSeries{XValues: fitted, YValues: residuals, Style: pointStyle(steelBlue)},
		},
	}
	return r.render(&ch, "residuals")
}

// NormalQQ draws ordered residuals against normal quantiles plus the
// probability-plot reference line.
func (r *Renderer) NormalQQ(qq regress.QQPlot) ([]byte, error) {
	if len(qq.Theoretical) == 0 {
		return nil, errors.InvalidInput("no residuals to plot")
	}

	xlo, xhi := extent(qq.Theoretical)
	xRange := paddedRange(xlo, xhi)
	lineYs := []float64{
		qq.Slope*xRange.Min + qq.Intercept,
		qq.Slope*xRange.Max + qq.Intercept,
	}

	ylo, yhi := extent(qq.Sample)
	ylo = math.Min(ylo, math.Min(lineYs[0], lineYs[1]))
	yhi = math.Max(yhi, math.Max(lineYs[0], lineYs[1]))

	ch := chart.Chart{
		Title:      "Normal Q-Q",
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "theoretical quantiles", Range: xRange},
		YAxis:      chart.YAxis{Name: "ordered residuals", Range: paddedRange(ylo, yhi)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{xRange.Min, xRange.Max},
				YValues: lineYs,
				Style:   lineStyle(crimson, 1.6),
			},
			chart.ContinuousSeries{XValues: qq.Theoretical, YValues: qq.Sample, Style: pointStyle(steelBlue)},
		},
	}
	return r.render(&ch, "qq")
}

func (r *Renderer) render(ch *chart.Chart, name string) ([]byte, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrapf(err, "rendering %s figure", name)
	}
	log.Printf("[render] %s figure %dx%d in %dms", name, ch.Width, ch.Height, time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// paddedRange widens the raw data extent so strokes never sit on the
// plot border, and keeps the range non-degenerate for constant data.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if hi < lo {
		lo, hi = hi, lo
	}
	span := hi - lo
	if span == 0 {
		pad := math.Abs(lo) * 0.05
		if pad == 0 {
			pad = 1
		}
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := span * 0.04
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func extent(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func countTicks(maxCount int) []chart.Tick {
	step := maxCount / 5
	if step < 1 {
		step = 1
	}
	ticks := make([]chart.Tick, 0, maxCount/step+2)
	for v := 0; v <= maxCount; v += step {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: strconv.Itoa(v)})
	}
	if last := ticks[len(ticks)-1].Value; last < float64(maxCount) {
		ticks = append(ticks, chart.Tick{Value: float64(maxCount), Label: strconv.Itoa(maxCount)})
	}
	return ticks
}
