package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gostat/domain/dataset"
	"gostat/domain/stats"
	"gostat/internal/analysis"
	"gostat/internal/describe"
	"gostat/internal/errors"
	"gostat/internal/formula"
	"gostat/internal/regress"
	"gostat/models"
	"gostat/ports"
)

// FigureRenderer draws PNG figures for computed results. Declared on
// the consumer side so the service does not import the chart stack.
type FigureRenderer interface {
	Distribution(column string, hist describe.Histogram, box describe.Boxplot) ([]byte, error)
	Scatter(xName, yName string, xs, ys []float64, band *analysis.TrendBand) ([]byte, error)
	ResidualsVsFitted(fitted, residuals []float64) ([]byte, error)
	NormalQQ(qq regress.QQPlot) ([]byte, error)
}

// Workbench orchestrates the analysis stages against a loaded dataset:
// ingestion, univariate summaries, correlation, and model fitting.
type Workbench struct {
	reader   ports.TabularReaderPort
	renderer FigureRenderer

	// concurrent column summaries during a full describe pass
	describeConcurrency int64
}

func NewWorkbench(reader ports.TabularReaderPort, renderer FigureRenderer) *Workbench {
	return &Workbench{
		reader:              reader,
		renderer:            renderer,
		describeConcurrency: 4,
	}
}

// Ingest decodes an upload into a dataset.
func (w *Workbench) Ingest(ctx context.Context, filename string, src io.Reader) (*dataset.Dataset, error) {
	start := time.Now()
	ds, err := w.reader.Read(ctx, filename, src)
	if err != nil {
		return nil, err
	}

	rows, cols := ds.Shape()
	log.Printf("[Workbench] ingested %s: %d rows, %d columns in %dms",
		ds.Name(), rows, cols, time.Since(start).Milliseconds())
	return ds, nil
}

// Overview builds the dataset header view with a short row preview.
func (w *Workbench) Overview(ds *dataset.Dataset) models.DatasetView {
	rows, cols := ds.Shape()
	return models.DatasetView{
		ID:             ds.ID().String(),
		Name:           ds.Name(),
		Rows:           rows,
		Columns:        cols,
		NumericColumns: ds.NumericColumns(),
		TextColumns:    ds.TextColumns(),
		Header:         ds.Names(),
		Preview:        ds.Preview(10),
		UploadedAt:     ds.UploadedAt().Time().Format("2006-01-02 15:04:05"),
	}
}

// Summarize computes univariate statistics for one numeric column,
// without rendering anything.
func (w *Workbench) Summarize(ds *dataset.Dataset, name string) (stats.SummaryStatistics, error) {
	col, ok := ds.Column(name)
	if !ok {
		return stats.SummaryStatistics{}, errors.UnknownColumn(name)
	}
	return describe.Summarize(col)
}

// DescribeColumn computes univariate statistics and the distribution
// figure for one numeric column.
func (w *Workbench) DescribeColumn(ds *dataset.Dataset, name string) (models.SummaryView, error) {
	summary, err := w.Summarize(ds, name)
	if err != nil {
		return models.SummaryView{}, err
	}

	view := models.SummaryView{Column: name, Stats: summary}

	col, _ := ds.Column(name)
	values := col.NonMissing()
	if len(values) > 0 {
		hist := describe.BuildHistogram(values)
		box := describe.BuildBoxplot(values)
		png, err := w.renderer.Distribution(name, hist, box)
		view.Figure = w.figure("Distribution of "+name, png, err)
	}
	return view, nil
}

// DescribeColumns summarizes the named columns, a few at a time. A
// column that fails to summarize yields a stats-free view and a log
// line; it never sinks the rest of the pass.
func (w *Workbench) DescribeColumns(ctx context.Context, ds *dataset.Dataset, names []string) ([]models.SummaryView, error) {
	start := time.Now()
	out := make([]models.SummaryView, len(names))

	sem := semaphore.NewWeighted(w.describeConcurrency)
	var wg sync.WaitGroup
	for i, name := range names {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer sem.Release(1)

			view, err := w.DescribeColumn(ds, name)
			if err != nil {
				log.Printf("[Workbench] describe %s failed: %v", name, err)
				view = models.SummaryView{Column: name}
			}
			out[i] = view
		}(i, name)
	}
	wg.Wait()

	log.Printf("[Workbench] described %d columns in %dms", len(names), time.Since(start).Milliseconds())
	return out, nil
}

// Correlation computes the Pearson pairing for two numeric columns,
// without rendering anything.
func (w *Workbench) Correlation(ds *dataset.Dataset, xName, yName string) (stats.CorrelationResult, error) {
	return analysis.Correlate(ds, xName, yName)
}

// Correlate computes the Pearson pairing for two numeric columns plus
// the scatter figure with trend line and confidence band.
func (w *Workbench) Correlate(ds *dataset.Dataset, xName, yName string) (models.CorrelationView, error) {
	result, err := w.Correlation(ds, xName, yName)
	if err != nil {
		return models.CorrelationView{}, err
	}
	view := models.CorrelationView{Result: result}

	xCol, _ := ds.Column(xName)
	yCol, _ := ds.Column(yName)
	xs, ys := analysis.CompletePairs(xCol.Floats, yCol.Floats)
	if len(xs) == 0 {
		return view, nil
	}

	var band *analysis.TrendBand
	if result.Usable() {
		if b, err := analysis.ConfidenceBand(xs, ys, 80); err == nil {
			band = &b
		} else {
			log.Printf("[Workbench] confidence band for %s vs %s skipped: %v", xName, yName, err)
		}
	}

	png, err := w.renderer.Scatter(xName, yName, xs, ys, band)
	view.Figure = w.figure(yName+" vs "+xName, png, err)
	return view, nil
}

// CorrelatePairs pairs each X column against one Y. A pair that cannot
// be computed becomes a warning-carrying view; it never blocks the
// other pairs.
func (w *Workbench) CorrelatePairs(ds *dataset.Dataset, yName string, xNames []string) []models.CorrelationView {
	start := time.Now()
	out := make([]models.CorrelationView, 0, len(xNames))
	for _, xName := range xNames {
		view, err := w.Correlate(ds, xName, yName)
		if err != nil {
			log.Printf("[Workbench] correlate %s vs %s failed: %v", xName, yName, err)
			view = models.CorrelationView{Result: stats.CorrelationResult{
				X:       xName,
				Y:       yName,
				Warning: fmt.Sprintf("%s vs %s skipped: %v", xName, yName, err),
			}}
		}
		out = append(out, view)
	}
	log.Printf("[Workbench] correlated %d pairs against %s in %dms",
		len(xNames), yName, time.Since(start).Milliseconds())
	return out
}

// FitModel parses a model formula and fits it by least squares,
// without rendering anything.
func (w *Workbench) FitModel(ds *dataset.Dataset, source string) (*stats.RegressionModel, error) {
	start := time.Now()

	design, err := formula.BuildDesign(ds, source)
	if err != nil {
		return nil, err
	}
	model, err := regress.Fit(design)
	if err != nil {
		return nil, err
	}

	log.Printf("[Workbench] fit %q: n=%d, R²=%.4f in %dms",
		model.Formula, model.Metrics.NObs, model.Metrics.RSquared, time.Since(start).Milliseconds())
	return model, nil
}

// Fit parses a model formula, fits it by least squares, and renders
// the diagnostic figures.
func (w *Workbench) Fit(ds *dataset.Dataset, source string) (models.RegressionView, error) {
	model, err := w.FitModel(ds, source)
	if err != nil {
		return models.RegressionView{}, err
	}

	view := models.RegressionView{
		Model:       model,
		SummaryText: regress.Summary(model),
	}

	png, err := w.renderer.ResidualsVsFitted(model.Fitted, model.Residuals)
	view.Residuals = w.figure("Residuals vs Fitted", png, err)

	png, err = w.renderer.NormalQQ(regress.NormalQQ(model.Residuals))
	view.QQ = w.figure("Normal Q-Q", png, err)
	return view, nil
}

// SuggestFormula prefills the formula box: the given response (falling
// back to the first numeric column) against up to three of the
// remaining numeric columns.
func (w *Workbench) SuggestFormula(ds *dataset.Dataset, response string) string {
	numeric := ds.NumericColumns()
	if len(numeric) == 0 {
		return ""
	}
	if !contains(numeric, response) {
		response = numeric[0]
	}

	terms := make([]string, 0, 3)
	for _, name := range numeric {
		if name == response || len(terms) == 3 {
			continue
		}
		terms = append(terms, formula.QuoteIfNeeded(name))
	}
	if len(terms) == 0 {
		return formula.QuoteIfNeeded(response) + " ~ "
	}
	return formula.QuoteIfNeeded(response) + " ~ " + strings.Join(terms, " + ")
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (w *Workbench) figure(title string, png []byte, err error) *models.Figure {
	if err != nil {
		log.Printf("[Workbench] %s figure skipped: %v", title, err)
		return nil
	}
	return models.NewFigure(title, png)
}
