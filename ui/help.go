package ui

import (
	"html/template"
	"net/http"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const helpMarkdown = `# Workbench Guide

## Loading data

Upload a **.csv**, **.xlsx** or **.xls** file. The first row is taken as
the header; every later row is one observation. Columns where all
non-blank cells parse as numbers become numeric, everything else is
treated as text. Blank cells count as missing values. CSV files that are
not valid UTF-8 are retried as Latin-1, so legacy exports load without
re-encoding.

## Column summaries

Each numeric column gets count, mean, standard deviation (sample,
n−1), the 5/25/50/75/95 percentiles, skewness, excess kurtosis and the
missing-value count, next to a histogram with the boxplot drawn under
the same value axis.

## Correlation

Pick an x and a y column to get the Pearson coefficient, the two-sided
p-value and the number of complete pairs, with a scatter plot, fitted
trend line and 95% confidence band. At least 3 complete pairs are
required for r to be reported.

## Regression formulas

Fit ordinary least squares with an R-style formula:

    price ~ area + bedrooms + C(region) + log(age)

| Syntax | Meaning |
|---|---|
| ` + "`y ~ x1 + x2`" + ` | response on the left of ~, predictors joined by + |
| ` + "`C(col)`" + ` | dummy-code a text column; the first level in sorted order is the baseline |
| ` + "`log(col)`" + ` | transform a numeric column; also log2, log10, log1p, sqrt, exp, abs |
| ` + "`Q('odd name')`" + ` | reference a column whose name is not a plain identifier |

An intercept is always included. Rows with a missing value in any term
are dropped before fitting. Perfectly collinear predictors are dropped
automatically and listed under the fit.

## Reading the output

The coefficient table marks estimates with p < 0.05. R-squared,
adjusted R-squared, the F-statistic with its p-value, AIC and BIC
summarize the whole fit. Check the residuals-vs-fitted panel for curvature
or fanning and the normal Q-Q panel for heavy tails before trusting the
p-values.
`

type helpPage struct {
	Content template.HTML
}

var (
	helpOnce sync.Once
	helpHTML template.HTML
)

// renderedHelp converts the guide from markdown once per process.
func renderedHelp() template.HTML {
	helpOnce.Do(func() {
		p := parser.NewWithExtensions(parser.CommonExtensions)
		renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
		helpHTML = template.HTML(markdown.ToHTML([]byte(helpMarkdown), p, renderer))
	})
	return helpHTML
}

func (a *App) handleHelp(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, http.StatusOK, "help.html", helpPage{Content: renderedHelp()})
}
