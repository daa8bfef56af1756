package models

import (
	"encoding/base64"
	"html/template"

	"gostat/domain/stats"
)

// Figure is a rendered plot carried inline as a data URI, so pages and
// API responses need no follow-up image requests.
type Figure struct {
	Title   string       `json:"title"`
	DataURI template.URL `json:"data_uri"`
}

func NewFigure(title string, png []byte) *Figure {
	return &Figure{
		Title:   title,
		DataURI: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	}
}

// DatasetView summarizes an ingested dataset for display.
type DatasetView struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Rows           int        `json:"rows"`
	Columns        int        `json:"columns"`
	NumericColumns []string   `json:"numeric_columns"`
	TextColumns    []string   `json:"text_columns"`
	Header         []string   `json:"header"`
	Preview        [][]string `json:"preview"`
	UploadedAt     string     `json:"uploaded_at"`
}

// SummaryView pairs column statistics with a distribution figure.
type SummaryView struct {
	Column string                  `json:"column"`
	Stats  stats.SummaryStatistics `json:"stats"`
	Figure *Figure                 `json:"figure,omitempty"`
}

// CorrelationView pairs a correlation result with a scatter figure.
type CorrelationView struct {
	Result stats.CorrelationResult `json:"result"`
	Figure *Figure                 `json:"figure,omitempty"`
}

// RegressionView carries everything the regression section displays.
type RegressionView struct {
	Model       *stats.RegressionModel `json:"model"`
	SummaryText string                 `json:"summary_text"`
	Residuals   *Figure                `json:"residuals_figure,omitempty"`
	QQ          *Figure                `json:"qq_figure,omitempty"`
}
