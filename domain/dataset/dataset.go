package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gostat/domain/core"
)

// ColumnKind classifies a parsed column
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// Column holds one parsed column. Texts keeps the raw cell for every row
// ("" where missing); Floats is populated for numeric columns only, with
// NaN where missing so row alignment survives.
type Column struct {
	Name   string
	Kind   ColumnKind
	Texts  []string
	Floats []float64
}

// IsNumeric reports whether the column parsed as numeric
func (c *Column) IsNumeric() bool {
	return c.Kind == KindNumeric
}

// Missing counts missing cells in the column
func (c *Column) Missing() int {
	if c.Kind == KindNumeric {
		n := 0
		for _, v := range c.Floats {
			if math.IsNaN(v) {
				n++
			}
		}
		return n
	}
	n := 0
	for _, s := range c.Texts {
		if s == "" {
			n++
		}
	}
	return n
}

// NonMissing returns the numeric values with missing cells dropped.
// Returns nil for text columns.
func (c *Column) NonMissing() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Floats))
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Levels returns the sorted distinct non-missing values of a text column.
// Categorical coding drops the first level as the reference.
func (c *Column) Levels() []string {
	seen := make(map[string]bool)
	for _, s := range c.Texts {
		if s != "" {
			seen[s] = true
		}
	}
	levels := make([]string, 0, len(seen))
	for s := range seen {
		levels = append(levels, s)
	}
	sort.Strings(levels)
	return levels
}

// Dataset is the immutable result of ingesting one uploaded file.
// Nothing mutates a Dataset after New returns it; every analysis stage
// reads from the same instance.
type Dataset struct {
	id         core.DatasetID
	name       string
	uploadedAt core.Timestamp
	cols       []Column
	byName     map[string]int
	rows       int
}

// New builds a typed Dataset from a header row and raw cell rows.
// A column is numeric when every non-missing cell parses as a float;
// otherwise it stays text. Short rows are padded with missing cells,
// surplus cells beyond the header are dropped.
func New(name string, header []string, rows [][]string) *Dataset {
	names := dedupeNames(header)
	n := len(rows)

	cols := make([]Column, len(names))
	for j, colName := range names {
		texts := make([]string, n)
		floats := make([]float64, n)
		numeric := true
		for i, row := range rows {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if isMissingToken(cell) {
				texts[i] = ""
				floats[i] = math.NaN()
				continue
			}
			texts[i] = cell
			if numeric {
				v, ok := parseCell(cell)
				if ok {
					floats[i] = v
				} else {
					numeric = false
				}
			}
		}
		col := Column{Name: colName, Texts: texts}
		if numeric {
			col.Kind = KindNumeric
			col.Floats = floats
		} else {
			col.Kind = KindText
		}
		cols[j] = col
	}

	byName := make(map[string]int, len(cols))
	for j := range cols {
		byName[cols[j].Name] = j
	}

	return &Dataset{
		id:         core.NewDatasetID(),
		name:       name,
		uploadedAt: core.Now(),
		cols:       cols,
		byName:     byName,
		rows:       n,
	}
}

// ID returns the dataset identifier
func (d *Dataset) ID() core.DatasetID { return d.id }

// Name returns the originating file name
func (d *Dataset) Name() string { return d.name }

// UploadedAt returns the ingestion time
func (d *Dataset) UploadedAt() core.Timestamp { return d.uploadedAt }

// Rows returns the number of data rows
func (d *Dataset) Rows() int { return d.rows }

// Shape returns rows and columns
func (d *Dataset) Shape() (int, int) { return d.rows, len(d.cols) }

// Names returns the column names in declaration order
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i := range d.cols {
		names[i] = d.cols[i].Name
	}
	return names
}

// Column looks a column up by name. The returned Column is shared;
// callers must not mutate it.
func (d *Dataset) Column(name string) (*Column, bool) {
	idx, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return &d.cols[idx], true
}

// HasColumn reports whether a column exists
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// NumericColumns returns the numeric column names in declaration order.
// This is the set every analysis selector offers.
func (d *Dataset) NumericColumns() []string {
	names := make([]string, 0, len(d.cols))
	for i := range d.cols {
		if d.cols[i].IsNumeric() {
			names = append(names, d.cols[i].Name)
		}
	}
	return names
}

// TextColumns returns the non-numeric column names in declaration order
func (d *Dataset) TextColumns() []string {
	names := make([]string, 0, len(d.cols))
	for i := range d.cols {
		if !d.cols[i].IsNumeric() {
			names = append(names, d.cols[i].Name)
		}
	}
	return names
}

// Preview returns up to n data rows as display strings, row-major
func (d *Dataset) Preview(n int) [][]string {
	if n > d.rows {
		n = d.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(d.cols))
		for j := range d.cols {
			row[j] = d.cols[j].Texts[i]
		}
		out[i] = row
	}
	return out
}

// missing tokens the reference readers treat as empty cells
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

func isMissingToken(cell string) bool {
	return missingTokens[cell]
}

// parseCell parses a numeric cell, tolerating thousands separators
func parseCell(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(cell, 64)
	if err == nil {
		return v, true
	}
	if strings.Contains(cell, ",") {
		v, err = strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}

// dedupeNames trims header names and disambiguates duplicates and blanks
func dedupeNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for j, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}
		if used[name] {
			base := name
			for k := 1; ; k++ {
				name = fmt.Sprintf("%s.%d", base, k)
				if !used[name] {
					break
				}
			}
		}
		used[name] = true
		names[j] = name
	}
	return names
}
