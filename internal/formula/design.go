package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"gostat/domain/dataset"
	"gostat/internal/errors"
)

// transforms are the numeric functions a formula may apply to a column
var transforms = map[string]func(float64) float64{
	"log":   math.Log,
	"log2":  math.Log2,
	"log10": math.Log10,
	"log1p": math.Log1p,
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"abs":   math.Abs,
}

func transformList() string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Design is the numeric realization of a formula against one dataset:
// the response vector and the expanded predictor matrix with the
// intercept in column 0, rows with any missing value already dropped.
type Design struct {
	Source    string
	Response  string
	TermNames []string
	Y         []float64
	X         *mat.Dense
	N         int
}

// BuildDesign parses the formula and expands it against the dataset.
// Every error is phrased for direct display: unknown columns name the
// offender, all-missing columns are called out, and syntax problems
// explain what was expected.
func BuildDesign(ds *dataset.Dataset, source string) (*Design, error) {
	parsed, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return parsed.Realize(ds)
}

// Realize expands a parsed formula against a dataset
func (p *Parsed) Realize(ds *dataset.Dataset) (*Design, error) {
	if err := checkReferences(ds, p); err != nil {
		return nil, err
	}

	b := &builder{ds: ds, rows: ds.Rows()}

	yCol, err := b.expandNumeric(p.Response)
	if err != nil {
		return nil, err
	}

	termNames := []string{"Intercept"}
	intercept := make([]float64, b.rows)
	for i := range intercept {
		intercept[i] = 1
	}
	columns := [][]float64{intercept}

	for _, term := range p.Terms {
		expanded, err := b.expand(term)
		if err != nil {
			return nil, err
		}
		for _, col := range expanded {
			termNames = append(termNames, col.name)
			columns = append(columns, col.values)
		}
	}

	// Listwise deletion: a row survives only when the response and every
	// design cell are finite.
	y := yCol.values
	keep := make([]int, 0, b.rows)
	for i := 0; i < b.rows; i++ {
		if !isFinite(y[i]) {
			continue
		}
		ok := true
		for _, col := range columns {
			if !isFinite(col[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	if len(keep) == 0 {
		return nil, errors.InsufficientData("no complete observations remain after dropping missing values")
	}

	n := len(keep)
	k := len(columns)
	x := mat.NewDense(n, k, nil)
	yOut := make([]float64, n)
	for r, src := range keep {
		yOut[r] = y[src]
		for c := 0; c < k; c++ {
			x.Set(r, c, columns[c][src])
		}
	}

	return &Design{
		Source:    p.Source,
		Response:  yCol.name,
		TermNames: termNames,
		Y:         yOut,
		X:         x,
		N:         n,
	}, nil
}

// checkReferences validates every referenced column up front so the
// error names the first problem instead of a downstream symptom
func checkReferences(ds *dataset.Dataset, p *Parsed) error {
	refs := collectRefs(p.Response, nil)
	for _, term := range p.Terms {
		refs = collectRefs(term, refs)
	}

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if seen[ref.name] {
			continue
		}
		seen[ref.name] = true

		col, ok := ds.Column(ref.name)
		if !ok {
			return errors.UnknownColumn(ref.name)
		}
		if col.Missing() == ds.Rows() {
			return errors.AllMissing(ref.name)
		}
	}
	return nil
}

func collectRefs(n node, acc []*colRef) []*colRef {
	switch v := n.(type) {
	case *colRef:
		return append(acc, v)
	case *catNode:
		return append(acc, v.arg)
	case *funcNode:
		return collectRefs(v.arg, acc)
	case *interNode:
		for _, part := range v.parts {
			acc = collectRefs(part, acc)
		}
		return acc
	}
	return acc
}

// designColumn is one expanded column before listwise deletion
type designColumn struct {
	name   string
	values []float64
}

type builder struct {
	ds   *dataset.Dataset
	rows int
}

func (b *builder) expand(n node) ([]designColumn, error) {
	switch v := n.(type) {
	case *colRef:
		col, _ := b.ds.Column(v.name)
		if col.IsNumeric() {
			values := make([]float64, b.rows)
			copy(values, col.Floats)
			return []designColumn{{name: v.canonical(), values: values}}, nil
		}
		// bare reference to a text column codes it categorically
		return b.dummyCode(col, v.canonical())

	case *catNode:
		col, _ := b.ds.Column(v.arg.name)
		return b.dummyCode(col, v.canonical())

	case *funcNode:
		col, err := b.expandNumeric(v)
		if err != nil {
			return nil, err
		}
		return []designColumn{col}, nil

	case *interNode:
		expansions := make([][]designColumn, len(v.parts))
		for i, part := range v.parts {
			cols, err := b.expand(part)
			if err != nil {
				return nil, err
			}
			expansions[i] = cols
		}
		product := expansions[0]
		for _, next := range expansions[1:] {
			product = b.cross(product, next)
		}
		return product, nil
	}
	return nil, errors.FormulaParse("unsupported term")
}

// expandNumeric evaluates a node that must yield exactly one numeric
// column: a bare numeric reference or a transform chain over one
func (b *builder) expandNumeric(n node) (designColumn, error) {
	switch v := n.(type) {
	case *colRef:
		col, _ := b.ds.Column(v.name)
		if !col.IsNumeric() {
			return designColumn{}, errors.FormulaParse(fmt.Sprintf("column %q is not numeric", v.name))
		}
		values := make([]float64, b.rows)
		copy(values, col.Floats)
		return designColumn{name: v.canonical(), values: values}, nil

	case *funcNode:
		inner, err := b.expandNumeric(v.arg)
		if err != nil {
			return designColumn{}, err
		}
		fn := transforms[v.fn]
		values := make([]float64, b.rows)
		for i, x := range inner.values {
			values[i] = fn(x)
		}
		return designColumn{name: v.canonical(), values: values}, nil

	case *catNode:
		return designColumn{}, errors.FormulaParse("a categorical C(...) term cannot stand where a single numeric column is required")
	}
	return designColumn{}, errors.FormulaParse("expected a numeric column")
}

// cross multiplies two expansions elementwise, all combinations
func (b *builder) cross(left, right []designColumn) []designColumn {
	out := make([]designColumn, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			values := make([]float64, b.rows)
			for i := range values {
				values[i] = l.values[i] * r.values[i]
			}
			out = append(out, designColumn{name: l.name + ":" + r.name, values: values})
		}
	}
	return out
}

// dummyCode expands a column into indicator columns, dropping the first
// level as the reference. Term names follow the C(col)[T.level] shape
// the reference tooling prints.
func (b *builder) dummyCode(col *dataset.Column, display string) ([]designColumn, error) {
	labels, rowLevel := categoricalLevels(col)
	if len(labels) < 2 {
		return nil, errors.InsufficientData(fmt.Sprintf("column %q has fewer than two levels to code", col.Name))
	}

	out := make([]designColumn, 0, len(labels)-1)
	for _, label := range labels[1:] {
		values := make([]float64, b.rows)
		for i := 0; i < b.rows; i++ {
			switch {
			case rowLevel[i] == "":
				values[i] = math.NaN()
			case rowLevel[i] == label:
				values[i] = 1
			default:
				values[i] = 0
			}
		}
		out = append(out, designColumn{
			name:   fmt.Sprintf("%s[T.%s]", display, label),
			values: values,
		})
	}
	return out, nil
}

// categoricalLevels returns the sorted level labels and each row's
// label ("" marks missing). Numeric columns sort numerically before
// labels are formatted.
func categoricalLevels(col *dataset.Column) ([]string, []string) {
	rows := len(col.Texts)
	rowLevel := make([]string, rows)

	if col.IsNumeric() {
		distinct := make(map[float64]bool)
		for _, v := range col.Floats {
			if !math.IsNaN(v) {
				distinct[v] = true
			}
		}
		values := make([]float64, 0, len(distinct))
		for v := range distinct {
			values = append(values, v)
		}
		sort.Float64s(values)

		labels := make([]string, len(values))
		byValue := make(map[float64]string, len(values))
		for i, v := range values {
			labels[i] = strconv.FormatFloat(v, 'g', -1, 64)
			byValue[v] = labels[i]
		}
		for i, v := range col.Floats {
			if math.IsNaN(v) {
				rowLevel[i] = ""
			} else {
				rowLevel[i] = byValue[v]
			}
		}
		return labels, rowLevel
	}

	labels := col.Levels()
	copy(rowLevel, col.Texts)
	return labels, rowLevel
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
