package tabular

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"gostat/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	r := NewReader(0)
	ds, err := r.Read(context.Background(), "people.csv",
		strings.NewReader("age,income,city\n25,30000,Austin\n30,40000,Boston\n"))

	assert.NoError(t, err)
	assert.NotNil(t, ds)

	rows, cols := ds.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"age", "income"}, ds.NumericColumns())
}

func TestReadCSVLatin1Fallback(t *testing.T) {
	// 0xe9 is é in Latin-1 and invalid UTF-8
	raw := "city,temp\ncaf\xe9,20\nlyon,22\n"

	r := NewReader(0)
	ds, err := r.Read(context.Background(), "temps.csv", strings.NewReader(raw))

	assert.NoError(t, err)
	city, ok := ds.Column("city")
	assert.True(t, ok)
	assert.Equal(t, "café", city.Texts[0])
	assert.Equal(t, []string{"temp"}, ds.NumericColumns())
}

func TestReadCSVWithBOM(t *testing.T) {
	r := NewReader(0)
	ds, err := r.Read(context.Background(), "bom.csv",
		strings.NewReader("\xef\xbb\xbfv\n1\n2\n"))

	assert.NoError(t, err)
	assert.Equal(t, []string{"v"}, ds.Names())
}

func TestReadUnsupportedExtension(t *testing.T) {
	r := NewReader(0)
	ds, err := r.Read(context.Background(), "data.json", strings.NewReader(`{"a":1}`))

	assert.Nil(t, ds)
	assert.Error(t, err)
	assert.Equal(t, errors.CodeUnsupportedFile, errors.GetCode(err))
	assert.True(t, errors.IsTerminal(err))
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestReadNoNumericColumns(t *testing.T) {
	r := NewReader(0)
	ds, err := r.Read(context.Background(), "names.csv",
		strings.NewReader("first,last\nada,lovelace\nalan,turing\n"))

	assert.Nil(t, ds)
	assert.Equal(t, errors.CodeNoNumericColumns, errors.GetCode(err))
	assert.True(t, errors.IsTerminal(err))
}

func TestReadHeaderOnlyCSV(t *testing.T) {
	r := NewReader(0)
	_, err := r.Read(context.Background(), "empty.csv", strings.NewReader("a,b,c\n"))

	assert.Equal(t, errors.CodeDecodeFailed, errors.GetCode(err))
}

func TestReadRaggedCSV(t *testing.T) {
	r := NewReader(0)
	ds, err := r.Read(context.Background(), "ragged.csv",
		strings.NewReader("a,b\n1,2\n3\n"))

	assert.NoError(t, err)
	b, _ := ds.Column("b")
	assert.Equal(t, 1, b.Missing())
}

func TestReadUploadSizeCap(t *testing.T) {
	r := NewReader(8)
	_, err := r.Read(context.Background(), "big.csv",
		strings.NewReader("a,b\n1,2\n3,4\n5,6\n"))

	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadXLSX(t *testing.T) {
	raw := buildWorkbook(t, [][]interface{}{
		{"age", "income"},
		{25, 30000},
		{30, 40000},
		{35, nil},
	})

	r := NewReader(0)
	ds, err := r.Read(context.Background(), "people.xlsx", bytes.NewReader(raw))

	assert.NoError(t, err)
	rows, cols := ds.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []string{"age", "income"}, ds.NumericColumns())

	income, _ := ds.Column("income")
	assert.Equal(t, 1, income.Missing())
}

func TestReadXLSBadContent(t *testing.T) {
	// extension accepted, content rejected by the workbook parser
	r := NewReader(0)
	_, err := r.Read(context.Background(), "legacy.xls", strings.NewReader("not a workbook"))

	assert.Equal(t, errors.CodeDecodeFailed, errors.GetCode(err))
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			assert.NoError(t, err)
			assert.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	assert.NoError(t, err)
	return buf.Bytes()
}
