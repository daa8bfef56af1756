package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gostat/domain/dataset"
	"gostat/internal/errors"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Reader decodes uploaded CSV and Excel files into datasets. Format is
// chosen by file extension; the content decides whether decoding succeeds.
type Reader struct {
	maxBytes int64
}

// NewReader creates a reader. maxBytes caps the upload size; zero or
// negative means no cap.
func NewReader(maxBytes int64) *Reader {
	return &Reader{maxBytes: maxBytes}
}

// Read parses one uploaded file into an immutable Dataset. The whole
// file is buffered first so the CSV path can retry decoding from the
// start with a different encoding.
func (r *Reader) Read(ctx context.Context, filename string, src io.Reader) (*dataset.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var kind string
	switch ext {
	case ".csv":
		kind = "csv"
	case ".xlsx", ".xls":
		kind = "excel"
	default:
		return nil, errors.UnsupportedFile(ext)
	}

	log.Printf("[tabular] reading %s file: %s", kind, filename)

	raw, err := r.readAll(src)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch kind {
	case "csv":
		rows, err = r.readCSVRows(raw)
	case "excel":
		rows, err = r.readExcelRows(raw)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, errors.DecodeFailed("file must have at least a header row and one data row", nil)
	}

	ds := dataset.New(filename, rows[0], rows[1:])
	nRows, nCols := ds.Shape()
	log.Printf("[tabular] %s file processed (%d columns, %d rows)", strings.ToUpper(kind), nCols, nRows)

	if len(ds.NumericColumns()) == 0 {
		return nil, errors.NoNumericColumns()
	}

	return ds, nil
}

func (r *Reader) readAll(src io.Reader) ([]byte, error) {
	limit := r.maxBytes
	if limit <= 0 {
		raw, err := io.ReadAll(src)
		if err != nil {
			return nil, errors.DecodeFailed("failed to read upload", err)
		}
		return raw, nil
	}
	raw, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, errors.DecodeFailed("failed to read upload", err)
	}
	if int64(len(raw)) > limit {
		return nil, errors.InvalidInput("file exceeds the upload size limit")
	}
	return raw, nil
}

// readCSVRows decodes the buffer as UTF-8, retrying once as Latin-1 when
// the bytes are not valid UTF-8. Latin-1 maps every byte, so only a
// structural CSV problem can fail after the retry.
func (r *Reader) readCSVRows(raw []byte) ([][]string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")) // UTF-8 BOM

	if !utf8.Valid(raw) {
		log.Printf("[tabular] upload is not valid UTF-8, retrying as Latin-1")
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, errors.DecodeFailed("could not decode CSV file as UTF-8 or Latin-1", err)
		}
		raw = decoded
	}

	readStart := time.Now()
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.DecodeFailed("could not parse CSV file", err)
	}
	log.Printf("[tabular] CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return rows, nil
}

// readExcelRows delegates workbook parsing to excelize and reads the
// first sheet. Workbooks excelize cannot open, legacy .xls content
// included, surface as decode failures.
func (r *Reader) readExcelRows(raw []byte) ([][]string, error) {
	openStart := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.DecodeFailed("could not open workbook", err)
	}
	defer f.Close()
	log.Printf("[tabular] workbook opened in %.2fms", float64(time.Since(openStart).Nanoseconds())/1e6)

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DecodeFailed("workbook has no sheets", nil)
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.DecodeFailed("failed to read sheet "+sheets[0], err)
	}
	log.Printf("[tabular] sheet %s read in %.2fms (%d rows)", sheets[0], float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return rows, nil
}
