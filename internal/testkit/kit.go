// Package testkit provides deterministic fixture data for tests and
// for the sample-dataset flow in the UI.
package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/xuri/excelize/v2"

	"gostat/domain/dataset"
)

// GeneratorConfig controls the synthetic housing table.
type GeneratorConfig struct {
	Rows        int
	Seed        int64
	MissingRate float64
	Regions     []string
}

// DefaultGeneratorConfig returns settings that produce a small table
// with visible structure: price rises with area and bedrooms, falls
// with age, and shifts by region.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:        120,
		Seed:        42,
		MissingRate: 0.02,
		Regions:     []string{"north", "south", "east", "west"},
	}
}

// TestKit builds fixture datasets and upload payloads.
type TestKit struct {
	config GeneratorConfig
}

func NewTestKit() *TestKit {
	return &TestKit{config: DefaultGeneratorConfig()}
}

func NewTestKitWithConfig(config GeneratorConfig) *TestKit {
	return &TestKit{config: config}
}

var housingHeader = []string{"price", "area", "bedrooms", "age", "region"}

// HousingTable generates the synthetic table as raw cells, the same
// shape an uploaded CSV would decode to. The same seed always yields
// the same table.
func (k *TestKit) HousingTable() ([]string, [][]string) {
	rng := rand.New(rand.NewSource(k.config.Seed))

	rows := make([][]string, 0, k.config.Rows)
	for i := 0; i < k.config.Rows; i++ {
		area := 60 + rng.Float64()*180
		bedrooms := 1 + rng.Intn(5)
		age := rng.Intn(60)
		regionIdx := rng.Intn(len(k.config.Regions))

		price := 1200*area +
			8000*float64(bedrooms) -
			350*float64(age) +
			15000*float64(regionIdx) +
			rng.NormFloat64()*9000

		row := []string{
			strconv.FormatFloat(price, 'f', 0, 64),
			strconv.FormatFloat(area, 'f', 1, 64),
			strconv.Itoa(bedrooms),
			strconv.Itoa(age),
			k.config.Regions[regionIdx],
		}
		if rng.Float64() < k.config.MissingRate {
			row[3] = ""
		}
		rows = append(rows, row)
	}
	return housingHeader, rows
}

// HousingDataset returns the synthetic table as a typed dataset.
func (k *TestKit) HousingDataset() *dataset.Dataset {
	header, rows := k.HousingTable()
	return dataset.New("sample_housing.csv", header, rows)
}

// HousingCSV renders the synthetic table as CSV upload bytes.
func (k *TestKit) HousingCSV() []byte {
	header, rows := k.HousingTable()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(header)
	for _, row := range rows {
		w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

// HousingXLSX renders the synthetic table as a single-sheet workbook.
func (k *TestKit) HousingXLSX() ([]byte, error) {
	header, rows := k.HousingTable()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for c, name := range header {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
