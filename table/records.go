package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// missingTokens are cell values that are read as missing.
var missingTokens = map[string]struct{}{
	"":    {},
	"NA":  {},
	"NaN": {},
	"nan": {},
	"N/A": {},
}

// IsMissing reports whether a raw cell is read as a missing value.
func IsMissing(cell string) bool {
	_, ok := missingTokens[strings.TrimSpace(cell)]
	return ok
}

// FromRecords builds a table from a header and rectangular records, using the
// indexCol'th field of each record as the row key. A column is numeric when
// every non-missing cell parses as a float; otherwise it is categorical.
func FromRecords(header []string, records [][]string, indexCol int) (*Table, error) {
	if indexCol < 0 || indexCol >= len(header) {
		return nil, fmt.Errorf("index column %d is out of range for %d header fields", indexCol, len(header))
	}

	rows := make([]string, len(records))
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("record %d has %d fields, expected %d", i+1, len(rec), len(header))
		}
		rows[i] = strings.TrimSpace(rec[indexCol])
	}

	cols := make([]string, 0, len(header)-1)
	data := make([]column, 0, len(header)-1)
	for j, name := range header {
		if j == indexCol {
			continue
		}
		cols = append(cols, strings.TrimSpace(name))
		data = append(data, parseColumn(records, j))
	}

	return newTable(rows, cols, data)
}

func parseColumn(records [][]string, j int) column {
	num := make([]float64, len(records))
	for i, rec := range records {
		cell := strings.TrimSpace(rec[j])
		if IsMissing(cell) {
			num[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return categoricalColumn(records, j)
		}
		num[i] = v
	}

	return column{kind: Numeric, num: num}
}

func categoricalColumn(records [][]string, j int) column {
	cat := make([]null.String, len(records))
	for i, rec := range records {
		cell := strings.TrimSpace(rec[j])
		if IsMissing(cell) {
			continue
		}
		cat[i] = null.StringFrom(cell)
	}

	return column{kind: Categorical, cat: cat}
}
