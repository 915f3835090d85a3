package table

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/pfx"
)

// MissingValue is written for missing cells.
const MissingValue = "NA"

// Write emits t as delimited text: a header row whose first field is
// indexName, then one record per row.
func (t *Table) Write(w io.Writer, delimiter rune, indexName string) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	header := make([]string, 0, len(t.cols)+1)
	header = append(header, indexName)
	header = append(header, t.cols...)
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	rec := make([]string, len(t.cols)+1)
	for i, row := range t.rows {
		rec[0] = row
		for j, c := range t.data {
			v := c.stringAt(i)
			if !v.Valid {
				rec[j+1] = MissingValue
				continue
			}
			rec[j+1] = v.String
		}
		if err := cw.Write(rec); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}

// WriteTSV is Write with a tab delimiter.
func (t *Table) WriteTSV(w io.Writer, indexName string) error {
	return t.Write(w, '\t', indexName)
}
