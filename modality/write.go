package modality

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// WriteTSV writes assignments as a tab-delimited table with a header row.
func WriteTSV(w io.Writer, assignments []Assignment) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := gocsv.MarshalCSV(&assignments, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return pfx.Err(err)
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}
