package flotilla

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"

	"github.com/carbocation/flotilla/table"
)

// parseBigQueryLocation splits bq://project/dataset.table.
func parseBigQueryLocation(location string) (project, dataset, tableName string, err error) {
	parts := strings.SplitN(strings.TrimPrefix(location, "bq://"), "/", 2)
	if len(parts) != 2 {
		return "", "", "", fmt.Errorf("expected bq://<project>/<dataset>.<table>, got %s", location)
	}

	dt := strings.SplitN(parts[1], ".", 2)
	if parts[0] == "" || len(dt) != 2 || dt[0] == "" || dt[1] == "" {
		return "", "", "", fmt.Errorf("expected bq://<project>/<dataset>.<table>, got %s", location)
	}

	return parts[0], dt[0], dt[1], nil
}

func (l *Loader) loadBigQuery(ctx context.Context, spec LoadSpec) (*table.Table, error) {
	if l.BigQuery == nil {
		return nil, fmt.Errorf("%s: %w", spec.Location, ErrNoClient)
	}

	project, dataset, tableName, err := parseBigQueryLocation(spec.Location)
	if err != nil {
		return nil, err
	}

	query := l.BigQuery.Query(fmt.Sprintf("SELECT * FROM `%s.%s.%s`", project, dataset, tableName))
	itr, err := query.Read(ctx)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var records [][]string
	for {
		var values []bigquery.Value
		err := itr.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}

		if records == nil {
			records = append(records, schemaHeader(itr.Schema))
		}

		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = cellString(v)
		}
		records = append(records, rec)
	}

	if records == nil {
		// No rows; the schema still names the columns.
		records = append(records, schemaHeader(itr.Schema))
	}

	return fromRecords(records, spec.IndexColumn)
}

func schemaHeader(schema bigquery.Schema) []string {
	header := make([]string, len(schema))
	for i, field := range schema {
		header[i] = field.Name
	}
	return header
}
