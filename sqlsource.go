package flotilla

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/carbocation/flotilla/table"
)

// parseSQLiteLocation splits sqlite://path/to/file.db?table=name into the
// database path and the table name.
func parseSQLiteLocation(location string) (path, tableName string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", pfx.Err(err)
	}

	path = ExpandHome(u.Host + u.Path)
	tableName = u.Query().Get("table")
	if path == "" || tableName == "" {
		return "", "", fmt.Errorf("expected sqlite://<path>?table=<name>, got %s", location)
	}

	return path, tableName, nil
}

func (l *Loader) loadSQLite(ctx context.Context, spec LoadSpec) (*table.Table, error) {
	path, tableName, err := parseSQLiteLocation(spec.Location)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer db.Close()

	return LoadSQL(ctx, db, tableName, spec.IndexColumn)
}

// LoadSQL reads every row of a database table. The column named indexColumn,
// or the first column when it is empty, holds the row keys.
func LoadSQL(ctx context.Context, db *sqlx.DB, tableName, indexColumn string) (*table.Table, error) {
	rows, err := db.QueryxContext(ctx, "SELECT * FROM "+quoteIdentifier(tableName))
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, pfx.Err(err)
	}

	records := [][]string{header}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, pfx.Err(err)
		}
		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = cellString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return fromRecords(records, indexColumn)
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// cellString renders a database value the way it would appear in a text
// table. NULL becomes the empty string, which reads as missing.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}

	return fmt.Sprint(v)
}
