package flotilla

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"go.uber.org/zap"

	"github.com/carbocation/flotilla/table"
)

// ErrNoClient is the cause of a LoadError for a gs:// or bq:// location when
// the Loader was built without the matching client.
var ErrNoClient = errors.New("no client is configured for this kind of location")

// LoadSpec says where a table lives and how to read it. Only Location is
// required.
type LoadSpec struct {
	Location string

	// Layout names an entry of Layouts whose values fill any unset field
	// below.
	Layout string

	// Delimiter of 0 means: use the extension, or sniff the content.
	Delimiter rune
	Comment   rune

	// SkipLines are discarded before the header row.
	SkipLines int

	// IndexColumn names the column holding row keys. The first column is
	// used when empty.
	IndexColumn string

	DropColumns []string
}

// Spec is shorthand for a LoadSpec with only a location.
func Spec(location string) *LoadSpec {
	return &LoadSpec{Location: location}
}

// LoadError reports a table that could not be fetched or parsed.
type LoadError struct {
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Location, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads tables from local files, http(s) URLs, gs:// objects,
// sqlite:// databases and bq:// tables. The zero value reads local files and
// URLs.
type Loader struct {
	HTTPClient *http.Client
	Storage    *storage.Client
	BigQuery   *bigquery.Client
	Logger     *zap.Logger
}

type LoaderOption func(*Loader)

func WithHTTPClient(c *http.Client) LoaderOption { return func(l *Loader) { l.HTTPClient = c } }

func WithStorage(c *storage.Client) LoaderOption { return func(l *Loader) { l.Storage = c } }

func WithBigQuery(c *bigquery.Client) LoaderOption { return func(l *Loader) { l.BigQuery = c } }

func WithLogger(logger *zap.Logger) LoaderOption { return func(l *Loader) { l.Logger = logger } }

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var defaultLoader = NewLoader()

// Load reads a table with a Loader that has no cloud clients.
func Load(ctx context.Context, spec LoadSpec) (*table.Table, error) {
	return defaultLoader.Load(ctx, spec)
}

// Load fetches and parses the table described by spec. Every failure is a
// *LoadError wrapping its cause.
func (l *Loader) Load(ctx context.Context, spec LoadSpec) (*table.Table, error) {
	if spec.Location == "" {
		return nil, &LoadError{Err: errors.New("no location was given")}
	}

	t, err := l.load(ctx, spec)
	if err != nil {
		return nil, &LoadError{Location: spec.Location, Err: err}
	}

	l.logger().Debug("loaded table",
		zap.String("location", spec.Location),
		zap.Int("rows", t.NRows()),
		zap.Int("columns", t.NCols()))

	return t, nil
}

func (l *Loader) load(ctx context.Context, spec LoadSpec) (*table.Table, error) {
	spec, err := spec.resolve()
	if err != nil {
		return nil, err
	}

	var t *table.Table
	switch {
	case strings.HasPrefix(spec.Location, "sqlite://"):
		t, err = l.loadSQLite(ctx, spec)
	case strings.HasPrefix(spec.Location, "bq://"):
		t, err = l.loadBigQuery(ctx, spec)
	default:
		var rc io.ReadCloser
		rc, err = l.open(ctx, spec.Location)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		t, err = readDelimited(rc, spec)
	}
	if err != nil {
		return nil, err
	}

	if len(spec.DropColumns) > 0 {
		t = t.DropColumns(spec.DropColumns)
	}

	return t, nil
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// open returns the raw byte stream behind a gs://, http(s):// or local
// location.
func (l *Loader) open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(location, "gs://"):
		return OpenGoogleStorage(ctx, l.Storage, location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return l.openURL(ctx, location)
	}

	f, err := os.Open(ExpandHome(location))
	if err != nil {
		return nil, pfx.Err(err)
	}
	return f, nil
}

func (l *Loader) openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pfx.Err(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	return resp.Body, nil
}

// readDelimited parses a possibly compressed delimited text stream.
func readDelimited(r io.Reader, spec LoadSpec) (*table.Table, error) {
	dr, err := MaybeDecompress(r)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(dr)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if !utf8.Valid(body) || bytes.IndexByte(body, 0) >= 0 {
		return nil, errors.New("the content is not delimited text; it may be compressed in an unrecognized format")
	}
	body, err = skipLines(body, spec.SkipLines)
	if err != nil {
		return nil, err
	}

	delim := spec.Delimiter
	if delim == 0 {
		delim = delimiterFromExtension(spec.Location)
	}
	if delim == 0 {
		delim = DetermineDelimiter(bytes.NewReader(body))
	}

	cr := csv.NewReader(bytes.NewReader(body))
	cr.Comma = delim
	cr.Comment = spec.Comment
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	return fromRecords(records, spec.IndexColumn)
}

// fromRecords turns a header-first record set into a table. A header that is
// exactly one field short is missing the name of its index column.
func fromRecords(records [][]string, indexColumn string) (*table.Table, error) {
	if len(records) == 0 {
		return nil, errors.New("no header row was found")
	}

	header, rows := records[0], records[1:]
	if len(rows) > 0 && len(header) == len(rows[0])-1 {
		header = append([]string{""}, header...)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("the header row has %d field(s); a table needs an index column and at least one data column", len(header))
	}

	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d has %d fields but the header has %d; the table is not rectangular", i+2, len(row), len(header))
		}
	}

	indexCol := 0
	if indexColumn != "" {
		indexCol = -1
		for j, name := range header {
			if strings.TrimSpace(name) == indexColumn {
				indexCol = j
				break
			}
		}
		if indexCol < 0 {
			return nil, fmt.Errorf("index column %q is not in the header", indexColumn)
		}
	}

	return table.FromRecords(header, rows, indexCol)
}

func skipLines(body []byte, n int) ([]byte, error) {
	if n <= 0 {
		return body, nil
	}

	br := bufio.NewReader(bytes.NewReader(body))
	for i := 0; i < n; i++ {
		if _, err := br.ReadBytes('\n'); err != nil {
			return nil, fmt.Errorf("expected %d preamble lines, found %d", n, i)
		}
	}

	return io.ReadAll(br)
}
