package flotilla

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// delimiterFromExtension guesses the delimiter from a location's extension,
// looking through a trailing compression suffix. It returns 0 if the extension
// is not informative.
func delimiterFromExtension(location string) rune {
	location = strings.ToLower(location)
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	for _, suffix := range []string{".gz", ".bz2", ".xz", ".zip", ".z"} {
		location = strings.TrimSuffix(location, suffix)
	}

	switch filepath.Ext(location) {
	case ".tsv", ".tab", ".txt":
		return '\t'
	case ".csv":
		return ','
	}

	return 0
}
