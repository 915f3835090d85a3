package flotilla

import (
	"fmt"
	"sort"
	"strings"
)

// Layout is a named set of defaults for reading one kind of delimited file.
type Layout struct {
	Delimiter   rune
	Comment     rune
	SkipLines   int
	IndexColumn string
	DropColumns []string
}

var Layouts = map[string]Layout{
	"tsv": {
		Delimiter: '\t',
	},
	"csv": {
		Delimiter: ',',
	},
	// MISO summaries and most splicing callers write tab-delimited output
	// with commented preambles.
	"miso": {
		Delimiter: '\t',
		Comment:   '#',
	},
	// GCT expression matrices carry a version line and a dimension line
	// before the header, and a Description column after Name.
	"gct": {
		Delimiter:   '\t',
		SkipLines:   2,
		IndexColumn: "Name",
		DropColumns: []string{"Description"},
	},
}

func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}

// resolve fills every unset field of spec from its named layout.
func (spec LoadSpec) resolve() (LoadSpec, error) {
	if spec.Layout == "" {
		return spec, nil
	}

	l, exists := Layouts[spec.Layout]
	if !exists {
		return spec, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", spec.Layout, LayoutNames())
	}

	if spec.Delimiter == 0 {
		spec.Delimiter = l.Delimiter
	}
	if spec.Comment == 0 {
		spec.Comment = l.Comment
	}
	if spec.SkipLines == 0 {
		spec.SkipLines = l.SkipLines
	}
	if spec.IndexColumn == "" {
		spec.IndexColumn = l.IndexColumn
	}
	if spec.DropColumns == nil {
		spec.DropColumns = l.DropColumns
	}

	return spec, nil
}
