package table

import (
	"fmt"
	"strings"
)

// Axis names one of the two dimensions of a Table.
type Axis byte

const (
	Rows Axis = iota
	Columns
)

func (a Axis) String() string {
	if a == Rows {
		return "row"
	}
	return "column"
}

// MissingKeyError is returned when keys are requested that the table does not
// hold. Keys lists every missing key in the order it was requested.
type MissingKeyError struct {
	Axis Axis
	Keys []string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s key(s) not found: %s", e.Axis, strings.Join(e.Keys, ", "))
}

type DuplicateKeyError struct {
	Axis Axis
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s key %q", e.Axis, e.Key)
}
