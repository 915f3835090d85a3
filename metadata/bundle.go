package metadata

import (
	"fmt"

	"github.com/carbocation/flotilla/table"
)

// Kind names a slot of a Bundle.
type Kind byte

const (
	Sample Kind = iota
	Gene
	Event
	Expression
)

var kindNames = [...]string{
	Sample:     "sample",
	Gene:       "gene",
	Event:      "event",
	Expression: "expression",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Kinds lists every slot kind in bundle order.
func Kinds() []Kind { return []Kind{Sample, Gene, Event, Expression} }

// Slot is either Present, holding a table, or Absent. The zero value is
// Absent.
type Slot struct {
	t *table.Table
}

func Present(t *table.Table) Slot { return Slot{t: t} }

func Absent() Slot { return Slot{} }

func (s Slot) IsPresent() bool { return s.t != nil }

// Get returns the table and whether it is present.
func (s Slot) Get() (*table.Table, bool) { return s.t, s.t != nil }

// Bundle is the immutable set of descriptor tables of a study.
type Bundle struct {
	sample     Slot
	gene       Slot
	event      Slot
	expression Slot
}

// NewBundle assembles a bundle from already loaded slots.
func NewBundle(sample, gene, event Slot) *Bundle {
	return &Bundle{sample: sample, gene: gene, event: event}
}

func (b *Bundle) Sample() Slot { return b.sample }

func (b *Bundle) Gene() Slot { return b.gene }

func (b *Bundle) Event() Slot { return b.event }

func (b *Bundle) Expression() Slot { return b.expression }

// Slot returns the slot of the given kind.
func (b *Bundle) Slot(k Kind) Slot {
	switch k {
	case Sample:
		return b.sample
	case Gene:
		return b.gene
	case Event:
		return b.event
	case Expression:
		return b.expression
	}
	return Absent()
}

// WithExpression returns a copy of b whose expression slot is s. b itself is
// unchanged.
func (b *Bundle) WithExpression(s Slot) *Bundle {
	out := *b
	out.expression = s
	return &out
}
