// Package modality classifies splicing events by the shape of their
// percent-spliced-in (PSI) distribution across samples.
//
// Each modality is a family of Beta distributions on [0, 1], indexed by a
// = 2, 3, ..., 20:
//
//	included  Beta(a, 1)      mass near 1
//	excluded  Beta(1, a)      mass near 0
//	middle    Beta(a, a)      mass near 0.5
//	uniform   Beta(1, 1)      flat, the only member of its family
//	bimodal   Beta(1/a, 1/a)  mass at both ends
//
// A family scores an event by the best total log-likelihood of its members,
// and the event is assigned the family with the highest score.
package modality

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/carbocation/flotilla/table"
)

const (
	Included  = "included"
	Excluded  = "excluded"
	Middle    = "middle"
	Uniform   = "uniform"
	Bimodal   = "bimodal"
	Ambiguous = "ambiguous"
)

// Model is one candidate family of distributions.
type Model struct {
	Name  string
	Dists []distuv.Beta
}

// family builds the members of a family for a = 2..20.
func family(params func(a float64) (alpha, beta float64)) []distuv.Beta {
	out := make([]distuv.Beta, 0, 19)
	for a := 2.0; a <= 20; a++ {
		alpha, beta := params(a)
		out = append(out, distuv.Beta{Alpha: alpha, Beta: beta})
	}
	return out
}

// Models lists the candidates. Ties go to the earlier entry.
var Models = []Model{
	{Included, family(func(a float64) (float64, float64) { return a, 1 })},
	{Excluded, family(func(a float64) (float64, float64) { return 1, a })},
	{Middle, family(func(a float64) (float64, float64) { return a, a })},
	{Uniform, []distuv.Beta{{Alpha: 1, Beta: 1}}},
	{Bimodal, family(func(a float64) (float64, float64) { return 1 / a, 1 / a })},
}

// DefaultMinSamples is the number of observed values below which an event is
// Ambiguous.
const DefaultMinSamples = 10

// epsilon keeps values off 0 and 1, where the bimodal family's density is
// unbounded.
const epsilon = 0.01

// Assignment is the modality of one event, optionally within one group of
// samples.
type Assignment struct {
	Event         string  `csv:"event"`
	Group         string  `csv:"group"`
	Modality      string  `csv:"modality"`
	N             int     `csv:"n"`
	LogLikelihood float64 `csv:"log_likelihood"`
}

// Assigner classifies events.
type Assigner struct {
	MinSamples int
}

func New(minSamples int) *Assigner {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &Assigner{MinSamples: minSamples}
}

// Classify returns the best modality for a set of PSI values. Missing values
// are skipped; values outside [0, 1] are an error.
func (a *Assigner) Classify(psi []float64) (modality string, n int, logLikelihood float64, err error) {
	values := make([]float64, 0, len(psi))
	for _, v := range psi {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 1 {
			return "", 0, 0, fmt.Errorf("PSI value %v is outside [0, 1]", v)
		}
		values = append(values, math.Min(math.Max(v, epsilon), 1-epsilon))
	}

	n = len(values)
	if n < a.MinSamples {
		return Ambiguous, n, math.NaN(), nil
	}

	best, bestLL := "", math.Inf(-1)
	for _, m := range Models {
		if ll := m.score(values); ll > bestLL {
			best, bestLL = m.Name, ll
		}
	}

	return best, n, bestLL, nil
}

// score is the best total log-likelihood of values under any member of m.
func (m Model) score(values []float64) float64 {
	best := math.Inf(-1)
	for _, d := range m.Dists {
		var ll float64
		for _, v := range values {
			ll += d.LogProb(v)
		}
		best = math.Max(best, ll)
	}
	return best
}

// Assign classifies every column (event) of a samples-by-events table.
func (a *Assigner) Assign(psi *table.Table) ([]Assignment, error) {
	return a.assign(psi, "")
}

func (a *Assigner) assign(psi *table.Table, group string) ([]Assignment, error) {
	events := psi.Columns()
	out := make([]Assignment, 0, len(events))
	for _, event := range events {
		values, err := psi.NumericColumn(event)
		if err != nil {
			return nil, err
		}
		m, n, ll, err := a.Classify(values)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", event, err)
		}
		out = append(out, Assignment{
			Event:         event,
			Group:         group,
			Modality:      m,
			N:             n,
			LogLikelihood: ll,
		})
	}
	return out, nil
}

// Group is a named set of samples.
type Group struct {
	Name    string
	Samples []string
}

// AssignGroups classifies every event separately within each group. Results
// are ordered by group, then by event.
func (a *Assigner) AssignGroups(psi *table.Table, groups []Group) ([]Assignment, error) {
	var out []Assignment
	for _, g := range groups {
		sub, err := psi.Subset(g.Samples, nil)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
		assigned, err := a.assign(sub, g.Name)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
		out = append(out, assigned...)
	}
	return out, nil
}

// Counts tallies assignments by modality.
func Counts(assignments []Assignment) map[string]int {
	out := make(map[string]int)
	for _, a := range assignments {
		out[a.Modality]++
	}
	return out
}
